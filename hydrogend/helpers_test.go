package main

import (
	"context"
	"log"
	"net"
	"path/filepath"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/resolver"
	"google.golang.org/grpc/test/bufconn"

	"hydrogen/hydrogen"
	"hydrogen/hydrogend/config"
	"hydrogen/hydrogend/requests"
	"hydrogen/hydrogend/vm"
)

// useTestStores points both stores at a fresh sqlite file and empties the
// VM list. Tests using it cannot run in parallel.
func useTestStores(t *testing.T) {
	t.Helper()

	config.Config.DB.Path = filepath.Join(t.TempDir(), "hydrogend.sqlite")

	vm.DBReconfig()
	vm.DBAutoMigrate()
	requests.DBReconfig()
	requests.DBAutoMigrate()

	vm.List.VMList = make(map[string]*vm.VM)
}

func startTestServer(t *testing.T, conn *hvConn) hydrogen.VMInfoClient {
	t.Helper()

	lis := bufconn.Listen(1024 * 1024)
	s := newGRPCServer(conn)

	go func() {
		if err := s.Serve(lis); err != nil {
			log.Fatalf("Server exited with error: %v", err)
		}
	}()

	t.Cleanup(s.Stop)

	resolver.SetDefaultScheme("passthrough")

	clientConn, err := grpc.NewClient("bufnet", grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) {
		return lis.Dial()
	}), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("Failed to dial bufnet: %v", err)
	}

	t.Cleanup(func() {
		_ = clientConn.Close()
	})

	return hydrogen.NewVMInfoClient(clientConn)
}
