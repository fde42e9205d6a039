package rpc

import (
	"fmt"
	"strconv"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"hydrogen/hydrogen"
)

type ReqStatus struct {
	Complete   bool `json:"complete"    yaml:"complete"`
	Success    bool `json:"success"     yaml:"success"`
	InProgress bool `json:"in_progress" yaml:"in_progress"`
}

var (
	ServerName    string
	ServerPort    uint16
	ServerTimeout int64
)

var (
	serverConn   *grpc.ClientConn
	serverClient hydrogen.VMInfoClient
)

func GetConn() error {
	var err error

	serverAddr := ServerName + ":" + strconv.FormatInt(int64(ServerPort), 10)

	if serverConn != nil {
		// already set, assume it's set to the right thing!
		return nil
	}

	serverConn, err = grpc.NewClient(serverAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("unable to connect: %w", err)
	}

	serverClient = hydrogen.NewVMInfoClient(serverConn)

	return nil
}

// SetClient replaces the client used by every helper, for callers that dial
// their own connection.
func SetClient(c hydrogen.VMInfoClient) {
	serverClient = c
}

func Finish() {
	if serverConn != nil {
		_ = serverConn.Close()
		serverConn = nil
	}

	serverClient = nil
}

func Timeout() time.Duration {
	if ServerTimeout <= 0 {
		return 10 * time.Second
	}

	return time.Duration(ServerTimeout) * time.Second
}
