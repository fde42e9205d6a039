// Package hydrogentest provides an in-memory VMInfo server for client tests.
package hydrogentest

import (
	"context"
	"net"
	"sync"
	"testing"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/resolver"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"hydrogen/hydrogen"
)

type PowerCall struct {
	VMID   string
	Action hydrogen.PowerAction
}

// Server answers VMInfo calls from its fields. Power and create requests
// complete at once, successfully unless FailRequests is set. PowerErr refuses
// them.
type Server struct {
	hydrogen.UnimplementedVMInfoServer

	mu           sync.Mutex
	VMs          []hydrogen.VMEntry
	Host         hydrogen.HostInfo
	PowerErr     error
	FailRequests bool
	Calls        []PowerCall
	Creates      []hydrogen.CreateReq
	Statuses     map[string]hydrogen.ReqStatus
}

func (s *Server) PowerCalls() []PowerCall {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]PowerCall(nil), s.Calls...)
}

func (s *Server) find(match func(hydrogen.VMEntry) bool) (hydrogen.VMEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range s.VMs {
		if match(entry) {
			return entry, true
		}
	}

	return hydrogen.VMEntry{}, false
}

func (s *Server) GetVMs(query *hydrogen.VMsQuery, stream hydrogen.VMInfoGetVMsServer) error {
	s.mu.Lock()
	entries := append([]hydrogen.VMEntry(nil), s.VMs...)
	s.mu.Unlock()

	for i := range entries {
		if query.OnlineOnly && !entries[i].Online {
			continue
		}

		err := stream.Send(&entries[i])
		if err != nil {
			return err
		}
	}

	return nil
}

func (s *Server) GetVM(_ context.Context, vmID *hydrogen.VMID) (*hydrogen.VMEntry, error) {
	entry, ok := s.find(func(e hydrogen.VMEntry) bool { return e.UUID == vmID.Value })
	if !ok {
		return nil, status.Errorf(codes.NotFound, "VM %s not found", vmID.Value)
	}

	return &entry, nil
}

func (s *Server) GetVMID(_ context.Context, name *wrapperspb.StringValue) (*hydrogen.VMID, error) {
	entry, ok := s.find(func(e hydrogen.VMEntry) bool { return e.Hostname == name.GetValue() })
	if !ok {
		return nil, status.Errorf(codes.NotFound, "VM %s not found", name.GetValue())
	}

	return &hydrogen.VMID{Value: entry.UUID}, nil
}

func (s *Server) RequestPower(_ context.Context, req *hydrogen.PowerReq) (*hydrogen.RequestID, error) {
	if _, ok := s.find(func(e hydrogen.VMEntry) bool { return e.UUID == req.VMID }); !ok {
		return nil, status.Errorf(codes.NotFound, "VM %s not found", req.VMID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.PowerErr != nil {
		return nil, s.PowerErr
	}

	s.Calls = append(s.Calls, PowerCall{VMID: req.VMID, Action: req.Action})

	return s.completedRequest(), nil
}

// completedRequest records a finished request, s.mu must be held.
func (s *Server) completedRequest() *hydrogen.RequestID {
	reqID := uuid.NewString()

	if s.Statuses == nil {
		s.Statuses = make(map[string]hydrogen.ReqStatus)
	}

	s.Statuses[reqID] = hydrogen.ReqStatus{Complete: true, Success: !s.FailRequests}

	return &hydrogen.RequestID{Value: reqID}
}

// CreateVM validates the request like hydrogend does. A successful create
// adds the VM, offline, with a fresh uuid.
func (s *Server) CreateVM(_ context.Context, req *hydrogen.CreateReq) (*hydrogen.RequestID, error) {
	err := req.Validate()
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if _, ok := s.find(func(e hydrogen.VMEntry) bool { return e.Hostname == req.Hostname }); ok {
		return nil, status.Errorf(codes.AlreadyExists, "VM %s already exists", req.Hostname)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.PowerErr != nil {
		return nil, s.PowerErr
	}

	s.Creates = append(s.Creates, *req)

	if !s.FailRequests {
		s.VMs = append(s.VMs, hydrogen.VMEntry{
			VM: hydrogen.VM{Hostname: req.Hostname, OS: req.OS, UUID: uuid.NewString()},
		})
	}

	return s.completedRequest(), nil
}

func (s *Server) CreateCalls() []hydrogen.CreateReq {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]hydrogen.CreateReq(nil), s.Creates...)
}

func (s *Server) RequestStatus(_ context.Context, reqID *hydrogen.RequestID) (*hydrogen.ReqStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	aStatus, ok := s.Statuses[reqID.Value]
	if !ok {
		return nil, status.Errorf(codes.NotFound, "request %s not found", reqID.Value)
	}

	return &aStatus, nil
}

func (s *Server) GetHostInfo(context.Context, *emptypb.Empty) (*hydrogen.HostInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info := s.Host

	return &info, nil
}

// Dial serves srv over an in-memory listener and returns a client for it.
// Both are torn down when the test ends.
func Dial(t *testing.T, srv hydrogen.VMInfoServer) hydrogen.VMInfoClient {
	t.Helper()

	lis := bufconn.Listen(1024 * 1024)
	s := grpc.NewServer()
	hydrogen.RegisterVMInfoServer(s, srv)

	go func() {
		_ = s.Serve(lis)
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
