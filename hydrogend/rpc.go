package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"hydrogen/hydrogen"
	"hydrogen/hydrogend/config"
	"hydrogen/hydrogend/requests"
	"hydrogen/hydrogend/vm"
)

type server struct {
	hydrogen.UnimplementedVMInfoServer
	conn *hvConn
	host string
}

var errRequestNil = status.Error(codes.InvalidArgument, "request not specified")

func notFoundErr(resourceType string, name string) error {
	st := status.New(codes.NotFound, fmt.Sprintf("%s %q not found", resourceType, name))

	detailed, err := st.WithDetails(&errdetails.ResourceInfo{
		ResourceType: resourceType,
		ResourceName: name,
		Owner:        "hydrogend",
	})
	if err != nil {
		return st.Err()
	}

	return detailed.Err()
}

func vmLookupErr(id string, err error) error {
	if errors.Is(err, vm.ErrVMNotFound) {
		return notFoundErr("vm", id)
	}

	return status.Error(codes.InvalidArgument, err.Error())
}

func (s *server) GetVMs(query *hydrogen.VMsQuery, stream hydrogen.VMInfoGetVMsServer) error {
	onlineOnly := query != nil && query.OnlineOnly

	for _, aVM := range vm.GetAll() {
		if onlineOnly && !aVM.Online {
			continue
		}

		entry := aVM.Entry()

		err := stream.Send(&entry)
		if err != nil {
			return fmt.Errorf("error sending VM: %w", err)
		}
	}

	return nil
}

func (s *server) GetVM(_ context.Context, vmID *hydrogen.VMID) (*hydrogen.VMEntry, error) {
	if vmID == nil {
		return nil, errRequestNil
	}

	aVM, err := vm.GetByID(vmID.Value)
	if err != nil {
		return nil, vmLookupErr(vmID.Value, err)
	}

	entry := aVM.Entry()

	return &entry, nil
}

func (s *server) GetVMID(_ context.Context, vmNameReq *wrapperspb.StringValue) (*hydrogen.VMID, error) {
	if vmNameReq == nil || vmNameReq.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "hostname not specified")
	}

	aVM, err := vm.GetByHostname(vmNameReq.GetValue())
	if err != nil {
		return nil, vmLookupErr(vmNameReq.GetValue(), err)
	}

	return &hydrogen.VMID{Value: aVM.ID}, nil
}

// powerAllowed matches the menu: only offline VMs can be started and only
// online VMs can take the other actions.
func powerAllowed(online bool, action hydrogen.PowerAction) bool {
	if action == hydrogen.PowerStart {
		return !online
	}

	return online
}

func (s *server) RequestPower(_ context.Context, powerReq *hydrogen.PowerReq) (*hydrogen.RequestID, error) {
	if powerReq == nil {
		return nil, errRequestNil
	}

	aReqType, err := requests.TypeForAction(powerReq.Action)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	aVM, err := vm.GetByID(powerReq.VMID)
	if err != nil {
		return nil, vmLookupErr(powerReq.VMID, err)
	}

	if !powerAllowed(aVM.Online, powerReq.Action) {
		return nil, status.Errorf(codes.FailedPrecondition,
			"cannot %s %s while it is %s", powerReq.Action, aVM.Hostname, onlineWord(aVM.Online))
	}

	newReq, err := requests.CreateVMReq(aReqType, aVM.ID)
	if err != nil {
		if errors.Is(err, requests.ErrPendingReqExists) {
			return nil, status.Error(codes.FailedPrecondition, err.Error())
		}

		if errors.Is(err, requests.ErrInvalidRequest) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}

		slog.Error("failed creating power request", "vm", aVM.ID, "action", powerReq.Action, "err", err)

		return nil, status.Error(codes.Internal, "failed creating request")
	}

	slog.Debug("power request queued", "vm", aVM.Hostname, "action", powerReq.Action, "request", newReq.ID)

	return &hydrogen.RequestID{Value: newReq.ID}, nil
}

func (s *server) CreateVM(_ context.Context, spec *hydrogen.CreateReq) (*hydrogen.RequestID, error) {
	if spec == nil {
		return nil, errRequestNil
	}

	if !config.Config.Provision.Enabled {
		return nil, status.Error(codes.FailedPrecondition, "provisioning disabled on "+s.host)
	}

	err := spec.Validate()
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	existing, err := vm.GetByHostname(spec.Hostname)
	if err == nil {
		return nil, status.Errorf(codes.AlreadyExists, "vm %s already exists as %s", spec.Hostname, existing.ID)
	}

	newReq, err := requests.CreateProvisionReq(*spec)
	if err != nil {
		if errors.Is(err, requests.ErrPendingReqExists) {
			return nil, status.Error(codes.FailedPrecondition, err.Error())
		}

		if errors.Is(err, requests.ErrInvalidRequest) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}

		slog.Error("failed creating create request", "hostname", spec.Hostname, "err", err)

		return nil, status.Error(codes.Internal, "failed creating request")
	}

	slog.Debug("create request queued", "hostname", spec.Hostname, "request", newReq.ID)

	return &hydrogen.RequestID{Value: newReq.ID}, nil
}

func onlineWord(online bool) string {
	if online {
		return "online"
	}

	return "offline"
}

func (s *server) RequestStatus(_ context.Context, reqID *hydrogen.RequestID) (*hydrogen.ReqStatus, error) {
	if reqID == nil || reqID.Value == "" {
		return nil, status.Error(codes.InvalidArgument, "request id not specified")
	}

	aReq, err := requests.GetByID(reqID.Value)
	if err != nil {
		if errors.Is(err, requests.ErrRequestNotFound) {
			return nil, notFoundErr("request", reqID.Value)
		}

		return nil, status.Error(codes.Internal, err.Error())
	}

	return &hydrogen.ReqStatus{
		Complete:   aReq.Complete,
		Success:    aReq.Successful,
		InProgress: aReq.StartedAt.Valid && !aReq.Complete,
	}, nil
}

func (s *server) GetHostInfo(_ context.Context, _ *emptypb.Empty) (*hydrogen.HostInfo, error) {
	defined, online := vm.Counts()

	info := &hydrogen.HostInfo{
		Host:       s.host,
		VMsDefined: defined,
		VMsOnline:  online,
	}

	if s.conn == nil {
		return info, nil
	}

	hv := s.conn.get()
	if hv == nil {
		return info, nil
	}

	libVer, err := hv.Version()
	if err != nil {
		slog.Error("error getting libvirt version", "err", err)
	} else {
		info.LibvirtVersion = libVer
	}

	return info, nil
}

func newGRPCServer(conn *hvConn) *grpc.Server {
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(grpcMetrics.UnaryServerInterceptor()),
		grpc.ChainStreamInterceptor(grpcMetrics.StreamServerInterceptor()),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			MaxConnectionIdle: secondsToDuration(config.Config.Network.Grpc.Timeout),
		}),
	)

	hydrogen.RegisterVMInfoServer(grpcServer, &server{conn: conn, host: config.Config.Host.Name})
	grpcMetrics.InitializeMetrics(grpcServer)

	return grpcServer
}

func rpcServer(ctx context.Context, conn *hvConn) error {
	listenAddr := net.JoinHostPort(
		config.Config.Network.Grpc.IP,
		strconv.FormatUint(uint64(config.Config.Network.Grpc.Port), 10),
	)

	lis, err := net.Listen("tcp", listenAddr)
	if err != nil {
		slog.Error("failed to listen for rpc", "listenAddr", listenAddr, "err", err)

		return fmt.Errorf("failed to listen for rpc: %w", err)
	}

	grpcServer := newGRPCServer(conn)

	go func() {
		<-ctx.Done()
		grpcServer.GracefulStop()
	}()

	slog.Info("Starting gRPC listener", "listenAddr", listenAddr)

	err = grpcServer.Serve(lis)
	if err != nil {
		return fmt.Errorf("rpc server failed: %w", err)
	}

	return nil
}
