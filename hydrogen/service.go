package hydrogen

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	serviceName = "hydrogen.VMInfo"

	methodGetVMs         = "/" + serviceName + "/GetVMs"
	methodGetVM          = "/" + serviceName + "/GetVM"
	methodGetVMID        = "/" + serviceName + "/GetVMID"
	methodRequestPower   = "/" + serviceName + "/RequestPower"
	methodRequestStatus  = "/" + serviceName + "/RequestStatus"
	methodGetHostInfo    = "/" + serviceName + "/GetHostInfo"
	methodCreateVM       = "/" + serviceName + "/CreateVM"
	streamNameGetVMs     = "GetVMs"
	serviceMetadataLabel = "hydrogen/service.go"
)

// VMInfoServer is implemented by hydrogend.
type VMInfoServer interface {
	GetVMs(*VMsQuery, VMInfoGetVMsServer) error
	GetVM(context.Context, *VMID) (*VMEntry, error)
	GetVMID(context.Context, *wrapperspb.StringValue) (*VMID, error)
	RequestPower(context.Context, *PowerReq) (*RequestID, error)
	RequestStatus(context.Context, *RequestID) (*ReqStatus, error)
	GetHostInfo(context.Context, *emptypb.Empty) (*HostInfo, error)
	CreateVM(context.Context, *CreateReq) (*RequestID, error)
}

// UnimplementedVMInfoServer can be embedded to have forward compatible
// implementations.
type UnimplementedVMInfoServer struct{}

func (UnimplementedVMInfoServer) GetVMs(*VMsQuery, VMInfoGetVMsServer) error {
	return status.Errorf(codes.Unimplemented, "method GetVMs not implemented")
}

func (UnimplementedVMInfoServer) GetVM(context.Context, *VMID) (*VMEntry, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetVM not implemented")
}

func (UnimplementedVMInfoServer) GetVMID(context.Context, *wrapperspb.StringValue) (*VMID, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetVMID not implemented")
}

func (UnimplementedVMInfoServer) RequestPower(context.Context, *PowerReq) (*RequestID, error) {
	return nil, status.Errorf(codes.Unimplemented, "method RequestPower not implemented")
}

func (UnimplementedVMInfoServer) RequestStatus(context.Context, *RequestID) (*ReqStatus, error) {
	return nil, status.Errorf(codes.Unimplemented, "method RequestStatus not implemented")
}

func (UnimplementedVMInfoServer) GetHostInfo(context.Context, *emptypb.Empty) (*HostInfo, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetHostInfo not implemented")
}

func (UnimplementedVMInfoServer) CreateVM(context.Context, *CreateReq) (*RequestID, error) {
	return nil, status.Errorf(codes.Unimplemented, "method CreateVM not implemented")
}

type VMInfoGetVMsServer interface {
	Send(*VMEntry) error
	grpc.ServerStream
}

type vmInfoGetVMsServer struct {
	grpc.ServerStream
}

func (x *vmInfoGetVMsServer) Send(m *VMEntry) error {
	return x.ServerStream.SendMsg(m)
}

func getVMsHandler(srv any, stream grpc.ServerStream) error {
	query := new(VMsQuery)
	if err := stream.RecvMsg(query); err != nil {
		return err
	}

	return srv.(VMInfoServer).GetVMs(query, &vmInfoGetVMsServer{stream})
}

// methodHandler has the shape grpc.MethodDesc expects of Handler.
type methodHandler = func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error)

// unaryHandler adapts one typed server method to grpc's untyped handler.
func unaryHandler[Req any, Resp any](
	fullMethod string,
	call func(VMInfoServer, context.Context, *Req) (*Resp, error),
) methodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}

		if interceptor == nil {
			return call(srv.(VMInfoServer), ctx, in)
		}

		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(VMInfoServer), ctx, req.(*Req))
		}

		return interceptor(ctx, in, info, handler)
	}
}

var VMInfoServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*VMInfoServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetVM",
			Handler:    unaryHandler(methodGetVM, VMInfoServer.GetVM),
		},
		{
			MethodName: "GetVMID",
			Handler:    unaryHandler(methodGetVMID, VMInfoServer.GetVMID),
		},
		{
			MethodName: "RequestPower",
			Handler:    unaryHandler(methodRequestPower, VMInfoServer.RequestPower),
		},
		{
			MethodName: "RequestStatus",
			Handler:    unaryHandler(methodRequestStatus, VMInfoServer.RequestStatus),
		},
		{
			MethodName: "GetHostInfo",
			Handler:    unaryHandler(methodGetHostInfo, VMInfoServer.GetHostInfo),
		},
		{
			MethodName: "CreateVM",
			Handler:    unaryHandler(methodCreateVM, VMInfoServer.CreateVM),
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    streamNameGetVMs,
			Handler:       getVMsHandler,
			ServerStreams: true,
		},
	},
	Metadata: serviceMetadataLabel,
}

func RegisterVMInfoServer(s grpc.ServiceRegistrar, srv VMInfoServer) {
	s.RegisterService(&VMInfoServiceDesc, srv)
}
