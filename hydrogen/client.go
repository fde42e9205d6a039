package hydrogen

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type VMInfoClient interface {
	GetVMs(ctx context.Context, in *VMsQuery, opts ...grpc.CallOption) (VMInfoGetVMsClient, error)
	GetVM(ctx context.Context, in *VMID, opts ...grpc.CallOption) (*VMEntry, error)
	GetVMID(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*VMID, error)
	RequestPower(ctx context.Context, in *PowerReq, opts ...grpc.CallOption) (*RequestID, error)
	RequestStatus(ctx context.Context, in *RequestID, opts ...grpc.CallOption) (*ReqStatus, error)
	GetHostInfo(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*HostInfo, error)
	CreateVM(ctx context.Context, in *CreateReq, opts ...grpc.CallOption) (*RequestID, error)
}

type vmInfoClient struct {
	cc grpc.ClientConnInterface
}

func NewVMInfoClient(cc grpc.ClientConnInterface) VMInfoClient {
	return &vmInfoClient{cc}
}

// callOpts makes every call use the hydrogen codec.
func callOpts(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}

func (c *vmInfoClient) GetVMs(ctx context.Context, in *VMsQuery, opts ...grpc.CallOption) (VMInfoGetVMsClient, error) {
	stream, err := c.cc.NewStream(ctx, &VMInfoServiceDesc.Streams[0], methodGetVMs, callOpts(opts)...)
	if err != nil {
		return nil, err
	}

	x := &vmInfoGetVMsClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}

	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}

	return x, nil
}

type VMInfoGetVMsClient interface {
	Recv() (*VMEntry, error)
	grpc.ClientStream
}

type vmInfoGetVMsClient struct {
	grpc.ClientStream
}

func (x *vmInfoGetVMsClient) Recv() (*VMEntry, error) {
	m := new(VMEntry)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}

	return m, nil
}

func (c *vmInfoClient) GetVM(ctx context.Context, in *VMID, opts ...grpc.CallOption) (*VMEntry, error) {
	out := new(VMEntry)

	err := c.cc.Invoke(ctx, methodGetVM, in, out, callOpts(opts)...)
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (c *vmInfoClient) GetVMID(
	ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption,
) (*VMID, error) {
	out := new(VMID)

	err := c.cc.Invoke(ctx, methodGetVMID, in, out, callOpts(opts)...)
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (c *vmInfoClient) RequestPower(ctx context.Context, in *PowerReq, opts ...grpc.CallOption) (*RequestID, error) {
	out := new(RequestID)

	err := c.cc.Invoke(ctx, methodRequestPower, in, out, callOpts(opts)...)
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (c *vmInfoClient) RequestStatus(ctx context.Context, in *RequestID, opts ...grpc.CallOption) (*ReqStatus, error) {
	out := new(ReqStatus)

	err := c.cc.Invoke(ctx, methodRequestStatus, in, out, callOpts(opts)...)
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (c *vmInfoClient) GetHostInfo(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*HostInfo, error) {
	out := new(HostInfo)

	err := c.cc.Invoke(ctx, methodGetHostInfo, in, out, callOpts(opts)...)
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (c *vmInfoClient) CreateVM(ctx context.Context, in *CreateReq, opts ...grpc.CallOption) (*RequestID, error) {
	out := new(RequestID)

	err := c.cc.Invoke(ctx, methodCreateVM, in, out, callOpts(opts)...)
	if err != nil {
		return nil, err
	}

	return out, nil
}
