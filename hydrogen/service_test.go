package hydrogen

import (
	"context"
	"errors"
	"testing"

	"github.com/go-test/deep"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type stubServer struct {
	UnimplementedVMInfoServer
}

func (stubServer) GetVM(_ context.Context, vmID *VMID) (*VMEntry, error) {
	if vmID.Value != "a1b2c3" {
		return nil, status.Error(codes.NotFound, "no such VM")
	}

	return &VMEntry{VM: VM{Hostname: "web-01", UUID: vmID.Value}}, nil
}

func methodHandlerFor(t *testing.T, name string) methodHandler {
	t.Helper()

	for _, desc := range VMInfoServiceDesc.Methods {
		if desc.MethodName == name {
			return desc.Handler
		}
	}

	t.Fatalf("no method %s", name)

	return nil
}

func decodeVMID(value string) func(any) error {
	return func(in any) error {
		in.(*VMID).Value = value

		return nil
	}
}

func TestServiceDescMethods(t *testing.T) {
	t.Parallel()

	var names []string
	for _, desc := range VMInfoServiceDesc.Methods {
		names = append(names, desc.MethodName)
	}

	want := []string{"GetVM", "GetVMID", "RequestPower", "RequestStatus", "GetHostInfo", "CreateVM"}
	if diff := deep.Equal(names, want); diff != nil {
		t.Errorf("methods diff: %v", diff)
	}

	if len(VMInfoServiceDesc.Streams) != 1 || !VMInfoServiceDesc.Streams[0].ServerStreams {
		t.Errorf("streams = %+v, want one server stream", VMInfoServiceDesc.Streams)
	}
}

func TestUnaryHandler(t *testing.T) {
	t.Parallel()

	handler := methodHandlerFor(t, "GetVM")

	got, err := handler(stubServer{}, context.Background(), decodeVMID("a1b2c3"), nil)
	if err != nil {
		t.Fatalf("handler() error = %v", err)
	}

	if entry, ok := got.(*VMEntry); !ok || entry.Hostname != "web-01" {
		t.Errorf("handler() = %#v, want web-01", got)
	}

	_, err = handler(stubServer{}, context.Background(), decodeVMID("zzz"), nil)
	if status.Code(err) != codes.NotFound {
		t.Errorf("handler() error = %v, want NotFound", err)
	}

	decodeErr := errors.New("bad frame")

	_, err = handler(stubServer{}, context.Background(), func(any) error { return decodeErr }, nil)
	if !errors.Is(err, decodeErr) {
		t.Errorf("handler() error = %v, want decode error", err)
	}

	_, err = methodHandlerFor(t, "GetHostInfo")(stubServer{}, context.Background(), func(any) error { return nil }, nil)
	if status.Code(err) != codes.Unimplemented {
		t.Errorf("GetHostInfo error = %v, want Unimplemented", err)
	}
}

func TestUnaryHandlerInterceptor(t *testing.T) {
	t.Parallel()

	var seen string

	interceptor := func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		seen = info.FullMethod

		return next(ctx, req)
	}

	got, err := methodHandlerFor(t, "GetVM")(stubServer{}, context.Background(), decodeVMID("a1b2c3"), interceptor)
	if err != nil {
		t.Fatalf("handler() error = %v", err)
	}

	if seen != "/hydrogen.VMInfo/GetVM" {
		t.Errorf("interceptor saw %q", seen)
	}

	if entry, ok := got.(*VMEntry); !ok || entry.UUID != "a1b2c3" {
		t.Errorf("handler() = %#v", got)
	}
}
