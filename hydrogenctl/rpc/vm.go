package rpc

import (
	"context"
	"errors"
	"fmt"
	"io"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"hydrogen/hydrogen"
)

// wrapNotFound keeps the server's message but lets callers test for
// ErrNotFound with errors.Is.
func wrapNotFound(err error) error {
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, status.Convert(err).Message())
	}

	return err
}

func GetVMs(ctx context.Context, onlineOnly bool) ([]hydrogen.VMEntry, error) {
	if serverClient == nil {
		return nil, errNotConnected
	}

	res, err := serverClient.GetVMs(ctx, &hydrogen.VMsQuery{OnlineOnly: onlineOnly})
	if err != nil {
		return nil, fmt.Errorf("unable to get VMs: %w", err)
	}

	var rv []hydrogen.VMEntry

	for {
		entry, err := res.Recv()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("unable to get VMs: %w", err)
		}

		rv = append(rv, *entry)
	}

	return rv, nil
}

func GetVM(ctx context.Context, vmID string) (hydrogen.VMEntry, error) {
	if vmID == "" {
		return hydrogen.VMEntry{}, errVMEmptyID
	}

	if serverClient == nil {
		return hydrogen.VMEntry{}, errNotConnected
	}

	res, err := serverClient.GetVM(ctx, &hydrogen.VMID{Value: vmID})
	if err != nil {
		return hydrogen.VMEntry{}, fmt.Errorf("unable to get VM: %w", wrapNotFound(err))
	}

	return *res, nil
}

func VMNameToID(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", errVMEmptyName
	}

	if serverClient == nil {
		return "", errNotConnected
	}

	res, err := serverClient.GetVMID(ctx, wrapperspb.String(name))
	if err != nil {
		return "", fmt.Errorf("unable to get VM ID: %w", wrapNotFound(err))
	}

	return res.Value, nil
}

// RequestPower queues action for the VM and returns the request ID.
func RequestPower(ctx context.Context, vmID string, action hydrogen.PowerAction) (string, error) {
	if vmID == "" {
		return "", errVMEmptyID
	}

	_, err := hydrogen.ParsePowerAction(string(action))
	if err != nil {
		return "", fmt.Errorf("%w: %q", errInvalidAction, action)
	}

	if serverClient == nil {
		return "", errNotConnected
	}

	res, err := serverClient.RequestPower(ctx, &hydrogen.PowerReq{VMID: vmID, Action: action})
	if err != nil {
		return "", fmt.Errorf("unable to %s VM: %w", action, wrapNotFound(err))
	}

	return res.Value, nil
}

// CreateVM queues provisioning of spec and returns the request ID.
func CreateVM(ctx context.Context, spec hydrogen.CreateReq) (string, error) {
	err := spec.Validate()
	if err != nil {
		return "", err
	}

	if serverClient == nil {
		return "", errNotConnected
	}

	res, err := serverClient.CreateVM(ctx, &spec)
	if err != nil {
		return "", fmt.Errorf("unable to create VM: %w", err)
	}

	return res.Value, nil
}
