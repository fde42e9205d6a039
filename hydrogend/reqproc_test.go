package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"hydrogen/hydrogen"
	"hydrogen/hydrogend/hypervisor"
	"hydrogen/hydrogend/provision"
	"hydrogen/hydrogend/requests"
)

func waitComplete(t *testing.T, id string) requests.Request {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		aReq, err := requests.GetByID(id)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}

		if aReq.Complete {
			return aReq
		}

		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("request %s never completed", id)

	return requests.Request{}
}

//nolint:paralleltest
func Test_requestProcessor_next(t *testing.T) {
	const vmID = "5f90bba5-e830-4be7-b714-2ff8250e2e50"

	tests := []struct {
		name        string
		action      hydrogen.PowerAction
		powerErr    error
		wantSuccess bool
	}{
		{name: "RebootSuccess", action: hydrogen.PowerReboot, wantSuccess: true},
		{name: "StartSuccess", action: hydrogen.PowerStart, wantSuccess: true},
		{name: "StopFails", action: hydrogen.PowerStop, powerErr: errors.New("domain is not running")},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			useTestStores(t)

			ctrl := gomock.NewController(t)
			hv := hypervisor.NewMockHypervisor(ctrl)
			hv.EXPECT().Power(gomock.Any(), vmID, testCase.action).Return(testCase.powerErr)

			aReqType, err := requests.TypeForAction(testCase.action)
			if err != nil {
				t.Fatalf("TypeForAction() error = %v", err)
			}

			newReq, err := requests.CreateVMReq(aReqType, vmID)
			if err != nil {
				t.Fatalf("CreateVMReq() error = %v", err)
			}

			proc := newRequestProcessor(&hvConn{hv: hv}, nil)

			if !proc.next(context.Background()) {
				t.Fatal("next() found no request")
			}

			got := waitComplete(t, newReq.ID)
			if got.Successful != testCase.wantSuccess {
				t.Errorf("request successful = %v, want %v", got.Successful, testCase.wantSuccess)
			}

			if proc.next(context.Background()) {
				t.Error("next() dispatched a started request")
			}
		})
	}
}

//nolint:paralleltest
func Test_requestProcessor_nextSkipsSeen(t *testing.T) {
	useTestStores(t)

	ctrl := gomock.NewController(t)
	hv := hypervisor.NewMockHypervisor(ctrl)

	newReq, err := requests.CreateVMReq(requests.VMRESET, "5f90bba5-e830-4be7-b714-2ff8250e2e50")
	if err != nil {
		t.Fatalf("CreateVMReq() error = %v", err)
	}

	proc := newRequestProcessor(&hvConn{hv: hv}, nil)
	proc.seen.Add(newReq.ID, struct{}{})

	if proc.next(context.Background()) {
		t.Error("next() dispatched an already seen request")
	}
}

//nolint:paralleltest
func Test_requestProcessor_notConnected(t *testing.T) {
	useTestStores(t)

	newReq, err := requests.CreateVMReq(requests.VMSHUTDOWN, "5f90bba5-e830-4be7-b714-2ff8250e2e50")
	if err != nil {
		t.Fatalf("CreateVMReq() error = %v", err)
	}

	proc := newRequestProcessor(&hvConn{}, nil)

	if !proc.next(context.Background()) {
		t.Fatal("next() found no request")
	}

	if got := waitComplete(t, newReq.ID); got.Successful {
		t.Error("request succeeded without a hypervisor")
	}
}

//nolint:paralleltest
func Test_requestProcessor_nextPassesSeen(t *testing.T) {
	useTestStores(t)

	const (
		stuckVM = "5f90bba5-e830-4be7-b714-2ff8250e2e50"
		nextVM  = "0c6f2a1e-7f43-4a55-9d44-2a6b8a0f1c3d"
	)

	stuck, err := requests.CreateVMReq(requests.VMRESET, stuckVM)
	if err != nil {
		t.Fatalf("CreateVMReq() error = %v", err)
	}

	queued, err := requests.CreateVMReq(requests.VMREBOOT, nextVM)
	if err != nil {
		t.Fatalf("CreateVMReq() error = %v", err)
	}

	ctrl := gomock.NewController(t)
	hv := hypervisor.NewMockHypervisor(ctrl)
	hv.EXPECT().Power(gomock.Any(), nextVM, hydrogen.PowerReboot).Return(nil)

	proc := newRequestProcessor(&hvConn{hv: hv}, nil)
	// dispatched earlier without its start being recorded
	proc.seen.Add(stuck.ID, struct{}{})

	if !proc.next(context.Background()) {
		t.Fatal("next() did not dispatch the request queued behind a seen one")
	}

	if got := waitComplete(t, queued.ID); !got.Successful {
		t.Error("queued request did not succeed")
	}

	if proc.next(context.Background()) {
		t.Error("next() dispatched a seen request")
	}
}

type fakeCreator struct {
	err   error
	specs chan hydrogen.CreateReq
}

func (f *fakeCreator) Create(_ context.Context, _ provision.Hypervisor, spec hydrogen.CreateReq) (string, error) {
	f.specs <- spec

	if f.err != nil {
		return "", f.err
	}

	return "3b0d5a7e-91c2-4f1e-8a55-6f0c2d9e7b14", nil
}

func testCreateSpec() hydrogen.CreateReq {
	return hydrogen.CreateReq{
		Hostname:  "web-02",
		OS:        "ubuntu-22.04",
		VCPUs:     2,
		MemoryGiB: 4,
		DiskGiB:   20,
		Bridge:    0,
		Gateway:   "10.0.0.1/24",
		Address:   "10.0.0.12/24",
	}
}

//nolint:paralleltest
func Test_requestProcessor_create(t *testing.T) {
	tests := []struct {
		name        string
		createErr   error
		wantSuccess bool
	}{
		{name: "Success", wantSuccess: true},
		{name: "DefineFails", createErr: errors.New("domain 'web-02' already exists")},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			useTestStores(t)

			ctrl := gomock.NewController(t)
			hv := hypervisor.NewMockHypervisor(ctrl)
			vmCreator := &fakeCreator{err: testCase.createErr, specs: make(chan hydrogen.CreateReq, 1)}

			newReq, err := requests.CreateProvisionReq(testCreateSpec())
			if err != nil {
				t.Fatalf("CreateProvisionReq() error = %v", err)
			}

			proc := newRequestProcessor(&hvConn{hv: hv}, vmCreator)

			if !proc.next(context.Background()) {
				t.Fatal("next() found no request")
			}

			got := waitComplete(t, newReq.ID)
			if got.Successful != testCase.wantSuccess {
				t.Errorf("request successful = %v, want %v", got.Successful, testCase.wantSuccess)
			}

			if spec := <-vmCreator.specs; spec.Hostname != "web-02" {
				t.Errorf("created %q, want web-02", spec.Hostname)
			}
		})
	}
}

//nolint:paralleltest
func Test_requestProcessor_createDisabled(t *testing.T) {
	useTestStores(t)

	ctrl := gomock.NewController(t)
	hv := hypervisor.NewMockHypervisor(ctrl)

	newReq, err := requests.CreateProvisionReq(testCreateSpec())
	if err != nil {
		t.Fatalf("CreateProvisionReq() error = %v", err)
	}

	proc := newRequestProcessor(&hvConn{hv: hv}, nil)

	if !proc.next(context.Background()) {
		t.Fatal("next() found no request")
	}

	if got := waitComplete(t, newReq.ID); got.Successful {
		t.Error("create succeeded with provisioning disabled")
	}
}
