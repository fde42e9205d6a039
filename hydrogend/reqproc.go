package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"hydrogen/hydrogen"
	"hydrogen/hydrogend/provision"
	"hydrogen/hydrogend/requests"
)

const (
	requestPollInterval = 50 * time.Millisecond
	seenRequestsSize    = 1024
	powerTimeout        = 2 * time.Minute
	createTimeout       = 10 * time.Minute
)

var errProvisioningDisabled = errors.New("provisioning disabled")

// creator provisions VMs, see provision.Provisioner.
type creator interface {
	Create(ctx context.Context, hv provision.Hypervisor, spec hydrogen.CreateReq) (string, error)
}

type requestProcessor struct {
	conn *hvConn
	// nil when provisioning is disabled
	creator creator
	// ids already dispatched, so a request whose start was not recorded is
	// not picked up again
	seen *lru.Cache[string, struct{}]
}

func newRequestProcessor(conn *hvConn, vmCreator creator) *requestProcessor {
	seen, err := lru.New[string, struct{}](seenRequestsSize)
	if err != nil {
		panic(err)
	}

	return &requestProcessor{conn: conn, creator: vmCreator, seen: seen}
}

func processRequests(ctx context.Context, conn *hvConn, vmCreator creator) {
	proc := newRequestProcessor(conn, vmCreator)

	ticker := time.NewTicker(requestPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for proc.next(ctx) {
			}
		}
	}
}

// next dispatches one unstarted request, reporting whether one was taken off
// the queue.
func (p *requestProcessor) next(ctx context.Context) bool {
	aReq, err := requests.GetUnStarted(p.seen.Keys()...)
	if err != nil {
		if !errors.Is(err, requests.ErrRequestNotFound) {
			slog.Error("error getting unstarted request", "err", err)
		}

		return false
	}

	p.seen.Add(aReq.ID, struct{}{})

	err = aReq.Start()
	if err != nil {
		slog.Error("failed to start request", "id", aReq.ID, "err", err)

		// fail it so it no longer counts as pending for its VM
		err = aReq.MarkFailed()
		if err != nil {
			slog.Error("failed to fail unstartable request", "id", aReq.ID, "err", err)
		}

		return true
	}

	go p.execute(ctx, aReq)

	return true
}

func (p *requestProcessor) execute(ctx context.Context, aReq requests.Request) {
	var err error

	if aReq.Type == requests.VMCREATE {
		err = p.create(ctx, aReq)
	} else {
		err = p.power(ctx, aReq)
	}

	if err != nil {
		slog.Error("request failed", "id", aReq.ID, "type", aReq.Type, "err", err)

		err = aReq.MarkFailed()
	} else {
		slog.Debug("request succeeded", "id", aReq.ID, "type", aReq.Type)

		err = aReq.MarkSuccessful()
	}

	if err != nil {
		slog.Error("failed to record request result", "id", aReq.ID, "err", err)
	}
}

func (p *requestProcessor) power(ctx context.Context, aReq requests.Request) error {
	vmID, err := aReq.VMID()
	if err != nil {
		return err
	}

	action, err := aReq.Action()
	if err != nil {
		return err
	}

	hv := p.conn.get()
	if hv == nil {
		return errNotConnected
	}

	powerCtx, cancel := context.WithTimeout(ctx, powerTimeout)
	defer cancel()

	return hv.Power(powerCtx, vmID, action)
}

func (p *requestProcessor) create(ctx context.Context, aReq requests.Request) error {
	if p.creator == nil {
		return errProvisioningDisabled
	}

	spec, err := aReq.CreateSpec()
	if err != nil {
		return err
	}

	hv := p.conn.get()
	if hv == nil {
		return errNotConnected
	}

	createCtx, cancel := context.WithTimeout(ctx, createTimeout)
	defer cancel()

	// the monitor picks the new domain up from its lifecycle events
	_, err = p.creator.Create(createCtx, hv, spec)

	return err
}
