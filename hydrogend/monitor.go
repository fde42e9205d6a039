package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"hydrogen/hydrogend/config"
	"hydrogen/hydrogend/hypervisor"
	"hydrogen/hydrogend/vm"
)

const minBackoff = time.Second

type monitor struct {
	conn       *hvConn
	host       string
	interval   time.Duration
	maxBackoff time.Duration
	sleep      func(ctx context.Context, d time.Duration)
}

func newMonitor(conn *hvConn, host string) *monitor {
	return &monitor{
		conn:       conn,
		host:       host,
		interval:   secondsToDuration(config.Config.Monitor.Interval),
		maxBackoff: secondsToDuration(config.Config.Monitor.MaxBackoff),
		sleep:      sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// Sync stores a fresh snapshot of every domain and marks known VMs that
// libvirt no longer reports offline.
func (m *monitor) Sync(ctx context.Context) error {
	hv := m.conn.get()
	if hv == nil {
		return errNotConnected
	}

	domains, err := hv.Domains(ctx)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	present := make(map[string]bool, len(domains))

	for _, snapshot := range domains {
		snapshot.Host = m.host
		// still defined even when storing the snapshot fails
		present[snapshot.UUID] = true

		_, err = vm.Upsert(snapshot)
		if err != nil {
			slog.Error("failed storing VM", "hostname", snapshot.Hostname, "uuid", snapshot.UUID, "err", err)
		}
	}

	missing := vm.MarkMissingOffline(present)

	slog.Debug("sync complete", "domains", len(domains), "markedOffline", missing)

	return nil
}

func (m *monitor) applyEvent(ctx context.Context, event hypervisor.Event) {
	slog.Debug("lifecycle event", "hostname", event.Hostname, "uuid", event.UUID, "online", event.Online)

	err := vm.SetOnline(event.UUID, event.Online)
	if err == nil {
		return
	}

	if !errors.Is(err, vm.ErrVMNotFound) {
		slog.Error("failed updating VM state", "uuid", event.UUID, "err", err)

		return
	}

	// a domain defined since the last sync
	err = m.Sync(ctx)
	if err != nil {
		slog.Error("sync after unknown VM event failed", "uuid", event.UUID, "err", err)
	}
}

func (m *monitor) nextBackoff(cur time.Duration) time.Duration {
	next := cur * 2
	if next > m.maxBackoff {
		next = m.maxBackoff
	}

	if next < minBackoff {
		next = minBackoff
	}

	return next
}

// consume applies events until the channel closes or ctx is done.
func (m *monitor) consume(ctx context.Context, events <-chan hypervisor.Event) {
	var tickC <-chan time.Time

	if m.interval > 0 {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		tickC = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}

			m.applyEvent(ctx, event)
		case <-tickC:
			err := m.Sync(ctx)
			if err != nil {
				slog.Error("periodic sync failed", "err", err)
			}
		}
	}
}

func (m *monitor) watch(ctx context.Context) {
	backoff := minBackoff
	needDial := false

	for ctx.Err() == nil {
		if needDial {
			err := m.conn.redial()
			if err != nil {
				slog.Error("reconnecting to libvirt failed", "err", err, "retryIn", backoff)
				m.sleep(ctx, backoff)
				backoff = m.nextBackoff(backoff)

				continue
			}

			slog.Info("reconnected to libvirt")

			err = m.Sync(ctx)
			if err != nil {
				slog.Error("sync after reconnect failed", "err", err)
			}
		}

		hv := m.conn.get()
		if hv == nil {
			needDial = true

			continue
		}

		events, err := hv.Events(ctx)
		if err != nil {
			slog.Error("subscribing to lifecycle events failed", "err", err, "retryIn", backoff)
			m.sleep(ctx, backoff)
			backoff = m.nextBackoff(backoff)
			needDial = true

			continue
		}

		backoff = minBackoff

		m.consume(ctx, events)

		if ctx.Err() == nil {
			slog.Error("lifecycle event stream closed, reconnecting")
			m.sleep(ctx, backoff)
			backoff = m.nextBackoff(backoff)
			needDial = true
		}
	}
}
