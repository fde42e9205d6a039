package main

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/spf13/cast"

	"hydrogen/hydrogend/config"
	"hydrogen/hydrogend/hypervisor"
)

var errNotConnected = errors.New("not connected to hypervisor")

// hvConn holds the current hypervisor connection, which the monitor replaces
// when libvirt goes away.
type hvConn struct {
	mu   sync.RWMutex
	hv   hypervisor.Hypervisor
	dial func() (hypervisor.Hypervisor, error)
}

func newHVConn(dial func() (hypervisor.Hypervisor, error)) *hvConn {
	return &hvConn{dial: dial}
}

func dialLibvirt() (hypervisor.Hypervisor, error) {
	return hypervisor.Dial(
		config.Config.Libvirt.Network,
		config.Config.Libvirt.Address,
		secondsToDuration(config.Config.Libvirt.Timeout),
	)
}

func secondsToDuration(seconds uint64) time.Duration {
	return time.Duration(cast.ToInt64(seconds)) * time.Second
}

func (c *hvConn) get() hypervisor.Hypervisor {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.hv
}

// redial drops the current connection, if any, and opens a new one.
func (c *hvConn) redial() error {
	newHV, err := c.dial()
	if err != nil {
		return err
	}

	c.mu.Lock()
	oldHV := c.hv
	c.hv = newHV
	c.mu.Unlock()

	if oldHV != nil {
		err = oldHV.Close()
		if err != nil {
			slog.Debug("error closing old hypervisor connection", "err", err)
		}
	}

	return nil
}

func (c *hvConn) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.hv == nil {
		return
	}

	err := c.hv.Close()
	if err != nil {
		slog.Error("error closing hypervisor connection", "err", err)
	}

	c.hv = nil
}
