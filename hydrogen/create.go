package hydrogen

import (
	"errors"
	"fmt"
	"net/netip"
	"regexp"
)

// MinDiskGiB is the size of the OS images new disks are backed by.
const MinDiskGiB = 2

var ErrInvalidCreate = errors.New("invalid create request")

var (
	hostnameRe = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?$`)
	osNameRe   = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)
)

// BridgeName is the host bridge a VM on bridge index sits on.
func (c *CreateReq) BridgeName() string {
	return fmt.Sprintf("vbr%d", c.Bridge)
}

// Prefixes parses the gateway and address.
func (c *CreateReq) Prefixes() (netip.Prefix, netip.Prefix, error) {
	gateway, err := netip.ParsePrefix(c.Gateway)
	if err != nil {
		return netip.Prefix{}, netip.Prefix{}, fmt.Errorf("%w: gateway: %w", ErrInvalidCreate, err)
	}

	address, err := netip.ParsePrefix(c.Address)
	if err != nil {
		return netip.Prefix{}, netip.Prefix{}, fmt.Errorf("%w: address: %w", ErrInvalidCreate, err)
	}

	return gateway, address, nil
}

// Validate checks a create request before it is queued. The address must sit
// in the gateway's network without being the gateway itself.
func (c *CreateReq) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: %w", ErrInvalidCreate, ErrEmptyDocument)
	}

	if !hostnameRe.MatchString(c.Hostname) {
		return fmt.Errorf("%w: bad hostname %q", ErrInvalidCreate, c.Hostname)
	}

	if !osNameRe.MatchString(c.OS) {
		return fmt.Errorf("%w: bad os %q", ErrInvalidCreate, c.OS)
	}

	if c.VCPUs == 0 || c.MemoryGiB == 0 {
		return fmt.Errorf("%w: vcpus and memory must be set", ErrInvalidCreate)
	}

	if c.DiskGiB < MinDiskGiB {
		return fmt.Errorf("%w: disk must be at least %dG", ErrInvalidCreate, MinDiskGiB)
	}

	gateway, address, err := c.Prefixes()
	if err != nil {
		return err
	}

	if gateway.Addr().Is4() != address.Addr().Is4() {
		return fmt.Errorf("%w: gateway and address families differ", ErrInvalidCreate)
	}

	if gateway.Bits() != address.Bits() || !gateway.Masked().Contains(address.Addr()) {
		return fmt.Errorf("%w: %s is not in %s", ErrInvalidCreate, c.Address, gateway.Masked())
	}

	if gateway.Addr() == address.Addr() {
		return fmt.Errorf("%w: address is the gateway", ErrInvalidCreate)
	}

	return nil
}
