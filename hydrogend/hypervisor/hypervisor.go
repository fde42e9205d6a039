// Package hypervisor reads domains from the local hypervisor, acts on them
// and defines new ones.
package hypervisor

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-version"
	"golang.org/x/sys/unix"

	"hydrogen/hydrogen"
)

//go:generate go run go.uber.org/mock/mockgen -destination=mock_hypervisor.go -package=hypervisor . Hypervisor

// Hypervisor is the part of libvirt hydrogend uses.
type Hypervisor interface {
	// Hostname is the hypervisor's own host name.
	Hostname() (string, error)
	// Version is the hypervisor library version as major.minor.release.
	Version() (string, error)
	// Domains snapshots every defined domain. Host is left empty.
	Domains(ctx context.Context) ([]hydrogen.VM, error)
	// Events streams power state changes until ctx is done or the connection
	// drops, then closes the channel.
	Events(ctx context.Context) (<-chan Event, error)
	Power(ctx context.Context, id string, action hydrogen.PowerAction) error
	// EnsureBridge defines and starts the bridge's network unless it is
	// already up.
	EnsureBridge(ctx context.Context, bridge Bridge) error
	// CreateDisk creates the volume and returns its path.
	CreateDisk(ctx context.Context, disk Disk) (string, error)
	// Define defines the domain, marks it autostart and boots it, returning
	// its uuid.
	Define(ctx context.Context, dom Domain) (string, error)
	Close() error
}

// Event is a domain power state change.
type Event struct {
	UUID     string
	Hostname string
	Online   bool
}

var (
	errLibvirtTooOld     = errors.New("libvirt version too old")
	errDomainNotFound    = errors.New("domain not found")
	errInvalidDomainUUID = errors.New("invalid domain uuid")
)

// CheckVersion fails unless the hypervisor is at least minVersion.
func CheckVersion(hv Hypervisor, minVersion string) error {
	if minVersion == "" {
		return nil
	}

	wantVersion, err := version.NewVersion(minVersion)
	if err != nil {
		return fmt.Errorf("invalid minimum libvirt version %q: %w", minVersion, err)
	}

	gotStr, err := hv.Version()
	if err != nil {
		return fmt.Errorf("error getting libvirt version: %w", err)
	}

	gotVersion, err := version.NewVersion(gotStr)
	if err != nil {
		return fmt.Errorf("invalid libvirt version %q: %w", gotStr, err)
	}

	if gotVersion.LessThan(wantVersion) {
		return fmt.Errorf("%w: have %s, need %s", errLibvirtTooOld, gotVersion, wantVersion)
	}

	return nil
}

// NodeName returns the kernel's idea of this machine's name.
func NodeName() (string, error) {
	var uts unix.Utsname

	err := unix.Uname(&uts)
	if err != nil {
		return "", fmt.Errorf("uname failed: %w", err)
	}

	return unix.ByteSliceToString(uts.Nodename[:]), nil
}
