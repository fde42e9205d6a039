// Package provision builds new VMs: the bridge they sit on, a cloud-init
// seed, a disk backed by an OS image and finally the domain.
package provision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"hydrogen/hydrogen"
	"hydrogen/hydrogend/hypervisor"
)

// Hypervisor is the part of hypervisor.Hypervisor provisioning needs.
type Hypervisor interface {
	EnsureBridge(ctx context.Context, bridge hypervisor.Bridge) error
	CreateDisk(ctx context.Context, disk hypervisor.Disk) (string, error)
	Define(ctx context.Context, dom hypervisor.Domain) (string, error)
}

// Seeder writes a cloud-init NoCloud seed image to path.
type Seeder interface {
	Seed(ctx context.Context, path string, userData []byte, networkConfig []byte) error
}

// Provisioner creates VMs. Images holds <os>.qcow2 base images, Seeds is
// where seed images are written, Pool is the libvirt storage pool for disks.
type Provisioner struct {
	Seeder Seeder
	Images string
	Seeds  string
	Pool   string
	Arch   string
}

var errBaseImageMissing = errors.New("base image missing")

// Create provisions spec and returns the new VM's uuid.
func (p *Provisioner) Create(ctx context.Context, hv Hypervisor, spec hydrogen.CreateReq) (string, error) {
	err := spec.Validate()
	if err != nil {
		return "", err
	}

	gateway, _, err := spec.Prefixes()
	if err != nil {
		return "", err
	}

	basePath := filepath.Join(p.Images, spec.OS+".qcow2")

	_, err = os.Stat(basePath)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", errBaseImageMissing, spec.OS, err)
	}

	bridge := spec.BridgeName()

	err = hv.EnsureBridge(ctx, hypervisor.Bridge{Name: bridge, Gateway: gateway})
	if err != nil {
		return "", err
	}

	seedPath, err := p.seed(ctx, spec)
	if err != nil {
		return "", err
	}

	diskPath, err := hv.CreateDisk(ctx, hypervisor.Disk{
		Pool:        p.Pool,
		Name:        spec.Hostname + ".qcow2",
		CapacityGiB: uint64(spec.DiskGiB),
		BackingPath: basePath,
	})
	if err != nil {
		return "", err
	}

	slog.Debug("disk created", "hostname", spec.Hostname, "path", diskPath)

	vmID, err := hv.Define(ctx, hypervisor.Domain{
		Name:      spec.Hostname,
		OS:        spec.OS,
		Arch:      p.Arch,
		VCPUs:     spec.VCPUs,
		MemoryGiB: spec.MemoryGiB,
		DiskPath:  diskPath,
		SeedPath:  seedPath,
		Bridge:    bridge,
	})
	if err != nil {
		return "", err
	}

	slog.Info("VM created", "hostname", spec.Hostname, "uuid", vmID, "bridge", bridge)

	return vmID, nil
}

func (p *Provisioner) seed(ctx context.Context, spec hydrogen.CreateReq) (string, error) {
	userData, err := UserData(spec)
	if err != nil {
		return "", err
	}

	networkConfig, err := NetworkConfig(spec)
	if err != nil {
		return "", err
	}

	err = os.MkdirAll(p.Seeds, 0o755)
	if err != nil {
		return "", fmt.Errorf("error creating seed dir: %w", err)
	}

	seedPath := filepath.Join(p.Seeds, spec.Hostname+"-seed.iso")

	err = p.Seeder.Seed(ctx, seedPath, userData, networkConfig)
	if err != nil {
		return "", err
	}

	return seedPath, nil
}
