package hypervisor

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"log/slog"
	"net/netip"

	"github.com/digitalocean/go-libvirt"
	"github.com/google/uuid"
)

// Bridge is a host bridge, holding the gateway address of the VMs on it.
type Bridge struct {
	Name    string
	Gateway netip.Prefix
}

// Disk is a qcow2 volume backed by an OS image.
type Disk struct {
	Pool        string
	Name        string
	CapacityGiB uint64
	BackingPath string
}

// Domain is a VM to define. SeedPath is its cloud-init seed image.
type Domain struct {
	Name      string
	OS        string
	Arch      string
	VCPUs     uint32
	MemoryGiB uint32
	DiskPath  string
	SeedPath  string
	Bridge    string
}

var errInvalidBridge = errors.New("invalid bridge")

type networkDef struct {
	XMLName xml.Name `xml:"network"`
	Name    string   `xml:"name"`
	Bridge  struct {
		Name string `xml:"name,attr"`
		STP  string `xml:"stp,attr"`
	} `xml:"bridge"`
	IP struct {
		Family  string `xml:"family,attr,omitempty"`
		Address string `xml:"address,attr"`
		Prefix  int    `xml:"prefix,attr"`
	} `xml:"ip"`
}

func bridgeXML(bridge Bridge) (string, error) {
	if bridge.Name == "" || !bridge.Gateway.IsValid() {
		return "", fmt.Errorf("%w: %q %s", errInvalidBridge, bridge.Name, bridge.Gateway)
	}

	var def networkDef

	def.Name = bridge.Name
	def.Bridge.Name = bridge.Name
	def.Bridge.STP = "on"
	def.IP.Address = bridge.Gateway.Addr().String()
	def.IP.Prefix = bridge.Gateway.Bits()

	if bridge.Gateway.Addr().Is6() {
		def.IP.Family = "ipv6"
	}

	out, err := xml.Marshal(def)
	if err != nil {
		return "", fmt.Errorf("error building network xml: %w", err)
	}

	return string(out), nil
}

type formatDef struct {
	Type string `xml:"type,attr"`
}

type volumeDef struct {
	XMLName  xml.Name `xml:"volume"`
	Name     string   `xml:"name"`
	Capacity struct {
		Unit  string `xml:"unit,attr"`
		Value uint64 `xml:",chardata"`
	} `xml:"capacity"`
	Target struct {
		Format formatDef `xml:"format"`
	} `xml:"target"`
	BackingStore struct {
		Path   string    `xml:"path"`
		Format formatDef `xml:"format"`
	} `xml:"backingStore"`
}

func volumeXML(disk Disk) (string, error) {
	var def volumeDef

	def.Name = disk.Name
	def.Capacity.Unit = "G"
	def.Capacity.Value = disk.CapacityGiB
	def.Target.Format.Type = "qcow2"
	def.BackingStore.Path = disk.BackingPath
	def.BackingStore.Format.Type = "qcow2"

	out, err := xml.Marshal(def)
	if err != nil {
		return "", fmt.Errorf("error building volume xml: %w", err)
	}

	return string(out), nil
}

type diskDef struct {
	Type   string `xml:"type,attr"`
	Device string `xml:"device,attr"`
	Driver struct {
		Name string `xml:"name,attr"`
		Type string `xml:"type,attr"`
	} `xml:"driver"`
	Source struct {
		File string `xml:"file,attr"`
	} `xml:"source"`
	Target struct {
		Dev string `xml:"dev,attr"`
		Bus string `xml:"bus,attr"`
	} `xml:"target"`
	ReadOnly *struct{} `xml:"readonly"`
}

func fileDisk(path string, format string, dev string) diskDef {
	var def diskDef

	def.Type = "file"
	def.Device = "disk"
	def.Driver.Name = "qemu"
	def.Driver.Type = format
	def.Source.File = path
	def.Target.Dev = dev
	def.Target.Bus = "virtio"

	return def
}

type domainDef struct {
	XMLName  xml.Name `xml:"domain"`
	Type     string   `xml:"type,attr"`
	Name     string   `xml:"name"`
	Metadata struct {
		Libosinfo struct {
			OS struct {
				ID string `xml:"id,attr"`
			} `xml:"http://libosinfo.org/xmlns/libvirt/domain/1.0 os"`
		} `xml:"http://libosinfo.org/xmlns/libvirt/domain/1.0 libosinfo"`
	} `xml:"metadata"`
	Memory struct {
		Unit  string `xml:"unit,attr"`
		Value uint32 `xml:",chardata"`
	} `xml:"memory"`
	VCPU uint32 `xml:"vcpu"`
	OS   struct {
		Firmware string `xml:"firmware,attr"`
		Type     struct {
			Arch    string `xml:"arch,attr"`
			Machine string `xml:"machine,attr"`
			Value   string `xml:",chardata"`
		} `xml:"type"`
	} `xml:"os"`
	CPU struct {
		Mode string `xml:"mode,attr"`
	} `xml:"cpu"`
	Devices struct {
		Disks     []diskDef `xml:"disk"`
		Interface struct {
			Type   string `xml:"type,attr"`
			Source struct {
				Bridge string `xml:"bridge,attr"`
			} `xml:"source"`
			Model struct {
				Type string `xml:"type,attr"`
			} `xml:"model"`
		} `xml:"interface"`
		Console struct {
			Type string `xml:"type,attr"`
		} `xml:"console"`
	} `xml:"devices"`
}

func machineFor(arch string) string {
	if arch == "aarch64" {
		return "virt"
	}

	return "q35"
}

// domainXML builds a uefi kvm guest, booting the disk with the seed attached
// read only. The os id is recorded where osFromXML reads it back.
func domainXML(dom Domain) (string, error) {
	var def domainDef

	def.Type = "kvm"
	def.Name = dom.Name
	def.Metadata.Libosinfo.OS.ID = "https://hydrogen/" + dom.OS
	def.Memory.Unit = "GiB"
	def.Memory.Value = dom.MemoryGiB
	def.VCPU = dom.VCPUs
	def.OS.Firmware = "efi"
	def.OS.Type.Arch = dom.Arch
	def.OS.Type.Machine = machineFor(dom.Arch)
	def.OS.Type.Value = "hvm"
	def.CPU.Mode = "host-passthrough"

	seed := fileDisk(dom.SeedPath, "raw", "vdb")
	seed.ReadOnly = &struct{}{}
	def.Devices.Disks = []diskDef{fileDisk(dom.DiskPath, "qcow2", "vda"), seed}
	def.Devices.Interface.Type = "bridge"
	def.Devices.Interface.Source.Bridge = dom.Bridge
	def.Devices.Interface.Model.Type = "virtio"
	def.Devices.Console.Type = "pty"

	out, err := xml.Marshal(def)
	if err != nil {
		return "", fmt.Errorf("error building domain xml: %w", err)
	}

	return string(out), nil
}

func isLibvirtErr(err error, code libvirt.ErrorNumber) bool {
	var lvErr libvirt.Error

	return errors.As(err, &lvErr) && lvErr.Code == uint32(code)
}

func (h *Libvirt) EnsureBridge(ctx context.Context, bridge Bridge) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	network, err := h.l.NetworkLookupByName(bridge.Name)
	if err != nil {
		if !isLibvirtErr(err, libvirt.ErrNoNetwork) {
			return fmt.Errorf("error looking up network %s: %w", bridge.Name, err)
		}

		desc, xmlErr := bridgeXML(bridge)
		if xmlErr != nil {
			return xmlErr
		}

		network, err = h.l.NetworkDefineXML(desc)
		if err != nil {
			return fmt.Errorf("error defining network %s: %w", bridge.Name, err)
		}

		err = h.l.NetworkSetAutostart(network, 1)
		if err != nil {
			return fmt.Errorf("error setting autostart on network %s: %w", bridge.Name, err)
		}

		slog.Debug("bridge defined", "bridge", bridge.Name, "gateway", bridge.Gateway)
	}

	active, err := h.l.NetworkIsActive(network)
	if err != nil {
		return fmt.Errorf("error checking network %s: %w", bridge.Name, err)
	}

	if active == 1 {
		return nil
	}

	err = h.l.NetworkCreate(network)
	if err != nil {
		return fmt.Errorf("error starting network %s: %w", bridge.Name, err)
	}

	return nil
}

func (h *Libvirt) CreateDisk(ctx context.Context, disk Disk) (string, error) {
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	pool, err := h.l.StoragePoolLookupByName(disk.Pool)
	if err != nil {
		return "", fmt.Errorf("error looking up pool %s: %w", disk.Pool, err)
	}

	desc, err := volumeXML(disk)
	if err != nil {
		return "", err
	}

	vol, err := h.l.StorageVolCreateXML(pool, desc, 0)
	if err != nil {
		return "", fmt.Errorf("error creating volume %s: %w", disk.Name, err)
	}

	path, err := h.l.StorageVolGetPath(vol)
	if err != nil {
		return "", fmt.Errorf("error getting path of volume %s: %w", disk.Name, err)
	}

	return path, nil
}

func (h *Libvirt) Define(ctx context.Context, dom Domain) (string, error) {
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	desc, err := domainXML(dom)
	if err != nil {
		return "", err
	}

	defined, err := h.l.DomainDefineXML(desc)
	if err != nil {
		return "", fmt.Errorf("error defining %s: %w", dom.Name, err)
	}

	err = h.l.DomainSetAutostart(defined, 1)
	if err != nil {
		return "", fmt.Errorf("error setting autostart on %s: %w", dom.Name, err)
	}

	err = h.l.DomainCreate(defined)
	if err != nil {
		return "", fmt.Errorf("error starting %s: %w", dom.Name, err)
	}

	return uuid.UUID(defined.UUID).String(), nil
}
