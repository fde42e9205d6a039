package hypervisor

import (
	"encoding/xml"
	"errors"
	"net/netip"
	"strings"
	"testing"

	"github.com/digitalocean/go-libvirt"
	"github.com/go-test/deep"
)

func TestBridgeXML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		bridge     Bridge
		wantFamily string
		wantAddr   string
		wantPrefix int
		wantErr    bool
	}{
		{
			name:       "ipv6",
			bridge:     Bridge{Name: "vbr2", Gateway: netip.MustParsePrefix("2001:db8:2::1/64")},
			wantFamily: "ipv6",
			wantAddr:   "2001:db8:2::1",
			wantPrefix: 64,
		},
		{
			name:       "ipv4",
			bridge:     Bridge{Name: "vbr0", Gateway: netip.MustParsePrefix("10.0.0.1/24")},
			wantAddr:   "10.0.0.1",
			wantPrefix: 24,
		},
		{
			name:    "noName",
			bridge:  Bridge{Gateway: netip.MustParsePrefix("10.0.0.1/24")},
			wantErr: true,
		},
		{
			name:    "noGateway",
			bridge:  Bridge{Name: "vbr0"},
			wantErr: true,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			desc, err := bridgeXML(testCase.bridge)
			if (err != nil) != testCase.wantErr {
				t.Fatalf("bridgeXML() error = %v, wantErr %v", err, testCase.wantErr)
			}

			if err != nil {
				if !errors.Is(err, errInvalidBridge) {
					t.Errorf("bridgeXML() error = %v, want errInvalidBridge", err)
				}

				return
			}

			var got networkDef

			err = xml.Unmarshal([]byte(desc), &got)
			if err != nil {
				t.Fatalf("bad xml %q: %v", desc, err)
			}

			if got.Name != testCase.bridge.Name || got.Bridge.Name != testCase.bridge.Name {
				t.Errorf("network %q bridge %q, want %q", got.Name, got.Bridge.Name, testCase.bridge.Name)
			}

			if got.IP.Family != testCase.wantFamily || got.IP.Address != testCase.wantAddr ||
				got.IP.Prefix != testCase.wantPrefix {
				t.Errorf("ip = %+v, want %s %s/%d", got.IP, testCase.wantFamily, testCase.wantAddr, testCase.wantPrefix)
			}
		})
	}
}

func TestVolumeXML(t *testing.T) {
	t.Parallel()

	desc, err := volumeXML(Disk{
		Pool:        "default",
		Name:        "db-01.qcow2",
		CapacityGiB: 40,
		BackingPath: "/var/lib/hydrogend/images/debian-12.qcow2",
	})
	if err != nil {
		t.Fatalf("volumeXML() error = %v", err)
	}

	want := `<volume><name>db-01.qcow2</name><capacity unit="G">40</capacity>` +
		`<target><format type="qcow2"></format></target>` +
		`<backingStore><path>/var/lib/hydrogend/images/debian-12.qcow2</path><format type="qcow2"></format></backingStore>` +
		`</volume>`

	if desc != want {
		t.Errorf("volumeXML() = %s, want %s", desc, want)
	}
}

func TestDomainXML(t *testing.T) {
	t.Parallel()

	dom := Domain{
		Name:      "db-01",
		OS:        "debian-12",
		Arch:      "aarch64",
		VCPUs:     4,
		MemoryGiB: 8,
		DiskPath:  "/var/lib/libvirt/images/db-01.qcow2",
		SeedPath:  "/var/lib/hydrogend/seeds/db-01-seed.iso",
		Bridge:    "vbr1",
	}

	desc, err := domainXML(dom)
	if err != nil {
		t.Fatalf("domainXML() error = %v", err)
	}

	if got := osFromXML(desc); got != "debian-12" {
		t.Errorf("osFromXML() = %q, want debian-12", got)
	}

	var got domainDef

	err = xml.Unmarshal([]byte(desc), &got)
	if err != nil {
		t.Fatalf("bad xml %q: %v", desc, err)
	}

	if got.Name != "db-01" || got.VCPU != 4 || got.Memory.Value != 8 || got.Memory.Unit != "GiB" {
		t.Errorf("domain = %s vcpu %d memory %d%s", got.Name, got.VCPU, got.Memory.Value, got.Memory.Unit)
	}

	if got.OS.Firmware != "efi" || got.OS.Type.Arch != "aarch64" || got.OS.Type.Machine != "virt" {
		t.Errorf("os = %+v, want efi aarch64 virt", got.OS)
	}

	if got.Devices.Interface.Source.Bridge != "vbr1" {
		t.Errorf("bridge = %q, want vbr1", got.Devices.Interface.Source.Bridge)
	}

	var sources []string

	for _, disk := range got.Devices.Disks {
		sources = append(sources, disk.Source.File)
	}

	if diff := deep.Equal(sources, []string{dom.DiskPath, dom.SeedPath}); diff != nil {
		t.Errorf("compare failed: %v", diff)
	}

	if got.Devices.Disks[0].ReadOnly != nil || got.Devices.Disks[1].ReadOnly == nil {
		t.Errorf("only the seed should be read only")
	}

	if !strings.Contains(desc, `<readonly></readonly>`) {
		t.Errorf("domainXML() = %s, want a readonly seed", desc)
	}
}

func TestMachineFor(t *testing.T) {
	t.Parallel()

	if got := machineFor("x86_64"); got != "q35" {
		t.Errorf("machineFor(x86_64) = %q, want q35", got)
	}

	if got := machineFor("aarch64"); got != "virt" {
		t.Errorf("machineFor(aarch64) = %q, want virt", got)
	}
}

func TestIsLibvirtErr(t *testing.T) {
	t.Parallel()

	noNet := libvirt.Error{Code: uint32(libvirt.ErrNoNetwork), Message: "Network not found"}

	if !isLibvirtErr(noNet, libvirt.ErrNoNetwork) {
		t.Errorf("isLibvirtErr() = false for ErrNoNetwork")
	}

	if isLibvirtErr(noNet, libvirt.ErrNoDomain) {
		t.Errorf("isLibvirtErr() = true for a different code")
	}

	if isLibvirtErr(errors.New("plain"), libvirt.ErrNoNetwork) {
		t.Errorf("isLibvirtErr() = true for a non libvirt error")
	}
}
