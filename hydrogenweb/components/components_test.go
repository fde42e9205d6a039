package components

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"hydrogen/hydrogen"
	"hydrogen/hydrogenctl/menu"
)

func testVM() VM {
	entry := hydrogen.VMEntry{
		VM: hydrogen.VM{
			Hostname: "web-01", OS: "ubuntu/22.04", IPv4: "10.0.0.5", IPv6: "fd00::5",
			Host: "hv-3", UUID: "6a4b3f4e-55d2-4a8b-9a6e-0f0e1d2c3b4a", Online: true,
		},
		LastSeen: time.Now().Add(-3 * time.Minute),
	}

	return VM{VMEntry: entry, Menu: menu.ForVM(entry.VM, menu.PowererFuncs{})}
}

func render(t *testing.T, render func(context.Context, *bytes.Buffer) error) string {
	t.Helper()

	var out bytes.Buffer

	err := render(context.Background(), &out)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	return out.String()
}

func TestVMs(t *testing.T) {
	t.Parallel()

	got := render(t, func(ctx context.Context, out *bytes.Buffer) error {
		return VMs([]VM{testVM()}).Render(ctx, out)
	})

	for _, want := range []string{
		`<tr data-uuid="6a4b3f4e-55d2-4a8b-9a6e-0f0e1d2c3b4a">`,
		`action="/vm/6a4b3f4e-55d2-4a8b-9a6e-0f0e1d2c3b4a/menu"`,
		`name="label" value="Reboot" data-icon="refresh"`,
		`value="Copy UUID"`,
		`<span class="state online">ONLINE</span>`,
		"3 minutes ago",
		"/ws/vms",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("VMs() output missing %q", want)
		}
	}

	if strings.Contains(got, `value="Start"`) {
		t.Error("VMs() offered Start for an online VM")
	}
}

func TestVMsEmpty(t *testing.T) {
	t.Parallel()

	got := render(t, func(ctx context.Context, out *bytes.Buffer) error {
		return VMs(nil).Render(ctx, out)
	})

	if !strings.Contains(got, "No VMs defined.") {
		t.Errorf("VMs(nil) output = %s", got)
	}
}

func TestVMPageEscapes(t *testing.T) {
	t.Parallel()

	aVM := testVM()
	aVM.Hostname = `<script>alert("x")</script>`

	got := render(t, func(ctx context.Context, out *bytes.Buffer) error {
		return VMPage(aVM, Flash{Message: "UUID copied", Copied: aVM.UUID}).Render(ctx, out)
	})

	if strings.Contains(got, `<script>alert`) {
		t.Error("VMPage() did not escape the hostname")
	}

	if !strings.Contains(got, `<p class="flash">UUID copied</p>`) {
		t.Error("VMPage() missing flash")
	}

	if !strings.Contains(got, `<input id="copied" readonly value="6a4b3f4e-55d2-4a8b-9a6e-0f0e1d2c3b4a">`) {
		t.Error("VMPage() missing copied UUID")
	}
}

func TestErrorFlash(t *testing.T) {
	t.Parallel()

	got := render(t, func(ctx context.Context, out *bytes.Buffer) error {
		return VMPage(testVM(), Flash{Message: "pending request exists", Error: true}).Render(ctx, out)
	})

	if !strings.Contains(got, `<p class="flash error">pending request exists</p>`) {
		t.Errorf("VMPage() missing error flash")
	}
}

func TestHome(t *testing.T) {
	t.Parallel()

	info := hydrogen.HostInfo{Host: "hv-3", LibvirtVersion: "8.0.0", VMsDefined: 1, VMsOnline: 1}

	got := render(t, func(ctx context.Context, out *bytes.Buffer) error {
		return Home(info, []VM{testVM()}).Render(ctx, out)
	})

	if !strings.Contains(got, "<h1>hv-3</h1><p>libvirt 8.0.0, 1 VMs defined, 1 online.</p>") {
		t.Errorf("Home() missing host summary")
	}
}

func TestVMNotFound(t *testing.T) {
	t.Parallel()

	got := render(t, func(ctx context.Context, out *bytes.Buffer) error {
		return VMNotFound("nope").Render(ctx, out)
	})

	if !strings.Contains(got, "No VM with UUID nope.") {
		t.Errorf("VMNotFound() output = %s", got)
	}
}
