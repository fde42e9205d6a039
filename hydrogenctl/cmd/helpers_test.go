package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"hydrogen/hydrogen"
	"hydrogen/hydrogen/hydrogentest"
	"hydrogen/hydrogenctl/rpc"
)

var testEntries = []hydrogen.VMEntry{
	{
		VM: hydrogen.VM{
			Hostname: "web-01", OS: "ubuntu/22.04", IPv4: "10.0.0.5", IPv6: "fd00::5",
			Host: "hv-3", UUID: "6a4b3f4e-55d2-4a8b-9a6e-0f0e1d2c3b4a", Online: true,
		},
		LastSeen: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
	},
	{
		VM: hydrogen.VM{
			Hostname: "db-01", OS: "unknown", Host: "hv-3",
			UUID: "0c1d2e3f-4a5b-4c6d-8e7f-8091a2b3c4d5",
		},
		LastSeen: time.Date(2026, 10, 1, 11, 0, 0, 0, time.UTC),
	},
}

func copyEntries() []hydrogen.VMEntry {
	return append([]hydrogen.VMEntry(nil), testEntries...)
}

// useFakeServer resets the command globals and points the rpc helpers at an
// in-memory server.
func useFakeServer(t *testing.T) *hydrogentest.Server {
	t.Helper()

	srv := &hydrogentest.Server{
		VMs:  copyEntries(),
		Host: hydrogen.HostInfo{Host: "hv-3", LibvirtVersion: "8.0.0", VMsDefined: 2, VMsOnline: 1},
	}

	rpc.SetClient(hydrogentest.Dial(t, srv))

	VMName = ""
	VMID = ""
	OnlineOnly = false
	MenuInvoke = ""
	NewVM = hydrogen.CreateReq{}
	CheckReqStat = false
	Humanize = true
	outputFormatString = "txt"
	color.NoColor = true
	reqPollInterval = 10 * time.Millisecond

	t.Cleanup(func() { rpc.SetClient(nil) })

	return srv
}

func runCmd(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	cmd.SetOut(&out)
	t.Cleanup(func() { cmd.SetOut(nil) })

	err := cmd.RunE(cmd, args)

	return out.String(), err
}
