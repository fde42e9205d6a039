// Package hydrogen holds the types shared by hydrogend, hydrogenctl and
// hydrogenweb, and the VMInfo gRPC service they speak.
package hydrogen

import (
	"fmt"
	"time"
)

// VM is a snapshot of a virtual machine's identity and network presence.
//
// Host is the identifier of the hypervisor that reported the VM, Hostname is
// the VM's own name.
type VM struct {
	Hostname string `json:"hostname" yaml:"hostname" mapstructure:"hostname"`
	OS       string `json:"os"       yaml:"os"       mapstructure:"os"`
	IPv4     string `json:"ipv4"     yaml:"ipv4"     mapstructure:"ipv4"`
	IPv6     string `json:"ipv6"     yaml:"ipv6"     mapstructure:"ipv6"`
	Host     string `json:"host"     yaml:"host"     mapstructure:"host"`
	UUID     string `json:"uuid"     yaml:"uuid"     mapstructure:"uuid"`
	Online   bool   `json:"online"   yaml:"online"   mapstructure:"online"`
}

func (v VM) String() string {
	state := "offline"
	if v.Online {
		state = "online"
	}

	return fmt.Sprintf("hostname: %s uuid: %s host: %s (%s)", v.Hostname, v.UUID, v.Host, state)
}

// VMEntry is a VM as served by hydrogend, with the time the daemon last
// refreshed it.
type VMEntry struct {
	VM       `yaml:",inline"`
	LastSeen time.Time `json:"last_seen" yaml:"last_seen"`
}
