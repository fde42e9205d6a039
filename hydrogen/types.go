package hydrogen

import "errors"

type PowerAction string

const (
	PowerStart    PowerAction = "start"
	PowerShutdown PowerAction = "shutdown"
	PowerReboot   PowerAction = "reboot"
	PowerReset    PowerAction = "reset"
	PowerStop     PowerAction = "stop"
)

var ErrUnknownPowerAction = errors.New("unknown power action")

// PowerActions lists the actions in the order menus show them.
var PowerActions = []PowerAction{PowerStart, PowerShutdown, PowerReboot, PowerReset, PowerStop}

func ParsePowerAction(s string) (PowerAction, error) {
	for _, action := range PowerActions {
		if string(action) == s {
			return action, nil
		}
	}

	return "", ErrUnknownPowerAction
}

type VMID struct {
	Value string `json:"value"`
}

type VMsQuery struct {
	OnlineOnly bool `json:"online_only,omitempty"`
}

type PowerReq struct {
	VMID   string      `json:"vm_id"`
	Action PowerAction `json:"action"`
}

type RequestID struct {
	Value string `json:"value"`
}

type ReqStatus struct {
	Complete   bool `json:"complete"`
	Success    bool `json:"success"`
	InProgress bool `json:"in_progress"`
}

type HostInfo struct {
	Host           string `json:"host"`
	LibvirtVersion string `json:"libvirt_version"`
	VMsDefined     int    `json:"vms_defined"`
	VMsOnline      int    `json:"vms_online"`
}

// CreateReq describes a VM to provision. Gateway and Address are in CIDR
// form, the gateway being the bridge's own address.
type CreateReq struct {
	Hostname  string   `json:"hostname"`
	OS        string   `json:"os"`
	VCPUs     uint32   `json:"vcpus"`
	MemoryGiB uint32   `json:"memory_gib"`
	DiskGiB   uint32   `json:"disk_gib"`
	Bridge    uint32   `json:"bridge"`
	Gateway   string   `json:"gateway"`
	Address   string   `json:"address"`
	SSHKeys   []string `json:"ssh_keys,omitempty"`
}
