package provision

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"hydrogen/hydrogen"
)

const cloudConfigHeader = "#cloud-config\n"

type cloudConfig struct {
	Hostname          string   `yaml:"hostname"`
	ManageEtcHosts    bool     `yaml:"manage_etc_hosts"`
	SSHPwauth         bool     `yaml:"ssh_pwauth"`
	SSHAuthorizedKeys []string `yaml:"ssh_authorized_keys,omitempty"`
}

type netMatch struct {
	Name string `yaml:"name"`
}

type netRoute struct {
	To  string `yaml:"to"`
	Via string `yaml:"via"`
}

type netEthernet struct {
	Match     netMatch   `yaml:"match"`
	Addresses []string   `yaml:"addresses"`
	Routes    []netRoute `yaml:"routes"`
}

type netConfig struct {
	Version   int                    `yaml:"version"`
	Ethernets map[string]netEthernet `yaml:"ethernets"`
}

// UserData is the guest's cloud-config: its hostname and the keys allowed to
// log in. Password logins stay off.
func UserData(spec hydrogen.CreateReq) ([]byte, error) {
	out, err := yaml.Marshal(cloudConfig{
		Hostname:          spec.Hostname,
		ManageEtcHosts:    true,
		SSHAuthorizedKeys: spec.SSHKeys,
	})
	if err != nil {
		return nil, fmt.Errorf("error building user data: %w", err)
	}

	return append([]byte(cloudConfigHeader), out...), nil
}

// NetworkConfig is a version 2 network config giving the guest's first
// ethernet its static address and a default route via the bridge.
func NetworkConfig(spec hydrogen.CreateReq) ([]byte, error) {
	gateway, address, err := spec.Prefixes()
	if err != nil {
		return nil, err
	}

	out, err := yaml.Marshal(netConfig{
		Version: 2,
		Ethernets: map[string]netEthernet{
			"primary": {
				Match:     netMatch{Name: "en*"},
				Addresses: []string{address.String()},
				Routes:    []netRoute{{To: "default", Via: gateway.Addr().String()}},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("error building network config: %w", err)
	}

	return out, nil
}

// CloudLocalDS builds seeds with cloud-image-utils' cloud-localds.
type CloudLocalDS struct {
	Path string
}

func (c CloudLocalDS) Seed(ctx context.Context, path string, userData []byte, networkConfig []byte) error {
	workDir, err := os.MkdirTemp("", "hydrogend-seed")
	if err != nil {
		return fmt.Errorf("error creating seed work dir: %w", err)
	}

	defer func() {
		_ = os.RemoveAll(workDir)
	}()

	userPath := filepath.Join(workDir, "user-data")
	netPath := filepath.Join(workDir, "network-config")

	err = os.WriteFile(userPath, userData, 0o600)
	if err != nil {
		return fmt.Errorf("error writing user data: %w", err)
	}

	err = os.WriteFile(netPath, networkConfig, 0o600)
	if err != nil {
		return fmt.Errorf("error writing network config: %w", err)
	}

	bin := c.Path
	if bin == "" {
		bin = "cloud-localds"
	}

	var stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, bin, "--network-config="+netPath, path, userPath)
	cmd.Stderr = &stderr

	err = cmd.Run()
	if err != nil {
		return fmt.Errorf("error running %s: %w: %s", bin, err, bytes.TrimSpace(stderr.Bytes()))
	}

	return nil
}
