package hypervisor

import (
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/digitalocean/go-libvirt"
	"github.com/google/uuid"

	"hydrogen/hydrogen"
)

const unknownOS = "unknown"

// Libvirt talks to libvirtd over its RPC socket.
type Libvirt struct {
	l *libvirt.Libvirt
}

var _ Hypervisor = (*Libvirt)(nil)

// Dial connects to libvirtd, network is "unix" or "tcp".
func Dial(network string, address string, timeout time.Duration) (*Libvirt, error) {
	conn, err := net.DialTimeout(network, address, timeout)
	if err != nil {
		return nil, fmt.Errorf("could not connect to libvirt socket %s: %w", address, err)
	}

	l := libvirt.New(conn)

	err = l.Connect()
	if err != nil {
		_ = conn.Close()

		return nil, fmt.Errorf("could not connect to libvirt: %w", err)
	}

	slog.Debug("connected to libvirt", "network", network, "address", address)

	return &Libvirt{l: l}, nil
}

func (h *Libvirt) Close() error {
	err := h.l.Disconnect()
	if err != nil {
		return fmt.Errorf("error disconnecting from libvirt: %w", err)
	}

	return nil
}

func (h *Libvirt) Hostname() (string, error) {
	hostname, err := h.l.ConnectGetHostname()
	if err != nil {
		return "", fmt.Errorf("error getting libvirt hostname: %w", err)
	}

	return hostname, nil
}

func (h *Libvirt) Version() (string, error) {
	libVer, err := h.l.ConnectGetLibVersion()
	if err != nil {
		return "", fmt.Errorf("error getting libvirt version: %w", err)
	}

	return formatLibVersion(libVer), nil
}

// formatLibVersion decodes libvirt's major*1000000 + minor*1000 + release.
func formatLibVersion(libVer uint64) string {
	return fmt.Sprintf("%d.%d.%d", libVer/1000000, (libVer/1000)%1000, libVer%1000)
}

func (h *Libvirt) Domains(ctx context.Context) ([]hydrogen.VM, error) {
	domains, _, err := h.l.ConnectListAllDomains(1,
		libvirt.ConnectListDomainsActive|libvirt.ConnectListDomainsInactive,
	)
	if err != nil {
		return nil, fmt.Errorf("error listing domains: %w", err)
	}

	vms := make([]hydrogen.VM, 0, len(domains))

	for _, dom := range domains {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		vms = append(vms, h.snapshot(dom))
	}

	return vms, nil
}

func (h *Libvirt) snapshot(dom libvirt.Domain) hydrogen.VM {
	aVM := hydrogen.VM{
		Hostname: dom.Name,
		UUID:     uuid.UUID(dom.UUID).String(),
		OS:       unknownOS,
	}

	state, _, err := h.l.DomainGetState(dom, 0)
	if err != nil {
		slog.Error("error getting domain state", "domain", dom.Name, "err", err)
	} else {
		aVM.Online = libvirt.DomainState(state) == libvirt.DomainRunning
	}

	xmlDesc, err := h.l.DomainGetXMLDesc(dom, 0)
	if err != nil {
		slog.Error("error getting domain xml", "domain", dom.Name, "err", err)
	} else {
		aVM.OS = osFromXML(xmlDesc)
	}

	// addresses are only known while the guest runs
	if aVM.Online {
		aVM.IPv4, aVM.IPv6 = h.addresses(dom)
	}

	return aVM
}

func (h *Libvirt) addresses(dom libvirt.Domain) (string, string) {
	sources := []libvirt.DomainInterfaceAddressesSource{
		libvirt.DomainInterfaceAddressesSrcLease,
		libvirt.DomainInterfaceAddressesSrcAgent,
	}

	for _, source := range sources {
		ifaces, err := h.l.DomainInterfaceAddresses(dom, uint32(source), 0)
		if err != nil {
			slog.Debug("no interface addresses", "domain", dom.Name, "source", source, "err", err)

			continue
		}

		ipv4, ipv6 := pickAddresses(ifaces)
		if ipv4 != "" || ipv6 != "" {
			return ipv4, ipv6
		}
	}

	return "", ""
}

// pickAddresses returns the first usable IPv4 and IPv6 address, skipping
// loopback and link-local ones.
func pickAddresses(ifaces []libvirt.DomainInterface) (string, string) {
	var ipv4, ipv6 string

	for _, iface := range ifaces {
		if iface.Name == "lo" {
			continue
		}

		for _, addr := range iface.Addrs {
			ip := net.ParseIP(addr.Addr)
			if ip == nil || ip.IsLoopback() || ip.IsLinkLocalUnicast() {
				continue
			}

			if ip.To4() != nil {
				if ipv4 == "" {
					ipv4 = ip.String()
				}

				continue
			}

			if ipv6 == "" {
				ipv6 = ip.String()
			}
		}
	}

	return ipv4, ipv6
}

type domainMetaXML struct {
	Metadata struct {
		Libosinfo struct {
			OS struct {
				ID string `xml:"id,attr"`
			} `xml:"http://libosinfo.org/xmlns/libvirt/domain/1.0 os"`
		} `xml:"http://libosinfo.org/xmlns/libvirt/domain/1.0 libosinfo"`
	} `xml:"metadata"`
}

// osFromXML reads the libosinfo id virt-install records, so
// "http://ubuntu.com/ubuntu/22.04" becomes "ubuntu/22.04".
func osFromXML(desc string) string {
	var dom domainMetaXML

	err := xml.Unmarshal([]byte(desc), &dom)
	if err != nil {
		return unknownOS
	}

	osID := dom.Metadata.Libosinfo.OS.ID
	if osID == "" {
		return unknownOS
	}

	parsed, err := url.Parse(osID)
	if err != nil || parsed.Path == "" || parsed.Path == "/" {
		return osID
	}

	return strings.Trim(parsed.Path, "/")
}

func (h *Libvirt) lookup(id string) (libvirt.Domain, error) {
	domUUID, err := uuid.Parse(id)
	if err != nil {
		return libvirt.Domain{}, fmt.Errorf("%w: %s", errInvalidDomainUUID, id)
	}

	dom, err := h.l.DomainLookupByUUID(libvirt.UUID(domUUID))
	if err != nil {
		return libvirt.Domain{}, fmt.Errorf("%w: %s: %w", errDomainNotFound, id, err)
	}

	return dom, nil
}

func (h *Libvirt) Power(ctx context.Context, id string, action hydrogen.PowerAction) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	dom, err := h.lookup(id)
	if err != nil {
		return err
	}

	switch action {
	case hydrogen.PowerStart:
		err = h.l.DomainCreate(dom)
	case hydrogen.PowerShutdown:
		err = h.l.DomainShutdown(dom)
	case hydrogen.PowerReboot:
		err = h.l.DomainReboot(dom, libvirt.DomainRebootDefault)
	case hydrogen.PowerReset:
		err = h.l.DomainReset(dom, 0)
	case hydrogen.PowerStop:
		err = h.l.DomainDestroy(dom)
	default:
		return hydrogen.ErrUnknownPowerAction
	}

	if err != nil {
		return fmt.Errorf("error running %s on %s: %w", action, dom.Name, err)
	}

	return nil
}

// eventOnline maps a lifecycle event to the resulting power state; ok is
// false for events that do not change it.
func eventOnline(event libvirt.DomainEventType) (bool, bool) {
	switch event {
	case libvirt.DomainEventStarted, libvirt.DomainEventResumed:
		return true, true
	case libvirt.DomainEventStopped, libvirt.DomainEventShutdown,
		libvirt.DomainEventCrashed, libvirt.DomainEventSuspended:
		return false, true
	default:
		return false, false
	}
}

func (h *Libvirt) Events(ctx context.Context) (<-chan Event, error) {
	lifecycle, err := h.l.LifecycleEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("error subscribing to lifecycle events: %w", err)
	}

	events := make(chan Event)

	go func() {
		defer close(events)

		for msg := range lifecycle {
			online, ok := eventOnline(libvirt.DomainEventType(msg.Event))
			if !ok {
				continue
			}

			event := Event{
				UUID:     uuid.UUID(msg.Dom.UUID).String(),
				Hostname: msg.Dom.Name,
				Online:   online,
			}

			select {
			case events <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, nil
}
