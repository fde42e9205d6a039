package menu

import (
	"fmt"

	"hydrogen/hydrogen"
)

const LabelCopyUUID = "Copy UUID"

// Powerer carries out what a VM menu item asks for. Failed receives errors
// from actions, since actions cannot return them.
type Powerer interface {
	Power(id string, action hydrogen.PowerAction) error
	CopyText(text string) error
	Failed(label string, err error)
}

// PowererFuncs adapts plain functions to Powerer. Nil fields do nothing.
type PowererFuncs struct {
	PowerFunc  func(id string, action hydrogen.PowerAction) error
	CopyFunc   func(text string) error
	FailedFunc func(label string, err error)
}

func (p PowererFuncs) Power(id string, action hydrogen.PowerAction) error {
	if p.PowerFunc == nil {
		return nil
	}

	return p.PowerFunc(id, action)
}

func (p PowererFuncs) CopyText(text string) error {
	if p.CopyFunc == nil {
		return nil
	}

	return p.CopyFunc(text)
}

func (p PowererFuncs) Failed(label string, err error) {
	if p.FailedFunc != nil {
		p.FailedFunc(label, err)
	}
}

type powerItem struct {
	action hydrogen.PowerAction
	label  string
	icon   string
	online bool // offered while the VM is online
}

var powerItems = []powerItem{
	{action: hydrogen.PowerStart, label: "Start", icon: "play", online: false},
	{action: hydrogen.PowerShutdown, label: "Shutdown", icon: "power", online: true},
	{action: hydrogen.PowerReboot, label: "Reboot", icon: "refresh", online: true},
	{action: hydrogen.PowerReset, label: "Reset", icon: "rotate-ccw", online: true},
	{action: hydrogen.PowerStop, label: "Stop", icon: "square", online: true},
}

// ForVM returns the actions that make sense for aVM in its current state.
func ForVM(aVM hydrogen.VM, p Powerer) []DropdownItem {
	var items []DropdownItem

	for _, pi := range powerItems {
		if pi.online != aVM.Online {
			continue
		}

		items = append(items, DropdownItem{
			Label: pi.label,
			Icon:  pi.icon,
			Action: func(Event) {
				err := p.Power(aVM.UUID, pi.action)
				if err != nil {
					p.Failed(pi.label, fmt.Errorf("%s %s: %w", pi.action, aVM.Hostname, err))
				}
			},
		})
	}

	items = append(items, DropdownItem{
		Label: LabelCopyUUID,
		Icon:  "copy",
		Action: func(Event) {
			err := p.CopyText(aVM.UUID)
			if err != nil {
				p.Failed(LabelCopyUUID, err)
			}
		},
	})

	return items
}
