// Package menu builds the dropdown of actions offered for a VM. The same items
// back the terminal UI and the web dashboard.
package menu

import (
	"errors"
	"fmt"
	"time"
)

type Source string

const (
	SourceTUI Source = "tui"
	SourceWeb Source = "web"
	SourceCLI Source = "cli"
)

type Button int

const (
	ButtonNone Button = iota
	ButtonPrimary
	ButtonSecondary
	ButtonMiddle
)

func (b Button) String() string {
	switch b {
	case ButtonPrimary:
		return "primary"
	case ButtonSecondary:
		return "secondary"
	case ButtonMiddle:
		return "middle"
	default:
		return "none"
	}
}

type Modifiers uint8

const (
	ModShift Modifiers = 1 << iota
	ModCtrl
	ModAlt
	ModMeta
)

func (m Modifiers) Has(mod Modifiers) bool {
	return m&mod != 0
}

// Event is the interaction that selected an item. Keyboard selections carry
// ButtonNone and no position.
type Event struct {
	Source Source
	Button Button
	X      int
	Y      int
	Mods   Modifiers
	When   time.Time
}

// Action runs when its item is chosen. It reports nothing back.
type Action func(Event)

// DropdownItem is one entry of a dropdown menu.
type DropdownItem struct {
	Label  string `json:"label"`
	Icon   string `json:"icon"`
	Action Action `json:"-"`
}

var (
	ErrEmptyLabel   = errors.New("dropdown item has no label")
	ErrEmptyIcon    = errors.New("dropdown item has no icon")
	ErrNilAction    = errors.New("dropdown item has no action")
	ErrItemNotFound = errors.New("dropdown item not found")
)

// Validate checks that all three fields of item are set.
func Validate(item DropdownItem) error {
	if item.Label == "" {
		return ErrEmptyLabel
	}

	if item.Icon == "" {
		return fmt.Errorf("%w: %s", ErrEmptyIcon, item.Label)
	}

	if item.Action == nil {
		return fmt.Errorf("%w: %s", ErrNilAction, item.Label)
	}

	return nil
}

// Invoke runs item's action for ev, refusing invalid items.
func Invoke(item DropdownItem, ev Event) error {
	err := Validate(item)
	if err != nil {
		return err
	}

	if ev.When.IsZero() {
		ev.When = time.Now()
	}

	item.Action(ev)

	return nil
}

func Find(items []DropdownItem, label string) (DropdownItem, error) {
	for _, item := range items {
		if item.Label == label {
			return item, nil
		}
	}

	return DropdownItem{}, fmt.Errorf("%w: %q", ErrItemNotFound, label)
}

func Labels(items []DropdownItem) []string {
	labels := make([]string, 0, len(items))
	for _, item := range items {
		labels = append(labels, item.Label)
	}

	return labels
}
