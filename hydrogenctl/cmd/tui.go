package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/spf13/cobra"

	"hydrogen/hydrogen"
	"hydrogen/hydrogenctl/menu"
	"hydrogen/hydrogenctl/rpc"
)

var TuiCmd = &cobra.Command{
	Use:          "tui",
	Short:        "Start terminal UI",
	SilenceUsage: true,
	RunE: func(_ *cobra.Command, _ []string) error {
		serverAddr := rpc.ServerName + ":" + strconv.FormatInt(int64(rpc.ServerPort), 10)

		return StartTui(serverAddr)
	},
}

const menuPage = "menu"

var (
	app         *tview.Application
	pages       *tview.Pages
	mainFlex    *tview.Flex
	infoView    *tview.TextView
	statusView  *tview.TextView
	vmList      *tview.List
	menuList    *tview.List
	vmEntries   []hydrogen.VMEntry
	menuPending *menu.Event
)

var menuIcons = map[string]string{
	"play":       "▶",
	"power":      "⏻",
	"refresh":    "↻",
	"rotate-ccw": "↺",
	"square":     "■",
	"copy":       "⧉",
}

func getVMEntries() ([]hydrogen.VMEntry, error) {
	ctx, cancel := context.WithTimeout(context.Background(), rpc.Timeout())
	defer cancel()

	entries, err := rpc.GetVMs(ctx, false)
	if err != nil {
		return nil, err
	}

	sortEntries(entries)

	return entries, nil
}

func buttonFor(action tview.MouseAction, buttons tcell.ButtonMask) menu.Button {
	switch action { //nolint:exhaustive
	case tview.MouseLeftClick, tview.MouseLeftDown, tview.MouseLeftUp, tview.MouseLeftDoubleClick:
		return menu.ButtonPrimary
	case tview.MouseRightClick, tview.MouseRightDown, tview.MouseRightUp:
		return menu.ButtonSecondary
	case tview.MouseMiddleClick, tview.MouseMiddleDown, tview.MouseMiddleUp:
		return menu.ButtonMiddle
	}

	switch {
	case buttons&tcell.ButtonPrimary != 0:
		return menu.ButtonPrimary
	case buttons&tcell.ButtonSecondary != 0:
		return menu.ButtonSecondary
	case buttons&tcell.ButtonMiddle != 0:
		return menu.ButtonMiddle
	default:
		return menu.ButtonNone
	}
}

func modsFor(mods tcell.ModMask) menu.Modifiers {
	var rv menu.Modifiers

	if mods&tcell.ModShift != 0 {
		rv |= menu.ModShift
	}

	if mods&tcell.ModCtrl != 0 {
		rv |= menu.ModCtrl
	}

	if mods&tcell.ModAlt != 0 {
		rv |= menu.ModAlt
	}

	if mods&tcell.ModMeta != 0 {
		rv |= menu.ModMeta
	}

	return rv
}

func mouseEvent(action tview.MouseAction, event *tcell.EventMouse) menu.Event {
	x, y := event.Position()

	return menu.Event{
		Source: menu.SourceTUI,
		Button: buttonFor(action, event.Buttons()),
		X:      x,
		Y:      y,
		Mods:   modsFor(event.Modifiers()),
		When:   event.When(),
	}
}

func keyEvent() menu.Event {
	return menu.Event{Source: menu.SourceTUI, Button: menu.ButtonNone, When: time.Now()}
}

// listIndexAt maps a screen row inside a single line list to an item index.
func listIndexAt(offset int, top int, height int, y int, count int) int {
	if y < top || y >= top+height {
		return -1
	}

	index := offset + y - top
	if index < 0 || index >= count {
		return -1
	}

	return index
}

func menuLine(item menu.DropdownItem) string {
	icon, ok := menuIcons[item.Icon]
	if !ok {
		icon = "•"
	}

	return icon + " " + item.Label
}

func setStatus(msg string, isErr bool) {
	statusView.Clear()

	if isErr {
		_, _ = fmt.Fprintf(statusView, "[red]%s[-]", tview.Escape(msg))

		return
	}

	_, _ = fmt.Fprint(statusView, tview.Escape(msg))
}

// tuiPowerer reports menu outcomes on the status line.
type tuiPowerer struct {
	hostname string
}

func (p tuiPowerer) Power(id string, action hydrogen.PowerAction) error {
	ctx, cancel := context.WithTimeout(context.Background(), rpc.Timeout())
	defer cancel()

	reqID, err := rpc.RequestPower(ctx, id, action)
	if err != nil {
		return err
	}

	setStatus(fmt.Sprintf("%s requested for %s (request %s)", action, p.hostname, reqID), false)

	return nil
}

func (p tuiPowerer) CopyText(text string) error {
	err := copyToClipboard(os.Stdout, text)
	if err != nil {
		return err
	}

	setStatus("copied UUID of "+p.hostname, false)

	return nil
}

func (p tuiPowerer) Failed(label string, err error) {
	setStatus(label+": "+err.Error(), true)
}

func closeMenu() {
	pages.RemovePage(menuPage)
	menuList = nil
	menuPending = nil

	app.SetFocus(vmList)
}

func openMenu(index int, x int, y int) {
	if index < 0 || index >= len(vmEntries) {
		return
	}

	entry := vmEntries[index]
	items := menu.ForVM(entry.VM, tuiPowerer{hostname: entry.Hostname})

	menuList = tview.NewList()
	menuList.ShowSecondaryText(false)
	menuList.SetHighlightFullLine(true)
	menuList.SetBorder(true)
	menuList.SetTitle(" " + entry.Hostname + " ")

	width := len(entry.Hostname) + 4

	for _, item := range items {
		menuList.AddItem(menuLine(item), "", 0, nil)

		if w := len(item.Label) + 6; w > width {
			width = w
		}
	}

	menuList.SetMouseCapture(func(action tview.MouseAction, event *tcell.EventMouse) (tview.MouseAction, *tcell.EventMouse) {
		if action == tview.MouseLeftClick {
			ev := mouseEvent(action, event)
			menuPending = &ev
		}

		return action, event
	})

	menuList.SetSelectedFunc(func(idx int, _ string, _ string, _ rune) {
		ev := keyEvent()
		if menuPending != nil {
			ev = *menuPending
		}

		item := items[idx]

		closeMenu()

		err := menu.Invoke(item, ev)
		if err != nil {
			setStatus(err.Error(), true)
		}

		refreshVMs()
	})

	// escape or tab
	menuList.SetDoneFunc(closeMenu)

	menuList.SetRect(x, y, width, len(items)+2)
	pages.AddPage(menuPage, menuList, false, true)
	app.SetFocus(menuList)
}

func showVM(index int) {
	infoView.Clear()

	if index >= len(vmEntries) {
		infoView.SetText("Quit?")

		return
	}

	entry := vmEntries[index]

	state := "[red]OFFLINE[-]"
	if entry.Online {
		state = "[green]ONLINE[-]"
	}

	_, _ = fmt.Fprintf(infoView,
		"Hostname: %s\nUUID: %s\nOS: %s\nIPv4: %s\nIPv6: %s\nHost: %s\nState: %s\nLast seen: %s\n\n"+
			"Enter or right click for actions, r to refresh",
		tview.Escape(entry.Hostname),
		entry.UUID,
		tview.Escape(entry.OS),
		entry.IPv4,
		entry.IPv6,
		tview.Escape(entry.Host),
		state,
		lastSeenString(entry.LastSeen),
	)
}

func fillVMList() {
	current := vmList.GetCurrentItem()

	vmList.Clear()

	for _, entry := range vmEntries {
		vmList.AddItem(entry.Hostname, "", 0, nil)
	}

	vmList.AddItem("Quit", "Press to exit", 'q', func() {
		app.Stop()
	})

	if current < vmList.GetItemCount() {
		vmList.SetCurrentItem(current)
	}

	showVM(vmList.GetCurrentItem())
}

func refreshVMs() {
	entries, err := getVMEntries()
	if err != nil {
		setStatus("refresh failed: "+err.Error(), true)

		return
	}

	vmEntries = entries
	fillVMList()
}

func vmChangedFunc(index int, _ string, _ string, _ rune) {
	showVM(index)
}

func vmSelectedFunc(index int, _ string, _ string, _ rune) {
	x, y, _, _ := vmList.GetInnerRect()
	itemOffset, _ := vmList.GetOffset()

	openMenu(index, x+2, y+index-itemOffset+1)
}

func vmListMouse(action tview.MouseAction, event *tcell.EventMouse) (tview.MouseAction, *tcell.EventMouse) {
	if action != tview.MouseRightClick {
		return action, event
	}

	x, y := event.Position()
	_, top, _, height := vmList.GetInnerRect()
	itemOffset, _ := vmList.GetOffset()

	index := listIndexAt(itemOffset, top, height, y, len(vmEntries))
	if index == -1 {
		return action, event
	}

	vmList.SetCurrentItem(index)
	openMenu(index, x, y)

	return tview.MouseConsumed, nil
}

func StartTui(serverAddr string) error {
	title := fmt.Sprintf(" hydrogenctl - %v ", serverAddr)

	var err error

	vmEntries, err = getVMEntries()
	if err != nil {
		return err
	}

	app = tview.NewApplication()
	app.EnableMouse(true)

	vmList = tview.NewList()
	vmList.ShowSecondaryText(false)
	vmList.SetHighlightFullLine(true)

	infoView = tview.NewTextView()
	infoView.SetDynamicColors(true)

	statusView = tview.NewTextView()
	statusView.SetDynamicColors(true)

	fillVMList()

	vmList.SetChangedFunc(vmChangedFunc)
	vmList.SetSelectedFunc(vmSelectedFunc)
	vmList.SetMouseCapture(vmListMouse)
	vmList.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Rune() == 'r' {
			refreshVMs()

			return nil
		}

		return event
	})

	mainFlex = tview.NewFlex()
	mainFlex.SetBorder(true)
	mainFlex.SetTitle(title)
	mainFlex.AddItem(vmList, 0, 1, true)
	mainFlex.AddItem(infoView, 0, 2, false)

	rootFlex := tview.NewFlex().SetDirection(tview.FlexRow)
	rootFlex.AddItem(mainFlex, 0, 1, true)
	rootFlex.AddItem(statusView, 1, 0, false)

	pages = tview.NewPages()
	pages.AddPage("main", rootFlex, true, true)

	if err := app.SetRoot(pages, true).SetFocus(vmList).Run(); err != nil {
		return fmt.Errorf("terminal UI failed: %w", err)
	}

	return nil
}

func init() {
	disableFlagSorting(TuiCmd)
}
