package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/google/uuid"
	"github.com/spf13/cast"

	"hydrogen/hydrogen"
	"hydrogen/hydrogenctl/menu"
	"hydrogen/hydrogenctl/rpc"
	"hydrogen/hydrogenweb/components"
	"hydrogen/hydrogenweb/util"
)

func GetVM(ctx context.Context, vmID string) (hydrogen.VMEntry, error) {
	err := util.InitRPCConn()
	if err != nil {
		return hydrogen.VMEntry{}, fmt.Errorf("error getting VM: %w", err)
	}

	entry, err := rpc.GetVM(ctx, vmID)
	if err != nil {
		return hydrogen.VMEntry{}, fmt.Errorf("error getting VM: %w", err)
	}

	return entry, nil
}

func RequestPower(ctx context.Context, vmID string, action hydrogen.PowerAction) (string, error) {
	err := util.InitRPCConn()
	if err != nil {
		return "", fmt.Errorf("error requesting %s: %w", action, err)
	}

	return rpc.RequestPower(ctx, vmID, action)
}

func serveVMError(writer http.ResponseWriter, request *http.Request, vmID string, err error) {
	util.LogError(err, request.RemoteAddr)

	if httpStatus(err) == http.StatusNotFound {
		templ.Handler(
			components.VMNotFound(vmID), //nolint:contextcheck
			templ.WithStatus(http.StatusNotFound),
		).ServeHTTP(writer, request)

		return
	}

	serveError(writer, request, err)
}

type VMHandler struct {
	GetVM func(context.Context, string) (hydrogen.VMEntry, error)
}

func NewVMHandler() VMHandler {
	return VMHandler{
		GetVM: GetVM,
	}
}

func (v VMHandler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	vmID := request.PathValue("uuid")

	if _, err := uuid.Parse(vmID); err != nil {
		templ.Handler(
			components.VMNotFound(vmID), //nolint:contextcheck
			templ.WithStatus(http.StatusNotFound),
		).ServeHTTP(writer, request)

		return
	}

	entry, err := v.GetVM(request.Context(), vmID)
	if err != nil {
		serveVMError(writer, request, vmID, err)

		return
	}

	aVM := components.VM{VMEntry: entry, Menu: menu.ForVM(entry.VM, menu.PowererFuncs{})}

	templ.Handler(components.VMPage(aVM, components.Flash{})).ServeHTTP(writer, request) //nolint:contextcheck
}

// webPowerer runs menu actions for one request and keeps their outcome for
// the response.
type webPowerer struct {
	ctx     context.Context //nolint:containedctx
	power   func(context.Context, string, hydrogen.PowerAction) (string, error)
	message string
	copied  string
	err     error
}

func (p *webPowerer) Power(id string, action hydrogen.PowerAction) error {
	reqID, err := p.power(p.ctx, id, action)
	if err != nil {
		return err
	}

	p.message = fmt.Sprintf("%s requested (request %s)", action, reqID)

	return nil
}

// CopyText hands the text to the browser, which places it on the clipboard.
func (p *webPowerer) CopyText(text string) error {
	p.copied = text
	p.message = "UUID copied"

	return nil
}

func (p *webPowerer) Failed(label string, err error) {
	p.err = fmt.Errorf("%s failed: %w", label, err)
}

func jsButton(btn int) menu.Button {
	switch btn {
	case 0:
		return menu.ButtonPrimary
	case 1:
		return menu.ButtonMiddle
	case 2: //nolint:mnd
		return menu.ButtonSecondary
	default:
		return menu.ButtonNone
	}
}

// webEvent builds the menu event from the fields the page script fills in.
// Without the script every field is zero, which reads as a primary click.
func webEvent(request *http.Request) menu.Event {
	return menu.Event{
		Source: menu.SourceWeb,
		Button: jsButton(cast.ToInt(request.PostFormValue("btn"))),
		X:      cast.ToInt(request.PostFormValue("x")),
		Y:      cast.ToInt(request.PostFormValue("y")),
		Mods:   menu.Modifiers(cast.ToUint8(request.PostFormValue("mods"))),
		When:   time.Now(),
	}
}

type VMMenuHandler struct {
	GetVM        func(context.Context, string) (hydrogen.VMEntry, error)
	RequestPower func(context.Context, string, hydrogen.PowerAction) (string, error)
}

func NewVMMenuHandler() VMMenuHandler {
	return VMMenuHandler{
		GetVM:        GetVM,
		RequestPower: RequestPower,
	}
}

func (v VMMenuHandler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	vmID := request.PathValue("uuid")

	err := request.ParseForm()
	if err != nil {
		util.LogError(err, request.RemoteAddr)
		http.Error(writer, "invalid form", http.StatusBadRequest)

		return
	}

	label := request.PostFormValue("label")
	if label == "" {
		http.Error(writer, ErrNoLabel.Error(), http.StatusBadRequest)

		return
	}

	entry, err := v.GetVM(request.Context(), vmID)
	if err != nil {
		serveVMError(writer, request, vmID, err)

		return
	}

	powerer := &webPowerer{ctx: request.Context(), power: v.RequestPower}
	items := menu.ForVM(entry.VM, powerer)

	item, err := menu.Find(items, label)
	if err != nil {
		util.LogError(err, request.RemoteAddr)
		http.Error(writer, fmt.Sprintf("%s: %s", ErrLabelNotFound, label), http.StatusConflict)

		return
	}

	err = menu.Invoke(item, webEvent(request))
	if err == nil {
		err = powerer.err
	}

	flash := components.Flash{Message: powerer.message, Copied: powerer.copied}
	statusCode := http.StatusOK

	if err != nil {
		util.LogError(err, request.RemoteAddr)

		flash = components.Flash{Message: util.GetErrDesc(err), Error: true}
		statusCode = httpStatus(err)

		if errors.Is(err, menu.ErrNilAction) {
			statusCode = http.StatusInternalServerError
		}
	}

	// show the menu for the state the VM is in now
	aVM := components.VM{VMEntry: entry, Menu: menu.ForVM(entry.VM, menu.PowererFuncs{})}

	templ.Handler(
		components.VMPage(aVM, flash), //nolint:contextcheck
		templ.WithStatus(statusCode),
	).ServeHTTP(writer, request)
}
