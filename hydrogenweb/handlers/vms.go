package handlers

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/a-h/templ"

	"hydrogen/hydrogen"
	"hydrogen/hydrogenctl/menu"
	"hydrogen/hydrogenctl/rpc"
	"hydrogen/hydrogenweb/components"
	"hydrogen/hydrogenweb/util"
)

func GetVMs(ctx context.Context) ([]hydrogen.VMEntry, error) {
	err := util.InitRPCConn()
	if err != nil {
		return []hydrogen.VMEntry{}, fmt.Errorf("error getting VMs: %w", err)
	}

	entries, err := rpc.GetVMs(ctx, false)
	if err != nil {
		return []hydrogen.VMEntry{}, fmt.Errorf("error getting VMs: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Hostname < entries[j].Hostname
	})

	return entries, nil
}

// withMenus pairs each entry with its dropdown. The items are only rendered,
// so their actions do nothing.
func withMenus(entries []hydrogen.VMEntry) []components.VM {
	vms := make([]components.VM, 0, len(entries))

	for _, entry := range entries {
		vms = append(vms, components.VM{VMEntry: entry, Menu: menu.ForVM(entry.VM, menu.PowererFuncs{})})
	}

	return vms
}

type VMsHandler struct {
	GetVMs func(ctx context.Context) ([]hydrogen.VMEntry, error)
}

func NewVMsHandler() VMsHandler {
	return VMsHandler{
		GetVMs: GetVMs,
	}
}

func (v VMsHandler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	entries, err := v.GetVMs(request.Context())
	if err != nil {
		util.LogError(err, request.RemoteAddr)

		serveError(writer, request, err)

		return
	}

	templ.Handler(components.VMs(withMenus(entries))).ServeHTTP(writer, request) //nolint:contextcheck
}
