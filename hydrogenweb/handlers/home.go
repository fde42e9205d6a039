package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/a-h/templ"

	"hydrogen/hydrogen"
	"hydrogen/hydrogenctl/rpc"
	"hydrogen/hydrogenweb/components"
	"hydrogen/hydrogenweb/util"
)

func GetHostInfo(ctx context.Context) (hydrogen.HostInfo, error) {
	err := util.InitRPCConn()
	if err != nil {
		return hydrogen.HostInfo{}, fmt.Errorf("error getting host info: %w", err)
	}

	info, err := rpc.GetHostInfo(ctx)
	if err != nil {
		return hydrogen.HostInfo{}, fmt.Errorf("error getting host info: %w", err)
	}

	return info, nil
}

type HomeHandler struct {
	GetHostInfo func(context.Context) (hydrogen.HostInfo, error)
	GetVMs      func(context.Context) ([]hydrogen.VMEntry, error)
}

func NewHomeHandler() HomeHandler {
	return HomeHandler{
		GetHostInfo: GetHostInfo,
		GetVMs:      GetVMs,
	}
}

func (h HomeHandler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	info, err := h.GetHostInfo(request.Context())
	if err != nil {
		util.LogError(err, request.RemoteAddr)

		http.Error(writer, "failed to retrieve host info", http.StatusInternalServerError)

		return
	}

	entries, err := h.GetVMs(request.Context())
	if err != nil {
		util.LogError(err, request.RemoteAddr)

		http.Error(writer, "failed to retrieve VMs", http.StatusInternalServerError)

		return
	}

	templ.Handler(components.Home(info, withMenus(entries))).ServeHTTP(writer, request) //nolint:contextcheck
}
