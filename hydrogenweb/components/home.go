package components

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"hydrogen/hydrogen"
)

func Home(info hydrogen.HostInfo, vms []VM) templ.Component {
	return page("Home", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<h1>%s</h1><p>libvirt %s, %d VMs defined, %d online.</p>`,
			esc(info.Host), esc(info.LibvirtVersion), info.VMsDefined, info.VMsOnline)
		if err != nil {
			return err
		}

		if len(vms) == 0 {
			return nil
		}

		return vmsTable(vms).Render(ctx, w)
	}))
}
