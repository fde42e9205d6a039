package components

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/a-h/templ"
	"github.com/dustin/go-humanize"

	"hydrogen/hydrogen"
	"hydrogen/hydrogenctl/menu"
)

// VM is a VM entry with the dropdown offered for it.
type VM struct {
	hydrogen.VMEntry
	Menu []menu.DropdownItem
}

// Flash is the outcome of a menu action shown above a VM.
type Flash struct {
	Message string
	Copied  string
	Error   bool
}

// feedScript reloads the page whenever the server pushes a changed list.
const feedScript = `(function () {
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var ws = new WebSocket(proto + location.host + "/ws/vms");
  var first = true;
  ws.onmessage = function () {
    if (first) { first = false; return; }
    location.reload();
  };
})();`

func lastSeen(t time.Time) string {
	if t.IsZero() {
		return "never"
	}

	return humanize.Time(t)
}

func vmURL(id string) string {
	return string(templ.URL("/vm/" + id))
}

func writeDropdown(w io.Writer, aVM VM) error {
	_, err := fmt.Fprintf(w, `<details class="dropdown"><summary>Actions</summary>`+
		`<form class="menu" method="post" action="%s/menu">`+
		`<input type="hidden" name="btn" value="0"><input type="hidden" name="x" value="0">`+
		`<input type="hidden" name="y" value="0"><input type="hidden" name="mods" value="0">`,
		esc(vmURL(aVM.UUID)))
	if err != nil {
		return err
	}

	for _, item := range aVM.Menu {
		_, err = fmt.Fprintf(w, `<button type="submit" name="label" value="%s" data-icon="%s">%s</button>`,
			esc(item.Label), esc(item.Icon), esc(item.Label))
		if err != nil {
			return err
		}
	}

	_, err = io.WriteString(w, `</form></details>`)

	return err
}

func vmsTable(vms []VM) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<table id="vms"><thead><tr><th>Hostname</th><th>UUID</th><th>OS</th>`+
			`<th>IPv4</th><th>IPv6</th><th>Host</th><th>State</th><th>Last seen</th><th></th></tr></thead><tbody>`)
		if err != nil {
			return err
		}

		for _, aVM := range vms {
			_, err = fmt.Fprintf(w, `<tr data-uuid="%s"><td><a href="%s">%s</a></td><td>%s</td><td>%s</td>`+
				`<td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>`,
				esc(aVM.UUID),
				esc(vmURL(aVM.UUID)),
				esc(aVM.Hostname),
				esc(aVM.UUID),
				esc(aVM.OS),
				esc(aVM.IPv4),
				esc(aVM.IPv6),
				esc(aVM.Host),
				stateSpan(aVM.Online),
				esc(lastSeen(aVM.LastSeen)),
			)
			if err != nil {
				return err
			}

			err = writeDropdown(w, aVM)
			if err != nil {
				return err
			}

			_, err = io.WriteString(w, `</td></tr>`)
			if err != nil {
				return err
			}
		}

		_, err = fmt.Fprintf(w, `</tbody></table><script>%s</script>`, feedScript)

		return err
	})
}

func VMs(vms []VM) templ.Component {
	return page("VMs", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if len(vms) == 0 {
			_, err := io.WriteString(w, `<p>No VMs defined.</p>`)

			return err
		}

		return vmsTable(vms).Render(ctx, w)
	}))
}

func writeFlash(w io.Writer, flash Flash) error {
	if flash.Message == "" {
		return nil
	}

	class := "flash"
	if flash.Error {
		class += " error"
	}

	_, err := fmt.Fprintf(w, `<p class="%s">%s</p>`, class, esc(flash.Message))
	if err != nil || flash.Copied == "" {
		return err
	}

	_, err = fmt.Fprintf(w, `<input id="copied" readonly value="%s">`+
		`<script>navigator.clipboard && navigator.clipboard.writeText(document.getElementById("copied").value);</script>`,
		esc(flash.Copied))

	return err
}

func VMPage(aVM VM, flash Flash) templ.Component {
	return page(aVM.Hostname, templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		err := writeFlash(w, flash)
		if err != nil {
			return err
		}

		_, err = fmt.Fprintf(w, `<h1>%s</h1><dl>`+
			`<dt>UUID</dt><dd>%s</dd><dt>OS</dt><dd>%s</dd><dt>IPv4</dt><dd>%s</dd><dt>IPv6</dt><dd>%s</dd>`+
			`<dt>Host</dt><dd>%s</dd><dt>State</dt><dd>%s</dd><dt>Last seen</dt><dd>%s</dd></dl>`,
			esc(aVM.Hostname),
			esc(aVM.UUID),
			esc(aVM.OS),
			esc(aVM.IPv4),
			esc(aVM.IPv6),
			esc(aVM.Host),
			stateSpan(aVM.Online),
			esc(lastSeen(aVM.LastSeen)),
		)
		if err != nil {
			return err
		}

		return writeDropdown(w, aVM)
	}))
}

func VMNotFound(id string) templ.Component {
	return page("VM not found", templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<h1>VM not found</h1><p>No VM with UUID %s.</p><p><a href="/vms">All VMs</a></p>`,
			esc(id))

		return err
	}))
}

func ErrorPage(message string) templ.Component {
	return page("Error", templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<h1>Error</h1><p class="flash error">%s</p>`, esc(message))

		return err
	}))
}
