// Package components renders the dashboard pages.
package components

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

var esc = templ.EscapeString

const styles = `body{font-family:sans-serif;margin:0}
nav{background:#223;color:#fff;padding:.5em 1em}
nav a{color:#fff;margin-right:1em}
main{padding:1em}
table{border-collapse:collapse}
td,th{padding:.25em .75em;text-align:left}
.online{color:#070}
.offline{color:#a00}
.flash{padding:.5em;background:#eef}
.flash.error{background:#fee}
details.dropdown{position:relative;display:inline-block}
details.dropdown form{position:absolute;background:#fff;border:1px solid #999;z-index:1}
details.dropdown button{display:block;width:100%;text-align:left;border:0;background:none;padding:.25em 1em}
details.dropdown button:hover{background:#ddf}`

// menuScript records the pointer details of a dropdown click in the form.
const menuScript = `document.addEventListener("click", function (e) {
  var b = e.target.closest("form.menu button");
  if (!b) { return; }
  var f = b.form;
  f.elements.btn.value = e.detail === 0 ? -1 : e.button;
  f.elements.x.value = e.clientX;
  f.elements.y.value = e.clientY;
  f.elements.mods.value = (e.shiftKey ? 1 : 0) | (e.ctrlKey ? 2 : 0) | (e.altKey ? 4 : 0) | (e.metaKey ? 8 : 0);
}, true);`

func page(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`+
			`<title>%s - hydrogen</title><style>%s</style></head><body>`+
			`<nav><a href="/">hydrogen</a><a href="/vms">VMs</a></nav><main>`,
			esc(title), styles)
		if err != nil {
			return err
		}

		err = body.Render(ctx, w)
		if err != nil {
			return err
		}

		_, err = fmt.Fprintf(w, `</main><script>%s</script></body></html>`, menuScript)

		return err
	})
}

func stateSpan(online bool) string {
	if online {
		return `<span class="state online">ONLINE</span>`
	}

	return `<span class="state offline">OFFLINE</span>`
}
