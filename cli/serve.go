// ABOUTME: Web recap browser subcommand
// ABOUTME: Serves saved recaps read-only over HTTP
package cli

import (
	"flag"
	"fmt"
	"io"

	"github.com/harperreed/onsite/web"
)

// ServeCommand runs the recap browser until the server stops.
func (a *App) ServeCommand(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(out)
	addr := fs.String("addr", "localhost:8090", "Address to listen on")
	if err := fs.Parse(args); err != nil {
		return err
	}

	server, err := web.NewServer(a.Store, a.Logger)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "Serving recaps at http://%s\n", *addr)
	return server.Start(*addr)
}
