package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"codeberg.org/sigterm-de/boophost/internal/app"
)

// Injected at build time via -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "boophost",
	Short: "Run Boop-style text transformation scripts",
	Long: `boophost runs small scripts that transform text: the whole document, or
each selected range of it. Scripts are JavaScript run in-process, or Python,
Ruby, Perl, Lua and Node.js run through a bridge process.

User scripts live in ~/.config/boophost/scripts.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(fmt.Sprintf("boophost %s (commit %s, built %s)\n", version, commit, date))
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr instead of the log file")
}

// newApp wires the host with status messages going to statusOut.
func newApp(statusOut io.Writer) (*app.App, error) {
	return app.New(app.Options{Version: version, StatusOut: statusOut, Verbose: verbose})
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "boophost:", err)
		os.Exit(1)
	}
}
