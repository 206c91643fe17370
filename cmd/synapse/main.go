// Command synapse reads the Synapse news feed from the terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/synapse-news/synapse-client/internal/config"
)

var exampleUsage = strings.TrimSpace(`
  synapse login --email you@example.com
  synapse feed
  synapse feed --plain --pages 3 --topic 2
  synapse history --all
  synapse --api-url https://synapse.example.com/api --redis-addr localhost:6379 saved
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func newRootCmd() *cobra.Command {
	a := &app{cfg: config.DefaultConfig()}

	root := &cobra.Command{
		Use:           "synapse",
		Short:         "Read your Synapse news feed from the terminal",
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
	}

	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "config file (default $HOME/.synapse/config.toml)")
	config.BindFlags(root.PersistentFlags(), &a.cfg)

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newRegisterCmd(a),
		newProfileCmd(a),
		newPasswdCmd(a),
		newFeedCmd(a),
		newSavedCmd(a),
		newHistoryCmd(a),
		newFavoriteCmd(a, true),
		newFavoriteCmd(a, false),
		newReadCmd(a),
		newTopicsCmd(a),
		newSourcesCmd(a),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
