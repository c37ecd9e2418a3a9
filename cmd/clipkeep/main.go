// clipkeep: clipboard history daemon and CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"go.klb.dev/clipkeep/internal/logging"
)

// Version is set at build time via -ldflags "-X main.Version=x.y.z".
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "clipkeep",
		Short: "Clipboard history manager",
		Long: `clipkeep records every piece of text you copy and lets you search,
re-copy and prune the history from the command line.

Run "clipkeep daemon" once per desktop session. The daemon polls the system
clipboard, keeps the newest entries (100 by default) and saves them to a JSON
file. Every other sub-command talks to the daemon over a local socket.

Config file search order (first found wins):
  /etc/clipkeep/clipkeep.toml
  $HOME/.config/clipkeep/clipkeep.toml
  path supplied via --config

All flags can be set via CLIPKEEP_<FLAG> env vars or config-file keys.
See "clipkeep daemon --help" for the full flag reference.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newDaemonCmd(),
		newListCmd(),
		newCopyCmd(),
		newPasteCmd(),
		newDeleteCmd(),
		newClearCmd(),
		newMonitorCmd("pause", false),
		newMonitorCmd("resume", true),
		newStatusCmd(),
		newSaveCmd(),
		newWatchCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "clipkeep %s\n", Version)
		},
	}
}

// resolveLogging sets up the global slog logger after flags are parsed.
func resolveLogging(interactive bool, formatStr, levelStr string) {
	format := logging.ParseFormat(formatStr)
	level := logging.ParseLevel(levelStr)
	if levelStr == "" {
		if interactive {
			level = logging.ParseLevel("debug")
		} else {
			level = logging.ParseLevel("info")
		}
	}
	logging.Setup(format, level)
}
