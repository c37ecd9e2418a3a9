package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"google.golang.org/grpc"

	"go.klb.dev/clipkeep/internal/clip"
	"go.klb.dev/clipkeep/internal/daemon"
	"go.klb.dev/clipkeep/internal/grpcservice"
	"go.klb.dev/clipkeep/internal/history"
	"go.klb.dev/clipkeep/internal/ipc"
)

func newDaemonCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Record clipboard history and serve it to the CLI",
		Long: `Starts the clipkeep daemon. It polls the system clipboard twice a
second, records every new piece of text, saves the history every --autosave
and once more on shutdown, and answers list/copy/delete/... requests on a
local socket.

Changes to max-items in the config file are applied without a restart.

Config file search order:
  /etc/clipkeep/clipkeep.toml
  $HOME/.config/clipkeep/clipkeep.toml
  path supplied via --config

Precedence (lowest → highest): defaults → config file → CLIPKEEP_* env vars → flags`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runDaemon(v) },
	}

	f := cmd.Flags()
	f.String("history", defaultHistoryPath(), "history file")
	f.Int("max-items", history.DefaultMaxSize, "number of entries to keep when the history file does not set one")
	f.Duration("autosave", daemon.DefaultAutoSave, "interval between automatic saves")
	f.String("backend", "system", "clipboard backend: system|memory")
	addSocketFlag(cmd)
	addLoggingFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runDaemon(v *viper.Viper) error {
	setupLogging(v)

	backend, err := newBackend(v.GetString("backend"))
	if err != nil {
		return err
	}
	defer backend.Close()

	cfg := daemon.Config{
		HistoryPath: v.GetString("history"),
		MaxItems:    v.GetInt("max-items"),
		AutoSave:    v.GetDuration("autosave"),
	}

	slog.Info("clipkeep daemon starting",
		"version", Version,
		"history", cfg.HistoryPath,
		"backend", backend.Name(),
	)

	d := daemon.New(cfg, backend)

	sock := v.GetString("socket")
	ln, err := ipc.Listen(sock)
	if err != nil {
		if errors.Is(err, ipc.ErrInUse) {
			return fmt.Errorf("another clipkeep daemon is already running on %s", sock)
		}
		return fmt.Errorf("listen %s: %w", sock, err)
	}

	srv := grpc.NewServer(grpc.UnaryInterceptor(grpcservice.LoggingInterceptor))
	grpcservice.Register(srv, grpcservice.New(d, Version))
	go func() {
		if err := srv.Serve(ln); err != nil {
			slog.Error("ipc server stopped", "err", err)
		}
	}()
	defer srv.Stop()
	slog.Info("IPC socket listening", "path", sock)

	watchConfig(v, d)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return d.Run(ctx)
}

func newBackend(name string) (clip.Backend, error) {
	switch name {
	case "", "system":
		return clip.New(), nil
	case "memory":
		return clip.NewMemory(""), nil
	default:
		return nil, fmt.Errorf("unknown clipboard backend %q (want system or memory)", name)
	}
}

// watchConfig re-applies max-items whenever the config file changes.
func watchConfig(v *viper.Viper, d *daemon.Daemon) {
	if v.ConfigFileUsed() == "" {
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) { applyConfigChange(v, d, e) })
	v.WatchConfig()
	slog.Info("watching config file", "file", v.ConfigFileUsed())
}

// applyConfigChange sets the history capacity from a reloaded config file.
// Only a max-items key present in the file counts; defaults never shrink a
// capacity that was loaded from history.
func applyConfigChange(v *viper.Viper, d *daemon.Daemon, e fsnotify.Event) {
	slog.Info("config file changed", "file", e.Name, "op", e.Op.String())
	if !v.InConfig("max-items") {
		return
	}
	n := v.GetInt("max-items")
	if n == d.Status().MaxItems {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.SetMaxItems(ctx, n); err != nil {
		slog.Warn("could not apply max-items", "max_items", n, "err", err)
	}
}
