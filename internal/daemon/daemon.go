// Package daemon runs the clipboard-history core: one polling goroutine and
// one cooperative loop that is the only mutator of the history store.
//
// Every mutating call (user actions arriving over IPC, captures from the
// monitor, auto-save) is executed on the loop, so a delete can never race
// with an insert. Reads go straight to the store, which hands out copies.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.klb.dev/clipkeep/internal/clip"
	"go.klb.dev/clipkeep/internal/history"
	"go.klb.dev/clipkeep/internal/hub"
	"go.klb.dev/clipkeep/internal/logging"
	"go.klb.dev/clipkeep/internal/monitor"
)

// DefaultAutoSave is the period between automatic saves.
const DefaultAutoSave = 30 * time.Second

// ErrNotRunning is returned by mutating calls made while Run is not active.
var ErrNotRunning = errors.New("daemon not running")

// Config holds daemon settings.
type Config struct {
	// HistoryPath is the JSON file history is loaded from and saved to.
	HistoryPath string
	// MaxItems is the capacity used when no history could be loaded.
	// Zero selects history.DefaultMaxSize.
	MaxItems int
	// AutoSave is the period between automatic saves. Zero selects DefaultAutoSave.
	AutoSave time.Duration
	// Monitor tunes the clipboard poller; the zero value is production.
	Monitor monitor.Options
	// StoreOptions are passed to history.New.
	StoreOptions []history.Option
}

// Status is a point-in-time summary of the daemon.
type Status struct {
	Count       int
	MaxItems    int
	Monitoring  bool
	HistoryPath string
	Backend     string
	Message     string
	Watchers    int
	LastSaved   time.Time
}

// Outcome is the status line and entry count left by a mutating call, read
// on the loop before any other event can change them.
type Outcome struct {
	Message string
	Count   int
}

// Daemon owns the history store, the monitor and the cooperative loop.
type Daemon struct {
	cfg     Config
	backend clip.Backend
	store   *history.Store
	mon     *monitor.Monitor
	hub     *hub.Hub

	reqCh   chan func()
	running atomic.Bool
	done    chan struct{}

	mu        sync.RWMutex
	status    string
	lastSaved time.Time
}

// New builds a Daemon and loads history from cfg.HistoryPath. A corrupt
// history file is logged and replaced by an empty history; it never fails
// startup.
func New(cfg Config, backend clip.Backend) *Daemon {
	if cfg.AutoSave <= 0 {
		cfg.AutoSave = DefaultAutoSave
	}
	d := &Daemon{
		cfg:     cfg,
		backend: backend,
		store:   history.New(cfg.MaxItems, cfg.StoreOptions...),
		mon:     monitor.New(backend, cfg.Monitor),
		hub:     hub.New(),
		reqCh:   make(chan func()),
		done:    make(chan struct{}),
		status:  "Ready",
	}
	d.store.OnChange(func(c history.Change) {
		d.hub.Publish(hub.Event{Change: c, Monitoring: d.mon.Active()})
	})
	d.load()
	return d
}

func (d *Daemon) load() {
	_, statErr := os.Stat(d.cfg.HistoryPath)
	err := d.store.Load(d.cfg.HistoryPath)
	switch {
	case err != nil:
		slog.Warn("history unreadable, starting empty", "path", d.cfg.HistoryPath, "err", err)
		d.setStatus(fmt.Sprintf("Error loading history: %v", err))
		if d.cfg.MaxItems > 0 {
			d.store.SetMaxSize(d.cfg.MaxItems)
		}
	case errors.Is(statErr, os.ErrNotExist):
		slog.Info("no history file yet", "path", d.cfg.HistoryPath)
		if d.cfg.MaxItems > 0 {
			d.store.SetMaxSize(d.cfg.MaxItems)
		}
	default:
		slog.Info("history loaded", "path", d.cfg.HistoryPath, "items", d.store.Len(), "max_items", d.store.MaxSize())
		d.setStatus(fmt.Sprintf("Loaded %d items from history", d.store.Len()))
	}
}

// Run starts the monitor and runs the cooperative loop until ctx is
// cancelled, then performs a final save. A Daemon can be run once.
func (d *Daemon) Run(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		return errors.New("daemon already started")
	}
	defer close(d.done)

	monCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go d.mon.Run(monCtx)

	t := time.NewTicker(d.cfg.AutoSave)
	defer t.Stop()

	slog.Info("history loop started",
		"path", d.cfg.HistoryPath,
		"items", d.store.Len(),
		"autosave", d.cfg.AutoSave,
	)

	for {
		select {
		case <-ctx.Done():
			_ = d.save()
			slog.Info("history loop stopped", "items", d.store.Len())
			return nil
		case c := <-d.mon.Captures():
			d.capture(c)
		case fn := <-d.reqCh:
			fn()
		case <-t.C:
			_ = d.save()
		}
	}
}

// do runs fn on the loop and waits for it to finish.
func (d *Daemon) do(ctx context.Context, fn func()) error {
	if !d.running.Load() {
		return ErrNotRunning
	}
	ran := make(chan struct{})
	select {
	case d.reqCh <- func() { defer close(ran); fn() }:
	case <-d.done:
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}
	<-ran
	return nil
}

// act runs fn on the loop and snapshots the resulting Outcome there.
func (d *Daemon) act(ctx context.Context, fn func() error) (Outcome, error) {
	var (
		out Outcome
		err error
	)
	if runErr := d.do(ctx, func() {
		err = fn()
		out = Outcome{Message: d.StatusMessage(), Count: d.store.Len()}
	}); runErr != nil {
		return Outcome{}, runErr
	}
	return out, err
}

func (d *Daemon) capture(c monitor.Capture) {
	e, err := d.store.Add(c.Content)
	if err != nil {
		slog.Debug("capture skipped", "reason", err)
		return
	}
	n := d.store.Len()
	slog.Info("entry added", "id", e.ID, "items", n)
	slog.Debug("entry content", "id", e.ID, "preview", logging.Preview(e.Content))
	d.setStatus(fmt.Sprintf("Added new item (%d items in history)", n))
}

func (d *Daemon) save() error {
	if err := d.store.Save(d.cfg.HistoryPath); err != nil {
		slog.Error("history save failed", "path", d.cfg.HistoryPath, "err", err)
		d.setStatus(fmt.Sprintf("Error saving history: %v", err))
		return err
	}
	n := d.store.Len()
	slog.Debug("history saved", "path", d.cfg.HistoryPath, "items", n)
	d.mu.Lock()
	d.lastSaved = time.Now()
	d.status = fmt.Sprintf("Saved %d items to history", n)
	d.mu.Unlock()
	return nil
}

func (d *Daemon) setStatus(msg string) {
	d.mu.Lock()
	d.status = msg
	d.mu.Unlock()
}
