package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.klb.dev/clipkeep/internal/clip"
	"go.klb.dev/clipkeep/internal/history"
	"go.klb.dev/clipkeep/internal/hub"
	"go.klb.dev/clipkeep/internal/search"
)

// OnHistoryChanged registers fn to run after every history mutation. fn runs
// on the loop and must not call back into the Daemon's mutating methods.
func (d *Daemon) OnHistoryChanged(fn func(history.Change)) {
	d.store.OnChange(fn)
}

// VisibleEntries returns the entries whose content contains query
// (case-insensitive), newest first.
func (d *Daemon) VisibleEntries(query string) []history.Entry {
	return search.Filter(d.store.Snapshot(), query)
}

// FuzzyEntries returns the entries fuzzy-matching query, best match first.
func (d *Daemon) FuzzyEntries(query string) []history.Entry {
	return search.Fuzzy(d.store.Snapshot(), query)
}

// Entry returns the entry with id.
func (d *Daemon) Entry(id string) (history.Entry, bool) {
	return d.store.Get(id)
}

// Head returns the newest entry.
func (d *Daemon) Head() (history.Entry, bool) {
	return d.store.Head()
}

// CopyEntry writes the entry's content to the clipboard. The monitor is told
// about the write so it is not captured again.
func (d *Daemon) CopyEntry(ctx context.Context, id string) (Outcome, error) {
	return d.act(ctx, func() error { return d.copyEntry(id) })
}

func (d *Daemon) copyEntry(id string) error {
	e, ok := d.store.Get(id)
	if !ok {
		d.setStatus("No such item")
		return history.ErrNotFound
	}
	// Marked before writing so a concurrent sample cannot see the new value first.
	d.mon.MarkWritten(e.Content)
	if err := d.backend.Write(e.Content); err != nil {
		d.mon.ClearWritten()
		if !errors.Is(err, clip.ErrUnavailable) {
			err = fmt.Errorf("%w: %w", clip.ErrUnavailable, err)
		}
		slog.Warn("clipboard write failed", "id", id, "err", err)
		d.setStatus(fmt.Sprintf("Error copying to clipboard: %v", err))
		return err
	}
	slog.Info("entry copied to clipboard", "id", id)
	d.setStatus("Copied to clipboard")
	return nil
}

// DeleteEntry removes the entry with id. It returns history.ErrNotFound if
// there is none.
func (d *Daemon) DeleteEntry(ctx context.Context, id string) (Outcome, error) {
	return d.act(ctx, func() error {
		if _, err := d.store.Delete(id); err != nil {
			return err
		}
		n := d.store.Len()
		slog.Info("entry deleted", "id", id, "items", n)
		d.setStatus(fmt.Sprintf("Item deleted (%d items remaining)", n))
		return nil
	})
}

// ClearAll empties the history. Confirmation is the caller's concern.
func (d *Daemon) ClearAll(ctx context.Context) (Outcome, error) {
	return d.act(ctx, func() error {
		d.store.Clear()
		slog.Info("history cleared")
		d.setStatus("History cleared")
		return nil
	})
}

// SetMonitoring pauses or resumes clipboard capture.
func (d *Daemon) SetMonitoring(ctx context.Context, on bool) (Outcome, error) {
	return d.act(ctx, func() error {
		d.mon.SetActive(on)
		state := "disabled"
		if on {
			state = "enabled"
		}
		slog.Info("monitoring " + state)
		d.setStatus("Monitoring " + state)
		d.hub.Publish(hub.Event{Change: history.Change{Kind: history.ChangeMonitoring, Count: d.store.Len()}, Monitoring: on})
		return nil
	})
}

// Monitoring reports whether clipboard capture is active.
func (d *Daemon) Monitoring() bool {
	return d.mon.Active()
}

// SetMaxItems changes the history capacity; excess entries are dropped.
func (d *Daemon) SetMaxItems(ctx context.Context, n int) error {
	return d.do(ctx, func() {
		d.store.SetMaxSize(n)
		slog.Info("history capacity changed", "max_items", d.store.MaxSize(), "items", d.store.Len())
	})
}

// Save writes the history file now.
func (d *Daemon) Save(ctx context.Context) (Outcome, error) {
	return d.act(ctx, d.save)
}

// StatusMessage returns the last human-readable status line.
func (d *Daemon) StatusMessage() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.status
}

// Status returns a summary of the daemon state.
func (d *Daemon) Status() Status {
	d.mu.RLock()
	msg, saved := d.status, d.lastSaved
	d.mu.RUnlock()
	return Status{
		Count:       d.store.Len(),
		MaxItems:    d.store.MaxSize(),
		Monitoring:  d.mon.Active(),
		HistoryPath: d.cfg.HistoryPath,
		Backend:     d.backend.Name(),
		Message:     msg,
		Watchers:    d.hub.Count(),
		LastSaved:   saved,
	}
}

// Hub returns the broker history changes are published on.
func (d *Daemon) Hub() *hub.Hub { return d.hub }
