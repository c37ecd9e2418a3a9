// Package monitor samples the clipboard at a fixed interval and reports
// genuine changes. It never touches the history store: captures are handed
// to the daemon loop over a channel.
package monitor

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"go.klb.dev/clipkeep/internal/clip"
	"go.klb.dev/clipkeep/internal/logging"
)

const (
	// DefaultInterval is the fixed period between clipboard samples.
	DefaultInterval = 500 * time.Millisecond
	// DefaultSuppressWindow is how long a value written by MarkWritten is
	// ignored by the comparison.
	DefaultSuppressWindow = time.Second

	captureBuffer = 16
)

// Capture is a clipboard value that differs from the last one seen.
type Capture struct {
	Content string
	At      time.Time
}

// Options tunes a Monitor. Zero values select the defaults.
type Options struct {
	Interval       time.Duration
	SuppressWindow time.Duration
	Now            func() time.Time
}

// Monitor polls a clip.Backend. It is Active after construction.
type Monitor struct {
	backend  clip.Backend
	interval time.Duration
	window   time.Duration
	now      func() time.Time
	out      chan Capture
	errLog   *rate.Limiter

	active  atomic.Bool
	reprime atomic.Bool

	mu        sync.Mutex
	lastSeen  string
	written   string
	writtenAt time.Time
}

// New returns a Monitor for backend. Call Run to start sampling.
func New(backend clip.Backend, opts Options) *Monitor {
	m := &Monitor{
		backend:  backend,
		interval: opts.Interval,
		window:   opts.SuppressWindow,
		now:      opts.Now,
		out:      make(chan Capture, captureBuffer),
		// One read-failure line every 30s is plenty for a locked clipboard.
		errLog: rate.NewLimiter(rate.Every(30*time.Second), 1),
	}
	if m.interval <= 0 {
		m.interval = DefaultInterval
	}
	if m.window <= 0 {
		m.window = DefaultSuppressWindow
	}
	if m.now == nil {
		m.now = time.Now
	}
	m.active.Store(true)
	m.reprime.Store(true)
	return m
}

// Captures returns the channel new clipboard values are delivered on.
func (m *Monitor) Captures() <-chan Capture { return m.out }

// Active reports whether captures are being emitted.
func (m *Monitor) Active() bool { return m.active.Load() }

// SetActive pauses or resumes capturing. Resuming re-primes the last-seen
// value, so text copied while paused is never captured.
func (m *Monitor) SetActive(on bool) {
	if was := m.active.Swap(on); on && !was {
		m.reprime.Store(true)
	}
}

// MarkWritten records a programmatic clipboard write so samples within the
// suppress window do not report it as new content. The last-seen value is
// left alone until a sample actually reads the written text.
func (m *Monitor) MarkWritten(content string) {
	m.mu.Lock()
	m.written = content
	m.writtenAt = m.now()
	m.mu.Unlock()
}

// ClearWritten drops the mark set by MarkWritten, for writes that failed.
func (m *Monitor) ClearWritten() {
	m.mu.Lock()
	m.written = ""
	m.writtenAt = time.Time{}
	m.mu.Unlock()
}

// Run samples the clipboard every interval until ctx is cancelled.
// Read failures are logged and never stop the loop.
func (m *Monitor) Run(ctx context.Context) {
	slog.Info("clipboard monitor started", "backend", m.backend.Name(), "interval", m.interval)
	defer slog.Info("clipboard monitor stopped")

	t := time.NewTicker(m.interval)
	defer t.Stop()

	m.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.tick(ctx)
		}
	}
}

func (m *Monitor) tick(ctx context.Context) {
	c, ok := m.sample()
	if !ok {
		return
	}
	select {
	case m.out <- c:
	case <-ctx.Done():
	}
}

// sample reads the clipboard once and reports whether it holds a value to
// capture.
func (m *Monitor) sample() (Capture, bool) {
	text, err := m.backend.Read()
	if err != nil {
		if m.active.Load() && m.errLog.Allow() {
			slog.Warn("clipboard read failed", "backend", m.backend.Name(), "err", err)
		}
		return Capture{}, false
	}

	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.reprime.Swap(false) || !m.active.Load() {
		m.lastSeen = text
		return Capture{}, false
	}
	if text == m.lastSeen {
		return Capture{}, false
	}
	if text == m.written && now.Sub(m.writtenAt) < m.window {
		m.lastSeen = text
		return Capture{}, false
	}
	if strings.TrimSpace(text) == "" {
		return Capture{}, false
	}

	m.lastSeen = text
	slog.Debug("clipboard changed", "preview", logging.Preview(text))
	return Capture{Content: text, At: now}, true
}
