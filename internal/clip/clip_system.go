//go:build darwin || linux || windows

package clip

import (
	"log/slog"
	"sync"

	"golang.design/x/clipboard"
)

type systemBackend struct {
	// golang.design/x/clipboard is not safe for concurrent Read/Write.
	mu sync.Mutex
}

// New returns the system clipboard backend, or a headless backend if the
// display environment is unavailable (e.g. a server without X11 or Wayland).
// clipboard.Init is called here rather than in init() so that CLI
// sub-commands that never construct a Backend don't log spurious warnings.
func New() Backend {
	if err := clipboard.Init(); err != nil {
		slog.Warn("clipboard unavailable, running headless", "err", err)
		return newHeadless()
	}
	return &systemBackend{}
}

func (b *systemBackend) Name() string { return "system clipboard" }

func (b *systemBackend) Read() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(clipboard.Read(clipboard.FmtText)), nil
}

func (b *systemBackend) Write(text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}

func (b *systemBackend) Close() {}
