// Package clip provides a text-only interface to the system clipboard.
// Build constraints select the implementation:
//
//	clip_system.go    darwin/linux/windows via golang.design/x/clipboard
//	clip_other.go     every other platform, always headless
//	clip_headless.go  no display server or clipboard.Init failure
//	memory.go         in-process clipboard (tests, --backend memory)
package clip

import "errors"

// ErrUnavailable is returned when the clipboard cannot be read or written,
// e.g. it is locked by another process or there is no display server.
var ErrUnavailable = errors.New("clipboard unavailable")

// Backend is the interface that all clipboard implementations satisfy.
type Backend interface {
	// Name returns a human-readable name for the backend.
	Name() string

	// Read returns the current clipboard text. An empty clipboard or one
	// holding only non-text data reads as "".
	Read() (string, error)

	// Write replaces the clipboard contents with text.
	Write(text string) error

	// Close releases any resources held by the backend.
	Close()
}
