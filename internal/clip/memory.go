package clip

import (
	"fmt"
	"sync"
)

// Memory is an in-process clipboard. It backs `--backend memory` and the
// tests of every package that needs a clipboard.
type Memory struct {
	mu      sync.Mutex
	text    string
	readErr error
	writes  []string
	reads   int
}

// NewMemory returns a Memory clipboard holding text.
func NewMemory(text string) *Memory {
	return &Memory{text: text}
}

func (m *Memory) Name() string { return "memory" }

func (m *Memory) Read() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if m.readErr != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, m.readErr)
	}
	return m.text, nil
}

func (m *Memory) Write(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, m.readErr)
	}
	m.text = text
	m.writes = append(m.writes, text)
	return nil
}

func (m *Memory) Close() {}

// Set replaces the clipboard text as another application would.
func (m *Memory) Set(text string) {
	m.mu.Lock()
	m.text = text
	m.mu.Unlock()
}

// Fail makes every Read and Write fail with err until Fail(nil) is called.
func (m *Memory) Fail(err error) {
	m.mu.Lock()
	m.readErr = err
	m.mu.Unlock()
}

// Writes returns the texts written through Write, oldest first.
func (m *Memory) Writes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.writes...)
}

// Reads returns how many times Read has been called.
func (m *Memory) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}
