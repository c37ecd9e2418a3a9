// Package history owns the ordered list of captured clipboard entries.
//
// Entries are kept newest first and capped at a maximum size; inserting
// beyond capacity silently drops the oldest entries. A Store is meant to be
// mutated from a single goroutine (the daemon loop); the lock only makes
// concurrent Snapshot/Get calls safe.
package history

import (
	"errors"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultMaxSize is the capacity used when none is configured or persisted.
const DefaultMaxSize = 100

// ContentText is the only content type clipkeep records.
const ContentText = "text"

var (
	// ErrSkipped is returned by Add for blank content or a repeat of the head.
	ErrSkipped = errors.New("entry skipped")
	// ErrNotFound is returned when no entry has the requested id.
	ErrNotFound = errors.New("entry not found")
)

// Entry is one recorded clipboard capture.
type Entry struct {
	ID          string
	Content     string
	Timestamp   time.Time
	ContentType string
}

// ChangeKind says what kind of mutation produced a Change.
type ChangeKind string

const (
	ChangeAdded   ChangeKind = "added"
	ChangeDeleted ChangeKind = "deleted"
	ChangeCleared ChangeKind = "cleared"
	ChangeLoaded  ChangeKind = "loaded"
	ChangeResized ChangeKind = "resized"

	// ChangeMonitoring is never produced by the store; the daemon uses it
	// to announce that capture was paused or resumed.
	ChangeMonitoring ChangeKind = "monitoring"
)

// Change describes one mutation of the store. Entry is set for added and
// deleted changes; Count is the number of entries after the change.
type Change struct {
	Kind  ChangeKind
	Entry Entry
	Count int
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for ids and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Store holds history entries, newest first.
type Store struct {
	mu        sync.RWMutex
	entries   []Entry
	maxSize   int
	lastID    int64
	now       func() time.Time
	observers []func(Change)
}

// New returns an empty Store with the given capacity. A non-positive
// maxSize selects DefaultMaxSize.
func New(maxSize int, opts ...Option) *Store {
	s := &Store{
		maxSize: normalizeMax(maxSize),
		now:     time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// OnChange registers fn to be called after every mutation. Observers run
// synchronously on the mutating goroutine, after the lock is released.
func (s *Store) OnChange(fn func(Change)) {
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

// Add records content as the newest entry. It returns ErrSkipped if content
// is blank or equal to the current head.
func (s *Store) Add(content string) (Entry, error) {
	if strings.TrimSpace(content) == "" {
		return Entry{}, ErrSkipped
	}

	s.mu.Lock()
	if len(s.entries) > 0 && s.entries[0].Content == content {
		s.mu.Unlock()
		return Entry{}, ErrSkipped
	}
	now := s.now()
	e := Entry{
		ID:          s.nextIDLocked(now),
		Content:     content,
		Timestamp:   now,
		ContentType: ContentText,
	}
	s.entries = slices.Insert(s.entries, 0, e)
	s.truncateLocked()
	count := len(s.entries)
	s.mu.Unlock()

	s.notify(Change{Kind: ChangeAdded, Entry: e, Count: count})
	return e, nil
}

// Delete removes the entry with id, keeping the order of the rest.
func (s *Store) Delete(id string) (Entry, error) {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return Entry{}, ErrNotFound
	}
	e := s.entries[i]
	s.entries = slices.Delete(s.entries, i, i+1)
	count := len(s.entries)
	s.mu.Unlock()

	s.notify(Change{Kind: ChangeDeleted, Entry: e, Count: count})
	return e, nil
}

// Clear removes every entry.
func (s *Store) Clear() {
	s.mu.Lock()
	s.entries = nil
	s.mu.Unlock()

	s.notify(Change{Kind: ChangeCleared})
}

// Snapshot returns a copy of the entries, newest first.
func (s *Store) Snapshot() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.entries)
}

// Get returns the entry with id.
func (s *Store) Get(id string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.entries[i], true
	}
	return Entry{}, false
}

// Head returns the newest entry, if any.
func (s *Store) Head() (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.entries) == 0 {
		return Entry{}, false
	}
	return s.entries[0], true
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// MaxSize returns the capacity.
func (s *Store) MaxSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxSize
}

// SetMaxSize changes the capacity, dropping tail entries that no longer fit.
func (s *Store) SetMaxSize(n int) {
	s.mu.Lock()
	s.maxSize = normalizeMax(n)
	s.truncateLocked()
	count := len(s.entries)
	s.mu.Unlock()

	s.notify(Change{Kind: ChangeResized, Count: count})
}

// replace installs a freshly loaded state and re-establishes the invariants.
func (s *Store) replace(entries []Entry, maxSize int) {
	s.mu.Lock()
	s.maxSize = normalizeMax(maxSize)
	kept := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if n := len(kept); n > 0 && kept[n-1].Content == e.Content {
			continue
		}
		if e.ID == "" {
			e.ID = s.nextIDLocked(e.Timestamp)
		} else if v, err := strconv.ParseInt(e.ID, 10, 64); err == nil && v > s.lastID {
			s.lastID = v
		}
		kept = append(kept, e)
	}
	s.entries = kept
	s.truncateLocked()
	count := len(s.entries)
	s.mu.Unlock()

	s.notify(Change{Kind: ChangeLoaded, Count: count})
}

// nextIDLocked returns the creation time in milliseconds, bumped past the
// last issued id so ids stay unique within a session.
func (s *Store) nextIDLocked(t time.Time) string {
	id := t.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return strconv.FormatInt(id, 10)
}

func (s *Store) indexLocked(id string) int {
	return slices.IndexFunc(s.entries, func(e Entry) bool { return e.ID == id })
}

func (s *Store) truncateLocked() {
	if len(s.entries) > s.maxSize {
		clear(s.entries[s.maxSize:])
		s.entries = s.entries[:s.maxSize]
	}
}

func (s *Store) notify(c Change) {
	s.mu.RLock()
	obs := slices.Clone(s.observers)
	s.mu.RUnlock()
	for _, fn := range obs {
		fn(c)
	}
}

func normalizeMax(n int) int {
	if n <= 0 {
		return DefaultMaxSize
	}
	return n
}
