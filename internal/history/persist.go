package history

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FormatVersion is written into every saved document.
const FormatVersion = "1.0"

// legacyTimeLayout is the zone-less ISO-8601 layout of older history files.
const legacyTimeLayout = "2006-01-02T15:04:05.999999"

var (
	// ErrCorruptData is returned by Load when the file cannot be parsed.
	ErrCorruptData = errors.New("corrupt history data")
	// ErrIO is returned by Save when the file cannot be written.
	ErrIO = errors.New("history io error")
)

type document struct {
	Version     string   `json:"version"`
	LastUpdated string   `json:"last_updated"`
	MaxItems    int      `json:"max_items"`
	Items       []record `json:"items"`
}

type record struct {
	ID          string `json:"id"`
	Content     string `json:"content"`
	Timestamp   string `json:"timestamp"`
	ContentType string `json:"content_type"`
}

// Load replaces the store's state with the document at path. A missing file
// leaves the store empty with DefaultMaxSize and is not an error. A document
// that cannot be parsed resets the store the same way and returns
// ErrCorruptData.
func (s *Store) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		s.replace(nil, DefaultMaxSize)
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: read %s: %w", ErrCorruptData, path, err)
	}

	doc, err := decode(data)
	if err != nil {
		s.replace(nil, DefaultMaxSize)
		return fmt.Errorf("%w: %s: %w", ErrCorruptData, path, err)
	}

	loadedAt := s.now()
	entries := make([]Entry, 0, len(doc.Items))
	for _, r := range doc.Items {
		if strings.TrimSpace(r.Content) == "" {
			continue
		}
		e := Entry{
			ID:          r.ID,
			Content:     r.Content,
			Timestamp:   parseTimestamp(r.Timestamp, loadedAt),
			ContentType: r.ContentType,
		}
		if e.ContentType == "" {
			e.ContentType = ContentText
		}
		entries = append(entries, e)
	}
	s.replace(entries, doc.MaxItems)
	return nil
}

// Save writes the store to path, creating parent directories. The document is
// written to a temporary file first and renamed over path.
func (s *Store) Save(path string) error {
	s.mu.RLock()
	doc := document{
		Version:     FormatVersion,
		LastUpdated: s.now().Format(time.RFC3339Nano),
		MaxItems:    s.maxSize,
		Items:       make([]record, len(s.entries)),
	}
	for i, e := range s.entries {
		doc.Items[i] = record{
			ID:          e.ID,
			Content:     e.Content,
			Timestamp:   e.Timestamp.Format(time.RFC3339Nano),
			ContentType: e.ContentType,
		}
	}
	s.mu.RUnlock()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode: %w", ErrIO, err)
	}
	if err := writeFile(path, data); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}

// loaded is the subset of document that Load reads; version and
// last_updated are informational and ignored.
type loaded struct {
	MaxItems int      `json:"max_items"`
	Items    []record `json:"items"`
}

// decode parses a history document. The top level must be an object and
// items, when present, an array of objects; anything else is corrupt.
func decode(data []byte) (*loaded, error) {
	if trimmed := bytes.TrimSpace(data); len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, errors.New("top level is not an object")
	}
	var doc loaded
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func parseTimestamp(s string, fallback time.Time) time.Time {
	if s == "" {
		return fallback
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	if t, err := time.ParseInLocation(legacyTimeLayout, s, time.Local); err == nil {
		return t
	}
	return fallback
}

func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}
