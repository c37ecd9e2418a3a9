// Package message defines the clipkeep IPC protocol: the request and
// response types of the clipkeep.v1.History gRPC service and the JSON codec
// they travel in.
//
// There is no generated code. Messages are plain structs marshalled by
// Codec, which is registered with gRPC under the "json" content subtype.
package message

import (
	"encoding/json"
	"time"

	"google.golang.org/grpc/encoding"

	"go.klb.dev/clipkeep/internal/history"
)

// CodecName is the gRPC content subtype the service speaks.
const CodecName = "json"

func init() {
	encoding.RegisterCodec(Codec{})
}

// Codec marshals messages as JSON.
type Codec struct{}

func (Codec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (Codec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (Codec) Name() string                       { return CodecName }

// Entry is a history entry on the wire.
type Entry struct {
	ID          string    `json:"id"`
	Content     string    `json:"content"`
	Timestamp   time.Time `json:"timestamp"`
	ContentType string    `json:"content_type"`
}

// FromEntry converts a history entry.
func FromEntry(e history.Entry) Entry {
	return Entry{ID: e.ID, Content: e.Content, Timestamp: e.Timestamp, ContentType: e.ContentType}
}

// FromEntries converts a slice of history entries, preserving order.
func FromEntries(es []history.Entry) []Entry {
	out := make([]Entry, len(es))
	for i, e := range es {
		out[i] = FromEntry(e)
	}
	return out
}

// ListRequest asks for the visible entries, newest first.
type ListRequest struct {
	Query string `json:"query,omitempty"`
	// Fuzzy ranks by fuzzy score instead of substring filtering.
	Fuzzy bool `json:"fuzzy,omitempty"`
	// Limit caps the number of entries returned; zero means all.
	Limit int `json:"limit,omitempty"`
}

type ListResponse struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
}

// GetRequest fetches one entry. An empty ID means the newest entry.
type GetRequest struct {
	ID string `json:"id,omitempty"`
}

type GetResponse struct {
	Entry Entry `json:"entry"`
}

// IDRequest addresses an entry by id (Copy, Delete).
type IDRequest struct {
	ID string `json:"id"`
}

// Empty is used where a call carries no parameters.
type Empty struct{}

// SetMonitoringRequest pauses (On=false) or resumes capture.
type SetMonitoringRequest struct {
	On bool `json:"on"`
}

// Result is returned by every mutating call.
type Result struct {
	// Message is the daemon's status line after the action.
	Message string `json:"message"`
	// Count is the number of entries after the action.
	Count int `json:"count"`
}

type StatusResponse struct {
	Count       int        `json:"count"`
	MaxItems    int        `json:"max_items"`
	Monitoring  bool       `json:"monitoring"`
	HistoryPath string     `json:"history_path"`
	Backend     string     `json:"backend"`
	Message     string     `json:"message"`
	Watchers    int        `json:"watchers"`
	LastSaved   *time.Time `json:"last_saved,omitempty"`
	Version     string     `json:"version,omitempty"`
}

// WatchRequest opens a stream of history events.
type WatchRequest struct {
	// Replay delivers the most recent event first, if there is one.
	Replay bool `json:"replay,omitempty"`
}

// WatchEvent is one history change.
type WatchEvent struct {
	Kind       string `json:"kind"`
	Entry      *Entry `json:"entry,omitempty"`
	Count      int    `json:"count"`
	Monitoring bool   `json:"monitoring"`
}

// FromChange converts a history change. Entry is only set for additions
// and deletions.
func FromChange(c history.Change, monitoring bool) *WatchEvent {
	ev := &WatchEvent{Kind: string(c.Kind), Count: c.Count, Monitoring: monitoring}
	if c.Entry.ID != "" {
		e := FromEntry(c.Entry)
		ev.Entry = &e
	}
	return ev
}
