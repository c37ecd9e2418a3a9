package history

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersist_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")

	s := New(7, WithClock(fixedClock()))
	_, _ = s.Add("one")
	_, _ = s.Add("two\nlines")
	_, _ = s.Add("three")
	require.NoError(t, s.Save(path))

	loaded := New(0)
	require.NoError(t, loaded.Load(path))

	assert.Equal(t, 7, loaded.MaxSize())
	assert.Equal(t, s.Snapshot(), loaded.Snapshot())
}

func TestPersist_DocumentShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	s := New(5, WithClock(fixedClock()))
	_, _ = s.Add("hello")
	require.NoError(t, s.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, FormatVersion, doc["version"])
	assert.EqualValues(t, 5, doc["max_items"])
	assert.NotEmpty(t, doc["last_updated"])

	items := doc["items"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, "hello", item["content"])
	assert.Equal(t, "text", item["content_type"])
	assert.NotEmpty(t, item["id"])
	assert.NotEmpty(t, item["timestamp"])
}

func TestPersist_MissingFileUsesDefaults(t *testing.T) {
	s := New(3)
	_, _ = s.Add("stale")

	require.NoError(t, s.Load(filepath.Join(t.TempDir(), "missing.json")))
	assert.Zero(t, s.Len())
	assert.Equal(t, DefaultMaxSize, s.MaxSize())
}

func TestPersist_CorruptFallsBackToDefaults(t *testing.T) {
	for name, body := range map[string]string{
		"invalid json":  `{"items": [`,
		"array":         `[1, 2, 3]`,
		"items string":  `{"items": "nope"}`,
		"garbage bytes": "\x00\x01\x02",
		"null":          `null`,
		"number":        `42`,
		"empty":         "  \n",
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "history.json")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

			s := New(3)
			_, _ = s.Add("stale")

			err := s.Load(path)
			assert.ErrorIs(t, err, ErrCorruptData)
			assert.Zero(t, s.Len())
			assert.Equal(t, DefaultMaxSize, s.MaxSize())
		})
	}
}

func TestPersist_MissingFieldsUseDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	body := `{
  "items": [
    {"id": "1714564800123", "content": "kept", "timestamp": "2024-05-01T12:00:00.123456"},
    {"content": "no id or timestamp", "extra": true},
    {"id": "1", "content": "   "},
    {"id": "2"}
  ]
}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	s := New(0, WithClock(func() time.Time { return now }))
	require.NoError(t, s.Load(path))

	assert.Equal(t, DefaultMaxSize, s.MaxSize())
	entries := s.Snapshot()
	require.Len(t, entries, 2)

	assert.Equal(t, "1714564800123", entries[0].ID)
	assert.Equal(t, ContentText, entries[0].ContentType)
	want := time.Date(2024, 5, 1, 12, 0, 0, 123456000, time.Local)
	assert.True(t, want.Equal(entries[0].Timestamp), "legacy timestamp parsed")

	assert.Equal(t, "no id or timestamp", entries[1].Content)
	assert.NotEmpty(t, entries[1].ID)
	assert.NotEqual(t, entries[0].ID, entries[1].ID)
	assert.True(t, now.Equal(entries[1].Timestamp))
}

func TestPersist_LoadReestablishesInvariants(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	body := `{"max_items": 2, "items": [
    {"id": "5", "content": "a"},
    {"id": "4", "content": "a"},
    {"id": "3", "content": "b"},
    {"id": "2", "content": "c"}
  ]}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	s := New(0)
	require.NoError(t, s.Load(path))
	assert.Equal(t, []string{"a", "b"}, contents(s.Snapshot()))

	e, err := s.Add("new")
	require.NoError(t, err)
	id, err := strconv.ParseInt(e.ID, 10, 64)
	require.NoError(t, err)
	assert.Greater(t, id, int64(5))
}

func TestPersist_SaveCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "history.json")
	s := New(3)
	_, _ = s.Add("x")
	require.NoError(t, s.Save(path))
	_, err := os.Stat(path)
	require.NoError(t, err)
}

func TestPersist_SaveFailureWrapsErrIO(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	s := New(3)
	_, _ = s.Add("kept in memory")
	err := s.Save(filepath.Join(blocker, "history.json"))
	assert.ErrorIs(t, err, ErrIO)
	assert.Equal(t, 1, s.Len())
}
