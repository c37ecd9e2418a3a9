package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/clipkeep/internal/message"
)

func TestFmtAgeAt(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		ago  time.Duration
		want string
	}{
		{-time.Second, "just now"},
		{0, "0s ago"},
		{42 * time.Second, "42s ago"},
		{5 * time.Minute, "5m ago"},
		{3 * time.Hour, "3h ago"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, fmtAgeAt(now.Add(-tc.ago), now), tc.ago)
	}
	old := now.Add(-72 * time.Hour)
	assert.Equal(t, old.Local().Format("2006-01-02 15:04"), fmtAgeAt(old, now))
}

func TestPreviewLine(t *testing.T) {
	assert.Equal(t, "a b c", previewLine("a\n\tb   c\n", 80))
	assert.Equal(t, "abcd…", previewLine("abcdefgh", 5))
	assert.Equal(t, "日本語", previewLine("日本語", 3))
}

func TestConfirm(t *testing.T) {
	for in, want := range map[string]bool{
		"y\n":   true,
		"YES\n": true,
		"yes":   true,
		"n\n":   false,
		"\n":    false,
		"":      false,
	} {
		var out bytes.Buffer
		assert.Equal(t, want, confirm(strings.NewReader(in), &out, "Sure?"), "%q", in)
		assert.Equal(t, "Sure? [y/N] ", out.String())
	}
}

func TestPrintEntries(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	var out bytes.Buffer
	printEntries(&out, []message.Entry{
		{ID: "1714564790000", Content: "second\nline", Timestamp: now.Add(-10 * time.Second)},
		{ID: "1714564780000", Content: "first", Timestamp: now.Add(-2 * time.Minute)},
	}, 80, now)

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "1714564790000")
	assert.Contains(t, lines[0], "10s ago")
	assert.Contains(t, lines[0], "second line")
	assert.Contains(t, lines[1], "2m ago")
}

func TestDescribeEvent(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	added := describeEvent(&message.WatchEvent{
		Kind:  "added",
		Entry: &message.Entry{ID: "7", Content: "hello\nthere"},
		Count: 1,
	}, 80, now)
	assert.Contains(t, added, "12:00:00")
	assert.Contains(t, added, "7")
	assert.Contains(t, added, "hello there")

	assert.Contains(t, describeEvent(&message.WatchEvent{Kind: "deleted", Entry: &message.Entry{ID: "7"}, Count: 2}, 80, now), "(2 left)")
	assert.Contains(t, describeEvent(&message.WatchEvent{Kind: "cleared"}, 80, now), "history cleared")
	assert.Contains(t, describeEvent(&message.WatchEvent{Kind: "monitoring"}, 80, now), "monitoring paused")
	assert.Contains(t, describeEvent(&message.WatchEvent{Kind: "monitoring", Monitoring: true}, 80, now), "monitoring resumed")
	assert.Contains(t, describeEvent(&message.WatchEvent{Kind: "loaded", Count: 4}, 80, now), "loaded 4 entries")
}

func TestPrintStatus(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	saved := now.Add(-30 * time.Second)
	var out bytes.Buffer
	printStatus(&out, &message.StatusResponse{
		Count:       3,
		MaxItems:    100,
		Monitoring:  false,
		HistoryPath: "/tmp/h.json",
		Backend:     "memory",
		Message:     "Monitoring disabled",
		LastSaved:   &saved,
		Version:     "1.2.3",
	}, "/tmp/ck.sock", now)

	s := out.String()
	assert.Contains(t, s, "1.2.3")
	assert.Contains(t, s, "/tmp/ck.sock")
	assert.Contains(t, s, "3 / 100")
	assert.Contains(t, s, "paused")
	assert.Contains(t, s, "30s ago")
	assert.Contains(t, s, "Monitoring disabled")
}

func TestNewBackend(t *testing.T) {
	b, err := newBackend("memory")
	require.NoError(t, err)
	assert.Equal(t, "memory", b.Name())

	_, err = newBackend("carrier-pigeon")
	assert.Error(t, err)
}

func TestDefaultHistoryPath(t *testing.T) {
	assert.True(t, strings.HasSuffix(defaultHistoryPath(), "clipboard_history.json"))
}
