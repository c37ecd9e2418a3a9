// Package search computes the visible subset of history entries for a query.
package search

import (
	"slices"
	"strings"

	"github.com/sahilm/fuzzy"

	"go.klb.dev/clipkeep/internal/history"
)

// Filter returns the entries whose content contains query, ignoring case,
// in their original order. An empty query returns every entry.
func Filter(entries []history.Entry, query string) []history.Entry {
	if query == "" {
		return slices.Clone(entries)
	}
	q := strings.ToLower(query)
	out := make([]history.Entry, 0, len(entries))
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Content), q) {
			out = append(out, e)
		}
	}
	return out
}

// Fuzzy returns the entries matching query as a fuzzy subsequence, best
// match first. An empty query behaves like Filter.
func Fuzzy(entries []history.Entry, query string) []history.Entry {
	if query == "" {
		return Filter(entries, query)
	}
	matches := fuzzy.FindFrom(query, source(entries))
	out := make([]history.Entry, len(matches))
	for i, m := range matches {
		out[i] = entries[m.Index]
	}
	return out
}

// source adapts entries to fuzzy.Source.
type source []history.Entry

func (s source) String(i int) string { return s[i].Content }
func (s source) Len() int            { return len(s) }
