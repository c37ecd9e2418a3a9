package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"go.klb.dev/clipkeep/internal/logging"
	"go.klb.dev/clipkeep/internal/message"
)

// Styles degrade to plain text when stdout is not a terminal.
var (
	idStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#0066CC", Dark: "#54A0FF"}).Bold(true)
	ageStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#777777", Dark: "#888888"})
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#1E8E3E", Dark: "#5AF78E"})
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#B36B00", Dark: "#FFB347"})
	labelStyle = lipgloss.NewStyle().Bold(true)
)

func fmtAge(t time.Time) string {
	return fmtAgeAt(t, time.Now())
}

func fmtAgeAt(t, now time.Time) string {
	age := now.Sub(t).Round(time.Second)
	switch {
	case age < 0:
		return "just now"
	case age < time.Minute:
		return fmt.Sprintf("%ds ago", int(age.Seconds()))
	case age < time.Hour:
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(age.Hours()))
	default:
		return t.Local().Format("2006-01-02 15:04")
	}
}

// previewLine squeezes content onto one line of at most width runes.
func previewLine(content string, width int) string {
	s := logging.Preview(strings.Join(strings.Fields(content), " "))
	r := []rune(s)
	if width > 1 && len(r) > width {
		return string(r[:width-1]) + "…"
	}
	return s
}

// printEntries writes one line per entry: id, age and a preview.
func printEntries(w io.Writer, entries []message.Entry, width int, now time.Time) {
	for _, e := range entries {
		fmt.Fprintf(w, "%s  %s  %s\n",
			idStyle.Render(e.ID),
			ageStyle.Render(fmt.Sprintf("%-16s", fmtAgeAt(e.Timestamp, now))),
			previewLine(e.Content, width),
		)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// confirm asks a yes/no question on out and reads the answer from in.
// Anything but y/yes declines.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N] ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
