// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// LogLine is one entry in the feed.
type LogLine struct {
	Level     string
	Message   string
	Timestamp time.Time
}

// LogFeedComponent renders the most recent log lines.
type LogFeedComponent struct {
	lines []LogLine
	max   int
}

// NewLogFeedComponent creates a feed keeping the last max lines.
func NewLogFeedComponent(max int) *LogFeedComponent {
	return &LogFeedComponent{
		lines: make([]LogLine, 0, max),
		max:   max,
	}
}

// Add appends a line, evicting the oldest when full.
func (l *LogFeedComponent) Add(level, message string) {
	l.lines = append(l.lines, LogLine{
		Level:     level,
		Message:   message,
		Timestamp: time.Now(),
	})
	if len(l.lines) > l.max {
		l.lines = l.lines[len(l.lines)-l.max:]
	}
}

// Clear drops all lines.
func (l *LogFeedComponent) Clear() {
	l.lines = l.lines[:0]
}

// View renders the feed.
func (l *LogFeedComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))

	var sb strings.Builder
	sb.WriteString(headerStyle.Render("ACTIVITY"))
	sb.WriteString("\n\n")

	if len(l.lines) == 0 {
		sb.WriteString(mutedStyle.Render("  Waiting..."))
		return sb.String()
	}

	for _, line := range l.lines {
		text := fmt.Sprintf("  [%s] %s", line.Timestamp.Format("15:04:05"), line.Message)
		switch line.Level {
		case "error":
			sb.WriteString(errorStyle.Render(text))
		case "warn":
			sb.WriteString(warnStyle.Render(text))
		default:
			sb.WriteString(mutedStyle.Render(text))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
