// Package ui renders CLI reports with lipgloss, falling back to plain text
// when stdout is not a terminal or NO_COLOR is set.
package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/jhaugland01/ReliabilitySim/internal/engine"
)

// UI holds the terminal state and provides styled output methods.
type UI struct {
	IsTTY   bool
	Width   int
	NoColor bool
}

// KV is one row of a summary box.
type KV struct {
	Key   string
	Value string
}

// New detects whether stdout is a terminal and honors NO_COLOR.
func New() *UI {
	fd := int(os.Stdout.Fd())
	isTTY := term.IsTerminal(fd)
	width := 80
	if isTTY {
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			width = w
		}
	}
	return &UI{IsTTY: isTTY, Width: width, NoColor: os.Getenv("NO_COLOR") != ""}
}

// Plain returns a UI that never styles, for tests and piped output.
func Plain() *UI { return &UI{Width: 80, NoColor: true} }

// SetNoColor disables styling.
func (u *UI) SetNoColor(noColor bool) { u.NoColor = noColor }

func (u *UI) styled() bool { return u.IsTTY && !u.NoColor }

// Header renders a title.
func (u *UI) Header(title string) string {
	if !u.styled() {
		return fmt.Sprintf("=== %s ===", title)
	}
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorPrimary).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorPrimary).
		Padding(0, 2).
		Render(title)
}

// KeyValue renders one labelled value.
func (u *UI) KeyValue(key, value string) string {
	if !u.styled() {
		return fmt.Sprintf("%-12s %s", key+":", value)
	}
	return "  " + lipgloss.NewStyle().Foreground(ColorMuted).Width(14).Render(key) + " " +
		lipgloss.NewStyle().Bold(true).Render(value)
}

func (u *UI) Success(msg string) string {
	if !u.styled() {
		return "[OK] " + msg
	}
	return StyleSuccess.Render(SymbolSuccess+" ") + msg
}

func (u *UI) Warning(msg string) string {
	if !u.styled() {
		return "[WARN] " + msg
	}
	return StyleWarning.Render(SymbolWarning + " " + msg)
}

func (u *UI) Error(msg string) string {
	if !u.styled() {
		return "[FAILED] " + msg
	}
	return StyleError.Render(SymbolError + " " + msg)
}

// Muted renders secondary text.
func (u *UI) Muted(msg string) string {
	if !u.styled() {
		return msg
	}
	return StyleMuted.Render(msg)
}

// SummaryBox renders items in a bordered box under title.
func (u *UI) SummaryBox(title string, items []KV) string {
	if !u.styled() {
		var sb strings.Builder
		fmt.Fprintf(&sb, "\n=== %s ===\n", title)
		for _, item := range items {
			fmt.Fprintf(&sb, "%-16s %s\n", item.Key+":", item.Value)
		}
		return sb.String()
	}
	keyWidth := 0
	for _, item := range items {
		if len(item.Key) > keyWidth {
			keyWidth = len(item.Key)
		}
	}
	keyStyle := lipgloss.NewStyle().Foreground(ColorMuted).Width(keyWidth + 2)
	valueStyle := lipgloss.NewStyle().Bold(true)
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, "  "+keyStyle.Render(item.Key)+" "+valueStyle.Render(item.Value))
	}
	box := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorPrimary).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
	return "\n" + lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary).Render("  "+title) + "\n" + box
}

// SummaryItems lists the fields of a run summary for SummaryBox.
func SummaryItems(seed int64, s engine.Summary) []KV {
	return []KV{
		{"Seed", fmt.Sprintf("%d", seed)},
		{"Total Requests", fmt.Sprintf("%d", s.TotalRequests)},
		{"Success Rate", fmt.Sprintf("%.1f%%", s.SuccessRate)},
		{"Error Rate", fmt.Sprintf("%.1f%%", s.ErrorRate)},
		{"Avg Latency", fmt.Sprintf("%.0fms", s.AvgLatency)},
		{"p95 Latency", fmt.Sprintf("%.0fms", s.P95Latency)},
		{"Max Latency", fmt.Sprintf("%.0fms", s.MaxLatency)},
		{"Downtime", fmt.Sprintf("%.1fs", s.DowntimeSec)},
		{"Breaker Trips", fmt.Sprintf("%d", s.CircuitTrips)},
		{"Retry Storms", fmt.Sprintf("%d", s.RetryStorms)},
		{"Main Cause", s.MainCause},
	}
}

// Verdict picks a status line for the main cause.
func (u *UI) Verdict(s engine.Summary) string {
	if s.MainCause == engine.CauseNormal {
		return u.Success(s.MainCause)
	}
	if s.ErrorRate > 40 || s.DowntimeSec > 0 {
		return u.Error(s.MainCause)
	}
	return u.Warning(s.MainCause)
}

// Event renders one engine event line.
func (u *UI) Event(ev engine.Event) string {
	stamp := fmt.Sprintf("[t=%6.2fs]", ev.Time)
	if !u.styled() {
		return stamp + " " + ev.Message
	}
	style := StyleSuccess
	switch ev.Kind {
	case engine.EventCircuitOpened, engine.EventRetryStorm:
		style = StyleError
	case engine.EventCircuitHalfOpen, engine.EventStateTransition:
		style = StyleWarning
	}
	return StyleMuted.Render(stamp) + " " + style.Render(SymbolEvent+" "+ev.Message)
}
