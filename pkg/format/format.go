// Package format renders timer values as display text for the status file
// and the CLI.
package format

import (
	"fmt"
	"strings"
)

// Clock formats a second count as MM:SS, or H:MM:SS from one hour up.
// Negative values clamp to zero.
func Clock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// Percent returns elapsed progress as an integer 0..100. A zero or negative
// total reports 0.
func Percent(elapsed, total int) int {
	if total <= 0 {
		return 0
	}
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > total {
		elapsed = total
	}
	return elapsed * 100 / total
}

// Bar renders a fixed-width textual progress bar, e.g. "=====     ".
func Bar(elapsed, total, width int) string {
	if width <= 0 {
		return ""
	}
	filled := 0
	if total > 0 {
		filled = width * Percent(elapsed, total) / 100
	}
	if filled > width {
		filled = width
	}
	return strings.Repeat("=", filled) + strings.Repeat(" ", width-filled)
}

// HumanDuration formats a second count compactly for history listings:
// "45s", "25m", "25m30s", "1h05m".
func HumanDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh%02dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	case m > 0 && s > 0:
		return fmt.Sprintf("%dm%02ds", m, s)
	case m > 0:
		return fmt.Sprintf("%dm", m)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
