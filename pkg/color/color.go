// Package color provides terminal color output support for the pomd CLI.
// It respects the NO_COLOR environment variable (https://no-color.org/).
package color

import (
	"fmt"
	"os"
	"sync"
)

var state struct {
	enabled  bool
	once     sync.Once
	disabled bool
}

// Init initializes the color system based on environment and flags.
func Init(noColorFlag bool) {
	state.once.Do(func() {
		if _, exists := os.LookupEnv("NO_COLOR"); exists {
			state.disabled = true
		}
		if term := os.Getenv("TERM"); term == "dumb" {
			state.disabled = true
		}
		if noColorFlag {
			state.disabled = true
		}
		state.enabled = !state.disabled
	})
}

// Enabled returns true if color output is enabled.
func Enabled() bool {
	Init(false)
	return state.enabled
}

// Disable turns off color output.
func Disable() {
	state.disabled = true
	state.enabled = false
}

// Enable turns on color output.
func Enable() {
	state.disabled = false
	state.enabled = true
}

// ANSI color codes
const (
	reset   = "\033[0m"
	bold    = "\033[1m"
	dim     = "\033[2m"
	red     = "\033[31m"
	green   = "\033[32m"
	yellow  = "\033[33m"
	blue    = "\033[34m"
	magenta = "\033[35m"
	cyan    = "\033[36m"
)

func wrap(code, s string) string {
	if !Enabled() {
		return s
	}
	return code + s + reset
}

// Success formats a success message in green.
func Success(s string) string { return wrap(green, s) }

// Error formats an error message in red.
func Error(s string) string { return wrap(red, s) }

// Errorf formats an error message with printf-style arguments.
func Errorf(format string, args ...any) string {
	return wrap(red, fmt.Sprintf(format, args...))
}

// Warning formats a warning message in yellow.
func Warning(s string) string { return wrap(yellow, s) }

// Header formats a header in bold.
func Header(s string) string { return wrap(bold, s) }

// Dim formats dimmed text (for secondary information).
func Dim(s string) string { return wrap(dim, s) }

// Clock formats timer clock text in bold cyan.
func Clock(s string) string { return wrap(bold+cyan, s) }

// Session colors a session type or status class for display: work in red,
// breaks in green, stopwatch in magenta, everything else in blue.
func Session(class string) string {
	switch class {
	case "work":
		return wrap(red, class)
	case "short-break", "long-break":
		return wrap(green, class)
	case "stopwatch":
		return wrap(magenta, class)
	default:
		return wrap(blue, class)
	}
}
