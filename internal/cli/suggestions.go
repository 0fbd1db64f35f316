package cli

import (
	"fmt"
	"strings"

	"github.com/pomd-project/pomd/pkg/color"
	"github.com/pomd-project/pomd/pkg/config"
)

// suggestSequences provides helpful suggestions when a sequence name is
// not found. Returns a formatted suggestion string.
func suggestSequences(query string) string {
	sequences, err := config.LoadSequences(configDir())
	if err != nil || len(sequences) == 0 {
		return fmt.Sprintf("Define sequences in %s, then run %s.",
			config.SequencesFileName, color.Header("pomd sequence list"))
	}

	// Prefix matches first, substring matches second.
	var matches []string
	for _, name := range config.SequenceNames(sequences) {
		if strings.HasPrefix(strings.ToLower(name), strings.ToLower(query)) {
			matches = append(matches, color.Success(name))
		}
	}
	if len(matches) == 0 {
		for _, name := range config.SequenceNames(sequences) {
			if strings.Contains(strings.ToLower(name), strings.ToLower(query)) {
				matches = append(matches, color.Success(name))
			}
		}
	}

	if len(matches) > 0 {
		hint := "Did you mean"
		if len(matches) > 1 {
			hint += " one of"
		}
		return fmt.Sprintf("%s: %s?", hint, strings.Join(matches, ", "))
	}

	var names []string
	for _, name := range config.SequenceNames(sequences) {
		names = append(names, color.Success(name))
	}
	return fmt.Sprintf("Available sequences: %s", strings.Join(names, ", "))
}

// formatSequenceNotFoundError formats a sequence not found error with
// suggestions.
func formatSequenceNotFoundError(query string) string {
	var sb strings.Builder
	sb.WriteString(color.Error(fmt.Sprintf("sequence %q is not defined", query)))
	sb.WriteString("\n")
	sb.WriteString(color.Dim("  " + suggestSequences(query)))
	return sb.String()
}

// formatDaemonNotRunningError formats the unreachable-daemon error with
// the command that fixes it.
func formatDaemonNotRunningError() string {
	var sb strings.Builder
	sb.WriteString(color.Error("the pomd daemon is not running"))
	sb.WriteString("\n")
	sb.WriteString(color.Dim(fmt.Sprintf("  Run %s to start it.", color.Header("pomd daemon start"))))
	return sb.String()
}
