// Package template expands placeholders in hook and signal command lines.
package template

import (
	"fmt"
	"strings"
	"time"
)

// Expand replaces {placeholder} tokens in text.
//
// Built-in placeholders:
//
//	{date}     - Current date in YYYY-MM-DD format
//	{time}     - Current time in HH:MM:SS format
//	{iso8601}  - Current time in ISO 8601 format
//	{unix}     - Current Unix timestamp
//
// Event-specific values come in via the vars map and override built-ins.
// Unknown placeholders are left untouched so a misconfigured hook line
// stays visible in logs instead of silently collapsing.
func Expand(text string, vars map[string]string) string {
	now := time.Now()

	placeholders := map[string]string{
		"date":    now.Format("2006-01-02"),
		"time":    now.Format("15:04:05"),
		"iso8601": now.Format(time.RFC3339),
		"unix":    fmt.Sprintf("%d", now.Unix()),
	}
	for k, v := range vars {
		placeholders[k] = v
	}

	result := text
	for key, value := range placeholders {
		result = strings.ReplaceAll(result, "{"+key+"}", value)
	}
	return result
}
