package color_test

import (
	"testing"

	"github.com/pomd-project/pomd/pkg/color"
	"github.com/stretchr/testify/assert"
)

func TestDisabled_PassThrough(t *testing.T) {
	color.Disable()
	defer color.Enable()

	assert.Equal(t, "done", color.Success("done"))
	assert.Equal(t, "25:00", color.Clock("25:00"))
	assert.Equal(t, "work", color.Session("work"))
}

func TestEnabled_WrapsWithReset(t *testing.T) {
	color.Enable()
	defer color.Disable()

	got := color.Error("unreachable")
	assert.Contains(t, got, "unreachable")
	assert.Contains(t, got, "\033[31m")
	assert.Contains(t, got, "\033[0m")
}

func TestSession_Classes(t *testing.T) {
	color.Enable()
	defer color.Disable()

	assert.Contains(t, color.Session("work"), "\033[31m")
	assert.Contains(t, color.Session("short-break"), "\033[32m")
	assert.Contains(t, color.Session("long-break"), "\033[32m")
	assert.Contains(t, color.Session("stopwatch"), "\033[35m")
	assert.Contains(t, color.Session("idle"), "\033[34m")
}
