package statusfile

import (
	"context"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/pomd-project/pomd/pkg/logging"
	"github.com/pomd-project/pomd/pkg/template"
)

// commandTimeout kills a refresh command that hangs.
const commandTimeout = 5 * time.Second

// Signaler runs the configured refresh command, at most once per
// interval. The command may reference {text}, {class} and {percentage}.
type Signaler struct {
	command  string
	interval time.Duration

	mu      sync.Mutex
	lastRun time.Time
}

// NewSignaler creates a Signaler. An empty command disables it.
func NewSignaler(command string, interval time.Duration) *Signaler {
	return &Signaler{command: command, interval: interval}
}

// Notify fires the refresh command unless throttled. It reports whether
// the command was started; the command itself runs detached so a slow
// status bar cannot stall the tick loop.
func (s *Signaler) Notify(st Status) bool {
	if s == nil || s.command == "" {
		return false
	}

	s.mu.Lock()
	now := time.Now()
	if !s.lastRun.IsZero() && now.Sub(s.lastRun) < s.interval {
		s.mu.Unlock()
		return false
	}
	s.lastRun = now
	s.mu.Unlock()

	expanded := template.Expand(s.command, map[string]string{
		"text":       st.Text,
		"class":      st.Class,
		"percentage": strconv.Itoa(st.Percentage),
	})
	go run(expanded)
	return true
}

func run(command string) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	if err := cmd.Run(); err != nil {
		logging.WithFields(map[string]any{"command": command}).ErrorErr("status signal command failed", err)
	}
}
