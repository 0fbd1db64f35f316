// Package notify delivers session events to user-configured hooks: shell
// commands and webhook POSTs. Delivery is asynchronous behind a bounded
// queue so a slow hook never backs up into the tick loop; when the queue
// is full the event is dropped with a warning.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"sync"
	"time"

	"github.com/pomd-project/pomd/pkg/config"
	"github.com/pomd-project/pomd/pkg/logging"
	"github.com/pomd-project/pomd/pkg/model"
	"github.com/pomd-project/pomd/pkg/template"
)

const defaultTimeout = 10 * time.Second

// Options tunes delivery behavior.
type Options struct {
	QueueSize  int
	MaxRetries int
	RetryDelay time.Duration
}

// DefaultOptions returns the delivery defaults.
func DefaultOptions() Options {
	return Options{
		QueueSize:  64,
		MaxRetries: 2,
		RetryDelay: 2 * time.Second,
	}
}

// Event is the payload handed to hooks. Webhooks receive it as JSON;
// commands receive its fields as placeholders.
type Event struct {
	Event     string                 `json:"event"`
	Timestamp time.Time              `json:"timestamp"`
	State     *model.EngineFullState `json:"state,omitempty"`
	Session   *model.SessionRecord   `json:"session,omitempty"`
}

// Notifier fans events out to configured hooks from a background worker.
type Notifier struct {
	hooks  []config.HookConfig
	opts   Options
	http   *http.Client
	queue  chan Event
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu sync.RWMutex
}

// New creates a Notifier with default options and starts its worker.
// Close releases it.
func New(hooks []config.HookConfig) *Notifier {
	return NewWithOptions(hooks, DefaultOptions())
}

// NewWithOptions creates a Notifier with explicit delivery options.
func NewWithOptions(hooks []config.HookConfig, opts Options) *Notifier {
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultOptions().QueueSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	n := &Notifier{
		hooks:  hooks,
		opts:   opts,
		http:   &http.Client{Timeout: defaultTimeout},
		queue:  make(chan Event, opts.QueueSize),
		ctx:    ctx,
		cancel: cancel,
	}
	n.wg.Add(1)
	go n.worker()
	return n
}

// SetHooks replaces the hook set, for config reload.
func (n *Notifier) SetHooks(hooks []config.HookConfig) {
	n.mu.Lock()
	n.hooks = hooks
	n.mu.Unlock()
}

// Publish queues an event for delivery. It never blocks; a full queue
// drops the event.
func (n *Notifier) Publish(event Event) {
	n.mu.RLock()
	interested := false
	for _, hook := range n.hooks {
		if matchesEvent(hook, event.Event) {
			interested = true
			break
		}
	}
	n.mu.RUnlock()
	if !interested {
		return
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	select {
	case n.queue <- event:
	default:
		logging.Warn("hook queue full, dropping event", map[string]any{"event": event.Event})
	}
}

// Close stops the worker after draining queued events.
func (n *Notifier) Close() error {
	n.cancel()
	n.wg.Wait()
	return nil
}

func (n *Notifier) worker() {
	defer n.wg.Done()
	for {
		select {
		case <-n.ctx.Done():
			for {
				select {
				case event := <-n.queue:
					n.deliver(event)
				default:
					return
				}
			}
		case event := <-n.queue:
			n.deliver(event)
		}
	}
}

func (n *Notifier) deliver(event Event) {
	n.mu.RLock()
	hooks := make([]config.HookConfig, len(n.hooks))
	copy(hooks, n.hooks)
	n.mu.RUnlock()

	for _, hook := range hooks {
		if !matchesEvent(hook, event.Event) {
			continue
		}
		var err error
		switch {
		case hook.Command != "":
			err = n.runCommand(hook, event)
		case hook.URL != "":
			err = n.post(hook, event)
		}
		if err != nil {
			logging.WithFields(map[string]any{"event": event.Event}).ErrorErr("hook delivery failed", err)
		}
	}
}

func (n *Notifier) runCommand(hook config.HookConfig, event Event) error {
	vars := map[string]string{
		"event": event.Event,
	}
	if event.Session != nil {
		vars["type"] = string(event.Session.Type)
		vars["status"] = string(event.Session.Status)
		vars["label"] = event.Session.Label
		vars["project"] = event.Session.Project
	}
	command := template.Expand(hook.Command, vars)

	// Background context so queued hooks still run during shutdown drain.
	ctx, cancel := context.WithTimeout(context.Background(), hookTimeout(hook))
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run hook command: %w", err)
	}
	return nil
}

func (n *Notifier) post(hook config.HookConfig, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal hook payload: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= n.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-n.ctx.Done():
				return n.ctx.Err()
			case <-time.After(n.opts.RetryDelay):
			}
		}

		// No request context: the client timeout bounds each attempt and
		// queued hooks still deliver during shutdown drain.
		req, err := http.NewRequest(http.MethodPost, hook.URL, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("build hook request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", "pomd-hook/1.0")

		resp, err := n.http.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("post hook: %w", err)
			continue
		}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		lastErr = fmt.Errorf("hook returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return lastErr
}

func hookTimeout(hook config.HookConfig) time.Duration {
	if hook.Timeout == "" {
		return defaultTimeout
	}
	d, err := time.ParseDuration(hook.Timeout)
	if err != nil || d <= 0 {
		return defaultTimeout
	}
	return d
}

func matchesEvent(hook config.HookConfig, name string) bool {
	if len(hook.Events) == 0 {
		return true
	}
	for _, e := range hook.Events {
		if e == name || e == "*" {
			return true
		}
	}
	return false
}
