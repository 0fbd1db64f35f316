// Package history stores finished sessions as JSON lines, one record per
// line. The file is shared between the daemon and CLI queries, so writes
// take an advisory file lock on top of the in-process mutex.
package history

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pomd-project/pomd/pkg/model"
)

// Recorder is the daemon's session persistence collaborator. The daemon
// hands every finished session to one; where it goes is the Recorder's
// business.
type Recorder interface {
	Append(rec model.SessionRecord) error
}

// Log is a file-backed Recorder over a JSONL history file.
type Log struct {
	path string
	mu   sync.Mutex
}

// NewLog creates a Log over the given history path.
func NewLog(path string) *Log {
	return &Log{path: path}
}

// Path returns the history file location.
func (l *Log) Path() string {
	return l.path
}

// Append adds one record to the end of the log.
func (l *Log) Append(rec model.SessionRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0700); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}

	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer file.Close()

	if err := lockFile(file); err != nil {
		return fmt.Errorf("lock history: %w", err)
	}
	defer unlockFile(file)

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal session record: %w", err)
	}
	if _, err := file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write session record: %w", err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("sync history: %w", err)
	}
	return nil
}

// List returns every readable record in append order. Malformed lines are
// skipped; a torn tail from a crash must not hide the rest of the log.
func (l *Log) List() ([]model.SessionRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.listLocked()
}

func (l *Log) listLocked() ([]model.SessionRecord, error) {
	file, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open history: %w", err)
	}
	defer file.Close()

	var records []model.SessionRecord
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var rec model.SessionRecord
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan history: %w", err)
	}
	return records, nil
}

// FilterOptions selects records for Find. Zero values match everything.
type FilterOptions struct {
	Type    model.SessionType
	Status  model.SessionStatus
	Project string
	Label   string
	HasTag  string
	Since   time.Time
	Until   time.Time
	Limit   int
}

// Find returns records matching the filter, newest last. Limit keeps the
// most recent matches.
func (l *Log) Find(opts FilterOptions) ([]model.SessionRecord, error) {
	all, err := l.List()
	if err != nil {
		return nil, err
	}

	var result []model.SessionRecord
	for _, rec := range all {
		if !matchesFilter(rec, opts) {
			continue
		}
		result = append(result, rec)
	}
	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[len(result)-opts.Limit:]
	}
	return result, nil
}

func matchesFilter(rec model.SessionRecord, opts FilterOptions) bool {
	if opts.Type != "" && rec.Type != opts.Type {
		return false
	}
	if opts.Status != "" && rec.Status != opts.Status {
		return false
	}
	if opts.Project != "" && rec.Project != opts.Project {
		return false
	}
	if opts.Label != "" && !strings.Contains(rec.Label, opts.Label) {
		return false
	}
	if opts.HasTag != "" && !hasTag(rec, opts.HasTag) {
		return false
	}
	if !opts.Since.IsZero() && rec.EndedAt.Before(opts.Since) {
		return false
	}
	if !opts.Until.IsZero() && rec.EndedAt.After(opts.Until) {
		return false
	}
	return true
}

func hasTag(rec model.SessionRecord, tag string) bool {
	for _, t := range rec.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Stats summarizes the log for reporting.
type Stats struct {
	Total       int
	Completed   int
	Skipped     int
	Abandoned   int
	WorkSeconds int
}

// Summarize computes aggregate stats over the given records. Only work
// sessions count toward WorkSeconds.
func Summarize(records []model.SessionRecord) Stats {
	var s Stats
	for _, rec := range records {
		s.Total++
		switch rec.Status {
		case model.StatusCompleted:
			s.Completed++
		case model.StatusSkipped:
			s.Skipped++
		case model.StatusAbandoned:
			s.Abandoned++
		}
		if rec.Type == model.SessionWork {
			s.WorkSeconds += rec.DurationActual
		}
	}
	return s
}
