package history

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pomd-project/pomd/pkg/fsutil"
	"github.com/pomd-project/pomd/pkg/model"
)

// RetentionPolicy keeps recent history while letting old records go. A
// record survives when it is among the newest KeepMinSessions or younger
// than KeepMinAge; the protections are additive.
type RetentionPolicy struct {
	KeepMinSessions int
	KeepMinAge      time.Duration
}

// Prune rewrites the log keeping only protected records and returns how
// many were removed. Malformed lines do not survive the rewrite.
func (l *Log) Prune(policy RetentionPolicy, now time.Time) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.listLocked()
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	cutoff := now.Add(-policy.KeepMinAge)
	firstKept := len(records) - policy.KeepMinSessions
	if firstKept < 0 {
		firstKept = 0
	}

	var kept []model.SessionRecord
	for i, rec := range records {
		if i >= firstKept || rec.EndedAt.After(cutoff) {
			kept = append(kept, rec)
		}
	}
	removed := len(records) - len(kept)
	if removed == 0 {
		return 0, nil
	}

	var buf bytes.Buffer
	for _, rec := range kept {
		line, err := json.Marshal(rec)
		if err != nil {
			return 0, fmt.Errorf("marshal session record: %w", err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	if err := fsutil.AtomicWrite(l.path, buf.Bytes(), 0600); err != nil {
		return 0, fmt.Errorf("rewrite history: %w", err)
	}
	return removed, nil
}
