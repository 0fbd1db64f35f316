// Package snapshot persists the engine state across daemon restarts.
//
// The state rides inside an envelope carrying a SHA-256 checksum over its
// canonical JSON form. A snapshot that fails to parse, fails the checksum
// or describes an invalid state is reported as corrupt; the daemon then
// starts fresh instead of guessing.
package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/pomd-project/pomd/pkg/errclass"
	"github.com/pomd-project/pomd/pkg/fsutil"
	"github.com/pomd-project/pomd/pkg/model"
)

// CurrentVersion is the envelope format version written by this build.
const CurrentVersion = 1

// Envelope wraps a persisted engine state.
type Envelope struct {
	Version  int                   `json:"version"`
	SavedAt  time.Time             `json:"saved_at"`
	Checksum string                `json:"checksum"`
	State    model.EngineFullState `json:"state"`
}

// Store reads and writes the snapshot file at a fixed path.
type Store struct {
	path string
}

// NewStore creates a store over the given snapshot path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the snapshot file location.
func (s *Store) Path() string {
	return s.path
}

// Save writes the state atomically. A reader never observes a torn file.
func (s *Store) Save(state model.EngineFullState) error {
	sum, err := Checksum(state)
	if err != nil {
		return err
	}
	env := Envelope{
		Version:  CurrentVersion,
		SavedAt:  time.Now().UTC(),
		Checksum: sum,
		State:    state,
	}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	data = append(data, '\n')
	if err := fsutil.AtomicWrite(s.path, data, 0600); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Load reads the persisted state. A missing file returns (nil, nil); any
// damaged file returns ErrSnapshotCorrupt so the caller can fall back to
// defaults.
func (s *Store) Load() (*model.EngineFullState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errclass.ErrSnapshotCorrupt.WithMessagef("parse snapshot: %v", err)
	}
	if env.Version > CurrentVersion {
		return nil, errclass.ErrSnapshotCorrupt.WithMessagef("snapshot version %d newer than supported %d", env.Version, CurrentVersion)
	}

	sum, err := Checksum(env.State)
	if err != nil {
		return nil, err
	}
	if sum != env.Checksum {
		return nil, errclass.ErrSnapshotCorrupt.WithMessage("snapshot checksum mismatch")
	}
	if err := env.State.Validate(); err != nil {
		return nil, errclass.ErrSnapshotCorrupt.WithMessagef("snapshot state invalid: %v", err)
	}
	return &env.State, nil
}

// Remove deletes the snapshot file. A missing file is fine.
func (s *Store) Remove() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove snapshot: %w", err)
	}
	return nil
}

// Checksum computes the SHA-256 of the state's canonical JSON form.
func Checksum(state model.EngineFullState) (string, error) {
	data, err := canonicalMarshal(state)
	if err != nil {
		return "", fmt.Errorf("canonical marshal state: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
