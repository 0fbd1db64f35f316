package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/pomd-project/pomd/pkg/errclass"
	"github.com/pomd-project/pomd/pkg/model"
	"github.com/pomd-project/pomd/pkg/nameutil"
)

// SequencesFileName is the sequence definition file inside the pomd config
// directory. Example:
//
//	[sequences.morning]
//	blocks = [
//	  { type = "work", minutes = 50 },
//	  { type = "short-break", minutes = 10 },
//	  { type = "work", minutes = 50 },
//	]
const SequencesFileName = "sequences.toml"

type sequencesFile struct {
	Sequences map[string]sequenceDef `toml:"sequences"`
}

type sequenceDef struct {
	Blocks []blockDef `toml:"blocks"`
}

type blockDef struct {
	Type    string `toml:"type"`
	Minutes int    `toml:"minutes"`
}

// LoadSequences reads sequences.toml from configDir. A missing file yields
// an empty map. Every definition is validated on load so a broken file
// surfaces at daemon startup, not at activation time.
func LoadSequences(configDir string) (map[string]model.Sequence, error) {
	path := filepath.Join(configDir, SequencesFileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[string]model.Sequence{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read sequences: %w", err)
	}

	var file sequencesFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, errclass.ErrConfigInvalid.WithMessagef("parse sequences: %v", err)
	}

	out := make(map[string]model.Sequence, len(file.Sequences))
	for name, def := range file.Sequences {
		if err := nameutil.ValidateSequenceName(name); err != nil {
			return nil, errclass.ErrConfigInvalid.WithMessagef("sequence %q: %v", name, err)
		}
		seq := model.Sequence{Name: name}
		for _, b := range def.Blocks {
			seq.Blocks = append(seq.Blocks, model.SequenceBlock{
				Type:            model.SessionType(b.Type),
				DurationMinutes: b.Minutes,
			})
		}
		if err := seq.Validate(); err != nil {
			return nil, errclass.ErrConfigInvalid.WithMessagef("sequence %q: %v", name, err)
		}
		out[name] = seq
	}
	return out, nil
}

// SequenceNames returns the defined names sorted, for listings and
// suggestions.
func SequenceNames(sequences map[string]model.Sequence) []string {
	names := make([]string, 0, len(sequences))
	for name := range sequences {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
