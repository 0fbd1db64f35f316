// Package nameutil validates and normalizes user-supplied names for pomd.
package nameutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/pomd-project/pomd/pkg/errclass"
)

const (
	maxLabelLen        = 120
	maxSequenceNameLen = 64
)

var sequenceNameRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// NormalizeLabel NFC-normalizes and trims a session label or project name.
// Labels are free text shown in status output, so spaces are allowed but
// control characters and over-long values are not.
func NormalizeLabel(label string) (string, error) {
	label = strings.TrimSpace(norm.NFC.String(label))
	if len(label) > maxLabelLen {
		return "", errclass.ErrNameInvalid.WithMessagef("label exceeds %d bytes", maxLabelLen)
	}
	for _, r := range label {
		if unicode.IsControl(r) {
			return "", errclass.ErrNameInvalid.WithMessagef("label must not contain control characters: %q", label)
		}
	}
	return label, nil
}

// ValidateSequenceName checks a sequence name as used in sequences.toml and
// on the wire. Sequence names are identifiers, not display text.
func ValidateSequenceName(name string) error {
	if name == "" {
		return errclass.ErrNameInvalid.WithMessage("sequence name must not be empty")
	}
	name = norm.NFC.String(name)
	if len(name) > maxSequenceNameLen {
		return errclass.ErrNameInvalid.WithMessagef("sequence name exceeds %d bytes", maxSequenceNameLen)
	}
	if !sequenceNameRegex.MatchString(name) {
		return errclass.ErrNameInvalid.WithMessagef("sequence name must match [a-zA-Z0-9._-]+: %s", name)
	}
	return nil
}
