package nameutil_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/pomd-project/pomd/pkg/errclass"
	"github.com/pomd-project/pomd/pkg/nameutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLabel_TrimsAndKeepsSpaces(t *testing.T) {
	got, err := nameutil.NormalizeLabel("  deep work  ")
	require.NoError(t, err)
	assert.Equal(t, "deep work", got)
}

func TestNormalizeLabel_NFC(t *testing.T) {
	// e + combining acute normalizes to precomposed é
	got, err := nameutil.NormalizeLabel("café")
	require.NoError(t, err)
	assert.Equal(t, "café", got)
}

func TestNormalizeLabel_RejectsControlChars(t *testing.T) {
	_, err := nameutil.NormalizeLabel("work\x00log")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errclass.ErrNameInvalid))
}

func TestNormalizeLabel_RejectsOverlong(t *testing.T) {
	_, err := nameutil.NormalizeLabel(strings.Repeat("x", 200))
	assert.Error(t, err)
}

func TestValidateSequenceName(t *testing.T) {
	require.NoError(t, nameutil.ValidateSequenceName("morning-focus"))
	require.NoError(t, nameutil.ValidateSequenceName("deep_work.v2"))

	for _, bad := range []string{"", "has space", "a/b", "über", strings.Repeat("a", 80)} {
		err := nameutil.ValidateSequenceName(bad)
		assert.Error(t, err, bad)
		assert.True(t, errors.Is(err, errclass.ErrNameInvalid), bad)
	}
}
