package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/grdesk/internal/foundation/errors"
)

func TestSetGetPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prefs.json")

	s, err := Open(path)
	require.NoError(t, err)
	_, ok := s.Get("GR_CREATE_NEW_OP_TYPE")
	assert.False(t, ok)

	require.NoError(t, s.Set("GR_CREATE_NEW_OP_TYPE", "position"))
	require.NoError(t, s.Set("lang", "en"))
	require.NoError(t, s.Delete("lang"))
	require.NoError(t, s.Delete("missing"))

	reopened, err := Open(path)
	require.NoError(t, err)
	v, ok := reopened.Get("GR_CREATE_NEW_OP_TYPE")
	require.True(t, ok)
	assert.Equal(t, "position", v)
	assert.Equal(t, []string{"GR_CREATE_NEW_OP_TYPE"}, reopened.Keys())

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestOpenMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	require.NoError(t, os.WriteFile(path, []byte("{oops"), 0o600))

	_, err := Open(path)
	require.Error(t, err)
	assert.Equal(t, ferrors.CategoryValidation, ferrors.GetCategory(err))
}
