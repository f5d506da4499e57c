package session

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadState_MissingFileIsNotAnError(t *testing.T) {
	st, err := LoadState(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Nil(t, st)
}

func TestSaveState_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.json")
	st := &State{
		Cookies: []Cookie{
			{Name: "ASPSESSIONID", Value: "abc123", Domain: ".gsccca.org", Path: "/", Secure: true},
		},
		LocalStorage: map[string]string{"portalPrefs": `{"dismissed":true}`},
	}

	require.NoError(t, SaveState(path, st))

	loaded, err := LoadState(path)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Len(t, loaded.Cookies, 1)
	assert.Equal(t, "ASPSESSIONID", loaded.Cookies[0].Name)
	assert.Equal(t, "abc123", loaded.Cookies[0].Value)
	assert.Equal(t, `{"dismissed":true}`, loaded.LocalStorage["portalPrefs"])
	assert.False(t, loaded.SavedAt.IsZero())
}

func TestRestoreState_HoldsLocalStorageForFirstNavigation(t *testing.T) {
	s := &Session{}
	err := s.RestoreState(&State{LocalStorage: map[string]string{"portalPrefs": "x"}})
	require.NoError(t, err)
	assert.Equal(t, "x", s.pendingLocal["portalPrefs"])
}

func TestSaveState_RestrictsFileMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not meaningful on windows")
	}
	path := filepath.Join(t.TempDir(), "cookies.json")
	require.NoError(t, SaveState(path, &State{}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoadState_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := LoadState(path)
	assert.Error(t, err)
}
