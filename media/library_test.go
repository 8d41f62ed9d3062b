// ABOUTME: Tests for the audio blob library
// ABOUTME: Covers storing, reading back, releasing and locator revocation
package media

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLibrary(t *testing.T) *Library {
	t.Helper()
	lib, err := NewLibrary(filepath.Join(t.TempDir(), "audio"), nil)
	require.NoError(t, err)
	return lib
}

func TestStoreAndOpen(t *testing.T) {
	lib := newTestLibrary(t)

	ref, err := lib.Store(Blob{Name: "intro.wav", MIMEType: "audio/wav", Data: []byte("RIFF")})
	require.NoError(t, err)

	assert.NotEmpty(t, ref.ID)
	assert.Equal(t, "intro.wav", ref.Name)
	assert.Equal(t, int64(4), ref.Size)
	assert.Equal(t, ".wav", filepath.Ext(ref.Path))

	blob, err := lib.Open(ref)
	require.NoError(t, err)
	assert.Equal(t, []byte("RIFF"), blob.Data)
	assert.Equal(t, "audio/wav", blob.MIMEType)
}

func TestExtensionFallsBackToMIMEType(t *testing.T) {
	lib := newTestLibrary(t)

	ref, err := lib.Store(Blob{MIMEType: "audio/webm", Data: []byte{1}})
	require.NoError(t, err)
	assert.Equal(t, ".webm", filepath.Ext(ref.Path))
	assert.Equal(t, filepath.Base(ref.Path), ref.Name)
}

func TestReleaseRemovesFile(t *testing.T) {
	lib := newTestLibrary(t)

	ref, err := lib.Store(Blob{Name: "a.wav", Data: []byte{1, 2}})
	require.NoError(t, err)

	require.NoError(t, lib.Release(ref))
	_, err = os.Stat(ref.Path)
	assert.True(t, os.IsNotExist(err))

	// second release is harmless
	assert.NoError(t, lib.Release(ref))
}

func TestLocatorLifecycle(t *testing.T) {
	lib := newTestLibrary(t)

	ref, err := lib.Store(Blob{Name: "a.wav", Data: []byte{1}})
	require.NoError(t, err)

	loc := lib.Locate(ref)
	assert.Contains(t, loc, "blob:")
	assert.Equal(t, 1, lib.Outstanding())

	path, ok := lib.Resolve(loc)
	require.True(t, ok)
	assert.Equal(t, ref.Path, path)

	lib.Revoke(loc)
	_, ok = lib.Resolve(loc)
	assert.False(t, ok)
	assert.Equal(t, 0, lib.Outstanding())

	lib.Revoke("")
	lib.Revoke("blob:unknown")
	assert.Equal(t, 0, lib.Outstanding())
}
