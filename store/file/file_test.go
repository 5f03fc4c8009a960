package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenReportsSizeAndReadsAt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.bin")
	want := []byte("0123456789")
	require.NoError(t, os.WriteFile(path, want, 0o644))

	f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()

	assert.EqualValues(t, len(want), f.Size())

	got := make([]byte, 4)
	require.NoError(t, f.ReadAt(got, 3))
	assert.Equal(t, []byte("3456"), got)
}

func TestReadAtPastEndOfFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.bin")
	require.NoError(t, os.WriteFile(path, []byte("short"), 0o644))

	f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()

	got := make([]byte, 100)
	assert.Error(t, f.ReadAt(got, 0))
}

func TestOpenMissingFileErrors(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "does-not-exist.bin"))
	assert.Error(t, err)
}

func TestCloseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.bin")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	f, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.NoError(t, f.Close())
}
