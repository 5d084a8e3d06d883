package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/handtraj/internal/fsutil"
)

func TestLoadRecords(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	require.NoError(t, fsys.WriteFile("/log.txt", []byte(
		"10 1 0 0 0 0 1 1 2 2\n"+
			"12 1 0 0 0 0 5 5 6 6\n"), 0o644))

	recs, err := LoadRecords(fsys, "/log.txt", "")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, 11, recs[1].StartFrame())
}

func TestLoadRecords_MixedLengths(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	require.NoError(t, fsys.WriteFile("/log.txt", []byte(
		"10 1 0 0 0 0 1 1 2 2\n"+
			"12 2 0 0 0 0 5 5 6 6 7 7\n"), 0o644))

	_, err := LoadRecords(fsys, "/log.txt", "")
	assert.ErrorContains(t, err, "record 2 has length 2")
}

func TestLoadRecords_Missing(t *testing.T) {
	_, err := LoadRecords(fsutil.NewMemoryFileSystem(), "/none.txt", "")
	assert.Error(t, err)
}

func TestLoadRecords_DebugLogLength(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	require.NoError(t, fsys.WriteFile("/log.txt", []byte("10 1 0 0 0 0 1 1 2 2\n"), 0o644))
	require.NoError(t, fsys.WriteFile("/debug-1.txt", []byte("1\n10 1 0 0 0 0 1 1 2 2\n"), 0o644))
	require.NoError(t, fsys.WriteFile("/debug-15.txt", []byte("15\n"), 0o644))

	recs, err := LoadRecords(fsys, "/log.txt", "/debug-1.txt")
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	_, err = LoadRecords(fsys, "/log.txt", "/debug-15.txt")
	assert.ErrorContains(t, err, "says 15")

	_, err = LoadRecords(fsys, "/log.txt", "/none.txt")
	assert.Error(t, err)
}
