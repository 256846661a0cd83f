package aof

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndLoadAllIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "appendonly.log")

	w, err := NewWriter(path, SyncAlways, zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, w.Append([]string{"SELECT", "0"}))
	require.NoError(t, w.Append([]string{"SET", "k", "v"}))
	require.NoError(t, w.Append([]string{"INCR", "counter"}))
	require.NoError(t, w.Close())

	entries, err := LoadAll(path, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, []string{"SET", "k", "v"}, entries[0].Args)
	assert.Equal(t, 0, entries[0].Shard)
	assert.Equal(t, []string{"INCR", "counter"}, entries[1].Args)
}

func TestLoadAllMissingFileReturnsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "appendonly.log")
	entries, err := LoadAll(path, zerolog.Nop())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRewriteReplacesLogContents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "appendonly.log")

	w, err := NewWriter(path, SyncAlways, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, w.Append([]string{"SET", "old", "1"}))

	require.NoError(t, w.Rewrite([][]string{
		{"SELECT", "0"},
		{"SET", "new", "2"},
	}))
	require.NoError(t, w.Close())

	entries, err := LoadAll(path, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, []string{"SET", "new", "2"}, entries[0].Args)
}

func TestParseSyncPolicy(t *testing.T) {
	assert.Equal(t, SyncAlways, ParseSyncPolicy("always"))
	assert.Equal(t, SyncNo, ParseSyncPolicy("no"))
	assert.Equal(t, SyncEverySecond, ParseSyncPolicy("everysec"))
	assert.Equal(t, SyncEverySecond, ParseSyncPolicy("bogus"))
}
