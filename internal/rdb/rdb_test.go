package rdb

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeforge/redikv/internal/storage"
)

func sampleShards() []map[string]*storage.Value {
	first := map[string]*storage.Value{
		"greeting": storage.NewStringValue("hello"),
	}
	second := map[string]*storage.Value{}
	return []map[string]*storage.Value{first, second}
}

func TestWriterLoaderRoundTrip(t *testing.T) {
	for _, compress := range []bool{false, true} {
		path := filepath.Join(t.TempDir(), "dump.rdb")
		w := NewWriter(path, compress, zerolog.Nop())
		require.NoError(t, w.Save(sampleShards()))

		loader := NewLoader(path, compress, zerolog.Nop())
		loaded, err := loader.Load(2)
		require.NoError(t, err)
		require.Len(t, loaded, 2)

		v, ok := loaded[0]["greeting"]
		require.True(t, ok)
		assert.Equal(t, "hello", v.Str)
		assert.Empty(t, loaded[1])
	}
}

func TestLoaderCreatesEmptySnapshotWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.rdb")
	loader := NewLoader(path, false, zerolog.Nop())

	loaded, err := loader.Load(3)
	require.NoError(t, err)
	assert.Len(t, loaded, 3)
	for _, shard := range loaded {
		assert.Empty(t, shard)
	}
}

func TestEncodeDecodeShardsOverWire(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeShards(&buf, sampleShards()))

	decoded, err := DecodeShards(&buf)
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	assert.Equal(t, "hello", decoded[0]["greeting"].Str)
}
