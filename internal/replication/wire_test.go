package replication

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeforge/redikv/internal/storage"
)

func TestRequestRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	req := request{NodeID: "slave-1", LastSyncTimestamp: 1234}

	require.NoError(t, writeRequest(&buf, req))

	got, err := readRequest(&buf)
	require.NoError(t, err)
	assert.Equal(t, req, got)
}

func TestResponseRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	resp := response{
		Shards: []map[string]*storage.Value{
			{"k": storage.NewStringValue("v")},
			{},
		},
		ServerTimestamp: 5678,
	}

	require.NoError(t, writeResponse(&buf, resp))

	got, err := readResponse(&buf)
	require.NoError(t, err)
	assert.Equal(t, resp.ServerTimestamp, got.ServerTimestamp)
	require.Len(t, got.Shards, 2)
	assert.Equal(t, "v", got.Shards[0]["k"].Str)
	assert.Empty(t, got.Shards[1])
}

func TestReadResponseRejectsTruncatedPayload(t *testing.T) {
	var buf bytes.Buffer
	resp := response{Shards: []map[string]*storage.Value{{}}, ServerTimestamp: 1}
	require.NoError(t, writeResponse(&buf, resp))

	truncated := bytes.NewReader(buf.Bytes()[:buf.Len()-2])
	_, err := readResponse(truncated)
	assert.ErrorIs(t, err, ErrBadResponse)
}
