package replication

import (
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeforge/redikv/internal/storage"
)

func newShardWithKey(t *testing.T, key, value string) *storage.Shard {
	t.Helper()
	shard := storage.NewShard(zerolog.Nop())
	shard.SetValue(key, storage.NewStringValue(value))
	return shard
}

func TestPullerTickReplacesShardContents(t *testing.T) {
	masterShard := newShardWithKey(t, "greeting", "hello")
	srv := NewServer([]*storage.Shard{masterShard}, zerolog.Nop())
	require.NoError(t, srv.Listen(19300))
	go srv.Serve()
	t.Cleanup(func() { srv.Close() })

	slaveShard := newShardWithKey(t, "stale", "old-value")
	p := NewPuller(PullerConfig{
		NodeID:         "slave-1",
		MasterHost:     "127.0.0.1",
		MasterPort:     19300,
		ConnectTimeout: time.Second,
		ReadTimeout:    time.Second,
	}, []*storage.Shard{slaveShard}, zerolog.Nop())

	p.Tick()

	v, ok := slaveShard.Get("greeting")
	require.True(t, ok)
	assert.Equal(t, "hello", v.Str)

	_, ok = slaveShard.Get("stale")
	assert.False(t, ok)
	assert.NotZero(t, p.LastSync())
}

func TestPullerTickSkipsWhenAlreadyInProgress(t *testing.T) {
	slaveShard := storage.NewShard(zerolog.Nop())
	p := NewPuller(PullerConfig{
		NodeID:     "slave-1",
		MasterHost: "127.0.0.1",
		MasterPort: 19301,
	}, []*storage.Shard{slaveShard}, zerolog.Nop())

	p.inProgress = 1
	defer func() { p.inProgress = 0 }()

	before := p.LastSync()
	p.Tick()
	assert.Equal(t, before, p.LastSync())
}

func TestPullerTickFailsWhenMasterUnreachable(t *testing.T) {
	slaveShard := storage.NewShard(zerolog.Nop())
	p := NewPuller(PullerConfig{
		NodeID:         "slave-1",
		MasterHost:     "127.0.0.1",
		MasterPort:     19399,
		ConnectTimeout: 200 * time.Millisecond,
	}, []*storage.Shard{slaveShard}, zerolog.Nop())

	p.Tick()

	assert.Zero(t, p.LastSync())
	assert.Equal(t, int64(1), p.consecutiveFails)
}

func TestPullerDialFallsBackToSecondaryPort(t *testing.T) {
	const masterPort = 19330

	// Nothing listens on the primary replication port; only the fallback
	// does, so dial() must try primary, fail, then succeed on fallback.
	fallbackLn, err := net.Listen("tcp", fmt.Sprintf(":%d", masterPort+PortOffsetFallback))
	require.NoError(t, err)
	t.Cleanup(func() { fallbackLn.Close() })

	p := NewPuller(PullerConfig{
		NodeID:         "slave-1",
		MasterHost:     "127.0.0.1",
		MasterPort:     masterPort,
		ConnectTimeout: 200 * time.Millisecond,
	}, []*storage.Shard{storage.NewShard(zerolog.Nop())}, zerolog.Nop())

	conn, err := p.dial()
	require.NoError(t, err)
	conn.Close()
}
