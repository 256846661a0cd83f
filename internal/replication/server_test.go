package replication

import (
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeforge/redikv/internal/storage"
)

func TestServerListenFallsBackWhenPrimaryPortTaken(t *testing.T) {
	const commandPort = 19340

	taken, err := net.Listen("tcp", ":"+strconv.Itoa(commandPort+PortOffset))
	require.NoError(t, err)
	t.Cleanup(func() { taken.Close() })

	srv := NewServer(nil, zerolog.Nop())
	require.NoError(t, srv.Listen(commandPort))
	t.Cleanup(func() { srv.Close() })

	conn, err := net.DialTimeout("tcp", "127.0.0.1:"+strconv.Itoa(commandPort+PortOffsetFallback), time.Second)
	require.NoError(t, err)
	conn.Close()
}

func TestServerServesConcurrentPullers(t *testing.T) {
	shard := storage.NewShard(zerolog.Nop())
	shard.SetValue("k", storage.NewStringValue("v"))

	srv := NewServer([]*storage.Shard{shard}, zerolog.Nop())
	require.NoError(t, srv.Listen(19350))
	go srv.Serve()
	t.Cleanup(func() { srv.Close() })

	results := make(chan error, 3)
	for i := 0; i < 3; i++ {
		go func() {
			slaveShard := storage.NewShard(zerolog.Nop())
			p := NewPuller(PullerConfig{
				NodeID:         "slave",
				MasterHost:     "127.0.0.1",
				MasterPort:     19350,
				ConnectTimeout: time.Second,
				ReadTimeout:    time.Second,
			}, []*storage.Shard{slaveShard}, zerolog.Nop())
			p.Tick()
			_, ok := slaveShard.Get("k")
			if !ok {
				results <- assert.AnError
				return
			}
			results <- nil
		}()
	}

	for i := 0; i < 3; i++ {
		require.NoError(t, <-results)
	}
}
