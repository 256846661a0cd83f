package storage

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestShard() *Shard {
	return NewShard(zerolog.Nop())
}

func TestShardSetGetDelete(t *testing.T) {
	s := newTestShard()

	assert.False(t, s.Exists("k"))

	s.SetString("k", "v")
	v, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", v.Str)
	assert.True(t, s.Exists("k"))

	assert.True(t, s.Delete("k"))
	assert.False(t, s.Delete("k"))
	assert.False(t, s.Exists("k"))
}

func TestShardExpireAndTTL(t *testing.T) {
	s := newTestShard()

	assert.Equal(t, int64(-2), s.TTL("missing"))

	s.SetString("k", "v")
	assert.Equal(t, int64(-1), s.TTL("k"))

	assert.True(t, s.Expire("k", time.Hour))
	ttl := s.TTL("k")
	assert.Greater(t, ttl, int64(0))
	assert.LessOrEqual(t, ttl, time.Hour.Milliseconds())

	assert.True(t, s.Persist("k"))
	assert.Equal(t, int64(-1), s.TTL("k"))
	assert.False(t, s.Persist("k"))
}

func TestShardExpiredKeyIsEvictedOnRead(t *testing.T) {
	s := newTestShard()
	s.SetString("k", "v")
	require.True(t, s.Expire("k", time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, ok := s.Get("k")
	assert.False(t, ok)
	assert.False(t, s.Exists("k"))
}

func TestShardExpireOnMissingKeyFails(t *testing.T) {
	s := newTestShard()
	assert.False(t, s.Expire("missing", time.Second))
}

func TestShardKeysPattern(t *testing.T) {
	s := newTestShard()
	s.SetString("foo", "1")
	s.SetString("foobar", "2")
	s.SetString("baz", "3")

	keys := s.Keys("foo*")
	assert.ElementsMatch(t, []string{"foo", "foobar"}, keys)

	all := s.Keys("*")
	assert.ElementsMatch(t, []string{"foo", "foobar", "baz"}, all)
}

func TestShardClear(t *testing.T) {
	s := newTestShard()
	s.SetString("a", "1")
	s.SetString("b", "2")
	assert.Equal(t, 2, s.Size())

	s.Clear()
	assert.Equal(t, 0, s.Size())
	assert.False(t, s.Exists("a"))
}

func TestShardWrongTypeError(t *testing.T) {
	s := newTestShard()
	s.SetString("k", "v")

	_, err := s.LLen("k")
	assert.ErrorIs(t, err, ErrWrongType)
}

func TestShardSnapshotAndReplaceAllRoundTrip(t *testing.T) {
	s := newTestShard()
	s.SetString("a", "1")
	s.SetString("b", "2")

	snap := s.SnapshotEntries()
	require.Len(t, snap, 2)

	other := newTestShard()
	other.SetString("stale", "x")
	other.ReplaceAll(snap)

	assert.False(t, other.Exists("stale"))
	v, ok := other.Get("a")
	require.True(t, ok)
	assert.Equal(t, "1", v.Str)
}

func TestShardSnapshotExcludesExpired(t *testing.T) {
	s := newTestShard()
	s.SetString("live", "1")
	s.SetString("dead", "2")
	require.True(t, s.Expire("dead", time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	snap := s.SnapshotEntries()
	_, hasLive := snap["live"]
	_, hasDead := snap["dead"]
	assert.True(t, hasLive)
	assert.False(t, hasDead)
}

func TestShardReplaceAllPreservesPublisher(t *testing.T) {
	s := newTestShard()
	var seen []Event
	s.Subscribe(func(e Event) {
		seen = append(seen, e)
	})

	s.SetString("k", "v")
	s.ReplaceAll(map[string]*Value{"k": NewStringValue("v2")})
	s.SetString("m", "n")

	require.NotEmpty(t, seen)
	last := seen[len(seen)-1]
	assert.Equal(t, "m", last.Key)
}
