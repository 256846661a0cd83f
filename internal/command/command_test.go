package command

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeforge/redikv/internal/config"
	"github.com/nodeforge/redikv/internal/db"
	"github.com/nodeforge/redikv/internal/metrics"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.DatabaseCount = 4
	cfg.RDBPath = filepath.Join(dir, "dump.rdb")
	cfg.AOFPath = filepath.Join(dir, "appendonly.log")

	reg, _ := metrics.NewRegistry()
	mgr, err := db.New(cfg, zerolog.Nop(), reg)
	require.NoError(t, err)

	return New(mgr, cfg, zerolog.Nop())
}

func newTestConn(t *testing.T, h *Handler) *Conn {
	t.Helper()
	shard, err := h.mgr.Shard(0)
	require.NoError(t, err)
	return &Conn{shard: shard, shardIndex: 0, lastLoggedShard: -1}
}

func exec(h *Handler, c *Conn, line ...string) string {
	return string(h.Execute(c, line))
}

func TestStringCommandsScenario(t *testing.T) {
	h := newTestHandler(t)
	c := newTestConn(t, h)

	assert.Equal(t, "+OK\r\n", exec(h, c, "SET", "greeting", "hello"))
	assert.Equal(t, "$5\r\nhello\r\n", exec(h, c, "GET", "greeting"))
	assert.Equal(t, "$-1\r\n", exec(h, c, "GET", "missing"))

	assert.Equal(t, ":1\r\n", exec(h, c, "INCR", "counter"))
	assert.Equal(t, ":6\r\n", exec(h, c, "INCRBY", "counter", "5"))
	assert.Equal(t, ":5\r\n", exec(h, c, "DECR", "counter"))
	assert.Equal(t, ":2\r\n", exec(h, c, "DECRBY", "counter", "3"))
}

func TestKeyspaceCommandsScenario(t *testing.T) {
	h := newTestHandler(t)
	c := newTestConn(t, h)

	exec(h, c, "SET", "a", "1")
	exec(h, c, "SET", "b", "2")

	assert.Equal(t, ":2\r\n", exec(h, c, "EXISTS", "a", "b", "missing"))
	assert.Equal(t, "+string\r\n", exec(h, c, "TYPE", "a"))
	assert.Equal(t, "+none\r\n", exec(h, c, "TYPE", "missing"))

	assert.Equal(t, ":1\r\n", exec(h, c, "EXPIRE", "a", "100"))
	assert.Equal(t, ":1\r\n", exec(h, c, "PERSIST", "a"))
	assert.Equal(t, ":1\r\n", exec(h, c, "DEL", "a"))
	assert.Equal(t, ":0\r\n", exec(h, c, "EXISTS", "a"))
}

func TestSetCommandsSortedOrdering(t *testing.T) {
	h := newTestHandler(t)
	c := newTestConn(t, h)

	exec(h, c, "SADD", "fruit", "banana", "apple", "cherry")
	reply := exec(h, c, "SMEMBERS", "fruit")
	assert.Equal(t, "*3\r\n$5\r\napple\r\n$6\r\nbanana\r\n$6\r\ncherry\r\n", reply)
}

func TestListCommandsScenario(t *testing.T) {
	h := newTestHandler(t)
	c := newTestConn(t, h)

	exec(h, c, "RPUSH", "queue", "a", "b", "c")
	assert.Equal(t, ":3\r\n", exec(h, c, "LLEN", "queue"))
	assert.Equal(t, "$1\r\na\r\n", exec(h, c, "LPOP", "queue"))
	assert.Equal(t, "*2\r\n$1\r\nb\r\n$1\r\nc\r\n", exec(h, c, "LRANGE", "queue", "0", "-1"))
}

func TestHashCommandsScenario(t *testing.T) {
	h := newTestHandler(t)
	c := newTestConn(t, h)

	exec(h, c, "HSET", "user:1", "name", "ada", "age", "30")
	assert.Equal(t, "$3\r\nada\r\n", exec(h, c, "HGET", "user:1", "name"))
	assert.Equal(t, ":1\r\n", exec(h, c, "HEXISTS", "user:1", "age"))
	assert.Equal(t, ":0\r\n", exec(h, c, "HEXISTS", "user:1", "missing"))
}

func TestZSetCommandsScenario(t *testing.T) {
	h := newTestHandler(t)
	c := newTestConn(t, h)

	exec(h, c, "ZADD", "leaderboard", "10", "alice", "20", "bob")
	assert.Equal(t, ":2\r\n", exec(h, c, "ZCARD", "leaderboard"))
	assert.Equal(t, "*2\r\n$5\r\nalice\r\n$3\r\nbob\r\n", exec(h, c, "ZRANGE", "leaderboard", "0", "-1"))
	assert.Equal(t, "$2\r\n20\r\n", exec(h, c, "ZSCORE", "leaderboard", "bob"))
}

func TestWrongTypeErrorsOnCrossTypeOp(t *testing.T) {
	h := newTestHandler(t)
	c := newTestConn(t, h)

	exec(h, c, "SET", "k", "v")
	reply := exec(h, c, "LPUSH", "k", "x")
	assert.Contains(t, reply, "WRONGTYPE")
}

func TestSlaveRejectsWriteCommandsUnconditionally(t *testing.T) {
	h := newTestHandler(t)
	h.cfg.NodeRole = "slave"
	c := newTestConn(t, h)

	reply := exec(h, c, "SET", "k", "v")
	assert.Contains(t, reply, "READONLY")

	// reads still pass through
	reply = exec(h, c, "GET", "k")
	assert.Equal(t, "$-1\r\n", reply)
}

func TestUnknownCommandReturnsError(t *testing.T) {
	h := newTestHandler(t)
	c := newTestConn(t, h)

	reply := exec(h, c, "NOPE")
	assert.Contains(t, reply, "unknown command")
}

func TestSelectSwitchesShard(t *testing.T) {
	h := newTestHandler(t)
	c := newTestConn(t, h)

	exec(h, c, "SET", "only-in-zero", "v")
	assert.Equal(t, "+OK\r\n", exec(h, c, "SELECT", "1"))
	assert.Equal(t, "$-1\r\n", exec(h, c, "GET", "only-in-zero"))
	assert.Equal(t, "+OK\r\n", exec(h, c, "SELECT", "0"))
	assert.Equal(t, "$1\r\nv\r\n", exec(h, c, "GET", "only-in-zero"))
}

func TestSlaveOfPromotesAndDemotes(t *testing.T) {
	h := newTestHandler(t)
	c := newTestConn(t, h)

	assert.Equal(t, "+OK\r\n", exec(h, c, "SLAVEOF", "10.0.0.1", "6380"))
	assert.Equal(t, "slave", h.cfg.NodeRole)
	assert.Equal(t, "10.0.0.1", h.cfg.MasterHost)

	assert.Equal(t, "+OK\r\n", exec(h, c, "SLAVEOF", "NO", "ONE"))
	assert.Equal(t, "master", h.cfg.NodeRole)
}

func TestRoleReportsMasterByDefault(t *testing.T) {
	h := newTestHandler(t)
	c := newTestConn(t, h)
	reply := exec(h, c, "ROLE")
	assert.Contains(t, reply, "master")
}
