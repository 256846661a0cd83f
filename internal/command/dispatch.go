// Package command implements the command dispatch table (§6): one
// handler function per recognized command name, wired against a
// db.Manager and replying in RESP framing.
package command

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/nodeforge/redikv/internal/cluster"
	"github.com/nodeforge/redikv/internal/config"
	"github.com/nodeforge/redikv/internal/db"
	"github.com/nodeforge/redikv/internal/protocol"
	"github.com/nodeforge/redikv/internal/storage"
)

// Greeting is sent to every newly accepted connection (§6).
const Greeting = "+OK Welcome to Java-Redis Server\n"

// HandlerFunc executes one command against the current connection state
// and returns its RESP-encoded reply.
type HandlerFunc func(h *Handler, c *Conn, args []string) []byte

// Handler owns the dispatch table and the shared database manager every
// command operates against.
type Handler struct {
	mgr      *db.Manager
	cfg      *config.Config
	logger   zerolog.Logger
	commands map[string]HandlerFunc
}

// New builds a Handler wired to mgr, then replays any append-log entries
// loaded by mgr at startup (§4.5 "Load").
func New(mgr *db.Manager, cfg *config.Config, logger zerolog.Logger) *Handler {
	h := &Handler{
		mgr:    mgr,
		cfg:    cfg,
		logger: logger.With().Str("component", "command").Logger(),
	}
	h.register()
	h.replayAOF()
	return h
}

func (h *Handler) replayAOF() {
	entries := h.mgr.PendingAOFEntries()
	if len(entries) == 0 {
		return
	}
	replayed, errs := 0, 0
	for _, e := range entries {
		shard, err := h.mgr.Shard(e.Shard)
		if err != nil || len(e.Args) == 0 {
			errs++
			continue
		}
		cmd := strings.ToUpper(e.Args[0])
		fn, ok := h.commands[cmd]
		if !ok {
			errs++
			continue
		}
		c := &Conn{shard: shard, shardIndex: e.Shard}
		reply := fn(h, c, e.Args[1:])
		if len(reply) > 0 && reply[0] == '-' {
			errs++
			continue
		}
		replayed++
	}
	h.logger.Info().Int("replayed", replayed).Int("errors", errs).Msg("append log replay complete")
}

func (h *Handler) register() {
	h.commands = make(map[string]HandlerFunc)
	h.registerKeyspaceCommands()
	h.registerStringCommands()
	h.registerListCommands()
	h.registerSetCommands()
	h.registerHashCommands()
	h.registerZSetCommands()
	h.registerClusterCommands()
}

// Execute routes one already-tokenized command line to its handler,
// enforcing the slave read-only policy before dispatch (§9 Open Question:
// reject writes on a slave's client connections unconditionally, not just
// the no-op READONLY marker).
func (h *Handler) Execute(c *Conn, args []string) []byte {
	if len(args) == 0 {
		return protocol.EncodeError("ERR empty command")
	}
	name := strings.ToUpper(args[0])
	rest := args[1:]

	fn, ok := h.commands[name]
	if !ok {
		return protocol.EncodeError(fmt.Sprintf("ERR unknown command '%s'", name))
	}

	if h.cfg.NodeRole == "slave" && isWriteCommand(name) {
		return protocol.EncodeError("READONLY You can't write against a read only replica")
	}

	reply := fn(h, c, rest)

	if isWriteCommand(name) && len(reply) > 0 && reply[0] != '-' {
		if err := h.mgr.LogWrite(c.shardIndex, args, &c.lastLoggedShard); err != nil {
			h.logger.Warn().Err(err).Msg("append log write failed")
		}
	}
	return reply
}

// Registry exposes the cluster registry (nil when clustering is
// disabled), used by ROLE/INFO/CLUSTER-adjacent commands.
func (h *Handler) Registry() *cluster.Registry {
	return h.mgr.Registry()
}

var writeCommands = map[string]bool{
	"SET": true, "GETSET": true, "INCR": true, "INCRBY": true, "DECR": true, "DECRBY": true,
	"DEL": true, "EXPIRE": true, "PERSIST": true, "FLUSHDB": true,
	"LPUSH": true, "RPUSH": true, "LPOP": true, "RPOP": true, "LSET": true, "LREM": true,
	"SADD": true, "SREM": true, "SPOP": true,
	"HSET": true, "HDEL": true, "HMSET": true, "HSETNX": true, "HINCRBY": true,
	"ZADD": true, "ZREM": true, "ZINCRBY": true,
}

func isWriteCommand(name string) bool {
	return writeCommands[name]
}

// replyErr converts the absent/wrong-type sentinel pattern used
// throughout the ops layer into the appropriate RESP reply.
func replyErr(err error) []byte {
	switch err {
	case storage.ErrWrongType:
		return protocol.EncodeError(err.Error())
	case storage.ErrNotInteger, storage.ErrNotFloat, storage.ErrSyntax, storage.ErrUnknownShard:
		return protocol.EncodeError(err.Error())
	case storage.ErrNoSuchKey, storage.ErrIndexOutOfRange:
		return protocol.EncodeError(err.Error())
	case storage.ErrHashValueNotInteger, storage.ErrHashValueNotFloat:
		return protocol.EncodeError(err.Error())
	default:
		return protocol.EncodeError(fmt.Sprintf("ERR %v", err))
	}
}
