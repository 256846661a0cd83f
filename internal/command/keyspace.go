package command

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/nodeforge/redikv/internal/protocol"
	"github.com/nodeforge/redikv/internal/storage"
)

func (h *Handler) registerKeyspaceCommands() {
	h.commands["DEL"] = cmdDel
	h.commands["EXISTS"] = cmdExists
	h.commands["TYPE"] = cmdType
	h.commands["EXPIRE"] = cmdExpire
	h.commands["TTL"] = cmdTTL
	h.commands["PERSIST"] = cmdPersist
	h.commands["KEYS"] = cmdKeys
	h.commands["FLUSHDB"] = cmdFlushDB
	h.commands["SELECT"] = cmdSelect
	h.commands["INFO"] = cmdInfo
	h.commands["PING"] = cmdPing
	h.commands["ECHO"] = cmdEcho
}

func cmdDel(h *Handler, c *Conn, args []string) []byte {
	if len(args) == 0 {
		return protocol.EncodeError("ERR wrong number of arguments for 'del' command")
	}
	count := 0
	for _, k := range args {
		if c.shard.Delete(k) {
			count++
		}
	}
	return protocol.EncodeInteger(count)
}

func cmdExists(h *Handler, c *Conn, args []string) []byte {
	if len(args) == 0 {
		return protocol.EncodeError("ERR wrong number of arguments for 'exists' command")
	}
	count := 0
	for _, k := range args {
		if c.shard.Exists(k) {
			count++
		}
	}
	return protocol.EncodeInteger(count)
}

func cmdType(h *Handler, c *Conn, args []string) []byte {
	if len(args) != 1 {
		return protocol.EncodeError("ERR wrong number of arguments for 'type' command")
	}
	v, ok := c.shard.Get(args[0])
	if !ok {
		return protocol.EncodeSimpleString("none")
	}
	return protocol.EncodeSimpleString(v.Type.String())
}

func cmdExpire(h *Handler, c *Conn, args []string) []byte {
	if len(args) != 2 {
		return protocol.EncodeError("ERR wrong number of arguments for 'expire' command")
	}
	secs, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return replyErr(storage.ErrNotInteger)
	}
	if !c.shard.Expire(args[0], time.Duration(secs)*time.Second) {
		return protocol.EncodeInteger(0)
	}
	return protocol.EncodeInteger(1)
}

func cmdTTL(h *Handler, c *Conn, args []string) []byte {
	if len(args) != 1 {
		return protocol.EncodeError("ERR wrong number of arguments for 'ttl' command")
	}
	ms := c.shard.TTL(args[0])
	if ms < 0 {
		return protocol.EncodeInteger64(ms)
	}
	return protocol.EncodeInteger64(ms / 1000)
}

func cmdPersist(h *Handler, c *Conn, args []string) []byte {
	if len(args) != 1 {
		return protocol.EncodeError("ERR wrong number of arguments for 'persist' command")
	}
	if c.shard.Persist(args[0]) {
		return protocol.EncodeInteger(1)
	}
	return protocol.EncodeInteger(0)
}

func cmdKeys(h *Handler, c *Conn, args []string) []byte {
	pattern := "*"
	if len(args) > 0 {
		pattern = args[0]
	}
	keys := c.shard.Keys(pattern)
	sort.Strings(keys)
	return protocol.EncodeArray(keys)
}

func cmdFlushDB(h *Handler, c *Conn, args []string) []byte {
	c.shard.Clear()
	return protocol.EncodeSimpleString("OK")
}

func cmdSelect(h *Handler, c *Conn, args []string) []byte {
	if len(args) != 1 {
		return protocol.EncodeError("ERR wrong number of arguments for 'select' command")
	}
	idx, err := strconv.Atoi(args[0])
	if err != nil {
		return replyErr(storage.ErrNotInteger)
	}
	shard, err := h.mgr.Shard(idx)
	if err != nil {
		return replyErr(err)
	}
	c.shard = shard
	c.shardIndex = idx
	return protocol.EncodeSimpleString("OK")
}

func cmdPing(h *Handler, c *Conn, args []string) []byte {
	if len(args) == 0 {
		return protocol.EncodeSimpleString("PONG")
	}
	return protocol.EncodeBulkString(args[0])
}

func cmdEcho(h *Handler, c *Conn, args []string) []byte {
	if len(args) != 1 {
		return protocol.EncodeError("ERR wrong number of arguments for 'echo' command")
	}
	return protocol.EncodeBulkString(args[0])
}

// cmdInfo reports the node's replication role from configured nodeRole,
// never from the cluster-enabled flag (§9 Open Question).
func cmdInfo(h *Handler, c *Conn, args []string) []byte {
	role := h.cfg.NodeRole
	if role == "" {
		role = "master"
	}
	lines := fmt.Sprintf(
		"# Replication\nrole:%s\nnode_id:%s\n# Persistence\npersistence_mode:%s\n# Cluster\ncluster_enabled:%t\n",
		role, h.cfg.NodeID, h.cfg.PersistenceMode, h.cfg.ClusterEnabled,
	)
	return protocol.EncodeBulkString(lines)
}
