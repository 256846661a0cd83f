package command

import (
	"strconv"

	"github.com/nodeforge/redikv/internal/protocol"
	"github.com/nodeforge/redikv/internal/storage"
)

func (h *Handler) registerStringCommands() {
	h.commands["SET"] = cmdSet
	h.commands["GET"] = cmdGet
	h.commands["GETSET"] = cmdGetSet
	h.commands["INCR"] = cmdIncr
	h.commands["INCRBY"] = cmdIncrBy
	h.commands["DECR"] = cmdDecr
	h.commands["DECRBY"] = cmdDecrBy
}

func cmdSet(h *Handler, c *Conn, args []string) []byte {
	if len(args) != 2 {
		return protocol.EncodeError("ERR wrong number of arguments for 'set' command")
	}
	c.shard.SetString(args[0], args[1])
	return protocol.EncodeSimpleString("OK")
}

func cmdGet(h *Handler, c *Conn, args []string) []byte {
	if len(args) != 1 {
		return protocol.EncodeError("ERR wrong number of arguments for 'get' command")
	}
	v, ok, err := c.shard.GetString(args[0])
	if err != nil {
		return replyErr(err)
	}
	if !ok {
		return protocol.EncodeNullBulkString()
	}
	return protocol.EncodeBulkString(v)
}

func cmdGetSet(h *Handler, c *Conn, args []string) []byte {
	if len(args) != 2 {
		return protocol.EncodeError("ERR wrong number of arguments for 'getset' command")
	}
	prev, existed := c.shard.GetSet(args[0], args[1])
	if !existed {
		return protocol.EncodeNullBulkString()
	}
	return protocol.EncodeBulkString(prev)
}

func cmdIncr(h *Handler, c *Conn, args []string) []byte {
	if len(args) != 1 {
		return protocol.EncodeError("ERR wrong number of arguments for 'incr' command")
	}
	result, err := c.shard.IncrBy(args[0], 1)
	if err != nil {
		return replyErr(err)
	}
	return protocol.EncodeInteger64(result)
}

func cmdIncrBy(h *Handler, c *Conn, args []string) []byte {
	if len(args) != 2 {
		return protocol.EncodeError("ERR wrong number of arguments for 'incrby' command")
	}
	delta, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return replyErr(storage.ErrNotInteger)
	}
	result, err := c.shard.IncrBy(args[0], delta)
	if err != nil {
		return replyErr(err)
	}
	return protocol.EncodeInteger64(result)
}

func cmdDecr(h *Handler, c *Conn, args []string) []byte {
	if len(args) != 1 {
		return protocol.EncodeError("ERR wrong number of arguments for 'decr' command")
	}
	result, err := c.shard.IncrBy(args[0], -1)
	if err != nil {
		return replyErr(err)
	}
	return protocol.EncodeInteger64(result)
}

func cmdDecrBy(h *Handler, c *Conn, args []string) []byte {
	if len(args) != 2 {
		return protocol.EncodeError("ERR wrong number of arguments for 'decrby' command")
	}
	delta, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return replyErr(storage.ErrNotInteger)
	}
	result, err := c.shard.IncrBy(args[0], -delta)
	if err != nil {
		return replyErr(err)
	}
	return protocol.EncodeInteger64(result)
}
