package command

import (
	"strconv"

	"github.com/nodeforge/redikv/internal/protocol"
	"github.com/nodeforge/redikv/internal/storage"
)

func (h *Handler) registerListCommands() {
	h.commands["LPUSH"] = cmdLPush
	h.commands["RPUSH"] = cmdRPush
	h.commands["LPOP"] = cmdLPop
	h.commands["RPOP"] = cmdRPop
	h.commands["LLEN"] = cmdLLen
	h.commands["LRANGE"] = cmdLRange
	h.commands["LINDEX"] = cmdLIndex
	h.commands["LSET"] = cmdLSet
	h.commands["LREM"] = cmdLRem
}

func cmdLPush(h *Handler, c *Conn, args []string) []byte {
	if len(args) < 2 {
		return protocol.EncodeError("ERR wrong number of arguments for 'lpush' command")
	}
	n, err := c.shard.LPush(args[0], args[1:]...)
	if err != nil {
		return replyErr(err)
	}
	return protocol.EncodeInteger(n)
}

func cmdRPush(h *Handler, c *Conn, args []string) []byte {
	if len(args) < 2 {
		return protocol.EncodeError("ERR wrong number of arguments for 'rpush' command")
	}
	n, err := c.shard.RPush(args[0], args[1:]...)
	if err != nil {
		return replyErr(err)
	}
	return protocol.EncodeInteger(n)
}

func cmdLPop(h *Handler, c *Conn, args []string) []byte {
	if len(args) < 1 || len(args) > 2 {
		return protocol.EncodeError("ERR wrong number of arguments for 'lpop' command")
	}
	count := 1
	if len(args) == 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return replyErr(storage.ErrNotInteger)
		}
		count = n
	}
	vals, err := c.shard.LPop(args[0], count)
	if err != nil {
		return replyErr(err)
	}
	if len(vals) == 0 {
		return protocol.EncodeNullBulkString()
	}
	if len(args) == 1 {
		return protocol.EncodeBulkString(vals[0])
	}
	return protocol.EncodeArray(vals)
}

func cmdRPop(h *Handler, c *Conn, args []string) []byte {
	if len(args) < 1 || len(args) > 2 {
		return protocol.EncodeError("ERR wrong number of arguments for 'rpop' command")
	}
	count := 1
	if len(args) == 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return replyErr(storage.ErrNotInteger)
		}
		count = n
	}
	vals, err := c.shard.RPop(args[0], count)
	if err != nil {
		return replyErr(err)
	}
	if len(vals) == 0 {
		return protocol.EncodeNullBulkString()
	}
	if len(args) == 1 {
		return protocol.EncodeBulkString(vals[0])
	}
	return protocol.EncodeArray(vals)
}

func cmdLLen(h *Handler, c *Conn, args []string) []byte {
	if len(args) != 1 {
		return protocol.EncodeError("ERR wrong number of arguments for 'llen' command")
	}
	n, err := c.shard.LLen(args[0])
	if err != nil {
		return replyErr(err)
	}
	return protocol.EncodeInteger(n)
}

func cmdLRange(h *Handler, c *Conn, args []string) []byte {
	if len(args) != 3 {
		return protocol.EncodeError("ERR wrong number of arguments for 'lrange' command")
	}
	start, err := strconv.Atoi(args[1])
	if err != nil {
		return replyErr(storage.ErrNotInteger)
	}
	stop, err := strconv.Atoi(args[2])
	if err != nil {
		return replyErr(storage.ErrNotInteger)
	}
	vals, err := c.shard.LRange(args[0], start, stop)
	if err != nil {
		return replyErr(err)
	}
	return protocol.EncodeArray(vals)
}

func cmdLIndex(h *Handler, c *Conn, args []string) []byte {
	if len(args) != 2 {
		return protocol.EncodeError("ERR wrong number of arguments for 'lindex' command")
	}
	idx, err := strconv.Atoi(args[1])
	if err != nil {
		return replyErr(storage.ErrNotInteger)
	}
	val, ok, err := c.shard.LIndex(args[0], idx)
	if err != nil {
		return replyErr(err)
	}
	if !ok {
		return protocol.EncodeNullBulkString()
	}
	return protocol.EncodeBulkString(val)
}

func cmdLSet(h *Handler, c *Conn, args []string) []byte {
	if len(args) != 3 {
		return protocol.EncodeError("ERR wrong number of arguments for 'lset' command")
	}
	idx, err := strconv.Atoi(args[1])
	if err != nil {
		return replyErr(storage.ErrNotInteger)
	}
	if err := c.shard.LSet(args[0], idx, args[2]); err != nil {
		return replyErr(err)
	}
	return protocol.EncodeSimpleString("OK")
}

func cmdLRem(h *Handler, c *Conn, args []string) []byte {
	if len(args) != 3 {
		return protocol.EncodeError("ERR wrong number of arguments for 'lrem' command")
	}
	count, err := strconv.Atoi(args[1])
	if err != nil {
		return replyErr(storage.ErrNotInteger)
	}
	n, err := c.shard.LRem(args[0], count, args[2])
	if err != nil {
		return replyErr(err)
	}
	return protocol.EncodeInteger(n)
}
