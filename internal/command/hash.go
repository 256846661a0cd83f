package command

import (
	"strconv"

	"github.com/nodeforge/redikv/internal/protocol"
	"github.com/nodeforge/redikv/internal/storage"
)

func (h *Handler) registerHashCommands() {
	h.commands["HSET"] = cmdHSet
	h.commands["HGET"] = cmdHGet
	h.commands["HDEL"] = cmdHDel
	h.commands["HEXISTS"] = cmdHExists
	h.commands["HGETALL"] = cmdHGetAll
	h.commands["HKEYS"] = cmdHKeys
	h.commands["HVALS"] = cmdHVals
	h.commands["HLEN"] = cmdHLen
	h.commands["HMGET"] = cmdHMGet
	h.commands["HMSET"] = cmdHMSet
	h.commands["HSETNX"] = cmdHSetNX
	h.commands["HINCRBY"] = cmdHIncrBy
}

func cmdHSet(h *Handler, c *Conn, args []string) []byte {
	if len(args) < 3 || len(args)%2 != 1 {
		return protocol.EncodeError("ERR wrong number of arguments for 'hset' command")
	}
	added := 0
	for i := 1; i+1 < len(args); i += 2 {
		isNew, err := c.shard.HSet(args[0], args[i], args[i+1])
		if err != nil {
			return replyErr(err)
		}
		if isNew {
			added++
		}
	}
	return protocol.EncodeInteger(added)
}

func cmdHGet(h *Handler, c *Conn, args []string) []byte {
	if len(args) != 2 {
		return protocol.EncodeError("ERR wrong number of arguments for 'hget' command")
	}
	v, ok, err := c.shard.HGet(args[0], args[1])
	if err != nil {
		return replyErr(err)
	}
	if !ok {
		return protocol.EncodeNullBulkString()
	}
	return protocol.EncodeBulkString(v)
}

func cmdHDel(h *Handler, c *Conn, args []string) []byte {
	if len(args) < 2 {
		return protocol.EncodeError("ERR wrong number of arguments for 'hdel' command")
	}
	n, err := c.shard.HDel(args[0], args[1:]...)
	if err != nil {
		return replyErr(err)
	}
	return protocol.EncodeInteger(n)
}

func cmdHExists(h *Handler, c *Conn, args []string) []byte {
	if len(args) != 2 {
		return protocol.EncodeError("ERR wrong number of arguments for 'hexists' command")
	}
	ok, err := c.shard.HExists(args[0], args[1])
	if err != nil {
		return replyErr(err)
	}
	if ok {
		return protocol.EncodeInteger(1)
	}
	return protocol.EncodeInteger(0)
}

func cmdHGetAll(h *Handler, c *Conn, args []string) []byte {
	if len(args) != 1 {
		return protocol.EncodeError("ERR wrong number of arguments for 'hgetall' command")
	}
	flat, err := c.shard.HGetAll(args[0])
	if err != nil {
		return replyErr(err)
	}
	return protocol.EncodeArray(flat)
}

func cmdHKeys(h *Handler, c *Conn, args []string) []byte {
	if len(args) != 1 {
		return protocol.EncodeError("ERR wrong number of arguments for 'hkeys' command")
	}
	keys, err := c.shard.HKeys(args[0])
	if err != nil {
		return replyErr(err)
	}
	return protocol.EncodeArray(keys)
}

func cmdHVals(h *Handler, c *Conn, args []string) []byte {
	if len(args) != 1 {
		return protocol.EncodeError("ERR wrong number of arguments for 'hvals' command")
	}
	vals, err := c.shard.HVals(args[0])
	if err != nil {
		return replyErr(err)
	}
	return protocol.EncodeArray(vals)
}

func cmdHLen(h *Handler, c *Conn, args []string) []byte {
	if len(args) != 1 {
		return protocol.EncodeError("ERR wrong number of arguments for 'hlen' command")
	}
	n, err := c.shard.HLen(args[0])
	if err != nil {
		return replyErr(err)
	}
	return protocol.EncodeInteger(n)
}

func cmdHMGet(h *Handler, c *Conn, args []string) []byte {
	if len(args) < 2 {
		return protocol.EncodeError("ERR wrong number of arguments for 'hmget' command")
	}
	vals, found, err := c.shard.HMGet(args[0], args[1:]...)
	if err != nil {
		return replyErr(err)
	}
	items := make([][]byte, len(vals))
	for i, v := range vals {
		if i < len(found) && found[i] {
			items[i] = protocol.EncodeBulkString(v)
		} else {
			items[i] = protocol.EncodeNullBulkString()
		}
	}
	return protocol.EncodeRawArray(items)
}

func cmdHMSet(h *Handler, c *Conn, args []string) []byte {
	if len(args) < 3 || len(args)%2 != 1 {
		return protocol.EncodeError("ERR wrong number of arguments for 'hmset' command")
	}
	fieldValues := make(map[string]string, (len(args)-1)/2)
	for i := 1; i+1 < len(args); i += 2 {
		fieldValues[args[i]] = args[i+1]
	}
	if err := c.shard.HMSet(args[0], fieldValues); err != nil {
		return replyErr(err)
	}
	return protocol.EncodeSimpleString("OK")
}

func cmdHSetNX(h *Handler, c *Conn, args []string) []byte {
	if len(args) != 3 {
		return protocol.EncodeError("ERR wrong number of arguments for 'hsetnx' command")
	}
	set, err := c.shard.HSetNX(args[0], args[1], args[2])
	if err != nil {
		return replyErr(err)
	}
	if set {
		return protocol.EncodeInteger(1)
	}
	return protocol.EncodeInteger(0)
}

func cmdHIncrBy(h *Handler, c *Conn, args []string) []byte {
	if len(args) != 3 {
		return protocol.EncodeError("ERR wrong number of arguments for 'hincrby' command")
	}
	delta, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil {
		return replyErr(storage.ErrNotInteger)
	}
	result, err := c.shard.HIncrBy(args[0], args[1], delta)
	if err != nil {
		return replyErr(err)
	}
	return protocol.EncodeInteger64(result)
}
