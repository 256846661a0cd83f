package command

import (
	"sort"
	"strconv"

	"github.com/nodeforge/redikv/internal/protocol"
	"github.com/nodeforge/redikv/internal/storage"
)

func (h *Handler) registerSetCommands() {
	h.commands["SADD"] = cmdSAdd
	h.commands["SREM"] = cmdSRem
	h.commands["SMEMBERS"] = cmdSMembers
	h.commands["SISMEMBER"] = cmdSIsMember
	h.commands["SCARD"] = cmdSCard
	h.commands["SPOP"] = cmdSPop
	h.commands["SRANDMEMBER"] = cmdSRandMember
	h.commands["SINTER"] = cmdSInter
	h.commands["SUNION"] = cmdSUnion
	h.commands["SDIFF"] = cmdSDiff
}

func cmdSAdd(h *Handler, c *Conn, args []string) []byte {
	if len(args) < 2 {
		return protocol.EncodeError("ERR wrong number of arguments for 'sadd' command")
	}
	n, err := c.shard.SAdd(args[0], args[1:]...)
	if err != nil {
		return replyErr(err)
	}
	return protocol.EncodeInteger(n)
}

func cmdSRem(h *Handler, c *Conn, args []string) []byte {
	if len(args) < 2 {
		return protocol.EncodeError("ERR wrong number of arguments for 'srem' command")
	}
	n, err := c.shard.SRem(args[0], args[1:]...)
	if err != nil {
		return replyErr(err)
	}
	return protocol.EncodeInteger(n)
}

// sortedSetReply returns the members sorted lexicographically, matching the
// SMEMBERS/SINTER/SUNION/SDIFF ordering scenario.
func sortedSetReply(members []string, err error) []byte {
	if err != nil {
		return replyErr(err)
	}
	sort.Strings(members)
	return protocol.EncodeArray(members)
}

func cmdSMembers(h *Handler, c *Conn, args []string) []byte {
	if len(args) != 1 {
		return protocol.EncodeError("ERR wrong number of arguments for 'smembers' command")
	}
	members, err := c.shard.SMembers(args[0])
	return sortedSetReply(members, err)
}

func cmdSIsMember(h *Handler, c *Conn, args []string) []byte {
	if len(args) != 2 {
		return protocol.EncodeError("ERR wrong number of arguments for 'sismember' command")
	}
	ok, err := c.shard.SIsMember(args[0], args[1])
	if err != nil {
		return replyErr(err)
	}
	if ok {
		return protocol.EncodeInteger(1)
	}
	return protocol.EncodeInteger(0)
}

func cmdSCard(h *Handler, c *Conn, args []string) []byte {
	if len(args) != 1 {
		return protocol.EncodeError("ERR wrong number of arguments for 'scard' command")
	}
	n, err := c.shard.SCard(args[0])
	if err != nil {
		return replyErr(err)
	}
	return protocol.EncodeInteger(n)
}

func cmdSPop(h *Handler, c *Conn, args []string) []byte {
	if len(args) < 1 || len(args) > 2 {
		return protocol.EncodeError("ERR wrong number of arguments for 'spop' command")
	}
	count := 1
	if len(args) == 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return replyErr(storage.ErrNotInteger)
		}
		count = n
	}
	members, err := c.shard.SPop(args[0], count)
	if err != nil {
		return replyErr(err)
	}
	if len(members) == 0 {
		return protocol.EncodeNullBulkString()
	}
	if len(args) == 1 {
		return protocol.EncodeBulkString(members[0])
	}
	return protocol.EncodeArray(members)
}

func cmdSRandMember(h *Handler, c *Conn, args []string) []byte {
	if len(args) < 1 || len(args) > 2 {
		return protocol.EncodeError("ERR wrong number of arguments for 'srandmember' command")
	}
	count := 1
	if len(args) == 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return replyErr(storage.ErrNotInteger)
		}
		count = n
	}
	members, err := c.shard.SRandMember(args[0], count)
	if err != nil {
		return replyErr(err)
	}
	if len(members) == 0 {
		return protocol.EncodeNullBulkString()
	}
	if len(args) == 1 {
		return protocol.EncodeBulkString(members[0])
	}
	return protocol.EncodeArray(members)
}

func cmdSInter(h *Handler, c *Conn, args []string) []byte {
	if len(args) < 1 {
		return protocol.EncodeError("ERR wrong number of arguments for 'sinter' command")
	}
	members, err := c.shard.SInter(args[0], args[1:]...)
	return sortedSetReply(members, err)
}

func cmdSUnion(h *Handler, c *Conn, args []string) []byte {
	if len(args) < 1 {
		return protocol.EncodeError("ERR wrong number of arguments for 'sunion' command")
	}
	members, err := c.shard.SUnion(args[0], args[1:]...)
	return sortedSetReply(members, err)
}

func cmdSDiff(h *Handler, c *Conn, args []string) []byte {
	if len(args) < 1 {
		return protocol.EncodeError("ERR wrong number of arguments for 'sdiff' command")
	}
	members, err := c.shard.SDiff(args[0], args[1:]...)
	return sortedSetReply(members, err)
}
