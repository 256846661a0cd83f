package command

import (
	"strconv"
	"strings"

	"github.com/nodeforge/redikv/internal/protocol"
	"github.com/nodeforge/redikv/internal/storage"
)

func (h *Handler) registerZSetCommands() {
	h.commands["ZADD"] = cmdZAdd
	h.commands["ZCARD"] = cmdZCard
	h.commands["ZCOUNT"] = cmdZCount
	h.commands["ZINCRBY"] = cmdZIncrBy
	h.commands["ZRANGE"] = cmdZRange
	h.commands["ZRANK"] = cmdZRank
	h.commands["ZREM"] = cmdZRem
	h.commands["ZREVRANGE"] = cmdZRevRange
	h.commands["ZREVRANK"] = cmdZRevRank
	h.commands["ZSCORE"] = cmdZScore
}

func cmdZAdd(h *Handler, c *Conn, args []string) []byte {
	if len(args) < 3 || len(args)%2 != 1 {
		return protocol.EncodeError("ERR wrong number of arguments for 'zadd' command")
	}
	members := make(map[string]float64, (len(args)-1)/2)
	for i := 1; i+1 < len(args); i += 2 {
		score, err := strconv.ParseFloat(args[i], 64)
		if err != nil {
			return replyErr(storage.ErrNotFloat)
		}
		members[args[i+1]] = score
	}
	n, err := c.shard.ZAdd(args[0], members)
	if err != nil {
		return replyErr(err)
	}
	return protocol.EncodeInteger(n)
}

func cmdZCard(h *Handler, c *Conn, args []string) []byte {
	if len(args) != 1 {
		return protocol.EncodeError("ERR wrong number of arguments for 'zcard' command")
	}
	n, err := c.shard.ZCard(args[0])
	if err != nil {
		return replyErr(err)
	}
	return protocol.EncodeInteger(n)
}

func cmdZCount(h *Handler, c *Conn, args []string) []byte {
	if len(args) != 3 {
		return protocol.EncodeError("ERR wrong number of arguments for 'zcount' command")
	}
	min, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return replyErr(storage.ErrNotFloat)
	}
	max, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return replyErr(storage.ErrNotFloat)
	}
	n, err := c.shard.ZCount(args[0], min, max)
	if err != nil {
		return replyErr(err)
	}
	return protocol.EncodeInteger(n)
}

func cmdZIncrBy(h *Handler, c *Conn, args []string) []byte {
	if len(args) != 3 {
		return protocol.EncodeError("ERR wrong number of arguments for 'zincrby' command")
	}
	delta, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return replyErr(storage.ErrNotFloat)
	}
	result, err := c.shard.ZIncrBy(args[0], args[2], delta)
	if err != nil {
		return replyErr(err)
	}
	return protocol.EncodeBulkString(formatScore(result))
}

func encodeZRange(members []storage.ZSetMember, withScores bool) []byte {
	if !withScores {
		flat := make([]string, len(members))
		for i, m := range members {
			flat[i] = m.Member
		}
		return protocol.EncodeArray(flat)
	}
	flat := make([]string, 0, len(members)*2)
	for _, m := range members {
		flat = append(flat, m.Member, formatScore(m.Score))
	}
	return protocol.EncodeArray(flat)
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}

func cmdZRange(h *Handler, c *Conn, args []string) []byte {
	if len(args) < 3 || len(args) > 4 {
		return protocol.EncodeError("ERR wrong number of arguments for 'zrange' command")
	}
	start, err := strconv.Atoi(args[1])
	if err != nil {
		return replyErr(storage.ErrNotInteger)
	}
	stop, err := strconv.Atoi(args[2])
	if err != nil {
		return replyErr(storage.ErrNotInteger)
	}
	withScores := len(args) == 4 && strings.EqualFold(args[3], "WITHSCORES")
	if len(args) == 4 && !withScores {
		return protocol.EncodeError("ERR syntax error")
	}
	members, err := c.shard.ZRange(args[0], start, stop)
	if err != nil {
		return replyErr(err)
	}
	return encodeZRange(members, withScores)
}

func cmdZRevRange(h *Handler, c *Conn, args []string) []byte {
	if len(args) < 3 || len(args) > 4 {
		return protocol.EncodeError("ERR wrong number of arguments for 'zrevrange' command")
	}
	start, err := strconv.Atoi(args[1])
	if err != nil {
		return replyErr(storage.ErrNotInteger)
	}
	stop, err := strconv.Atoi(args[2])
	if err != nil {
		return replyErr(storage.ErrNotInteger)
	}
	withScores := len(args) == 4 && strings.EqualFold(args[3], "WITHSCORES")
	if len(args) == 4 && !withScores {
		return protocol.EncodeError("ERR syntax error")
	}
	members, err := c.shard.ZRevRange(args[0], start, stop)
	if err != nil {
		return replyErr(err)
	}
	return encodeZRange(members, withScores)
}

func cmdZRank(h *Handler, c *Conn, args []string) []byte {
	if len(args) != 2 {
		return protocol.EncodeError("ERR wrong number of arguments for 'zrank' command")
	}
	rank, ok, err := c.shard.ZRank(args[0], args[1])
	if err != nil {
		return replyErr(err)
	}
	if !ok {
		return protocol.EncodeNullBulkString()
	}
	return protocol.EncodeInteger(rank)
}

func cmdZRevRank(h *Handler, c *Conn, args []string) []byte {
	if len(args) != 2 {
		return protocol.EncodeError("ERR wrong number of arguments for 'zrevrank' command")
	}
	rank, ok, err := c.shard.ZRevRank(args[0], args[1])
	if err != nil {
		return replyErr(err)
	}
	if !ok {
		return protocol.EncodeNullBulkString()
	}
	return protocol.EncodeInteger(rank)
}

func cmdZRem(h *Handler, c *Conn, args []string) []byte {
	if len(args) < 2 {
		return protocol.EncodeError("ERR wrong number of arguments for 'zrem' command")
	}
	n, err := c.shard.ZRem(args[0], args[1:]...)
	if err != nil {
		return replyErr(err)
	}
	return protocol.EncodeInteger(n)
}

func cmdZScore(h *Handler, c *Conn, args []string) []byte {
	if len(args) != 2 {
		return protocol.EncodeError("ERR wrong number of arguments for 'zscore' command")
	}
	score, ok, err := c.shard.ZScore(args[0], args[1])
	if err != nil {
		return replyErr(err)
	}
	if !ok {
		return protocol.EncodeNullBulkString()
	}
	return protocol.EncodeBulkString(formatScore(score))
}
