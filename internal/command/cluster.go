package command

import (
	"strconv"
	"strings"

	"github.com/nodeforge/redikv/internal/protocol"
)

func (h *Handler) registerClusterCommands() {
	h.commands["READONLY"] = cmdReadOnly
	h.commands["ROLE"] = cmdRole
	h.commands["SLAVEOF"] = cmdSlaveOf
}

// cmdReadOnly is a no-op reply: write rejection on slave connections is
// enforced unconditionally in Handler.Execute regardless of whether a
// client ever sends READONLY (§9 Open Question).
func cmdReadOnly(h *Handler, c *Conn, args []string) []byte {
	return protocol.EncodeSimpleString("OK")
}

func cmdRole(h *Handler, c *Conn, args []string) []byte {
	if h.cfg.NodeRole == "slave" {
		return protocol.EncodeArray([]string{"slave", h.cfg.MasterHost, strconv.Itoa(h.cfg.MasterPort)})
	}
	return protocol.EncodeArray([]string{"master", strconv.Itoa(h.mgr.NumShards())})
}

// cmdSlaveOf reassigns this node's replication role at runtime. "SLAVEOF
// NO ONE" promotes the node back to master, matching the operator-driven
// failover path (§4.7).
func cmdSlaveOf(h *Handler, c *Conn, args []string) []byte {
	if len(args) != 2 {
		return protocol.EncodeError("ERR wrong number of arguments for 'slaveof' command")
	}
	if strings.EqualFold(args[0], "NO") && strings.EqualFold(args[1], "ONE") {
		h.cfg.NodeRole = "master"
		h.cfg.MasterHost = ""
		h.cfg.MasterPort = 0
		return protocol.EncodeSimpleString("OK")
	}
	port, err := strconv.Atoi(args[1])
	if err != nil {
		return protocol.EncodeError("ERR invalid master port")
	}
	h.cfg.NodeRole = "slave"
	h.cfg.MasterHost = args[0]
	h.cfg.MasterPort = port
	return protocol.EncodeSimpleString("OK")
}
