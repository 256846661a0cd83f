package command

import (
	"bufio"
	"io"
	"net"
	"time"

	"github.com/nodeforge/redikv/internal/protocol"
	"github.com/nodeforge/redikv/internal/storage"
)

// Conn tracks the per-connection state a line-oriented client session
// needs: which shard SELECT last pointed at, and the AOF's own shard
// bookkeeping so writes only emit a SELECT line when the shard actually
// changes (§4.5).
type Conn struct {
	shard           *storage.Shard
	shardIndex      int
	lastLoggedShard int
}

// ReadTimeout bounds how long a connection may sit idle between commands.
const ReadTimeout = 5 * time.Minute

// Serve handles one client connection until it disconnects or the
// listener is closed, mirroring the teacher's per-connection goroutine
// shape (accept loop spawns one handler per connection).
func (h *Handler) Serve(conn net.Conn) {
	defer conn.Close()

	if _, err := conn.Write([]byte(Greeting)); err != nil {
		return
	}

	shard, _ := h.mgr.Shard(0)
	c := &Conn{shard: shard, shardIndex: 0, lastLoggedShard: -1}

	reader := bufio.NewReader(conn)
	writer := bufio.NewWriter(conn)

	for {
		conn.SetReadDeadline(time.Now().Add(ReadTimeout))

		cmd, err := protocol.ReadRequestLine(reader)
		if err != nil {
			if err != io.EOF {
				h.logger.Debug().Err(err).Msg("connection read error")
			}
			return
		}
		if len(cmd.Args) == 0 {
			continue
		}

		reply := h.Execute(c, cmd.Args)
		if _, err := writer.Write(reply); err != nil {
			return
		}
		if err := writer.Flush(); err != nil {
			return
		}
	}
}
