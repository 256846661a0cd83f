// Package replication implements the replication puller (C7) and server
// (C8): a periodic full-snapshot pull, not the streaming backlog/PSYNC
// design a single-process key-value store's teacher lineage usually
// reaches for. There is no oplog and no checkpointing — a slave simply
// asks for the whole keyspace on a timer.
package replication

import (
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"

	"github.com/nodeforge/redikv/internal/storage"
)

// PortOffset is added to a node's command port to get its primary
// replication port; PortOffsetFallback is tried if binding the primary
// fails (§4.6).
const (
	PortOffset         = 11000
	PortOffsetFallback = 11001
)

// Server is the master side of C8: it accepts pull requests and replies
// with a full shard snapshot.
type Server struct {
	shards   []*storage.Shard
	logger   zerolog.Logger
	listener net.Listener
}

// NewServer returns a server that will serialize shards on demand.
func NewServer(shards []*storage.Shard, logger zerolog.Logger) *Server {
	return &Server{shards: shards, logger: logger.With().Str("component", "replication-server").Logger()}
}

// Listen binds the primary replication port, falling back to the
// secondary offset if the primary is unavailable (§4.6).
func (s *Server) Listen(commandPort int) error {
	primary := fmt.Sprintf(":%d", commandPort+PortOffset)
	ln, err := net.Listen("tcp", primary)
	if err != nil {
		s.logger.Warn().Err(err).Str("addr", primary).Msg("primary replication port unavailable, trying fallback")
		fallback := fmt.Sprintf(":%d", commandPort+PortOffsetFallback)
		ln, err = net.Listen("tcp", fallback)
		if err != nil {
			return fmt.Errorf("replication: bind server port: %w", err)
		}
		s.logger.Info().Str("addr", fallback).Msg("replication server listening on fallback port")
	} else {
		s.logger.Info().Str("addr", primary).Msg("replication server listening")
	}
	s.listener = ln
	return nil
}

// Serve accepts connections until the listener is closed, handling each on
// its own goroutine (§4.6 "Concurrent slaves are served on independent
// handler tasks").
func (s *Server) Serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.logger.Info().Err(err).Msg("replication server stopped accepting")
			return
		}
		go s.handle(conn)
	}
}

// Close stops accepting new connections.
func (s *Server) Close() error {
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(60 * time.Second))

	req, err := readRequest(conn)
	if err != nil {
		s.logger.Warn().Err(err).Str("remote", conn.RemoteAddr().String()).Msg("malformed pull request")
		return
	}

	snapshot := make([]map[string]*storage.Value, len(s.shards))
	for i, shard := range s.shards {
		snapshot[i] = shard.SnapshotEntries()
	}

	resp := response{Shards: snapshot, ServerTimestamp: time.Now().UnixMilli()}
	if err := writeResponse(conn, resp); err != nil {
		s.logger.Warn().Err(err).Str("node_id", req.NodeID).Msg("failed to send pull response")
		return
	}

	s.logger.Debug().Str("node_id", req.NodeID).Int("shards", len(snapshot)).Msg("served pull request")
}
