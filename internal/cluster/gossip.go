package cluster

import (
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"
)

// PortOffset is added to a node's command port to get its gossip port
// (§4.7).
const PortOffset = 20000

// dialTimeout and retry policy for inter-node gossip sockets (§5).
const (
	dialTimeout = 3000 * time.Millisecond
	dialRetries = 3
	dialBackoff = 500 * time.Millisecond
)

// Config carries the gossip scheduler's tunables (§4.7).
type Config struct {
	HeartbeatInterval  time.Duration
	NodeStatusInterval time.Duration
	NodeTimeout        time.Duration
}

// Gossiper runs C9: it listens for gossip messages, drives the heartbeat
// and status timers, and exposes failover as an explicit operator call.
type Gossiper struct {
	registry *Registry
	cfg      Config
	logger   zerolog.Logger
	listener net.Listener
	stop     chan struct{}

	onFailoverEnd func(newMasterID string)
}

// NewGossiper returns a gossiper bound to registry.
func NewGossiper(registry *Registry, cfg Config, logger zerolog.Logger) *Gossiper {
	if cfg.HeartbeatInterval == 0 {
		cfg.HeartbeatInterval = 1 * time.Second
	}
	if cfg.NodeStatusInterval == 0 {
		cfg.NodeStatusInterval = 1 * time.Second
	}
	if cfg.NodeTimeout == 0 {
		cfg.NodeTimeout = 5 * time.Second
	}
	return &Gossiper{
		registry: registry,
		cfg:      cfg,
		logger:   logger.With().Str("component", "cluster").Logger(),
		stop:     make(chan struct{}),
	}
}

// OnFailoverEnd registers a callback invoked locally when this node
// observes FAILOVER_END, so the database manager can adjust its own
// replication role (e.g. stop being a puller once promoted).
func (g *Gossiper) OnFailoverEnd(fn func(newMasterID string)) {
	g.onFailoverEnd = fn
}

// Listen binds the gossip port for commandPort.
func (g *Gossiper) Listen(commandPort int) error {
	addr := fmt.Sprintf(":%d", commandPort+PortOffset)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("cluster: bind gossip port: %w", err)
	}
	g.listener = ln
	g.logger.Info().Str("addr", addr).Msg("cluster gossip listening")
	return nil
}

// Serve accepts and handles gossip connections until Close is called.
func (g *Gossiper) Serve() {
	for {
		conn, err := g.listener.Accept()
		if err != nil {
			g.logger.Info().Err(err).Msg("cluster gossip stopped accepting")
			return
		}
		go func() {
			defer conn.Close()
			msg, err := readMessage(conn)
			if err != nil {
				g.logger.Debug().Err(err).Msg("malformed gossip message")
				return
			}
			g.handle(msg, conn)
		}()
	}
}

// Close stops the listener and background timers.
func (g *Gossiper) Close() error {
	close(g.stop)
	if g.listener == nil {
		return nil
	}
	return g.listener.Close()
}

// Run starts the heartbeat and status timers; it returns immediately,
// running both on their own goroutines until Close is called.
func (g *Gossiper) Run() {
	go g.heartbeatLoop()
	go g.statusLoop()
}

func (g *Gossiper) heartbeatLoop() {
	ticker := time.NewTicker(g.cfg.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			g.broadcastHeartbeat()
			demoted := g.registry.DemoteStale(g.cfg.NodeTimeout)
			for _, id := range demoted {
				g.logger.Warn().Str("node_id", id).Msg("peer demoted to suspect")
			}
		case <-g.stop:
			return
		}
	}
}

func (g *Gossiper) statusLoop() {
	ticker := time.NewTicker(g.cfg.NodeStatusInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			for _, peer := range g.registry.Suspects() {
				g.ping(peer)
			}
			demoted := g.registry.DemoteOffline(g.cfg.NodeTimeout)
			for _, id := range demoted {
				g.logger.Warn().Str("node_id", id).Msg("peer demoted to offline")
				g.maybeStartFailover(id)
			}
		case <-g.stop:
			return
		}
	}
}

func (g *Gossiper) broadcastHeartbeat() {
	self := g.registry.Self()
	msg, err := newMessage(KindHeartbeat, self.ID, "", nil)
	if err != nil {
		g.logger.Warn().Err(err).Msg("failed to build heartbeat")
		return
	}
	g.broadcast(msg)
}

func (g *Gossiper) ping(peer Node) {
	self := g.registry.Self()
	msg, err := newMessage(KindPing, self.ID, peer.ID, nil)
	if err != nil {
		return
	}
	if err := g.sendWithRetry(peerAddr(peer), msg); err != nil {
		g.logger.Debug().Str("node_id", peer.ID).Err(err).Msg("ping failed")
	}
}

func (g *Gossiper) broadcast(msg Message) {
	for _, peer := range g.registry.Peers() {
		if peer.Status == StatusOffline {
			continue
		}
		if err := g.sendWithRetry(peerAddr(peer), msg); err != nil {
			g.logger.Debug().Str("node_id", peer.ID).Err(err).Msg("broadcast failed")
		}
	}
}

func (g *Gossiper) sendWithRetry(addr string, msg Message) error {
	var lastErr error
	for attempt := 0; attempt < dialRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(dialBackoff)
		}
		if err := sendTo(addr, msg, dialTimeout); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}

func peerAddr(n Node) string {
	return fmt.Sprintf("%s:%d", n.Host, n.Port+PortOffset)
}

func (g *Gossiper) handle(msg Message, conn net.Conn) {
	switch msg.Kind {
	case KindHeartbeat:
		g.registry.MarkHeartbeat(msg.SenderID)
	case KindPing:
		self := g.registry.Self()
		reply, err := newMessage(KindPong, self.ID, msg.SenderID, nil)
		if err == nil {
			_ = writeMessage(conn, reply)
		}
	case KindPong:
		g.registry.MarkHeartbeat(msg.SenderID)
	case KindNodeAdded:
		var payload NodePayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			g.logger.Warn().Err(err).Msg("malformed NODE_ADDED payload")
			return
		}
		if g.registry.Add(Node{ID: payload.ID, Host: payload.Host, Port: payload.Port, Role: payload.Role, Status: StatusOnline}) {
			g.logger.Info().Str("node_id", payload.ID).Msg("node added via gossip")
		}
	case KindNodeRemoved:
		var payload NodePayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			g.logger.Warn().Err(err).Msg("malformed NODE_REMOVED payload")
			return
		}
		g.registry.Remove(payload.ID)
		g.logger.Info().Str("node_id", payload.ID).Msg("node removed via gossip")
	case KindFailoverStart:
		g.applyFailoverStart(msg)
	case KindFailoverEnd:
		g.applyFailoverEnd(msg)
	default:
		g.logger.Debug().Str("kind", string(msg.Kind)).Msg("unhandled gossip message kind")
	}
}

func (g *Gossiper) applyFailoverStart(msg Message) {
	var payload FailoverPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		g.logger.Warn().Err(err).Msg("malformed FAILOVER_START payload")
		return
	}
	self := g.registry.Self()
	if self.ID == payload.NewMasterID {
		g.registry.Promote(self.ID)
	}
	g.registry.Rebind(payload.FailedMasterID, payload.NewMasterID)
	g.logger.Info().
		Str("failed_master_id", payload.FailedMasterID).
		Str("new_master_id", payload.NewMasterID).
		Msg("failover started")
}

func (g *Gossiper) applyFailoverEnd(msg Message) {
	var payload FailoverPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		g.logger.Warn().Err(err).Msg("malformed FAILOVER_END payload")
		return
	}
	g.logger.Info().Str("new_master_id", payload.NewMasterID).Msg("failover ended")
	if g.onFailoverEnd != nil {
		g.onFailoverEnd(payload.NewMasterID)
	}
}

// maybeStartFailover triggers an automatic failover when the node that
// just went offline was this registry's master. Selection follows §4.7:
// the slave with the most recent heartbeat among those online.
func (g *Gossiper) maybeStartFailover(offlineID string) {
	self := g.registry.Self()
	if self.Role != RoleSlave || self.MasterID != offlineID {
		return
	}
	candidates := g.registry.Peers()
	candidates = append(candidates, self)
	newMaster, ok := MostRecentOnlineSlave(candidates)
	if !ok {
		g.logger.Warn().Str("failed_master_id", offlineID).Msg("no online slave candidate for failover")
		return
	}
	g.TriggerFailover(offlineID, newMaster.ID)
}

// TriggerFailover broadcasts FAILOVER_START then FAILOVER_END for the
// given (failedMasterID, newMasterID) pair. Safe to call from an operator
// command handler as well as automatically on offline-transition (§4.7).
func (g *Gossiper) TriggerFailover(failedMasterID, newMasterID string) {
	self := g.registry.Self()

	if self.ID == newMasterID {
		g.registry.Promote(self.ID)
	}
	g.registry.Rebind(failedMasterID, newMasterID)

	payload := FailoverPayload{FailedMasterID: failedMasterID, NewMasterID: newMasterID}
	start, err := newMessage(KindFailoverStart, self.ID, "", payload)
	if err != nil {
		g.logger.Warn().Err(err).Msg("failed to build FAILOVER_START")
		return
	}
	g.broadcast(start)

	end, err := newMessage(KindFailoverEnd, self.ID, "", payload)
	if err != nil {
		g.logger.Warn().Err(err).Msg("failed to build FAILOVER_END")
		return
	}
	g.broadcast(end)

	if self.ID == newMasterID && g.onFailoverEnd != nil {
		g.onFailoverEnd(newMasterID)
	}
}
