// Package cluster implements the gossip layer (C9): a node registry,
// heartbeat/suspect/offline transitions, and an operator-triggered
// failover protocol. There is no hash-slot routing here — cluster
// sharding is out of scope — so Node carries only the descriptor fields
// gossip itself needs.
package cluster

import (
	"sync"
	"time"
)

// Role is a node's replication role.
type Role string

const (
	RoleMaster Role = "master"
	RoleSlave  Role = "slave"
)

// Status is a node's gossip-observed liveness, transitioning
// online -> suspect -> offline as heartbeats go stale (§4.7).
type Status string

const (
	StatusOnline    Status = "online"
	StatusSuspect   Status = "suspect"
	StatusOffline   Status = "offline"
	StatusHandshake Status = "handshake"
)

// Node is the C9 node descriptor: (node id, host, port, role, status,
// master id if slave, last heartbeat instant). Created at startup from
// config and learned thereafter via NODE_ADDED gossip.
type Node struct {
	ID       string
	Host     string
	Port     int
	Role     Role
	Status   Status
	MasterID string // empty if Role == RoleMaster

	LastHeartbeat time.Time

	// LastSyncTimestamp is advisory, recorded through SetLastSync for
	// observability only; it plays no role in gossip decisions.
	LastSyncTimestamp int64
}

// Registry is the shared, concurrency-safe set of known nodes, mirroring
// the teacher's RWMutex-guarded node map pattern used for replica and
// cluster state elsewhere in this codebase.
type Registry struct {
	mu    sync.RWMutex
	self  string
	nodes map[string]*Node
}

// NewRegistry returns a registry seeded with self as the local node.
func NewRegistry(self Node) *Registry {
	r := &Registry{
		self:  self.ID,
		nodes: make(map[string]*Node),
	}
	self.LastHeartbeat = time.Now()
	r.nodes[self.ID] = &self
	return r
}

// Self returns a copy of the local node's current descriptor.
func (r *Registry) Self() Node {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return *r.nodes[r.self]
}

// SelfID returns the local node's id.
func (r *Registry) SelfID() string {
	return r.self
}

// Add registers node if absent (NODE_ADDED, §4.7). Returns true if it was
// newly added.
func (r *Registry) Add(n Node) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.nodes[n.ID]; exists {
		return false
	}
	if n.LastHeartbeat.IsZero() {
		n.LastHeartbeat = time.Now()
	}
	r.nodes[n.ID] = &n
	return true
}

// Remove deregisters a node (NODE_REMOVED, §4.7).
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.nodes, id)
}

// Get returns a copy of the node descriptor for id, if known.
func (r *Registry) Get(id string) (Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Peers returns a copy of every node other than self.
func (r *Registry) Peers() []Node {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Node, 0, len(r.nodes))
	for id, n := range r.nodes {
		if id == r.self {
			continue
		}
		out = append(out, *n)
	}
	return out
}

// All returns a copy of every known node, self included.
func (r *Registry) All() []Node {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Node, 0, len(r.nodes))
	for _, n := range r.nodes {
		out = append(out, *n)
	}
	return out
}

// MarkHeartbeat bumps id's lastHeartbeat and forces it online (HEARTBEAT
// or PONG receipt, §4.7).
func (r *Registry) MarkHeartbeat(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.nodes[id]
	if !ok {
		return
	}
	n.LastHeartbeat = time.Now()
	n.Status = StatusOnline
}

// DemoteStale transitions every online peer whose lastHeartbeat is older
// than timeout to suspect, returning the ids demoted (heartbeat timer,
// §4.7).
func (r *Registry) DemoteStale(timeout time.Duration) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	var demoted []string
	for id, n := range r.nodes {
		if id == r.self {
			continue
		}
		if n.Status == StatusOnline && now.Sub(n.LastHeartbeat) > timeout {
			n.Status = StatusSuspect
			demoted = append(demoted, id)
		}
	}
	return demoted
}

// DemoteOffline transitions every suspect peer whose lastHeartbeat is
// older than 2x the node timeout to offline, returning the ids demoted
// (status timer, §4.7).
func (r *Registry) DemoteOffline(nodeTimeout time.Duration) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	threshold := 2 * nodeTimeout
	var demoted []string
	for id, n := range r.nodes {
		if id == r.self {
			continue
		}
		if n.Status == StatusSuspect && now.Sub(n.LastHeartbeat) > threshold {
			n.Status = StatusOffline
			demoted = append(demoted, id)
		}
	}
	return demoted
}

// Suspects returns every peer currently in StatusSuspect (status timer's
// PING target list, §4.7).
func (r *Registry) Suspects() []Node {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Node
	for id, n := range r.nodes {
		if id == r.self {
			continue
		}
		if n.Status == StatusSuspect {
			out = append(out, *n)
		}
	}
	return out
}

// Promote makes id the local node's new master (role=master, masterId
// cleared) — used when id == self during failover (§4.7).
func (r *Registry) Promote(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.nodes[id]
	if !ok {
		return
	}
	n.Role = RoleMaster
	n.MasterID = ""
}

// Rebind updates every node whose masterId matches failedMasterID to
// point at newMasterID (slave rebinding during failover, §4.7).
func (r *Registry) Rebind(failedMasterID, newMasterID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.nodes {
		if n.Role == RoleSlave && n.MasterID == failedMasterID {
			n.MasterID = newMasterID
		}
	}
}

// SetLastSync records the advisory replication sync timestamp for id.
func (r *Registry) SetLastSync(id string, unixMillis int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n, ok := r.nodes[id]; ok {
		n.LastSyncTimestamp = unixMillis
	}
}

// MostRecentOnlineSlave implements the new-master selection rule: the
// slave with the most recent lastHeartbeat among those currently online
// (§4.7).
func MostRecentOnlineSlave(nodes []Node) (Node, bool) {
	var best Node
	found := false
	for _, n := range nodes {
		if n.Role != RoleSlave || n.Status != StatusOnline {
			continue
		}
		if !found || n.LastHeartbeat.After(best.LastHeartbeat) {
			best = n
			found = true
		}
	}
	return best, found
}
