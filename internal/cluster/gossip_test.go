package cluster

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startGossiper(t *testing.T, commandPort int, self Node, cfg Config) (*Gossiper, *Registry) {
	t.Helper()
	reg := NewRegistry(self)
	g := NewGossiper(reg, cfg, zerolog.Nop())
	require.NoError(t, g.Listen(commandPort))
	go g.Serve()
	t.Cleanup(func() { g.Close() })
	return g, reg
}

func TestGossipersExchangeHeartbeats(t *testing.T) {
	cfg := Config{HeartbeatInterval: 30 * time.Millisecond, NodeStatusInterval: time.Hour, NodeTimeout: time.Minute}

	_, regA := startGossiper(t, 18700, Node{ID: "a", Host: "127.0.0.1", Port: 18700, Role: RoleMaster, Status: StatusOnline}, cfg)
	gB, regB := startGossiper(t, 18701, Node{ID: "b", Host: "127.0.0.1", Port: 18701, Role: RoleSlave, MasterID: "a", Status: StatusOnline}, cfg)

	regA.Add(Node{ID: "b", Host: "127.0.0.1", Port: 18701, Role: RoleSlave, Status: StatusOnline})
	regB.Add(Node{ID: "a", Host: "127.0.0.1", Port: 18700, Role: RoleMaster, Status: StatusOnline})

	gB.Run()

	require.Eventually(t, func() bool {
		n, ok := regA.Get("b")
		return ok && time.Since(n.LastHeartbeat) < time.Second
	}, 2*time.Second, 20*time.Millisecond)
}

func TestTriggerFailoverPromotesLocalNode(t *testing.T) {
	cfg := Config{HeartbeatInterval: time.Hour, NodeStatusInterval: time.Hour, NodeTimeout: time.Hour}

	gA, regA := startGossiper(t, 18710, Node{ID: "a", Host: "127.0.0.1", Port: 18710, Role: RoleMaster, Status: StatusOnline}, cfg)
	gB, regB := startGossiper(t, 18711, Node{ID: "b", Host: "127.0.0.1", Port: 18711, Role: RoleSlave, MasterID: "a", Status: StatusOnline}, cfg)

	regA.Add(Node{ID: "b", Host: "127.0.0.1", Port: 18711, Role: RoleSlave, Status: StatusOnline})
	regB.Add(Node{ID: "a", Host: "127.0.0.1", Port: 18710, Role: RoleMaster, Status: StatusOnline})

	var notified string
	done := make(chan struct{})
	gB.OnFailoverEnd(func(newMasterID string) {
		notified = newMasterID
		close(done)
	})

	gA.TriggerFailover("a", "b")

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for failover end callback")
	}
	assert.Equal(t, "b", notified)

	require.Eventually(t, func() bool {
		n, ok := regB.Get("b")
		return ok && n.Role == RoleMaster
	}, time.Second, 10*time.Millisecond)
}
