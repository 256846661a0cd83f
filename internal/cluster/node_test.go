package cluster

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryAddAndPeers(t *testing.T) {
	reg := NewRegistry(Node{ID: "self", Role: RoleMaster, Status: StatusOnline})

	assert.True(t, reg.Add(Node{ID: "slave-1", Role: RoleSlave, Status: StatusOnline}))
	assert.False(t, reg.Add(Node{ID: "slave-1", Role: RoleSlave}))

	peers := reg.Peers()
	require.Len(t, peers, 1)
	assert.Equal(t, "slave-1", peers[0].ID)

	all := reg.All()
	assert.Len(t, all, 2)
}

func TestDemoteStaleTransitionsOnlineToSuspect(t *testing.T) {
	reg := NewRegistry(Node{ID: "self"})
	reg.Add(Node{ID: "peer", Status: StatusOnline})

	n, _ := reg.Get("peer")
	n.LastHeartbeat = time.Now().Add(-time.Hour)
	reg.nodes["peer"] = &n

	demoted := reg.DemoteStale(time.Second)
	assert.Equal(t, []string{"peer"}, demoted)

	updated, _ := reg.Get("peer")
	assert.Equal(t, StatusSuspect, updated.Status)
}

func TestDemoteOfflineRequiresDoubleTimeout(t *testing.T) {
	reg := NewRegistry(Node{ID: "self"})
	reg.Add(Node{ID: "peer", Status: StatusSuspect})

	n, _ := reg.Get("peer")
	n.LastHeartbeat = time.Now().Add(-90 * time.Second)
	reg.nodes["peer"] = &n

	assert.Empty(t, reg.DemoteOffline(time.Minute))

	n.LastHeartbeat = time.Now().Add(-3 * time.Minute)
	reg.nodes["peer"] = &n

	demoted := reg.DemoteOffline(time.Minute)
	assert.Equal(t, []string{"peer"}, demoted)
}

func TestMarkHeartbeatRevivesSuspectNode(t *testing.T) {
	reg := NewRegistry(Node{ID: "self"})
	reg.Add(Node{ID: "peer", Status: StatusSuspect})

	reg.MarkHeartbeat("peer")
	n, _ := reg.Get("peer")
	assert.Equal(t, StatusOnline, n.Status)
}

func TestPromoteAndRebind(t *testing.T) {
	reg := NewRegistry(Node{ID: "self", Role: RoleSlave, MasterID: "old-master"})
	reg.Add(Node{ID: "sibling", Role: RoleSlave, MasterID: "old-master"})

	reg.Promote("self")
	self := reg.Self()
	assert.Equal(t, RoleMaster, self.Role)
	assert.Empty(t, self.MasterID)

	reg.Rebind("old-master", "self")
	sibling, _ := reg.Get("sibling")
	assert.Equal(t, "self", sibling.MasterID)
}

func TestMostRecentOnlineSlave(t *testing.T) {
	now := time.Now()
	nodes := []Node{
		{ID: "a", Role: RoleSlave, Status: StatusOnline, LastHeartbeat: now.Add(-time.Minute)},
		{ID: "b", Role: RoleSlave, Status: StatusOnline, LastHeartbeat: now},
		{ID: "c", Role: RoleSlave, Status: StatusOffline, LastHeartbeat: now.Add(time.Minute)},
		{ID: "d", Role: RoleMaster, Status: StatusOnline, LastHeartbeat: now.Add(time.Minute)},
	}

	best, ok := MostRecentOnlineSlave(nodes)
	require.True(t, ok)
	assert.Equal(t, "b", best.ID)
}

func TestMostRecentOnlineSlaveNoneAvailable(t *testing.T) {
	_, ok := MostRecentOnlineSlave([]Node{{ID: "a", Role: RoleMaster, Status: StatusOnline}})
	assert.False(t, ok)
}
