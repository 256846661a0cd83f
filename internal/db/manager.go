// Package db implements the database manager (C4): the fixed-size shard
// vector, its persistence load/save scheduling, the slave reload loop,
// and graceful shutdown of every background scheduler this node runs.
package db

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/nodeforge/redikv/internal/aof"
	"github.com/nodeforge/redikv/internal/cluster"
	"github.com/nodeforge/redikv/internal/config"
	"github.com/nodeforge/redikv/internal/metrics"
	"github.com/nodeforge/redikv/internal/rdb"
	"github.com/nodeforge/redikv/internal/replication"
	"github.com/nodeforge/redikv/internal/storage"
)

// ShutdownDrain is the bounded window schedulers get to stop cooperatively
// before the manager gives up waiting on them (§5).
const ShutdownDrain = 5 * time.Second

// Manager owns a node's shard vector and every periodic task that reads
// or writes it: the reaper (one per shard), persistence saves/flushes,
// the replication puller (slave only) and server (always, so masters can
// serve slaves), and the cluster gossiper when enabled.
type Manager struct {
	cfg     *config.Config
	shards  []*storage.Shard
	logger  zerolog.Logger
	metrics *metrics.Registry

	rdbWriter *rdb.Writer
	rdbLoader *rdb.Loader
	aofWriter *aof.Writer

	replServer *replication.Server
	replPuller *replication.Puller

	gossiper *cluster.Gossiper
	registry *cluster.Registry

	pendingAOF []aof.Entry

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs a Manager, loading persisted state synchronously before
// returning (§4.3/§4.4/§4.5 "Load" contracts).
func New(cfg *config.Config, logger zerolog.Logger, reg *metrics.Registry) (*Manager, error) {
	shards := make([]*storage.Shard, cfg.DatabaseCount)
	for i := range shards {
		shards[i] = storage.NewShard(logger)
	}

	m := &Manager{
		cfg:     cfg,
		shards:  shards,
		logger:  logger.With().Str("component", "db").Logger(),
		metrics: reg,
	}

	if err := m.loadPersisted(); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Manager) loadPersisted() error {
	switch m.cfg.PersistenceMode {
	case "aof":
		writer, err := aof.NewWriter(m.cfg.AOFPath, aof.ParseSyncPolicy(m.cfg.AOFFsync), m.logger)
		if err != nil {
			return err
		}
		m.aofWriter = writer

		entries, err := aof.LoadAll(m.cfg.AOFPath, m.logger)
		if err != nil {
			return fmt.Errorf("db: load append log: %w", err)
		}
		m.pendingAOF = entries
		m.logger.Info().Int("entries", len(entries)).Msg("append log loaded, pending replay")

	default:
		m.rdbWriter = rdb.NewWriter(m.cfg.RDBPath, m.cfg.RDBCompression, m.logger)
		m.rdbLoader = rdb.NewLoader(m.cfg.RDBPath, m.cfg.RDBCompression, m.logger)

		loaded, err := m.rdbLoader.Load(len(m.shards))
		if err != nil {
			return fmt.Errorf("db: load snapshot: %w", err)
		}
		for i, entries := range loaded {
			if i >= len(m.shards) {
				break
			}
			m.shards[i].ReplaceAll(entries)
		}
		m.logger.Info().Msg("snapshot loaded")
	}
	return nil
}

// PendingAOFEntries returns and clears the append-log entries loaded at
// startup, so a caller (internal/command, which owns the dispatch table)
// can replay them exactly once against the command handler rather than
// duplicating dispatch logic here.
func (m *Manager) PendingAOFEntries() []aof.Entry {
	entries := m.pendingAOF
	m.pendingAOF = nil
	return entries
}

// Shard returns the shard at index, or an error if out of range (SELECT,
// §7 ErrUnknownShard).
func (m *Manager) Shard(index int) (*storage.Shard, error) {
	if index < 0 || index >= len(m.shards) {
		return nil, storage.ErrUnknownShard
	}
	return m.shards[index], nil
}

// NumShards returns the configured database count.
func (m *Manager) NumShards() int {
	return len(m.shards)
}

// LogWrite appends a mutating command to the AOF (no-op in RDB mode) and
// is invoked by the command dispatcher after every successful write,
// alongside a SELECT line whenever the active shard changed since the
// last append (§4.5).
func (m *Manager) LogWrite(shardIndex int, args []string, lastShard *int) error {
	if m.aofWriter == nil {
		return nil
	}
	if lastShard == nil || *lastShard != shardIndex {
		if err := m.aofWriter.Append([]string{"SELECT", fmt.Sprint(shardIndex)}); err != nil {
			return err
		}
		if lastShard != nil {
			*lastShard = shardIndex
		}
	}
	return m.aofWriter.Append(args)
}

// Start launches every background scheduler this node runs: a reaper per
// shard, the persistence timer, the replication server, the replication
// puller (slave role only) and the cluster gossiper (if enabled).
func (m *Manager) Start(commandPort int) error {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	for i, shard := range m.shards {
		reaper := storage.NewReaper(shard, m.logger)
		if m.metrics != nil {
			idx := fmt.Sprint(i)
			reaper.OnTick(func(removed int) {
				m.metrics.ReaperSweeps.Inc()
				if removed > 0 {
					m.metrics.ReaperEvictions.Add(float64(removed))
				}
				m.metrics.ShardSize.WithLabelValues(idx).Set(float64(shard.Size()))
			})
		}
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			reaper.Run(ctx)
		}()
	}

	m.startPersistenceTimer(ctx)

	m.replServer = replication.NewServer(m.shards, m.logger)
	if err := m.replServer.Listen(commandPort); err != nil {
		return err
	}
	go m.replServer.Serve()

	if m.cfg.NodeRole == "slave" && m.cfg.MasterHost != "" {
		m.replPuller = replication.NewPuller(replication.PullerConfig{
			NodeID:         m.cfg.NodeID,
			MasterHost:     m.cfg.MasterHost,
			MasterPort:     m.cfg.MasterPort,
			ConnectTimeout: m.cfg.SyncConnectTimeout,
			ReadTimeout:    m.cfg.SyncReadTimeout,
		}, m.shards, m.logger)
		m.startPullLoop(ctx)
	}

	if m.cfg.ClusterEnabled {
		if err := m.startGossip(commandPort); err != nil {
			return err
		}
	}

	return nil
}

func (m *Manager) startPersistenceTimer(ctx context.Context) {
	if m.cfg.PersistenceMode == "aof" {
		if m.cfg.AOFFsync != "everysec" {
			return
		}
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			ticker := time.NewTicker(1 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if err := m.aofWriter.Flush(); err != nil {
						m.logger.Warn().Err(err).Msg("append log flush failed")
					}
				}
			}
		}()
		return
	}

	interval := m.cfg.RDBSaveInterval
	if interval <= 0 {
		return
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.SaveSnapshot()
			}
		}
	}()
}

// SaveSnapshot writes every shard's live entries to the snapshot file.
func (m *Manager) SaveSnapshot() {
	start := time.Now()
	entries := make([]map[string]*storage.Value, len(m.shards))
	for i, shard := range m.shards {
		entries[i] = shard.SnapshotEntries()
	}
	err := m.rdbWriter.Save(entries)

	if m.metrics != nil {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		m.metrics.PersistenceSaves.WithLabelValues("rdb", outcome).Inc()
		m.metrics.SaveDuration.WithLabelValues("rdb").Observe(time.Since(start).Seconds())
	}
	if err != nil {
		m.logger.Warn().Err(err).Msg("snapshot save failed")
		return
	}
	m.logger.Debug().Dur("duration", time.Since(start)).Msg("snapshot saved")
}

func (m *Manager) startPullLoop(ctx context.Context) {
	interval := m.cfg.SyncInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.replPuller.Tick()
				if m.metrics != nil {
					outcome := "ok"
					if m.replPuller.LastSync() == 0 {
						outcome = "pending"
					}
					m.metrics.ReplicationPulls.WithLabelValues(outcome).Inc()
				}
			}
		}
	}()
}

func (m *Manager) startGossip(commandPort int) error {
	self := cluster.Node{
		ID:     m.cfg.NodeID,
		Host:   m.cfg.Host,
		Port:   commandPort,
		Status: cluster.StatusOnline,
	}
	if m.cfg.NodeRole == "slave" {
		self.Role = cluster.RoleSlave
		self.MasterID = m.cfg.MasterID
	} else {
		self.Role = cluster.RoleMaster
	}

	m.registry = cluster.NewRegistry(self)
	for _, spec := range m.cfg.SlaveNodes {
		id, host, port, err := parseSlaveNode(spec)
		if err != nil {
			m.logger.Warn().Err(err).Str("entry", spec).Msg("skipping malformed slaveNodes entry")
			continue
		}
		m.registry.Add(cluster.Node{ID: id, Host: host, Port: port, Status: cluster.StatusHandshake, Role: cluster.RoleSlave, MasterID: self.ID})
	}

	m.gossiper = cluster.NewGossiper(m.registry, cluster.Config{
		HeartbeatInterval:  m.cfg.HeartbeatInterval,
		NodeStatusInterval: m.cfg.NodeStatusInterval,
		NodeTimeout:        m.cfg.NodeTimeout,
	}, m.logger)

	if err := m.gossiper.Listen(commandPort); err != nil {
		return err
	}
	go m.gossiper.Serve()
	m.gossiper.Run()
	return nil
}

// Registry exposes the cluster registry for INFO/CLUSTER command
// handlers; nil when clustering is disabled.
func (m *Manager) Registry() *cluster.Registry {
	return m.registry
}

// parseSlaveNode splits one "id:host:port" entry from the slaveNodes
// configuration list (§6).
func parseSlaveNode(spec string) (id, host string, port int, err error) {
	parts := strings.SplitN(spec, ":", 3)
	if len(parts) != 3 {
		return "", "", 0, fmt.Errorf("db: malformed slave node %q, want id:host:port", spec)
	}
	port, err = strconv.Atoi(parts[2])
	if err != nil {
		return "", "", 0, fmt.Errorf("db: malformed slave node port %q: %w", spec, err)
	}
	return parts[0], parts[1], port, nil
}

// Shutdown stops every scheduler cooperatively within ShutdownDrain, then
// closes persistence handles (§5).
func (m *Manager) Shutdown() {
	if m.cancel != nil {
		m.cancel()
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(ShutdownDrain):
		m.logger.Warn().Msg("shutdown drain window exceeded, proceeding")
	}

	if m.replServer != nil {
		m.replServer.Close()
	}
	if m.gossiper != nil {
		m.gossiper.Close()
	}
	if m.aofWriter != nil {
		if err := m.aofWriter.Close(); err != nil {
			m.logger.Warn().Err(err).Msg("error closing append log")
		}
	}
	if m.rdbWriter != nil {
		m.SaveSnapshot()
	}
	m.logger.Info().Msg("database manager shut down")
}
