package replication

import (
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/nodeforge/redikv/internal/storage"
)

// Puller is the slave side of C7: on a timer it pulls a full snapshot
// from the master and replaces the local shard vector in place.
type Puller struct {
	nodeID     string
	masterHost string
	masterPort int
	connectTO  time.Duration
	readTO     time.Duration
	shards     []*storage.Shard
	logger     zerolog.Logger

	inProgress       int32
	consecutiveFails int64
	lastSync         int64 // unix millis, advisory only
}

// PullerConfig carries the puller's tunables (§4.6, §5 timeouts).
type PullerConfig struct {
	NodeID         string
	MasterHost     string
	MasterPort     int
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
}

// NewPuller returns a puller that will keep shards in sync with a master.
func NewPuller(cfg PullerConfig, shards []*storage.Shard, logger zerolog.Logger) *Puller {
	connectTO := cfg.ConnectTimeout
	if connectTO == 0 {
		connectTO = 5000 * time.Millisecond
	}
	readTO := cfg.ReadTimeout
	if readTO == 0 {
		readTO = 60000 * time.Millisecond
	}
	return &Puller{
		nodeID:     cfg.NodeID,
		masterHost: cfg.MasterHost,
		masterPort: cfg.MasterPort,
		connectTO:  connectTO,
		readTO:     readTO,
		shards:     shards,
		logger:     logger.With().Str("component", "replication-puller").Logger(),
	}
}

// Tick runs one pull attempt. Callers invoke this from their own periodic
// scheduler (C4's sync-interval timer); Puller owns no ticker of its own.
func (p *Puller) Tick() {
	if !atomic.CompareAndSwapInt32(&p.inProgress, 0, 1) {
		p.logger.Debug().Msg("pull already in progress, skipping tick")
		return
	}
	defer atomic.StoreInt32(&p.inProgress, 0)

	if err := p.pullOnce(); err != nil {
		fails := atomic.AddInt64(&p.consecutiveFails, 1)
		if fails <= 10 || fails%10 == 0 {
			p.logger.Warn().Err(err).Int64("consecutive_failures", fails).Msg("replication pull failed")
		}
		return
	}
	atomic.StoreInt64(&p.consecutiveFails, 0)
}

func (p *Puller) pullOnce() error {
	conn, err := p.dial()
	if err != nil {
		return err
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(p.readTO))

	req := request{NodeID: p.nodeID, LastSyncTimestamp: atomic.LoadInt64(&p.lastSync)}
	if err := writeRequest(conn, req); err != nil {
		return fmt.Errorf("replication: send pull request: %w", err)
	}

	resp, err := readResponse(conn)
	if err != nil {
		return err
	}

	n := len(resp.Shards)
	if n > len(p.shards) {
		n = len(p.shards)
	}
	for i := 0; i < n; i++ {
		p.shards[i].ReplaceAll(resp.Shards[i])
	}

	atomic.StoreInt64(&p.lastSync, time.Now().UnixMilli())
	p.logger.Debug().Int("shards", n).Int64("server_timestamp", resp.ServerTimestamp).Msg("pull complete")
	return nil
}

// dial connects to the primary replication port, falling back to the
// secondary offset on failure (§4.6 step 3).
func (p *Puller) dial() (net.Conn, error) {
	primary := fmt.Sprintf("%s:%d", p.masterHost, p.masterPort+PortOffset)
	conn, err := net.DialTimeout("tcp", primary, p.connectTO)
	if err == nil {
		return conn, nil
	}

	fallback := fmt.Sprintf("%s:%d", p.masterHost, p.masterPort+PortOffsetFallback)
	conn, ferr := net.DialTimeout("tcp", fallback, p.connectTO)
	if ferr != nil {
		return nil, fmt.Errorf("%w: primary %v, fallback %v", ErrConnectFailed, err, ferr)
	}
	return conn, nil
}

// LastSync returns the advisory timestamp (unix millis) of the last
// successful pull, or 0 if none has succeeded yet.
func (p *Puller) LastSync() int64 {
	return atomic.LoadInt64(&p.lastSync)
}
