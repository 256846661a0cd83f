package storage

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// ReapInterval is the fixed period between expiration sweeps (§4.2).
const ReapInterval = 1 * time.Second

// Reaper is the secondary expiration mechanism (C3): a single 1s-period
// timer per shard that removes expired entries the lazy read-through path
// in Shard.Get hasn't already caught. It tolerates entries that disappear
// mid-iteration because Shard.sweepExpired takes its own lock per sweep.
type Reaper struct {
	shard  *Shard
	logger zerolog.Logger
	onTick func(removed int) // optional metrics hook
}

// NewReaper binds a reaper to shard. Run must be called to begin
// ticking; it runs until ctx is cancelled.
func NewReaper(shard *Shard, logger zerolog.Logger) *Reaper {
	return &Reaper{shard: shard, logger: logger}
}

// OnTick installs a callback invoked after every sweep with the number of
// entries removed (used by internal/metrics to export a counter).
func (r *Reaper) OnTick(fn func(removed int)) {
	r.onTick = fn
}

// Run blocks, sweeping the shard every ReapInterval until ctx is done.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(ReapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			removed := r.shard.sweepExpired(now)
			if removed > 0 {
				r.logger.Debug().
					Str("component", "storage.reaper").
					Int("removed", removed).
					Msg("swept expired keys")
			}
			if r.onTick != nil {
				r.onTick(removed)
			}
		}
	}
}
