package jobs

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type PoolSnapshot struct {
	Total    int32
	Idle     int32
	Acquired int32
}

type PoolSampler func() PoolSnapshot

func PgxPoolSampler(pool *pgxpool.Pool) PoolSampler {
	return func() PoolSnapshot {
		stat := pool.Stat()
		return PoolSnapshot{
			Total:    stat.TotalConns(),
			Idle:     stat.IdleConns(),
			Acquired: stat.AcquiredConns(),
		}
	}
}

type PoolRecorder interface {
	ObservePool(total, idle, acquired int32)
}

// StartPoolStatsJob publishes pool gauges every interval until ctx ends.
func StartPoolStatsJob(ctx context.Context, interval time.Duration, sample PoolSampler, recorder PoolRecorder, log *zap.Logger) {
	if sample == nil || recorder == nil {
		return
	}
	if log == nil {
		log = zap.NewNop()
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				snap := sample()
				recorder.ObservePool(snap.Total, snap.Idle, snap.Acquired)
				log.Debug("database pool stats",
					zap.Int32("total", snap.Total),
					zap.Int32("idle", snap.Idle),
					zap.Int32("acquired", snap.Acquired),
				)
			}
		}
	}()
}
