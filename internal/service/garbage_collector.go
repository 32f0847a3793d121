package service

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/haierkeys/gift-share-service/internal/domain"
	"github.com/haierkeys/gift-share-service/pkg/logger"

	"go.uber.org/zap"
)

// sweepLockTTL upper bound a cross-process sweep lock is held
const sweepLockTTL = 10 * time.Minute

// SweepLocker cross-process mutual exclusion for sweeps
// SweepLocker 跨进程的清理互斥
type SweepLocker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

// SweepStats outcome of one sweep
// SweepStats 一轮清理的结果
type SweepStats struct {
	Skipped bool `json:"skipped"`
	Scanned int  `json:"scanned"`
	Deleted int  `json:"deleted"`
	Failed  int  `json:"failed"`
}

// GarbageCollector deletes time-expired records independently of reads
// GarbageCollector 与读路径无关地清理已过期记录
type GarbageCollector[P domain.Payload] struct {
	artifact  string
	repo      domain.ShareRecordRepository[P]
	purger    *recordPurger
	batchSize int
	locker    SweepLocker
	now       func() time.Time
	metrics   *Metrics
	logger    *zap.Logger

	running atomic.Bool
}

// Sweep runs one batch; overlapping calls on the same instance return Skipped
// Schema and per-row failures are logged, only the batch query error is returned.
// Sweep 执行一轮清理；同一实例上重叠的调用直接跳过
func (gc *GarbageCollector[P]) Sweep(ctx context.Context) (SweepStats, error) {
	if !gc.running.CompareAndSwap(false, true) {
		gc.logger.Debug("sweep already running", zap.String(logger.FieldArtifact, gc.artifact))
		return SweepStats{Skipped: true}, nil
	}
	defer gc.running.Store(false)

	if gc.locker != nil {
		release, ok, err := gc.locker.TryLock(ctx, "sweep:"+gc.repo.Table(), sweepLockTTL)
		if err != nil {
			gc.logger.Warn("sweep lock unavailable, skipping",
				zap.String(logger.FieldArtifact, gc.artifact),
				zap.Error(err))
			return SweepStats{Skipped: true}, nil
		}
		if !ok {
			return SweepStats{Skipped: true}, nil
		}
		defer release()
	}

	start := time.Now()
	defer func() {
		gc.metrics.observeSweep(gc.artifact, time.Since(start).Seconds())
	}()

	if err := gc.repo.EnsureSchema(ctx); err != nil {
		gc.logger.Warn("sweep skipped, schema unavailable",
			zap.String(logger.FieldArtifact, gc.artifact),
			zap.Error(err))
		return SweepStats{Skipped: true}, nil
	}

	now := gc.now().UTC()
	batch, err := gc.repo.FindExpiredBatch(ctx, now, gc.batchSize)
	if err != nil {
		gc.logger.Error("sweep query failed",
			zap.String(logger.FieldArtifact, gc.artifact),
			zap.Error(err))
		return SweepStats{}, err
	}

	stats := SweepStats{Scanned: len(batch)}
	for _, rec := range batch {
		if ctx.Err() != nil {
			break
		}
		// expires_at may have been rewritten since the query
		if !Evaluate(rec.ExpiresAt, rec.CreatedAt, rec.RetentionDays, now).Expired {
			continue
		}
		if err := gc.purger.purge(ctx, rec.ID, rec.Payload.BlobURL(), ReasonSweep); err != nil {
			stats.Failed++
			continue
		}
		stats.Deleted++
	}

	if stats.Scanned > 0 {
		gc.logger.Info("sweep finished",
			zap.String(logger.FieldArtifact, gc.artifact),
			zap.Int("scanned", stats.Scanned),
			zap.Int("deleted", stats.Deleted),
			zap.Int("failed", stats.Failed),
			zap.Duration(logger.FieldDuration, time.Since(start)))
	}
	return stats, nil
}
