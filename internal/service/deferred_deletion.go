package service

import (
	"context"
	"sync"
	"time"

	"github.com/haierkeys/gift-share-service/pkg/logger"
	"github.com/haierkeys/gift-share-service/pkg/workerpool"

	"go.uber.org/zap"
)

// deferredTimeout bound on a single deferred purge
const deferredTimeout = 30 * time.Second

type pendingDeletion struct {
	timer   *time.Timer
	blobURL string
}

// DeferredDeletionScheduler deletes exhausted records after a grace period
// The exhausting reader still gets its payload; the record and its media go away shortly after.
// DeferredDeletionScheduler 访问次数用完后，在宽限期结束时删除记录
type DeferredDeletionScheduler struct {
	artifact string
	grace    time.Duration
	purger   *recordPurger
	pool     *workerpool.Pool
	metrics  *Metrics
	logger   *zap.Logger

	mu      sync.Mutex
	pending map[int64]*pendingDeletion
	closed  bool
}

func newDeferredDeletionScheduler(artifact string, grace time.Duration, purger *recordPurger, pool *workerpool.Pool, metrics *Metrics, lg *zap.Logger) *DeferredDeletionScheduler {
	return &DeferredDeletionScheduler{
		artifact: artifact,
		grace:    grace,
		purger:   purger,
		pool:     pool,
		metrics:  metrics,
		logger:   lg,
		pending:  make(map[int64]*pendingDeletion),
	}
}

// Schedule arranges deletion of record id; never blocks on the deletion itself
// Scheduling an id that is already pending is a no-op.
// Schedule 安排删除，不阻塞调用方；重复安排同一记录会被忽略
func (d *DeferredDeletionScheduler) Schedule(id int64, blobURL string) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.run(id, blobURL)
		return
	}
	if _, ok := d.pending[id]; ok {
		d.mu.Unlock()
		return
	}
	if d.grace <= 0 {
		d.mu.Unlock()
		d.dispatch(id, blobURL)
		return
	}

	d.pending[id] = &pendingDeletion{
		blobURL: blobURL,
		timer: time.AfterFunc(d.grace, func() {
			if d.take(id) {
				d.dispatch(id, blobURL)
			}
		}),
	}
	d.mu.Unlock()
	d.metrics.deferredAdd(d.artifact, 1)
}

// IsPending reports whether a deletion for id is waiting for its grace period
func (d *DeferredDeletionScheduler) IsPending(id int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.pending[id]
	return ok
}

// Pending number of deletions waiting for their grace period
// Pending 等待中的删除数量
func (d *DeferredDeletionScheduler) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// take removes id from the pending set, false if another path already claimed it
func (d *DeferredDeletionScheduler) take(id int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.pending[id]; !ok {
		return false
	}
	delete(d.pending, id)
	d.metrics.deferredAdd(d.artifact, -1)
	return true
}

func (d *DeferredDeletionScheduler) dispatch(id int64, blobURL string) {
	if d.pool != nil {
		err := d.pool.SubmitAsync(context.Background(), "deferred-delete", func(ctx context.Context) error {
			d.run(id, blobURL)
			return nil
		})
		if err == nil {
			return
		}
		d.logger.Debug("deferred deletion runs inline",
			zap.String(logger.FieldArtifact, d.artifact),
			zap.Int64(logger.FieldRecordID, id),
			zap.Error(err))
	}
	go d.run(id, blobURL)
}

func (d *DeferredDeletionScheduler) run(id int64, blobURL string) {
	ctx, cancel := context.WithTimeout(context.Background(), deferredTimeout)
	defer cancel()
	_ = d.purger.purge(ctx, id, blobURL, ReasonExhausted)
}

// Shutdown stops accepting timers and runs every pending deletion now
// Shutdown 立即执行所有等待中的删除，之后的 Schedule 同步执行
func (d *DeferredDeletionScheduler) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	drain := make(map[int64]string, len(d.pending))
	for id, p := range d.pending {
		// a timer that already fired claims its entry through take
		if p.timer.Stop() {
			drain[id] = p.blobURL
			delete(d.pending, id)
		}
	}
	d.mu.Unlock()

	if len(drain) > 0 {
		d.metrics.deferredAdd(d.artifact, -float64(len(drain)))
		d.logger.Info("draining deferred deletions",
			zap.String(logger.FieldArtifact, d.artifact),
			zap.Int("count", len(drain)))
	}

	for id, blobURL := range drain {
		if err := ctx.Err(); err != nil {
			return err
		}
		_ = d.purger.purge(ctx, id, blobURL, ReasonExhausted)
	}
	return nil
}
