package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/haierkeys/gift-share-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockShareRepo struct {
	domain.ShareRecordRepository[domain.GiftPayload]

	mu        sync.Mutex
	schemaErr error
	batch     []*domain.ShareRecord[domain.GiftPayload]
	failIDs   map[int64]bool
	deleted   []int64
	block     chan struct{}
	entered   chan struct{}
}

func (m *mockShareRepo) Table() string { return "gift" }

func (m *mockShareRepo) EnsureSchema(ctx context.Context) error { return m.schemaErr }

func (m *mockShareRepo) FindExpiredBatch(ctx context.Context, now time.Time, limit int) ([]*domain.ShareRecord[domain.GiftPayload], error) {
	if m.entered != nil {
		close(m.entered)
	}
	if m.block != nil {
		<-m.block
	}
	if len(m.batch) > limit {
		return m.batch[:limit], nil
	}
	return m.batch, nil
}

func (m *mockShareRepo) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failIDs[id] {
		return domain.ErrStoreUnavailable
	}
	m.deleted = append(m.deleted, id)
	return nil
}

type fakeLocker struct {
	ok       bool
	err      error
	released int
}

func (l *fakeLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	if l.err != nil || !l.ok {
		return nil, false, l.err
	}
	return func() { l.released++ }, true, nil
}

func newTestCollector(repo *mockShareRepo, locker SweepLocker) *GarbageCollector[domain.GiftPayload] {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	return &GarbageCollector[domain.GiftPayload]{
		artifact:  "gift",
		repo:      repo,
		purger:    &recordPurger{artifact: "gift", records: repo, logger: zap.NewNop()},
		batchSize: 10,
		locker:    locker,
		now:       func() time.Time { return now },
		logger:    zap.NewNop(),
	}
}

func expiredRecord(id int64) *domain.ShareRecord[domain.GiftPayload] {
	at := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	return &domain.ShareRecord[domain.GiftPayload]{ID: id, ExpiresAt: &at}
}

func TestGarbageCollector_RowFailureDoesNotStopBatch(t *testing.T) {
	repo := &mockShareRepo{
		batch:   []*domain.ShareRecord[domain.GiftPayload]{expiredRecord(1), expiredRecord(2), expiredRecord(3)},
		failIDs: map[int64]bool{2: true},
	}
	gc := newTestCollector(repo, nil)

	stats, err := gc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SweepStats{Scanned: 3, Deleted: 2, Failed: 1}, stats)
	assert.Equal(t, []int64{1, 3}, repo.deleted)
}

func TestGarbageCollector_SchemaFailureSkipsTick(t *testing.T) {
	repo := &mockShareRepo{schemaErr: domain.ErrStoreUnavailable, batch: []*domain.ShareRecord[domain.GiftPayload]{expiredRecord(1)}}
	gc := newTestCollector(repo, nil)

	stats, err := gc.Sweep(context.Background())
	require.NoError(t, err)
	assert.True(t, stats.Skipped)
	assert.Empty(t, repo.deleted)
}

func TestGarbageCollector_OverlappingSweepSkipped(t *testing.T) {
	repo := &mockShareRepo{
		batch:   []*domain.ShareRecord[domain.GiftPayload]{expiredRecord(1)},
		block:   make(chan struct{}),
		entered: make(chan struct{}),
	}
	gc := newTestCollector(repo, nil)

	first := make(chan SweepStats)
	go func() {
		stats, _ := gc.Sweep(context.Background())
		first <- stats
	}()
	<-repo.entered

	stats, err := gc.Sweep(context.Background())
	require.NoError(t, err)
	assert.True(t, stats.Skipped)

	close(repo.block)
	assert.Equal(t, 1, (<-first).Deleted)
}

func TestGarbageCollector_Locker(t *testing.T) {
	repo := &mockShareRepo{batch: []*domain.ShareRecord[domain.GiftPayload]{expiredRecord(1)}}

	held := &fakeLocker{ok: false}
	stats, err := newTestCollector(repo, held).Sweep(context.Background())
	require.NoError(t, err)
	assert.True(t, stats.Skipped)

	broken := &fakeLocker{err: errors.New("dial tcp: connection refused")}
	stats, err = newTestCollector(repo, broken).Sweep(context.Background())
	require.NoError(t, err)
	assert.True(t, stats.Skipped)

	free := &fakeLocker{ok: true}
	stats, err = newTestCollector(repo, free).Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Deleted)
	assert.Equal(t, 1, free.released)
}

func TestGarbageCollector_SkipsRecordsNoLongerExpired(t *testing.T) {
	future := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	repo := &mockShareRepo{batch: []*domain.ShareRecord[domain.GiftPayload]{
		expiredRecord(1),
		{ID: 2, ExpiresAt: &future},
	}}

	stats, err := newTestCollector(repo, nil).Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Deleted)
	assert.Equal(t, []int64{1}, repo.deleted)
}
