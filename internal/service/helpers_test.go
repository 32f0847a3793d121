package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/haierkeys/gift-share-service/internal/dao"
	"github.com/haierkeys/gift-share-service/internal/domain"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testMediaBase = "https://media.example.com/uploads"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeDeleter records every path it is asked to delete
type fakeDeleter struct {
	mu    sync.Mutex
	paths []string
	fail  map[string]bool
}

func (d *fakeDeleter) Name() string { return "fake" }

func (d *fakeDeleter) Delete(ctx context.Context, paths ...string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.paths = append(d.paths, paths...)
	for _, p := range paths {
		if d.fail[p] {
			return errors.New("media service returned 500")
		}
	}
	return nil
}

func (d *fakeDeleter) Paths() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.paths...)
}

type fakeTierResolver struct {
	tiers map[int64]domain.AccountTier
	err   error
}

func (f *fakeTierResolver) ResolveAccountTier(ctx context.Context, accountID int64) (domain.AccountTier, error) {
	if f.err != nil {
		return "", f.err
	}
	t, ok := f.tiers[accountID]
	if !ok {
		return "", domain.ErrNotFound
	}
	return t, nil
}

type testEngine struct {
	svc     ShareService[domain.GiftPayload]
	repo    domain.ShareRecordRepository[domain.GiftPayload]
	clock   *fakeClock
	deleter *fakeDeleter
	db      *gorm.DB
}

type engineOption func(*ShareConfig, *RetentionConfig)

func withGrace(d time.Duration) engineOption {
	return func(c *ShareConfig, _ *RetentionConfig) { c.GracePeriod = d }
}

func withAnonymousPolicy(days int, limit int64) engineOption {
	return func(_ *ShareConfig, r *RetentionConfig) {
		r.Tiers = DefaultTiers()
		r.Tiers[domain.TierAnonymous] = TierPolicy{RetentionDays: days, AccessLimit: limit}
	}
}

func newTestEngine(t *testing.T, opts ...engineOption) *testEngine {
	t.Helper()

	cfg := dao.DatabaseConfig{
		Type:         "sqlite",
		Path:         filepath.Join(t.TempDir(), "share.sqlite3"),
		MaxOpenConns: 1,
	}
	db, err := dao.NewDBEngineWithConfig(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	d := dao.New(db, dao.WithConfig(&cfg))
	repo := dao.NewShareRecordRepository[domain.GiftPayload](d, dao.NewSchemaMigrator(db, zap.NewNop()), "gift")

	shareCfg := ShareConfig{
		Artifact:      "gift",
		PublicBaseURL: "https://gifts.example.com",
		GracePeriod:   time.Hour,
	}
	retention := RetentionConfig{}
	for _, opt := range opts {
		opt(&shareCfg, &retention)
	}

	clock := newFakeClock()
	deleter := &fakeDeleter{fail: map[string]bool{}}
	svc := NewShareService(shareCfg, Dependencies[domain.GiftPayload]{
		Repo:     repo,
		Policies: NewRetentionPolicyResolver(nil, retention, nil),
		Blobs:    NewBlobDeletionClient(deleter, testMediaBase, nil, nil, nil),
		Now:      clock.Now,
	})
	t.Cleanup(func() { _ = svc.Shutdown(context.Background()) })

	return &testEngine{svc: svc, repo: repo, clock: clock, deleter: deleter, db: db}
}

// insert stores a record directly, bypassing the resolver
func (e *testEngine) insert(t *testing.T, token string, limit int64, expiresAt time.Time) *domain.ShareRecord[domain.GiftPayload] {
	t.Helper()
	rec := &domain.ShareRecord[domain.GiftPayload]{
		Token:         token,
		Payload:       domain.GiftPayload{RecipientName: "Mia", MediaURL: testMediaBase + "/" + strings.ToLower(token) + ".jpg"},
		CreatedAt:     e.clock.Now(),
		RetentionDays: 1,
		ExpiresAt:     &expiresAt,
		AccessLimit:   limit,
	}
	_, err := e.repo.Insert(context.Background(), rec)
	require.NoError(t, err)
	return rec
}

func (e *testEngine) exists(t *testing.T, token string) bool {
	t.Helper()
	ok, err := e.repo.ExistsToken(context.Background(), token)
	require.NoError(t, err)
	return ok
}
