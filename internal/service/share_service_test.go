package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/haierkeys/gift-share-service/internal/domain"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShareService_CreateShare(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, withAnonymousPolicy(2, 4))

	payload := domain.GiftPayload{RecipientName: "Lea", Message: "happy birthday", MediaURL: testMediaBase + "/a.mp4", MediaType: "video"}
	created, err := e.svc.CreateShare(ctx, payload, nil)
	require.NoError(t, err)

	assert.Len(t, created.Token, 32)
	assert.Equal(t, "https://gifts.example.com/gift/view?token="+created.Token, created.ShareURL)
	assert.Equal(t, 2, created.RetentionDays)
	assert.Equal(t, int64(4), created.AccessLimit)
	assert.Equal(t, domain.TierAnonymous, created.Tier)
	assert.True(t, e.clock.Now().Add(48*time.Hour).Equal(created.ExpiresAt))

	rec, err := e.repo.FindByToken(ctx, created.Token)
	require.NoError(t, err)
	assert.Equal(t, payload, rec.Payload)
	assert.Nil(t, rec.AccountID)
	assert.Equal(t, int64(0), rec.AccessUsed)
}

func TestShareService_ConsumeShareUnknownToken(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.svc.ConsumeShare(context.Background(), "no-such-token-000")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = e.svc.ConsumeShare(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// create with retention 1 day and limit 2; two reads succeed, the third is not found
func TestShareService_ScenarioQuotaExhaustion(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, withAnonymousPolicy(1, 2))

	created, err := e.svc.CreateShare(ctx, domain.GiftPayload{RecipientName: "Kai", MediaURL: testMediaBase + "/kai.png"}, nil)
	require.NoError(t, err)

	v1, err := e.svc.ConsumeShare(ctx, created.Token)
	require.NoError(t, err)
	assert.Equal(t, "Kai", v1.Payload.RecipientName)
	assert.Equal(t, int64(1), v1.AccessRemaining)

	v2, err := e.svc.ConsumeShare(ctx, created.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(0), v2.AccessRemaining)
	assert.Equal(t, 1, e.svc.PendingDeletions())

	_, err = e.svc.ConsumeShare(ctx, created.Token)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// the grace period is still running, the row waits for it
	assert.True(t, e.exists(t, created.Token))

	require.NoError(t, e.svc.Shutdown(ctx))
	assert.Equal(t, 0, e.svc.PendingDeletions())
	assert.False(t, e.exists(t, created.Token))
	assert.Equal(t, []string{"kai.png"}, e.deleter.Paths())
}

// limit 5 but the clock passes the retention window before any read
func TestShareService_ScenarioExpiredBeforeFirstRead(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, withAnonymousPolicy(1, 5))

	created, err := e.svc.CreateShare(ctx, domain.GiftPayload{MediaURL: testMediaBase + "/old.jpg"}, nil)
	require.NoError(t, err)

	e.clock.Advance(25 * time.Hour)

	_, err = e.svc.ConsumeShare(ctx, created.Token)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.False(t, e.exists(t, created.Token))
	assert.Equal(t, []string{"old.jpg"}, e.deleter.Paths())
}

// 3 expired and 2 live records, batch limit 10
func TestShareService_ScenarioSweep(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	now := e.clock.Now()
	for i := 0; i < 3; i++ {
		e.insert(t, fmt.Sprintf("expired-token-%04d", i), 3, now.Add(-time.Duration(i+1)*time.Hour))
	}
	for i := 0; i < 2; i++ {
		e.insert(t, fmt.Sprintf("live-token-000%04d", i), 3, now.Add(time.Duration(i+1)*time.Hour))
	}
	// a failing media delete must not keep the row alive
	e.deleter.fail["expired-token-0001.jpg"] = true

	stats, err := e.svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, SweepStats{Scanned: 3, Deleted: 3}, stats)

	for i := 0; i < 3; i++ {
		assert.False(t, e.exists(t, fmt.Sprintf("expired-token-%04d", i)))
	}
	for i := 0; i < 2; i++ {
		assert.True(t, e.exists(t, fmt.Sprintf("live-token-000%04d", i)))
	}
	assert.ElementsMatch(t, []string{"expired-token-0000.jpg", "expired-token-0001.jpg", "expired-token-0002.jpg"}, e.deleter.Paths())

	live, err := e.svc.CountLive(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), live)
}

// two concurrent reads of a single-use share
func TestShareService_ScenarioConcurrentSingleUse(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	rec := e.insert(t, "single-use-token-01", 1, e.clock.Now().Add(time.Hour))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.svc.ConsumeShare(ctx, rec.Token)
		}(i)
	}
	wg.Wait()

	ok, notFound := 0, 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		if assert.ErrorIs(t, err, domain.ErrNotFound) {
			notFound++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, notFound)
}

func TestShareService_UnlimitedShare(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	rec := e.insert(t, "unlimited-token-01", domain.UnlimitedAccess, e.clock.Now().Add(time.Hour))

	for i := 0; i < 20; i++ {
		v, err := e.svc.ConsumeShare(ctx, rec.Token)
		require.NoError(t, err)
		assert.Equal(t, int64(domain.UnlimitedAccess), v.AccessRemaining)
	}
	assert.Equal(t, 0, e.svc.PendingDeletions())
}

func TestShareService_LegacyRecordBackfill(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	rec := e.insert(t, "legacy-token-00001", 10, e.clock.Now().Add(time.Minute))
	// a row written before expires_at existed
	require.NoError(t, e.db.Exec("UPDATE "+e.repo.Table()+" SET expires_at = NULL WHERE id = ?", rec.ID).Error)

	v, err := e.svc.ConsumeShare(ctx, rec.Token)
	require.NoError(t, err)
	assert.WithinDuration(t, rec.CreatedAt.Add(24*time.Hour), v.ExpiresAt, time.Second)

	got, err := e.repo.FindByToken(ctx, rec.Token)
	require.NoError(t, err)
	require.NotNil(t, got.ExpiresAt)
	assert.WithinDuration(t, rec.CreatedAt.Add(24*time.Hour), *got.ExpiresAt, time.Second)
}

func TestShareService_ZeroGraceDeletesPromptly(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, withGrace(0))
	rec := e.insert(t, "zero-grace-token-1", 1, e.clock.Now().Add(time.Hour))

	_, err := e.svc.ConsumeShare(ctx, rec.Token)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		ok, err := e.repo.ExistsToken(ctx, rec.Token)
		return err == nil && !ok
	}, 2*time.Second, 10*time.Millisecond)
}

func TestProperty_QuotaNeverExceeded(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	seq := 0

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	properties := gopter.NewProperties(parameters)

	properties.Property("successful reads equal min(limit, calls)", prop.ForAll(
		func(limit, calls int) bool {
			seq++
			rec := e.insert(t, fmt.Sprintf("quota-prop-%08d", seq), int64(limit), e.clock.Now().Add(time.Hour))

			ok := 0
			for i := 0; i < calls; i++ {
				if _, err := e.svc.ConsumeShare(ctx, rec.Token); err == nil {
					ok++
				}
			}
			return ok == min(limit, calls)
		},
		gen.IntRange(1, 6),
		gen.IntRange(1, 9),
	))

	properties.TestingRun(t)
}

// conflictingRepo 模拟 Token 始终被占用的存储
type conflictingRepo struct {
	domain.ShareRecordRepository[domain.GiftPayload]
	mu          sync.Mutex
	existsTaken bool
	existsCalls int
	insertCalls int
}

func (r *conflictingRepo) ExistsToken(ctx context.Context, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.existsCalls++
	return r.existsTaken, nil
}

func (r *conflictingRepo) Insert(ctx context.Context, rec *domain.ShareRecord[domain.GiftPayload]) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.insertCalls++
	return 0, domain.ErrTokenConflict
}

func TestShareService_CreateShareTokenBudget(t *testing.T) {
	tests := []struct {
		name        string
		existsTaken bool
		wantInserts int
	}{
		{"taken on pre-check", true, 0},
		{"conflict on insert", false, maxTokenAttempts},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t)
			repo := &conflictingRepo{ShareRecordRepository: e.repo, existsTaken: tt.existsTaken}
			svc := NewShareService(ShareConfig{Artifact: "gift", PublicBaseURL: "https://gifts.example.com"}, Dependencies[domain.GiftPayload]{
				Repo: repo,
				Now:  e.clock.Now,
			})
			t.Cleanup(func() { _ = svc.Shutdown(context.Background()) })

			_, err := svc.CreateShare(context.Background(), domain.GiftPayload{RecipientName: "Noa", MediaURL: testMediaBase + "/noa.png"}, nil)
			assert.ErrorIs(t, err, domain.ErrTokenExhaustion)
			assert.Equal(t, maxTokenAttempts, repo.existsCalls)
			assert.Equal(t, tt.wantInserts, repo.insertCalls)
		})
	}
}
