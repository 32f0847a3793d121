package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/haierkeys/gift-share-service/internal/domain"
	"github.com/haierkeys/gift-share-service/pkg/logger"
	"github.com/haierkeys/gift-share-service/pkg/util"
	"github.com/haierkeys/gift-share-service/pkg/workerpool"

	"go.uber.org/zap"
)

// Consume results used as metric labels
const (
	resultOK        = "ok"
	resultExhausted = "exhausted"
	resultNotFound  = "not_found"
	resultExpired   = "expired"
	resultError     = "error"
)

// ShareCreated result of CreateShare
// ShareCreated 创建分享的结果
type ShareCreated struct {
	Token         string
	ShareURL      string
	ExpiresAt     time.Time
	RetentionDays int
	AccessLimit   int64
	Tier          domain.AccountTier
}

// ShareView payload returned to a recipient
// ShareView 返回给接收方的分享内容
type ShareView[P domain.Payload] struct {
	Payload         P
	ExpiresAt       time.Time
	AccessLimit     int64
	AccessRemaining int64
}

// Engine artifact-independent operations of a share engine
// Engine 与内容类型无关的引擎操作，供调度任务与健康检查使用
type Engine interface {
	// Artifact artifact name, e.g. gift
	Artifact() string

	// Sweep runs one garbage collection batch
	// Sweep 执行一轮过期清理
	Sweep(ctx context.Context) (SweepStats, error)

	// EnsureSchema prepares the backing table
	EnsureSchema(ctx context.Context) error

	// CountLive number of records still readable
	CountLive(ctx context.Context) (int64, error)

	// PendingDeletions deferred deletions waiting for their grace period
	PendingDeletions() int

	// Shutdown drains deferred deletions
	// Shutdown 执行所有等待中的延迟删除
	Shutdown(ctx context.Context) error
}

// ShareService share lifecycle of one artifact type
// ShareService 单个分享类型的生命周期服务
type ShareService[P domain.Payload] interface {
	Engine

	// CreateShare stores payload under a new token
	// CreateShare 生成 Token 并保存分享
	CreateShare(ctx context.Context, payload P, accountID *int64) (*ShareCreated, error)

	// ConsumeShare spends one read and returns the payload
	// Absent, expired and exhausted shares all yield domain.ErrNotFound.
	// ConsumeShare 消耗一次访问并返回内容；不存在、过期、用完统一返回 domain.ErrNotFound
	ConsumeShare(ctx context.Context, token string) (*ShareView[P], error)
}

// Dependencies collaborators of a ShareService
// Dependencies ShareService 的依赖
type Dependencies[P domain.Payload] struct {
	Repo     domain.ShareRecordRepository[P]
	Policies RetentionPolicyResolver
	Blobs    BlobDeletionClient
	Pool     *workerpool.Pool
	Locker   SweepLocker
	Metrics  *Metrics
	Logger   *zap.Logger
	// Now clock, time.Now when nil
	Now func() time.Time
}

type shareService[P domain.Payload] struct {
	config   ShareConfig
	repo     domain.ShareRecordRepository[P]
	policies RetentionPolicyResolver
	tokens   *ShareTokenGenerator
	purger   *recordPurger
	deferred *DeferredDeletionScheduler
	gc       *GarbageCollector[P]
	metrics  *Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewShareService creates the engine for one artifact type
// NewShareService 创建单个分享类型的引擎
func NewShareService[P domain.Payload](cfg ShareConfig, deps Dependencies[P]) ShareService[P] {
	lg := deps.Logger
	if lg == nil {
		lg = zap.NewNop()
	}
	lg = lg.With(zap.String(logger.FieldArtifact, cfg.Artifact))

	now := deps.Now
	if now == nil {
		now = time.Now
	}
	if cfg.ViewPath == "" {
		cfg.ViewPath = DefaultViewPath
	}
	if cfg.SweepBatchSize < 1 {
		cfg.SweepBatchSize = DefaultSweepBatchSize
	}
	policies := deps.Policies
	if policies == nil {
		policies = NewRetentionPolicyResolver(nil, RetentionConfig{}, lg)
	}

	purger := &recordPurger{
		artifact: cfg.Artifact,
		records:  deps.Repo,
		blobs:    deps.Blobs,
		metrics:  deps.Metrics,
		logger:   lg,
	}

	s := &shareService[P]{
		config:   cfg,
		repo:     deps.Repo,
		policies: policies,
		tokens:   NewShareTokenGenerator(deps.Repo),
		purger:   purger,
		deferred: newDeferredDeletionScheduler(cfg.Artifact, cfg.GracePeriod, purger, deps.Pool, deps.Metrics, lg),
		metrics:  deps.Metrics,
		logger:   lg,
		now:      now,
	}
	s.gc = &GarbageCollector[P]{
		artifact:  cfg.Artifact,
		repo:      deps.Repo,
		purger:    purger,
		batchSize: cfg.SweepBatchSize,
		locker:    deps.Locker,
		now:       now,
		metrics:   deps.Metrics,
		logger:    lg,
	}
	return s
}

func (s *shareService[P]) Artifact() string {
	return s.config.Artifact
}

func (s *shareService[P]) EnsureSchema(ctx context.Context) error {
	return s.repo.EnsureSchema(ctx)
}

func (s *shareService[P]) CreateShare(ctx context.Context, payload P, accountID *int64) (*ShareCreated, error) {
	policy := s.policies.Resolve(ctx, accountID)

	// 预检冲突与写入冲突共用同一个尝试预算
	for remaining := maxTokenAttempts; remaining > 0; {
		token, used, err := s.tokens.GenerateWithin(ctx, remaining)
		if err != nil {
			return nil, err
		}
		remaining -= used

		createdAt := s.now().UTC()
		expiresAt := util.AddDays(createdAt, policy.RetentionDays)
		rec := &domain.ShareRecord[P]{
			Token:         token,
			Payload:       payload,
			AccountID:     accountID,
			CreatedAt:     createdAt,
			RetentionDays: policy.RetentionDays,
			ExpiresAt:     &expiresAt,
			AccessLimit:   policy.AccessLimit,
		}

		// a concurrent insert may take the token between the check and the write
		if _, err := s.repo.Insert(ctx, rec); err != nil {
			if errors.Is(err, domain.ErrTokenConflict) {
				continue
			}
			return nil, err
		}

		s.metrics.shareCreated(s.config.Artifact, string(policy.Tier))
		s.logger.Info("share created",
			zap.String(logger.FieldToken, logger.TokenPrefix(token)),
			zap.String("tier", string(policy.Tier)),
			zap.Int("retentionDays", policy.RetentionDays),
			zap.Int64("accessLimit", policy.AccessLimit))

		return &ShareCreated{
			Token:         token,
			ShareURL:      s.shareURL(token),
			ExpiresAt:     expiresAt,
			RetentionDays: policy.RetentionDays,
			AccessLimit:   policy.AccessLimit,
			Tier:          policy.Tier,
		}, nil
	}
	return nil, domain.ErrTokenExhaustion
}

func (s *shareService[P]) shareURL(token string) string {
	path := strings.NewReplacer(
		"{artifact}", s.config.Artifact,
		"{token}", url.QueryEscape(token),
	).Replace(s.config.ViewPath)
	return strings.TrimSuffix(s.config.PublicBaseURL, "/") + path
}

func (s *shareService[P]) ConsumeShare(ctx context.Context, token string) (*ShareView[P], error) {
	if token == "" {
		s.metrics.shareConsumed(s.config.Artifact, resultNotFound)
		return nil, domain.ErrNotFound
	}

	rec, err := s.repo.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.metrics.shareConsumed(s.config.Artifact, resultNotFound)
		} else {
			s.metrics.shareConsumed(s.config.Artifact, resultError)
		}
		return nil, err
	}

	res, err := s.repo.TryConsumeAccess(ctx, token)
	if err != nil {
		s.metrics.shareConsumed(s.config.Artifact, resultError)
		return nil, err
	}

	if !res.Consumed {
		// quota already spent or row removed meanwhile; a pending grace period is left alone
		if !s.deferred.IsPending(rec.ID) {
			_ = s.purger.purge(ctx, rec.ID, rec.Payload.BlobURL(), ReasonStale)
		}
		s.metrics.shareConsumed(s.config.Artifact, resultNotFound)
		return nil, domain.ErrNotFound
	}

	now := s.now().UTC()
	eval := Evaluate(rec.ExpiresAt, rec.CreatedAt, rec.RetentionDays, now)
	if eval.Expired {
		_ = s.purger.purge(ctx, rec.ID, rec.Payload.BlobURL(), ReasonExpired)
		s.metrics.shareConsumed(s.config.Artifact, resultExpired)
		return nil, domain.ErrNotFound
	}
	if eval.NeedsBackfill {
		if err := s.repo.BackfillExpiresAt(ctx, rec.ID, eval.CanonicalExpiresAt); err != nil {
			s.logger.Warn("expires_at backfill failed",
				zap.Int64(logger.FieldRecordID, rec.ID),
				zap.Error(err))
		}
	}

	view := &ShareView[P]{
		Payload:         rec.Payload,
		ExpiresAt:       eval.CanonicalExpiresAt,
		AccessLimit:     res.AccessLimit,
		AccessRemaining: domain.UnlimitedAccess,
	}
	if res.AccessLimit >= 0 {
		view.AccessRemaining = max(res.AccessLimit-res.AccessUsed, 0)
	}

	if res.Exhausted() {
		s.deferred.Schedule(rec.ID, rec.Payload.BlobURL())
		s.metrics.shareConsumed(s.config.Artifact, resultExhausted)
		s.logger.Info("share access exhausted",
			zap.String(logger.FieldToken, logger.TokenPrefix(token)),
			zap.Int64(logger.FieldRecordID, rec.ID))
		return view, nil
	}

	s.metrics.shareConsumed(s.config.Artifact, resultOK)
	return view, nil
}

func (s *shareService[P]) Sweep(ctx context.Context) (SweepStats, error) {
	return s.gc.Sweep(ctx)
}

func (s *shareService[P]) CountLive(ctx context.Context) (int64, error) {
	return s.repo.CountLive(ctx, s.now().UTC())
}

func (s *shareService[P]) PendingDeletions() int {
	return s.deferred.Pending()
}

func (s *shareService[P]) Shutdown(ctx context.Context) error {
	return s.deferred.Shutdown(ctx)
}
