package service

import (
	"context"
	"errors"

	"github.com/haierkeys/gift-share-service/internal/domain"
	"github.com/haierkeys/gift-share-service/pkg/logger"

	"go.uber.org/zap"
)

// RetentionPolicyResolver maps an account to the policy applied to its new shares
// RetentionPolicyResolver 根据账户决定新分享的保留策略
type RetentionPolicyResolver interface {
	Resolve(ctx context.Context, accountID *int64) domain.RetentionPolicy
}

type retentionPolicyResolver struct {
	tiers    domain.AccountTierResolver
	config   RetentionConfig
	fallback domain.RetentionPolicy
	logger   *zap.Logger
}

// NewRetentionPolicyResolver creates a resolver
// tiers may be nil, in which case every caller is anonymous
// NewRetentionPolicyResolver 创建保留策略解析器，tiers 为 nil 时所有调用方均按匿名处理
func NewRetentionPolicyResolver(tiers domain.AccountTierResolver, cfg RetentionConfig, lg *zap.Logger) RetentionPolicyResolver {
	if cfg.MaxRetentionDays < 1 {
		cfg.MaxRetentionDays = DefaultMaxRetentionDays
	}
	if cfg.MaxAccessLimit < 1 {
		cfg.MaxAccessLimit = DefaultMaxAccessLimit
	}
	if len(cfg.Tiers) == 0 {
		cfg.Tiers = DefaultTiers()
	}
	if lg == nil {
		lg = zap.NewNop()
	}

	r := &retentionPolicyResolver{tiers: tiers, config: cfg, logger: lg}

	anon, ok := cfg.Tiers[domain.TierAnonymous]
	if !ok {
		anon = DefaultTiers()[domain.TierAnonymous]
	}
	r.fallback = r.clamp(domain.TierAnonymous, anon)
	return r
}

func (r *retentionPolicyResolver) Resolve(ctx context.Context, accountID *int64) domain.RetentionPolicy {
	if accountID == nil || r.tiers == nil {
		return r.fallback
	}

	tier, err := r.tiers.ResolveAccountTier(ctx, *accountID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			r.logger.Warn("account tier lookup failed, using anonymous policy",
				zap.Int64(logger.FieldAccountID, *accountID),
				zap.Error(err))
		}
		return r.fallback
	}

	p, ok := r.config.Tiers[tier]
	if !ok {
		return r.fallback
	}
	return r.clamp(tier, p)
}

func (r *retentionPolicyResolver) clamp(tier domain.AccountTier, p TierPolicy) domain.RetentionPolicy {
	days := min(max(p.RetentionDays, 1), r.config.MaxRetentionDays)

	limit := p.AccessLimit
	if limit != domain.UnlimitedAccess {
		limit = min(max(limit, 1), r.config.MaxAccessLimit)
	}

	return domain.RetentionPolicy{Tier: tier, RetentionDays: days, AccessLimit: limit}
}
