package service

import (
	"context"
	"errors"
	"testing"

	"github.com/haierkeys/gift-share-service/internal/domain"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func int64Ptr(v int64) *int64 { return &v }

func TestRetentionPolicyResolver_Resolve(t *testing.T) {
	tiers := &fakeTierResolver{tiers: map[int64]domain.AccountTier{
		1: domain.TierTrial,
		2: domain.TierStandard,
		3: domain.TierPremium,
		4: "enterprise",
		5: "generous",
	}}
	cfg := RetentionConfig{
		MaxRetentionDays: 30,
		MaxAccessLimit:   100,
		Tiers: map[domain.AccountTier]TierPolicy{
			domain.TierAnonymous: {RetentionDays: 3, AccessLimit: 3},
			domain.TierTrial:     {RetentionDays: 7, AccessLimit: 10},
			domain.TierStandard:  {RetentionDays: 30, AccessLimit: 50},
			domain.TierPremium:   {RetentionDays: 30, AccessLimit: domain.UnlimitedAccess},
			"generous":           {RetentionDays: 365, AccessLimit: 5000},
		},
	}
	r := NewRetentionPolicyResolver(tiers, cfg, nil)
	ctx := context.Background()

	tests := []struct {
		name      string
		accountID *int64
		wantTier  domain.AccountTier
		wantDays  int
		wantLimit int64
	}{
		{"anonymous", nil, domain.TierAnonymous, 3, 3},
		{"trial", int64Ptr(1), domain.TierTrial, 7, 10},
		{"standard", int64Ptr(2), domain.TierStandard, 30, 50},
		{"premium unlimited", int64Ptr(3), domain.TierPremium, 30, domain.UnlimitedAccess},
		{"unknown tier falls back", int64Ptr(4), domain.TierAnonymous, 3, 3},
		{"missing account falls back", int64Ptr(99), domain.TierAnonymous, 3, 3},
		{"clamped to maximum", int64Ptr(5), "generous", 30, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := r.Resolve(ctx, tt.accountID)
			assert.Equal(t, tt.wantTier, p.Tier)
			assert.Equal(t, tt.wantDays, p.RetentionDays)
			assert.Equal(t, tt.wantLimit, p.AccessLimit)
		})
	}
}

func TestRetentionPolicyResolver_LookupFailureIsAnonymous(t *testing.T) {
	r := NewRetentionPolicyResolver(&fakeTierResolver{err: errors.New("connection refused")}, RetentionConfig{}, nil)

	p := r.Resolve(context.Background(), int64Ptr(7))
	assert.Equal(t, domain.TierAnonymous, p.Tier)
	assert.Equal(t, DefaultTiers()[domain.TierAnonymous].RetentionDays, p.RetentionDays)
}

func TestRetentionPolicyResolver_BuiltinTiersAreBounded(t *testing.T) {
	r := NewRetentionPolicyResolver(&fakeTierResolver{tiers: map[int64]domain.AccountTier{7: domain.TierPremium}}, RetentionConfig{}, nil)

	p := r.Resolve(context.Background(), int64Ptr(7))
	assert.Equal(t, domain.TierPremium, p.Tier)
	assert.Equal(t, 30, p.RetentionDays)
	assert.Equal(t, int64(100), p.AccessLimit)

	for tier, tp := range DefaultTiers() {
		assert.Positive(t, tp.AccessLimit, tier)
	}
}

func TestRetentionPolicyResolver_NilTierSource(t *testing.T) {
	r := NewRetentionPolicyResolver(nil, RetentionConfig{}, nil)
	p := r.Resolve(context.Background(), int64Ptr(1))
	assert.Equal(t, domain.TierAnonymous, p.Tier)
}

func TestProperty_ResolvedPolicyWithinBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("retention and limit are clamped", prop.ForAll(
		func(days int, limit int64, maxDays int, maxLimit int64) bool {
			r := NewRetentionPolicyResolver(&fakeTierResolver{tiers: map[int64]domain.AccountTier{1: domain.TierTrial}}, RetentionConfig{
				MaxRetentionDays: maxDays,
				MaxAccessLimit:   maxLimit,
				Tiers: map[domain.AccountTier]TierPolicy{
					domain.TierTrial: {RetentionDays: days, AccessLimit: limit},
				},
			}, nil)
			p := r.Resolve(context.Background(), int64Ptr(1))

			if p.RetentionDays < 1 || p.RetentionDays > maxDays {
				return false
			}
			if limit == domain.UnlimitedAccess {
				return p.AccessLimit == domain.UnlimitedAccess
			}
			return p.AccessLimit >= 1 && p.AccessLimit <= maxLimit
		},
		gen.IntRange(-10, 400),
		gen.Int64Range(-5, 10000),
		gen.IntRange(1, 60),
		gen.Int64Range(1, 500),
	))

	properties.TestingRun(t)
}
