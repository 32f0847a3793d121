package domain

import "context"

// AccountTier 账户等级标签，可扩展
type AccountTier string

const (
	TierAnonymous AccountTier = "anonymous"
	TierTrial     AccountTier = "trial"
	TierStandard  AccountTier = "standard"
	TierPremium   AccountTier = "premium"
)

// AccountTierResolver 查询账户等级
type AccountTierResolver interface {
	ResolveAccountTier(ctx context.Context, accountID int64) (AccountTier, error)
}

// Account 账户
type Account struct {
	ID   int64
	Tier AccountTier
}

// AccountRepository 账户存储
type AccountRepository interface {
	AccountTierResolver
	GetByID(ctx context.Context, id int64) (*Account, error)
	Save(ctx context.Context, account *Account) error
}
