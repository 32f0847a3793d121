// Package service implements the share lifecycle engine
// Package service 实现分享记录的生命周期引擎
package service

import (
	"time"

	"github.com/haierkeys/gift-share-service/internal/domain"
)

const (
	// DefaultMaxRetentionDays hard upper bound on retention
	// DefaultMaxRetentionDays 保留天数上限
	DefaultMaxRetentionDays = 30
	// DefaultMaxAccessLimit hard upper bound on a finite access quota
	// DefaultMaxAccessLimit 有限访问次数的上限
	DefaultMaxAccessLimit = 100
	// DefaultGracePeriod delay between the exhausting read and the physical delete
	// DefaultGracePeriod 最后一次访问到物理删除之间的宽限期
	DefaultGracePeriod = 30 * time.Second
	// DefaultSweepBatchSize rows handled per sweep tick
	// DefaultSweepBatchSize 每轮清理的记录数
	DefaultSweepBatchSize = 100
)

// TierPolicy retention settings of one account tier
// TierPolicy 单个账户等级的保留策略
type TierPolicy struct {
	RetentionDays int   // Retention days // 保留天数
	AccessLimit   int64 // Access limit, -1 for unlimited // 访问次数，-1 表示不限
}

// RetentionConfig retention resolver configuration
// RetentionConfig 保留策略配置
type RetentionConfig struct {
	MaxRetentionDays int
	MaxAccessLimit   int64
	Tiers            map[domain.AccountTier]TierPolicy
}

// DefaultTiers built-in tier table, overridable from the config file
// DefaultTiers 内置等级表，可由配置文件覆盖
// 不限次数只能在配置文件中显式开启
func DefaultTiers() map[domain.AccountTier]TierPolicy {
	return map[domain.AccountTier]TierPolicy{
		domain.TierAnonymous: {RetentionDays: 3, AccessLimit: 3},
		domain.TierTrial:     {RetentionDays: 7, AccessLimit: 10},
		domain.TierStandard:  {RetentionDays: 30, AccessLimit: 50},
		domain.TierPremium:   {RetentionDays: 30, AccessLimit: 100},
	}
}

// ShareConfig per-artifact engine configuration
// ShareConfig 单个分享类型的引擎配置
type ShareConfig struct {
	// Artifact artifact name, e.g. gift / letter
	// Artifact 分享类型名称
	Artifact string
	// PublicBaseURL base of generated share links
	// PublicBaseURL 分享链接前缀
	PublicBaseURL string
	// ViewPath share link path template, {artifact} and {token} are replaced
	// ViewPath 分享链接路径模板
	ViewPath string
	// GracePeriod delay before deleting an exhausted record, <= 0 deletes immediately
	// GracePeriod 访问用完后的删除延迟，<= 0 立即删除
	GracePeriod time.Duration
	// SweepBatchSize max rows per sweep
	// SweepBatchSize 每轮清理的最大记录数
	SweepBatchSize int
}

// DefaultViewPath default share link path
const DefaultViewPath = "/{artifact}/view?token={token}"
