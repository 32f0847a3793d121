package domain

import (
	"context"
	"time"
)

// UnlimitedAccess 访问次数不设上限的哨兵值
// 只有在等级配置显式为 -1 时才会写入
const UnlimitedAccess = -1

// Payload 分享内容
// 引擎不解析内容本身，只关心其关联的媒体对象
type Payload interface {
	// BlobURL 返回关联媒体对象的 URL，没有媒体时返回空串
	BlobURL() string
}

// ShareRecord 一条可过期、可限次的分享记录
type ShareRecord[P Payload] struct {
	ID            int64
	Token         string
	Payload       P
	AccountID     *int64
	CreatedAt     time.Time
	RetentionDays int
	ExpiresAt     *time.Time
	AccessLimit   int64
	AccessUsed    int64
}

// IsUnlimited 是否不限访问次数
func (r *ShareRecord[P]) IsUnlimited() bool {
	return r.AccessLimit < 0
}

// AccessRemaining 剩余访问次数，不限次时返回 -1
func (r *ShareRecord[P]) AccessRemaining() int64 {
	if r.IsUnlimited() {
		return UnlimitedAccess
	}
	if left := r.AccessLimit - r.AccessUsed; left > 0 {
		return left
	}
	return 0
}

// RetentionPolicy 新建分享时采用的保留策略
type RetentionPolicy struct {
	Tier          AccountTier
	RetentionDays int
	AccessLimit   int64
}

// ConsumeResult 一次原子访问计数的结果
type ConsumeResult struct {
	// Consumed 本次调用是否成功占用了一次访问
	Consumed bool
	// AccessUsed 本次占用之后的已用次数
	AccessUsed int64
	// AccessLimit 记录的访问上限
	AccessLimit int64
}

// Exhausted 本次访问是否恰好用完了配额
// 由于计数只在未达上限时递增，只有一次调用能观察到 AccessUsed == AccessLimit
func (c ConsumeResult) Exhausted() bool {
	return c.Consumed && c.AccessLimit >= 0 && c.AccessUsed >= c.AccessLimit
}

// ShareRecordRepository 分享记录存储
type ShareRecordRepository[P Payload] interface {
	// Table 返回记录所在的数据表
	Table() string
	// EnsureSchema 确保数据表结构可用，同一进程内成功一次后不再重复执行
	EnsureSchema(ctx context.Context) error
	Insert(ctx context.Context, rec *ShareRecord[P]) (int64, error)
	FindByToken(ctx context.Context, token string) (*ShareRecord[P], error)
	ExistsToken(ctx context.Context, token string) (bool, error)
	// TryConsumeAccess 原子地占用一次访问，配额已满或记录不存在时 Consumed 为 false
	TryConsumeAccess(ctx context.Context, token string) (ConsumeResult, error)
	// BackfillExpiresAt 仅在 expires_at 仍为空时写入
	BackfillExpiresAt(ctx context.Context, id int64, expiresAt time.Time) error
	// FindExpiredBatch 返回最多 limit 条 expires_at <= now 的记录
	FindExpiredBatch(ctx context.Context, now time.Time, limit int) ([]*ShareRecord[P], error)
	// CountLive 统计未过期的记录数
	CountLive(ctx context.Context, now time.Time) (int64, error)
	RecordDeleter
}

// RecordDeleter 按 ID 删除记录，记录不存在时视为成功
type RecordDeleter interface {
	Delete(ctx context.Context, id int64) error
}
