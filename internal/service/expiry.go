package service

import (
	"time"

	"github.com/haierkeys/gift-share-service/internal/model"
	"github.com/haierkeys/gift-share-service/pkg/util"
)

// Evaluation result of an expiry check
// Evaluation 过期判断结果
type Evaluation struct {
	// Expired now >= CanonicalExpiresAt
	Expired bool
	// CanonicalExpiresAt stored expires_at, or created_at + retention_days when absent
	// CanonicalExpiresAt 记录的过期时间，为空时由创建时间推导
	CanonicalExpiresAt time.Time
	// NeedsBackfill the derived value should be persisted
	// NeedsBackfill 推导出的过期时间需要写回
	NeedsBackfill bool
}

// Evaluate decides whether a record is past its expiry
// Shared by the read path and the sweeper so both answer identically.
// Evaluate 判断记录是否已过期，读路径与定时清理使用同一逻辑
func Evaluate(expiresAt *time.Time, createdAt time.Time, retentionDays int, now time.Time) Evaluation {
	if expiresAt != nil {
		return Evaluation{
			Expired:            !now.Before(*expiresAt),
			CanonicalExpiresAt: *expiresAt,
		}
	}

	if retentionDays < 1 {
		retentionDays = model.LegacyRetentionDays
	}
	if createdAt.IsZero() {
		createdAt = now
	}
	canonical := util.AddDays(createdAt, retentionDays)
	return Evaluation{
		Expired:            !now.Before(canonical),
		CanonicalExpiresAt: canonical,
		NeedsBackfill:      true,
	}
}
