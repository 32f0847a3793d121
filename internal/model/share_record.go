// Package model 数据库模型
package model

import (
	"time"

	"github.com/haierkeys/gift-share-service/internal/domain"
)

// Column names shared by every share table.
const (
	ColumnID            = "id"
	ColumnToken         = "token"
	ColumnAccountID     = "account_id"
	ColumnRetentionDays = "retention_days"
	ColumnExpiresAt     = "expires_at"
	ColumnAccessLimit   = "access_limit"
	ColumnAccessUsed    = "access_used"
	ColumnCreatedAt     = "created_at"
)

// Defaults applied to rows that predate the lifecycle columns.
const (
	LegacyRetentionDays = 7
	LegacyAccessLimit   = 10
)

// ShareRecord 分享记录表模型
// 表名由调用方通过 db.Table 指定，同一模型服务于 gift 与 letter 两张表
type ShareRecord[P domain.Payload] struct {
	ID            int64      `gorm:"column:id;primaryKey;autoIncrement"`
	Token         string     `gorm:"column:token;size:64;not null"`
	Payload       P          `gorm:"embedded"`
	AccountID     *int64     `gorm:"column:account_id"`
	RetentionDays int        `gorm:"column:retention_days;default:7"`
	ExpiresAt     *time.Time `gorm:"column:expires_at"`
	AccessLimit   int64      `gorm:"column:access_limit;default:10"`
	AccessUsed    int64      `gorm:"column:access_used;default:0"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
}

// Index 表上需要存在的索引
type Index struct {
	Name    string
	Columns []string
	Unique  bool
}

// ShareRecordIndexes 返回指定表需要的索引
func ShareRecordIndexes(table string) []Index {
	return []Index{
		{Name: "uk_" + table + "_token", Columns: []string{ColumnToken}, Unique: true},
		{Name: "idx_" + table + "_expires_at", Columns: []string{ColumnExpiresAt}},
		{Name: "idx_" + table + "_account_id", Columns: []string{ColumnAccountID}},
	}
}
