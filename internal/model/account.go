package model

import "time"

// Account 账户表模型
// 账户的注册与登录由外部系统负责，这里只读取等级
type Account struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Tier      string    `gorm:"column:tier;size:32;not null;default:anonymous"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Account) TableName() string {
	return "account"
}
