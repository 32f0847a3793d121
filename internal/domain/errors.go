package domain

import "errors"

var (
	// ErrNotFound 记录不存在、已过期或访问次数已用完
	ErrNotFound = errors.New("share not found")
	// ErrStoreUnavailable 数据库不可用
	ErrStoreUnavailable = errors.New("share store unavailable")
	// ErrTokenExhaustion 多次尝试后仍未生成唯一 Token
	ErrTokenExhaustion = errors.New("share token generation exhausted")
	// ErrTokenConflict 写入时 Token 已被占用
	ErrTokenConflict = errors.New("share token already exists")
)
