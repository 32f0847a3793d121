// Package locker 提供跨进程的互斥锁
// 多个实例共用一个数据库时，用它保证同一时刻只有一个实例执行清理
package locker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Config redis 连接配置
type Config struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix" default:"gift-share:lock:"`
}

// releaseScript 只有持有者才能删除锁
var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// RedisLocker 基于 SET NX PX 的锁
type RedisLocker struct {
	client *redis.Client
	prefix string
}

// NewRedisLocker 连接 redis 并校验可用
func NewRedisLocker(cfg *Config) (*RedisLocker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &RedisLocker{client: client, prefix: cfg.Prefix}, nil
}

// NewRedisLockerWithClient 使用已有的客户端
func NewRedisLockerWithClient(client *redis.Client, prefix string) *RedisLocker {
	return &RedisLocker{client: client, prefix: prefix}
}

// TryLock 尝试获取锁，ok 为 false 表示锁被其他实例持有
// 获取成功时返回的 release 用于释放锁
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error) {
	fullKey := l.prefix + key
	owner := uuid.NewString()

	ok, err = l.client.SetNX(ctx, fullKey, owner, ttl).Result()
	if err != nil || !ok {
		return nil, false, err
	}

	release = func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, l.client, []string{fullKey}, owner).Err()
	}
	return release, true, nil
}

// Close 关闭 redis 连接
func (l *RedisLocker) Close() error {
	return l.client.Close()
}
