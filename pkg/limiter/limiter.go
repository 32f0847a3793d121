// Package limiter 基于令牌桶的接口限流
package limiter

import (
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/juju/ratelimit"
)

// Face 限流器接口
type Face interface {
	Key(c *gin.Context) string
	GetBucket(key string) (*ratelimit.Bucket, bool)
	AddBuckets(rules ...BucketRule) Face
}

// BucketRule 令牌桶规则
type BucketRule struct {
	// Key 路由前缀
	Key string
	// FillInterval 放入令牌的间隔
	FillInterval time.Duration
	// Capacity 桶容量
	Capacity int64
	// Quantum 每次放入的令牌数
	Quantum int64
}

func newBucket(rule BucketRule) *ratelimit.Bucket {
	return ratelimit.NewBucketWithQuantum(rule.FillInterval, rule.Capacity, rule.Quantum)
}

// MethodLimiter 按路由前缀共享一个令牌桶
type MethodLimiter struct {
	mu      sync.RWMutex
	rules   []BucketRule
	buckets map[string]*ratelimit.Bucket
}

func NewMethodLimiter() Face {
	return &MethodLimiter{buckets: make(map[string]*ratelimit.Bucket)}
}

// Key 返回匹配的规则前缀，没有规则匹配时返回空串
func (l *MethodLimiter) Key(c *gin.Context) string {
	path := c.Request.URL.Path
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, r := range l.rules {
		if strings.HasPrefix(path, r.Key) {
			return r.Key
		}
	}
	return ""
}

func (l *MethodLimiter) GetBucket(key string) (*ratelimit.Bucket, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	b, ok := l.buckets[key]
	return b, ok
}

func (l *MethodLimiter) AddBuckets(rules ...BucketRule) Face {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, rule := range rules {
		if _, ok := l.buckets[rule.Key]; !ok {
			l.rules = append(l.rules, rule)
			l.buckets[rule.Key] = newBucket(rule)
		}
	}
	return l
}

// maxClientBuckets 单个规则下保留的客户端桶上限，超过后整体重置
const maxClientBuckets = 10000

// ClientLimiter 按 "规则前缀|客户端 IP" 为每个客户端分配独立令牌桶
type ClientLimiter struct {
	mu      sync.Mutex
	rules   []BucketRule
	buckets map[string]*ratelimit.Bucket
}

func NewClientLimiter() Face {
	return &ClientLimiter{buckets: make(map[string]*ratelimit.Bucket)}
}

func (l *ClientLimiter) Key(c *gin.Context) string {
	path := c.Request.URL.Path
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, r := range l.rules {
		if strings.HasPrefix(path, r.Key) {
			return r.Key + "|" + c.ClientIP()
		}
	}
	return ""
}

func (l *ClientLimiter) GetBucket(key string) (*ratelimit.Bucket, bool) {
	if key == "" {
		return nil, false
	}
	prefix, _, _ := strings.Cut(key, "|")

	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok := l.buckets[key]; ok {
		return b, true
	}
	for _, r := range l.rules {
		if r.Key == prefix {
			if len(l.buckets) >= maxClientBuckets {
				l.buckets = make(map[string]*ratelimit.Bucket)
			}
			b := newBucket(r)
			l.buckets[key] = b
			return b, true
		}
	}
	return nil, false
}

func (l *ClientLimiter) AddBuckets(rules ...BucketRule) Face {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rules = append(l.rules, rules...)
	return l
}
