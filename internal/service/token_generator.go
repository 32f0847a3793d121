package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/haierkeys/gift-share-service/internal/domain"
)

const (
	// tokenBytes 24 random bytes encode to 32 url-safe characters
	tokenBytes = 24
	// maxTokenAttempts tokens drawn per create before giving up
	maxTokenAttempts = 5
)

// TokenExistence checks whether a token is already taken
// TokenExistence 检查 Token 是否已被占用
type TokenExistence interface {
	ExistsToken(ctx context.Context, token string) (bool, error)
}

// ShareTokenGenerator produces unguessable share tokens
// ShareTokenGenerator 生成不可猜测的分享 Token
type ShareTokenGenerator struct {
	exists TokenExistence
	random func([]byte) (int, error)
}

// NewShareTokenGenerator creates a generator checking uniqueness against exists
func NewShareTokenGenerator(exists TokenExistence) *ShareTokenGenerator {
	return &ShareTokenGenerator{exists: exists, random: rand.Read}
}

// Generate returns a token not present in the store
// Generate 返回一个尚未被使用的 Token
func (g *ShareTokenGenerator) Generate(ctx context.Context) (string, error) {
	token, _, err := g.GenerateWithin(ctx, maxTokenAttempts)
	return token, err
}

// GenerateWithin draws at most budget tokens and reports how many were drawn
// GenerateWithin 最多尝试 budget 次，返回实际消耗的次数
func (g *ShareTokenGenerator) GenerateWithin(ctx context.Context, budget int) (string, int, error) {
	buf := make([]byte, tokenBytes)
	for used := 1; used <= budget; used++ {
		if _, err := g.random(buf); err != nil {
			return "", used, fmt.Errorf("read random bytes: %w", err)
		}
		token := base64.RawURLEncoding.EncodeToString(buf)

		taken, err := g.exists.ExistsToken(ctx, token)
		if err != nil {
			return "", used, err
		}
		if !taken {
			return token, used, nil
		}
	}
	return "", budget, domain.ErrTokenExhaustion
}
