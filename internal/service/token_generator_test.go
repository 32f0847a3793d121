package service

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/haierkeys/gift-share-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExistence struct {
	taken int
	calls int
	err   error
}

func (f *fakeExistence) ExistsToken(ctx context.Context, token string) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	return f.calls <= f.taken, nil
}

var tokenPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{32}$`)

func TestShareTokenGenerator_Generate(t *testing.T) {
	g := NewShareTokenGenerator(&fakeExistence{})

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		tok, err := g.Generate(context.Background())
		require.NoError(t, err)
		assert.Regexp(t, tokenPattern, tok)
		assert.False(t, seen[tok])
		seen[tok] = true
	}
}

func TestShareTokenGenerator_RetriesCollisions(t *testing.T) {
	f := &fakeExistence{taken: maxTokenAttempts - 1}
	g := NewShareTokenGenerator(f)

	_, err := g.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, maxTokenAttempts, f.calls)
}

func TestShareTokenGenerator_Exhaustion(t *testing.T) {
	f := &fakeExistence{taken: 1000}
	g := NewShareTokenGenerator(f)

	_, err := g.Generate(context.Background())
	assert.ErrorIs(t, err, domain.ErrTokenExhaustion)
	assert.Equal(t, maxTokenAttempts, f.calls)
}

func TestShareTokenGenerator_StoreError(t *testing.T) {
	g := NewShareTokenGenerator(&fakeExistence{err: domain.ErrStoreUnavailable})
	_, err := g.Generate(context.Background())
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)

	g = NewShareTokenGenerator(&fakeExistence{})
	g.random = func([]byte) (int, error) { return 0, errors.New("entropy source closed") }
	_, err = g.Generate(context.Background())
	assert.Error(t, err)
}

func TestShareTokenGenerator_GenerateWithin(t *testing.T) {
	f := &fakeExistence{taken: 2}
	g := NewShareTokenGenerator(f)

	tok, used, err := g.GenerateWithin(context.Background(), 4)
	require.NoError(t, err)
	assert.Regexp(t, tokenPattern, tok)
	assert.Equal(t, 3, used)

	f = &fakeExistence{taken: 1000}
	g = NewShareTokenGenerator(f)
	_, used, err = g.GenerateWithin(context.Background(), 2)
	assert.ErrorIs(t, err, domain.ErrTokenExhaustion)
	assert.Equal(t, 2, used)
	assert.Equal(t, 2, f.calls)
}
