package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"7d", 7 * 24 * time.Hour, false},
		{" 30d ", 30 * 24 * time.Hour, false},
		{"30m", 30 * time.Minute, false},
		{"45", 45 * time.Second, false},
		{"xd", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDuration(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMustParseDuration(t *testing.T) {
	assert.Equal(t, time.Minute, MustParseDuration("", time.Minute))
	assert.Equal(t, time.Minute, MustParseDuration("bogus", time.Minute))
	assert.Equal(t, 2*time.Hour, MustParseDuration("2h", time.Minute))
}

func TestGetRandomString(t *testing.T) {
	a := GetRandomString(32)
	b := GetRandomString(32)
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}
