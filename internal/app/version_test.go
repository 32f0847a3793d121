package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalVersion(t *testing.T) {
	old := Version
	defer func() { Version = old }()

	tests := []struct {
		in   string
		want string
	}{
		{"1.2.3", "v1.2.3"},
		{"v1.2", "v1.2.0"},
		{"2", "v2.0.0"},
		{"nightly", "nightly"},
	}
	for _, tt := range tests {
		Version = tt.in
		assert.Equal(t, tt.want, CanonicalVersion(), tt.in)
	}
}

func TestIsNewerVersion(t *testing.T) {
	old := Version
	defer func() { Version = old }()

	Version = "1.4.0"
	assert.True(t, IsNewerVersion("1.4.1"))
	assert.True(t, IsNewerVersion("v2.0.0"))
	assert.False(t, IsNewerVersion("1.4.0"))
	assert.False(t, IsNewerVersion("1.3.9"))
	assert.False(t, IsNewerVersion("garbage"))
}
