package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsumeResult_Exhausted(t *testing.T) {
	tests := []struct {
		name string
		in   ConsumeResult
		want bool
	}{
		{"not consumed", ConsumeResult{Consumed: false, AccessUsed: 3, AccessLimit: 3}, false},
		{"below limit", ConsumeResult{Consumed: true, AccessUsed: 2, AccessLimit: 3}, false},
		{"hit limit", ConsumeResult{Consumed: true, AccessUsed: 3, AccessLimit: 3}, true},
		{"unlimited", ConsumeResult{Consumed: true, AccessUsed: 1000, AccessLimit: UnlimitedAccess}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Exhausted())
		})
	}
}

func TestShareRecord_AccessRemaining(t *testing.T) {
	r := &ShareRecord[GiftPayload]{AccessLimit: 3, AccessUsed: 1}
	assert.Equal(t, int64(2), r.AccessRemaining())

	r.AccessUsed = 5
	assert.Equal(t, int64(0), r.AccessRemaining())

	r.AccessLimit = UnlimitedAccess
	assert.Equal(t, int64(UnlimitedAccess), r.AccessRemaining())
	assert.True(t, r.IsUnlimited())
}

func TestPayload_BlobURL(t *testing.T) {
	assert.Equal(t, "https://m/a.mp4", GiftPayload{MediaURL: "https://m/a.mp4"}.BlobURL())
	assert.Equal(t, "https://m/b.png", LetterPayload{ImageURL: "https://m/b.png"}.BlobURL())
}
