package token

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMintProducesParseableToken(t *testing.T) {
	codec := NewCodec(0)

	before := time.Now()
	tok, err := codec.Mint(42, 7)
	assert.NoError(t, err)

	parts, err := codec.Parse(tok)
	assert.NoError(t, err)
	assert.Equal(t, int64(42), parts.CampaignID)
	assert.Equal(t, int64(7), parts.TargetID)
	assert.Len(t, parts.Nonce, 16)
	assert.False(t, parts.IssuedAt.Before(before.Truncate(time.Millisecond)))
}

func TestMintTokensAreUnique(t *testing.T) {
	codec := NewCodec(0)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tok, err := codec.Mint(1, 1)
		assert.NoError(t, err)
		assert.False(t, seen[tok], "duplicate token minted")
		seen[tok] = true
	}
}

func TestMintNonceNeverContainsSeparator(t *testing.T) {
	codec := NewCodec(0)

	for i := 0; i < 100; i++ {
		tok, err := codec.Mint(1, 2)
		assert.NoError(t, err)
		assert.Equal(t, 4, len(strings.Split(tok, "_")))
	}
}

func TestParseRejectsMalformedTokens(t *testing.T) {
	codec := NewCodec(0)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "too few fields", token: "1_2_3"},
		{name: "too many fields", token: "1_2_3_abc_extra"},
		{name: "non-numeric campaign id", token: "abc_2_1700000000000_abcdefghijklmnop"},
		{name: "non-numeric target id", token: "1_xyz_1700000000000_abcdefghijklmnop"},
		{name: "non-numeric timestamp", token: "1_2_soon_abcdefghijklmnop"},
		{name: "empty nonce", token: "1_2_1700000000000_"},
		{name: "random garbage", token: "not-a-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Parse(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestParseExpiry(t *testing.T) {
	codec := NewCodec(time.Hour)

	fresh := fmt.Sprintf("1_2_%d_abcdefghijklmnop", time.Now().UnixMilli())
	_, err := codec.Parse(fresh)
	assert.NoError(t, err)

	stale := fmt.Sprintf("1_2_%d_abcdefghijklmnop", time.Now().Add(-2*time.Hour).UnixMilli())
	_, err = codec.Parse(stale)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseZeroTTLNeverExpires(t *testing.T) {
	codec := NewCodec(0)

	old := fmt.Sprintf("1_2_%d_abcdefghijklmnop", time.Now().Add(-24*365*time.Hour).UnixMilli())
	parts, err := codec.Parse(old)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), parts.CampaignID)
}
