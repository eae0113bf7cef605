// Package token mints and parses the opaque tracking tokens embedded in
// campaign email links. A token binds a campaign and a target together with
// its mint time, so tracking callbacks can be attributed without any
// server-side session.
package token

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidToken is returned for tokens that are malformed, reference
// unparseable ids or have expired.
var ErrInvalidToken = errors.New("invalid tracking token")

const nonceLength = 16

// Underscore is the field separator, so it is excluded from the alphabet.
const nonceAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Parts is a decoded token.
type Parts struct {
	CampaignID int64
	TargetID   int64
	IssuedAt   time.Time
	Nonce      string
}

// Codec mints and parses tokens. A zero ttl disables expiry checks.
type Codec struct {
	ttl time.Duration
}

func NewCodec(ttl time.Duration) *Codec {
	return &Codec{ttl: ttl}
}

// Mint produces a token of the form
// "{campaignID}_{targetID}_{unixMilli}_{nonce}". Each call yields a distinct
// token for the same campaign and target.
func (c *Codec) Mint(campaignID, targetID int64) (string, error) {
	nonce, err := randomNonce()
	if err != nil {
		return "", fmt.Errorf("failed to mint token: %w", err)
	}
	return fmt.Sprintf("%d_%d_%d_%s", campaignID, targetID, time.Now().UnixMilli(), nonce), nil
}

// Parse decodes a token. It returns ErrInvalidToken when the token does not
// have exactly four fields, when either id or the timestamp is not numeric,
// or when the configured ttl has elapsed since minting.
func (c *Codec) Parse(token string) (Parts, error) {
	fields := strings.Split(token, "_")
	if len(fields) != 4 {
		return Parts{}, ErrInvalidToken
	}

	campaignID, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return Parts{}, ErrInvalidToken
	}
	targetID, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return Parts{}, ErrInvalidToken
	}
	issuedMs, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return Parts{}, ErrInvalidToken
	}
	if fields[3] == "" {
		return Parts{}, ErrInvalidToken
	}

	issuedAt := time.UnixMilli(issuedMs)
	if c.ttl > 0 && time.Since(issuedAt) > c.ttl {
		return Parts{}, ErrInvalidToken
	}

	return Parts{
		CampaignID: campaignID,
		TargetID:   targetID,
		IssuedAt:   issuedAt,
		Nonce:      fields[3],
	}, nil
}

func randomNonce() (string, error) {
	buf := make([]byte, nonceLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = nonceAlphabet[int(b)%len(nonceAlphabet)]
	}
	return string(buf), nil
}
