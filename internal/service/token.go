package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const (
	tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	tokenLength   = 32
)

// TokenIssuer mints single-use invitation tokens. Collisions across 62^32
// possibilities are treated as negligible; the unique index on
// approval_token is the store-level backstop.
type TokenIssuer struct {
	ttl time.Duration
	now func() time.Time
}

// NewTokenIssuer builds an issuer with the given token lifetime.
func NewTokenIssuer(ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &TokenIssuer{ttl: ttl, now: time.Now}
}

// Issue returns a fresh token and its expiry timestamp.
func (t *TokenIssuer) Issue() (string, time.Time, error) {
	buf := make([]byte, tokenLength)
	max := big.NewInt(int64(len(tokenAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", time.Time{}, fmt.Errorf("generate invite token: %w", err)
		}
		buf[i] = tokenAlphabet[n.Int64()]
	}
	return string(buf), t.now().UTC().Add(t.ttl), nil
}
