package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"math/big"
	"strings"
)

const (
	TokenSecretLength = 40
	tokenSeparator    = "|"
	alphanumeric      = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

var ErrMalformedToken = errors.New("malformed bearer token")

func NewRandomString(n int) (string, error) {
	if n <= 0 {
		return "", errors.New("random string length must be positive")
	}
	max := big.NewInt(int64(len(alphanumeric)))
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(alphanumeric[idx.Int64()])
	}
	return b.String(), nil
}

func NewTokenSecret() (string, error) {
	return NewRandomString(TokenSecretLength)
}

func HashTokenSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

func TokenDigestMatches(secret, storedDigest string) bool {
	actual := HashTokenSecret(secret)
	return subtle.ConstantTimeCompare([]byte(actual), []byte(storedDigest)) == 1
}

func FormatBearerToken(id, secret string) string {
	return id + tokenSeparator + secret
}

// SplitBearerToken splits "<id>|<secret>". The secret itself never contains the separator.
func SplitBearerToken(raw string) (id, secret string, err error) {
	raw = strings.TrimSpace(raw)
	idx := strings.Index(raw, tokenSeparator)
	if idx <= 0 || idx == len(raw)-1 {
		return "", "", ErrMalformedToken
	}
	id, secret = raw[:idx], raw[idx+1:]
	if strings.Contains(secret, tokenSeparator) {
		return "", "", ErrMalformedToken
	}
	return id, secret, nil
}
