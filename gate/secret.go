package gate

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"github.com/awnumar/memguard"
)

const (
	// tokenSalt is prefixed to the API key before hashing so the cookie
	// value cannot be looked up in a table of plain SHA-256 digests.
	tokenSalt = "fw:"
	// tokenLen is the number of hex characters of the digest kept as the
	// cookie value.
	tokenLen = 32
)

// Secret holds the configured API key and the session token derived from
// it. The key itself lives in a memguard Enclave (encrypted at rest in
// memory) and is only decrypted for the duration of a comparison.
//
// A Secret built from an empty key is disabled: gating is off and no token
// exists. A Secret is immutable and safe for concurrent use.
type Secret struct {
	key   *memguard.Enclave
	token string
}

// NewSecret seals apiKey and derives the session token from it.
func NewSecret(apiKey string) *Secret {
	if apiKey == "" {
		return &Secret{}
	}
	token := DeriveToken(apiKey)
	// NewEnclave wipes its source buffer.
	return &Secret{
		key:   memguard.NewEnclave([]byte(apiKey)),
		token: token,
	}
}

// DeriveToken returns the first 32 hex characters of sha256("fw:" + apiKey),
// or the empty string when apiKey is empty.
func DeriveToken(apiKey string) string {
	if apiKey == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(tokenSalt + apiKey))
	return hex.EncodeToString(sum[:])[:tokenLen]
}

// Enabled reports whether an API key is configured.
func (s *Secret) Enabled() bool {
	return s != nil && s.key != nil
}

// Token returns the derived session token, or "" when disabled.
func (s *Secret) Token() string {
	if s == nil {
		return ""
	}
	return s.token
}

// Matches reports whether candidate equals the configured API key. It
// always returns false when the secret is disabled.
func (s *Secret) Matches(candidate string) bool {
	if !s.Enabled() {
		return false
	}
	buf, err := s.key.Open()
	if err != nil {
		return false
	}
	defer buf.Destroy()
	return subtle.ConstantTimeCompare(buf.Bytes(), []byte(candidate)) == 1
}

// TokenMatches reports whether value equals the derived session token.
func (s *Secret) TokenMatches(value string) bool {
	if !s.Enabled() || value == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(s.token), []byte(value)) == 1
}
