package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

const refreshTokenSize = 32

// GenerateRefreshToken returns an opaque URL-safe token for the client and
// the hash to store. Only the hash is ever persisted.
func GenerateRefreshToken() (raw string, hash string, err error) {
	b, err := randomBytes(refreshTokenSize)
	if err != nil {
		return "", "", err
	}
	raw = base64.RawURLEncoding.EncodeToString(b)
	return raw, HashRefreshToken(raw), nil
}

// HashRefreshToken is the hex SHA-256 of raw, the key refresh tokens are
// stored under.
func HashRefreshToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
