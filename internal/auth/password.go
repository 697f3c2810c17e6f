package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
)

// PasswordHasher hashes passwords with a fresh salt per call.
type PasswordHasher interface {
	HashPassword(plain string) (hash string, salt []byte, err error)
	VerifyPassword(plain, hash string, salt []byte) bool
}

const (
	saltSize   = 32
	keySize    = 32
	iterations = 100000
)

// NewPasswordHasher returns the hasher called name: "pbkdf2" (default) or
// "bcrypt".
func NewPasswordHasher(name string) (PasswordHasher, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "pbkdf2":
		return PBKDF2Hasher{}, nil
	case "bcrypt":
		return BcryptHasher{}, nil
	}
	return nil, fmt.Errorf("unknown password hasher %q", name)
}

// PBKDF2Hasher derives a key with PBKDF2-HMAC-SHA256.
type PBKDF2Hasher struct{}

func (PBKDF2Hasher) HashPassword(plain string) (string, []byte, error) {
	if plain == "" {
		return "", nil, ErrEmptyPassword
	}
	salt, err := newSalt()
	if err != nil {
		return "", nil, err
	}
	return derive(plain, salt), salt, nil
}

func (PBKDF2Hasher) VerifyPassword(plain, hash string, salt []byte) bool {
	if plain == "" || hash == "" || len(salt) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(derive(plain, salt)), []byte(hash)) == 1
}

func derive(plain string, salt []byte) string {
	key := pbkdf2.Key([]byte(plain), salt, iterations, keySize, sha256.New)
	return base64.StdEncoding.EncodeToString(key)
}

// BcryptHasher runs bcrypt over a salted SHA-256 pre-hash, which keeps
// long passwords under bcrypt's 72 byte limit.
type BcryptHasher struct {
	Cost int
}

func (b BcryptHasher) HashPassword(plain string) (string, []byte, error) {
	if plain == "" {
		return "", nil, ErrEmptyPassword
	}
	salt, err := newSalt()
	if err != nil {
		return "", nil, err
	}
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword(prehash(plain, salt), cost)
	if err != nil {
		return "", nil, err
	}
	return string(h), salt, nil
}

func (BcryptHasher) VerifyPassword(plain, hash string, salt []byte) bool {
	if plain == "" || hash == "" || len(salt) == 0 {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), prehash(plain, salt)) == nil
}

func prehash(plain string, salt []byte) []byte {
	h := sha256.New()
	h.Write(salt)
	h.Write([]byte(plain))
	return []byte(base64.StdEncoding.EncodeToString(h.Sum(nil)))
}

func newSalt() ([]byte, error) { return randomBytes(saltSize) }

// randomBytes reads n bytes from the system CSPRNG.
func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("read random: %w", err)
	}
	return b, nil
}
