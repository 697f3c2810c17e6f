// Package auth issues and verifies access tokens, hashes passwords and mints
// refresh tokens. It is shared by every tracker module.
package auth

import (
	"errors"

	"github.com/google/uuid"
)

var (
	ErrBadToken          = errors.New("invalid token")
	ErrMissingSigningKey = errors.New("signing key is required")
	ErrEmptySubject      = errors.New("token subject has no id")
	ErrInvalidRole       = errors.New("role name cannot be empty")
	ErrEmptyPassword     = errors.New("password cannot be empty")
)

// Subject is the user a token is issued for.
type Subject struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	UserName string
	Email    string
}
