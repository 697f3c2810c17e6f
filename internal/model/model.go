// Package model holds the identity entities shared by every tracker module.
package model

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyUserName = errors.New("user name cannot be empty")
	ErrEmptyEmail    = errors.New("email cannot be empty")
	ErrEmptyHash     = errors.New("password hash cannot be empty")
	ErrEmptySalt     = errors.New("salt cannot be empty")
	ErrEmptyRoleName = errors.New("role name cannot be empty")
	ErrEmptyID       = errors.New("id cannot be empty")
)

type User struct {
	ID           uuid.UUID `json:"id"`
	TenantID     uuid.UUID `json:"tenantId"`
	UserName     string    `json:"userName"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	Salt         []byte    `json:"salt"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func NewUser(tenant uuid.UUID, userName, email, hash string, salt []byte) (*User, error) {
	userName, email = strings.TrimSpace(userName), strings.TrimSpace(email)
	switch {
	case userName == "":
		return nil, ErrEmptyUserName
	case email == "":
		return nil, ErrEmptyEmail
	case hash == "":
		return nil, ErrEmptyHash
	case len(salt) == 0:
		return nil, ErrEmptySalt
	}
	now := time.Now().UTC()
	return &User{
		ID:           uuid.New(),
		TenantID:     tenant,
		UserName:     userName,
		Email:        email,
		PasswordHash: hash,
		Salt:         salt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (u *User) Key() uuid.UUID       { return u.ID }
func (u *User) TenantKey() uuid.UUID { return u.TenantID }

// SetPassword replaces the stored credentials.
func (u *User) SetPassword(hash string, salt []byte) error {
	if hash == "" {
		return ErrEmptyHash
	}
	if len(salt) == 0 {
		return ErrEmptySalt
	}
	u.PasswordHash, u.Salt = hash, salt
	u.UpdatedAt = time.Now().UTC()
	return nil
}

type Role struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenantId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewRole(tenant uuid.UUID, name string) (*Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyRoleName
	}
	return &Role{ID: uuid.New(), TenantID: tenant, Name: name, CreatedAt: time.Now().UTC()}, nil
}

func (r *Role) Key() uuid.UUID       { return r.ID }
func (r *Role) TenantKey() uuid.UUID { return r.TenantID }

// UserRoleKey identifies a membership by its two halves.
type UserRoleKey struct {
	UserID uuid.UUID
	RoleID uuid.UUID
}

func (k UserRoleKey) String() string { return k.UserID.String() + ":" + k.RoleID.String() }

type UserRole struct {
	UserID   uuid.UUID `json:"userId"`
	RoleID   uuid.UUID `json:"roleId"`
	TenantID uuid.UUID `json:"tenantId"`
}

func NewUserRole(tenant, userID, roleID uuid.UUID) (*UserRole, error) {
	if userID == uuid.Nil || roleID == uuid.Nil {
		return nil, ErrEmptyID
	}
	return &UserRole{UserID: userID, RoleID: roleID, TenantID: tenant}, nil
}

func (ur *UserRole) Key() UserRoleKey     { return UserRoleKey{UserID: ur.UserID, RoleID: ur.RoleID} }
func (ur *UserRole) TenantKey() uuid.UUID { return ur.TenantID }

// TokenHash is the SHA-256 hex of a raw refresh token.
type TokenHash string

func (h TokenHash) String() string { return string(h) }

type RefreshToken struct {
	Hash       TokenHash `json:"hash"`
	UserID     uuid.UUID `json:"userId"`
	TenantID   uuid.UUID `json:"tenantId"`
	ExpiresAt  time.Time `json:"expiresAt"`
	Revoked    bool      `json:"revoked"`
	ReplacedBy TokenHash `json:"replacedBy,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

func NewRefreshToken(tenant, userID uuid.UUID, hash string, expiresAt time.Time) *RefreshToken {
	return &RefreshToken{
		Hash:      TokenHash(hash),
		UserID:    userID,
		TenantID:  tenant,
		ExpiresAt: expiresAt.UTC(),
		CreatedAt: time.Now().UTC(),
	}
}

func (t *RefreshToken) Key() TokenHash       { return t.Hash }
func (t *RefreshToken) TenantKey() uuid.UUID { return t.TenantID }

// Usable reports whether the token can still be exchanged at now.
func (t *RefreshToken) Usable(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}

// NameKey reserves a name inside a tenant. It is the tenant id and the
// lower-cased name, so the backend's primary key rejects a second holder.
type NameKey string

func (k NameKey) String() string { return string(k) }

func NewNameKey(tenant uuid.UUID, name string) NameKey {
	return NameKey(tenant.String() + ":" + strings.ToLower(strings.TrimSpace(name)))
}

// NameClaim records which entity holds a unique name.
type NameClaim struct {
	Name      NameKey   `json:"name"`
	TenantID  uuid.UUID `json:"tenantId"`
	OwnerID   uuid.UUID `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewNameClaim(tenant, owner uuid.UUID, name string) *NameClaim {
	return &NameClaim{
		Name:      NewNameKey(tenant, name),
		TenantID:  tenant,
		OwnerID:   owner,
		CreatedAt: time.Now().UTC(),
	}
}

func (n *NameClaim) Key() NameKey         { return n.Name }
func (n *NameClaim) TenantKey() uuid.UUID { return n.TenantID }
