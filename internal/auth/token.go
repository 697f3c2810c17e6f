package auth

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenService issues signed access tokens.
type TokenService interface {
	GenerateToken(ctx context.Context, sub Subject, roles []string) (string, error)
	TokenExpiration() time.Time
}

// TokenParser verifies access tokens.
type TokenParser interface {
	ParseToken(raw string) (*Claims, error)
}

type Claims struct {
	Name     string   `json:"name,omitempty"`
	Email    string   `json:"email,omitempty"`
	TenantID string   `json:"tid,omitempty"`
	Roles    []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the subject as a UUID.
func (c *Claims) UserID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: subject: %v", ErrBadToken, err)
	}
	return id, nil
}

// Tenant returns the tenant claim, uuid.Nil when absent.
func (c *Claims) Tenant() (uuid.UUID, error) {
	if c.TenantID == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(c.TenantID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: tenant: %v", ErrBadToken, err)
	}
	return id, nil
}

// HasRole reports whether the token carries role, ignoring case.
func (c *Claims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

type JWTConfig struct {
	Secret   string
	Issuer   string
	Audience string
	TTL      time.Duration
	Leeway   time.Duration

	// Now and NewID default to time.Now and uuid.NewString. Fixing both
	// makes GenerateToken deterministic.
	Now   func() time.Time
	NewID func() string
}

// JWTService signs HS256 tokens. It implements TokenService and TokenParser.
type JWTService struct {
	cfg JWTConfig
}

func NewJWTService(cfg JWTConfig) (*JWTService, error) {
	if cfg.Secret == "" {
		return nil, ErrMissingSigningKey
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	return &JWTService{cfg: cfg}, nil
}

func (s *JWTService) TokenExpiration() time.Time {
	return s.cfg.Now().Add(s.cfg.TTL)
}

func (s *JWTService) GenerateToken(ctx context.Context, sub Subject, roles []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if sub.ID == uuid.Nil {
		return "", ErrEmptySubject
	}
	normalized, err := normalizeRoles(roles)
	if err != nil {
		return "", err
	}

	now := s.cfg.Now()
	c := Claims{
		Name:  sub.UserName,
		Email: sub.Email,
		Roles: normalized,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub.ID.String(),
			ID:        s.cfg.NewID(),
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TTL)),
		},
	}
	if sub.TenantID != uuid.Nil {
		c.TenantID = sub.TenantID.String()
	}
	if s.cfg.Audience != "" {
		c.Audience = jwt.ClaimStrings{s.cfg.Audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(s.cfg.Secret))
}

func (s *JWTService) ParseToken(raw string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(s.cfg.Leeway),
		jwt.WithTimeFunc(s.cfg.Now),
	}
	if s.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.Issuer))
	}
	if s.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(s.cfg.Audience))
	}

	tok, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		// block alg confusion
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrBadToken
		}
		return []byte(s.cfg.Secret), nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadToken, err)
	}
	c, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, ErrBadToken
	}
	return c, nil
}

// normalizeRoles trims, de-duplicates and sorts role names.
func normalizeRoles(roles []string) ([]string, error) {
	seen := make(map[string]bool, len(roles))
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		r = strings.TrimSpace(r)
		if r == "" {
			return nil, ErrInvalidRole
		}
		if seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	sort.Strings(out)
	return out, nil
}
