package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"tracker-suite/internal/auth"
	"tracker-suite/internal/identity"
	"tracker-suite/internal/middleware"
	"tracker-suite/internal/model"
	"tracker-suite/internal/repository"
)

const minPasswordLen = 8

var (
	errInvalidCredentials = status.Error(codes.Unauthenticated, "invalid credentials")
	errRegistrationFailed = status.Error(codes.AlreadyExists, "registration failed")
)

func (h *Handler) Login(ctx context.Context, req *LoginRequest) (*LoginResult, error) {
	login := strings.TrimSpace(req.Login)
	if login == "" || req.Password == "" {
		return nil, status.Error(codes.InvalidArgument, "login and password required")
	}
	tenant := req.TenantID
	if tenant == uuid.Nil {
		tenant = identity.DefaultTenantID
	}

	idc := h.identity(tenant)
	var (
		u   *model.User
		err error
	)
	if strings.Contains(login, "@") {
		u, err = idc.UserByEmail(ctx, login)
	} else {
		u, err = idc.UserByName(ctx, login)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, h.toStatus("login", err)
	}
	if !h.hasher.VerifyPassword(req.Password, u.PasswordHash, u.Salt) {
		return nil, errInvalidCredentials
	}
	return h.issue(ctx, idc, u, nil)
}

func (h *Handler) Register(ctx context.Context, req *RegisterRequest) (*LoginResult, error) {
	if strings.TrimSpace(req.UserName) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, status.Error(codes.InvalidArgument, "all fields required")
	}
	if len(req.Password) < minPasswordLen {
		return nil, status.Error(codes.InvalidArgument, "password too short")
	}

	idc := h.identity(identity.DefaultTenantID)
	taken, err := idc.Users.First(ctx, func(u *model.User) bool {
		return strings.EqualFold(u.UserName, strings.TrimSpace(req.UserName)) ||
			strings.EqualFold(u.Email, strings.TrimSpace(req.Email))
	})
	if err == nil && taken != nil {
		// don't reveal which field collided
		return nil, errRegistrationFailed
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, h.toStatus("register", err)
	}

	hash, salt, err := h.hasher.HashPassword(req.Password)
	if err != nil {
		return nil, h.toStatus("register: hash", err)
	}
	u, err := model.NewUser(identity.DefaultTenantID, req.UserName, req.Email, hash, salt)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := idc.AddUser(u); err != nil {
		return nil, h.toStatus("register", err)
	}

	role, err := idc.RoleByName(ctx, identity.RoleUser)
	if errors.Is(err, repository.ErrNotFound) {
		if role, err = model.NewRole(identity.DefaultTenantID, identity.RoleUser); err == nil {
			err = idc.AddRole(role)
		}
	}
	if err != nil {
		return nil, h.toStatus("register: role", err)
	}
	if err := idc.AssignRole(ctx, u, role); err != nil {
		return nil, h.toStatus("register: role", err)
	}
	// the name claims make a concurrent sign-up with the same name or email
	// lose here
	if _, err := idc.SaveChanges(ctx); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, errRegistrationFailed
		}
		return nil, h.toStatus("register", err)
	}
	return h.issue(ctx, idc, u, nil)
}

// Refresh exchanges a refresh token for a new token pair. The presented
// token is retired. Presenting an already retired token revokes every
// token of its user.
func (h *Handler) Refresh(ctx context.Context, req *RefreshRequest) (*LoginResult, error) {
	raw := strings.TrimSpace(req.RefreshToken)
	if raw == "" {
		return nil, status.Error(codes.InvalidArgument, "refresh token required")
	}
	hash := model.TokenHash(auth.HashRefreshToken(raw))

	// the token names the tenant, so the first lookup spans all of them
	found, err := h.identity(uuid.Nil).RefreshTokens.Find(ctx, hash)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, h.toStatus("refresh", err)
	}

	idc := h.identity(found.TenantID)
	old, err := idc.RefreshTokens.Find(ctx, hash)
	if err != nil {
		return nil, h.toStatus("refresh", err)
	}
	if old.Revoked {
		n, err := idc.RevokeRefreshTokens(ctx, old.UserID)
		if err == nil {
			_, err = idc.SaveChanges(ctx)
		}
		if err != nil {
			return nil, h.toStatus("refresh: revoke", err)
		}
		h.logger.Warn("refresh token reuse", "user", old.UserID, "revoked", n)
		return nil, errInvalidCredentials
	}
	if !old.Usable(h.now()) {
		return nil, errInvalidCredentials
	}

	u, err := idc.Users.Find(ctx, old.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, h.toStatus("refresh", err)
	}
	return h.issue(ctx, idc, u, old)
}

func (h *Handler) Logout(ctx context.Context, req *LogoutRequest) (*Empty, error) {
	p, ok := middleware.PrincipalFrom(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "not authenticated")
	}
	idc := h.identity(p.TenantID)

	if raw := strings.TrimSpace(req.RefreshToken); raw != "" {
		t, err := idc.RefreshTokens.Find(ctx, model.TokenHash(auth.HashRefreshToken(raw)))
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, h.toStatus("logout", err)
		}
		if err == nil && t.UserID == p.UserID {
			t.Revoked = true
		}
	} else if _, err := idc.RevokeRefreshTokens(ctx, p.UserID); err != nil {
		return nil, h.toStatus("logout", err)
	}

	if _, err := idc.SaveChanges(ctx); err != nil {
		return nil, h.toStatus("logout", err)
	}
	return &Empty{}, nil
}

// issue mints an access token and a refresh token for u and commits. When
// replaces is set it is retired in the same commit.
func (h *Handler) issue(ctx context.Context, idc *identity.Context, u *model.User, replaces *model.RefreshToken) (*LoginResult, error) {
	roles, err := idc.RolesOf(ctx, u.ID)
	if err != nil {
		return nil, h.toStatus("issue: roles", err)
	}
	tok, err := h.tokens.GenerateToken(ctx, auth.Subject{
		ID:       u.ID,
		TenantID: u.TenantID,
		UserName: u.UserName,
		Email:    u.Email,
	}, roles)
	if err != nil {
		return nil, h.toStatus("issue: token", err)
	}

	raw, hash, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, h.toStatus("issue: refresh token", err)
	}
	if err := idc.RefreshTokens.Add(model.NewRefreshToken(u.TenantID, u.ID, hash, h.now().Add(h.refreshTTL))); err != nil {
		return nil, h.toStatus("issue: refresh token", err)
	}
	if replaces != nil {
		replaces.Revoked = true
		replaces.ReplacedBy = model.TokenHash(hash)
	}
	if _, err := idc.SaveChanges(ctx); err != nil {
		return nil, h.toStatus("issue", err)
	}

	return &LoginResult{
		Token:        tok,
		ExpiresAt:    h.tokens.TokenExpiration(),
		RefreshToken: raw,
		UserID:       u.ID,
		UserName:     u.UserName,
		Email:        u.Email,
		Roles:        roles,
	}, nil
}
