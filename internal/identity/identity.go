// Package identity declares the identity collections (users, roles,
// memberships, refresh tokens) and the lookups built on them.
package identity

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"tracker-suite/internal/model"
	"tracker-suite/internal/repository"
)

// DefaultTenantID is the tenant seeded data and self-registered users belong
// to.
var DefaultTenantID = uuid.MustParse("3e802e65-916e-4f2c-8068-abdd3b93dc2c")

const (
	RoleAdmin = "Admin"
	RoleUser  = "User"
)

var ErrRoleInUse = errors.New("role still assigned to users")

type Context struct {
	*repository.Context
	Users         *repository.Set[uuid.UUID, *model.User]
	Roles         *repository.Set[uuid.UUID, *model.Role]
	UserRoles     *repository.Set[model.UserRoleKey, *model.UserRole]
	RefreshTokens *repository.Set[model.TokenHash, *model.RefreshToken]

	// Name claims keep user names, emails and role names unique per tenant.
	UserNames  *repository.Set[model.NameKey, *model.NameClaim]
	UserEmails *repository.Set[model.NameKey, *model.NameClaim]
	RoleNames  *repository.Set[model.NameKey, *model.NameClaim]
}

func New(b repository.Backend, tenant uuid.UUID, opts ...repository.Option) *Context {
	c := repository.New(b, tenant, opts...)
	return &Context{
		Context:       c,
		Users:         repository.Register[uuid.UUID, *model.User](c, "users"),
		Roles:         repository.Register[uuid.UUID, *model.Role](c, "roles"),
		UserRoles:     repository.Register[model.UserRoleKey, *model.UserRole](c, "user_roles"),
		RefreshTokens: repository.Register[model.TokenHash, *model.RefreshToken](c, "refresh_tokens"),
		UserNames:     repository.Register[model.NameKey, *model.NameClaim](c, "user_names"),
		UserEmails:    repository.Register[model.NameKey, *model.NameClaim](c, "user_emails"),
		RoleNames:     repository.Register[model.NameKey, *model.NameClaim](c, "role_names"),
	}
}

// AddUser tracks u together with claims on its name and email. A taken name
// or email fails here when this unit of work already holds it, otherwise at
// SaveChanges with repository.ErrDuplicateKey.
func (c *Context) AddUser(u *model.User) error {
	if err := c.UserNames.Add(model.NewNameClaim(u.TenantID, u.ID, u.UserName)); err != nil {
		return err
	}
	if err := c.UserEmails.Add(model.NewNameClaim(u.TenantID, u.ID, u.Email)); err != nil {
		return err
	}
	return c.Users.Add(u)
}

// AddRole tracks r together with a claim on its name.
func (c *Context) AddRole(r *model.Role) error {
	if err := c.RoleNames.Add(model.NewNameClaim(r.TenantID, r.ID, r.Name)); err != nil {
		return err
	}
	return c.Roles.Add(r)
}

// UserByName finds a user by exact user name.
func (c *Context) UserByName(ctx context.Context, name string) (*model.User, error) {
	return c.Users.First(ctx, func(u *model.User) bool { return u.UserName == name })
}

// UserByEmail finds a user by email, ignoring case.
func (c *Context) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.TrimSpace(email)
	return c.Users.First(ctx, func(u *model.User) bool { return strings.EqualFold(u.Email, email) })
}

// RoleByName finds a role by name, ignoring case.
func (c *Context) RoleByName(ctx context.Context, name string) (*model.Role, error) {
	name = strings.TrimSpace(name)
	return c.Roles.First(ctx, func(r *model.Role) bool { return strings.EqualFold(r.Name, name) })
}

// RolesOf returns the sorted role names held by userID.
func (c *Context) RolesOf(ctx context.Context, userID uuid.UUID) ([]string, error) {
	memberships, err := c.UserRoles.Filter(ctx, func(ur *model.UserRole) bool { return ur.UserID == userID })
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(memberships))
	for _, m := range memberships {
		r, err := c.Roles.Find(ctx, m.RoleID)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		names = append(names, r.Name)
	}
	sort.Strings(names)
	return names, nil
}

// AssignRole adds userID to role. Assigning twice is a no-op.
func (c *Context) AssignRole(ctx context.Context, u *model.User, role *model.Role) error {
	key := model.UserRoleKey{UserID: u.ID, RoleID: role.ID}
	if _, err := c.UserRoles.Find(ctx, key); err == nil {
		return nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	ur, err := model.NewUserRole(u.TenantID, u.ID, role.ID)
	if err != nil {
		return err
	}
	return c.UserRoles.Add(ur)
}

// RevokeRole removes userID from roleID. Revoking an absent membership is a
// no-op.
func (c *Context) RevokeRole(ctx context.Context, userID, roleID uuid.UUID) error {
	key := model.UserRoleKey{UserID: userID, RoleID: roleID}
	if _, err := c.UserRoles.Find(ctx, key); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}
	c.UserRoles.Remove(key)
	return nil
}

// DeleteRole removes a role that nobody holds.
func (c *Context) DeleteRole(ctx context.Context, roleID uuid.UUID) error {
	role, err := c.Roles.Find(ctx, roleID)
	if err != nil {
		return err
	}
	held, err := c.UserRoles.Filter(ctx, func(ur *model.UserRole) bool { return ur.RoleID == roleID })
	if err != nil {
		return err
	}
	if len(held) > 0 {
		return fmt.Errorf("%s: %w", roleID, ErrRoleInUse)
	}
	c.Roles.Remove(roleID)

	key := model.NewNameKey(role.TenantID, role.Name)
	if claim, err := c.RoleNames.Find(ctx, key); err == nil && claim.OwnerID == roleID {
		c.RoleNames.Remove(key)
	} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return nil
}

// RevokeRefreshTokens revokes every live refresh token of userID.
func (c *Context) RevokeRefreshTokens(ctx context.Context, userID uuid.UUID) (int, error) {
	live, err := c.RefreshTokens.Filter(ctx, func(t *model.RefreshToken) bool {
		return t.UserID == userID && !t.Revoked
	})
	if err != nil {
		return 0, err
	}
	for _, t := range live {
		t.Revoked = true
	}
	return len(live), nil
}
