package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"tracker-suite/internal/auth"
	"tracker-suite/internal/model"
	"tracker-suite/internal/repository"
)

const (
	AdminUserName = "admin"
	AdminEmail    = "admin@tracker.local"
)

// Seed makes sure the Admin and User roles exist in the default tenant and
// that an admin user holding the Admin role exists. Running it again changes
// nothing.
func Seed(ctx context.Context, c *Context, hasher auth.PasswordHasher, adminPassword string, logger *log.Logger) error {
	roles := make(map[string]*model.Role, 2)
	for _, name := range []string{RoleAdmin, RoleUser} {
		r, err := c.RoleByName(ctx, name)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			if r, err = model.NewRole(DefaultTenantID, name); err != nil {
				return err
			}
			if err := c.AddRole(r); err != nil {
				return err
			}
			logger.Info("created role", "name", name)
		case err != nil:
			return fmt.Errorf("seed role %s: %w", name, err)
		}
		roles[name] = r
	}

	admin, err := c.UserByName(ctx, AdminUserName)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		hash, salt, err := hasher.HashPassword(adminPassword)
		if err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
		if admin, err = model.NewUser(DefaultTenantID, AdminUserName, AdminEmail, hash, salt); err != nil {
			return err
		}
		if err := c.AddUser(admin); err != nil {
			return err
		}
		logger.Info("created admin user", "userName", AdminUserName)
	case err != nil:
		return fmt.Errorf("seed admin: %w", err)
	}
	if err := c.AssignRole(ctx, admin, roles[RoleAdmin]); err != nil {
		return err
	}

	n, err := c.SaveChanges(ctx)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	if n == 0 {
		logger.Info("identity data already present, skipping seed")
	}
	return nil
}
