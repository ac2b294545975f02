package admin

import (
	"context"
	"errors"
	"fmt"

	"github.com/frahmantamala/store-auth/internal"
	"github.com/frahmantamala/store-auth/internal/user"
)

var ErrAdminIdentityTaken = errors.New("admin email or username belongs to a non-admin account")

// SeedAdmin creates the configured admin account unless one exists.
// It reports whether an account was created.
func (s *Service) SeedAdmin(ctx context.Context, cfg internal.AdminConfig) (bool, error) {
	if cfg.Email == "" || cfg.Username == "" || cfg.Password == "" {
		return false, fmt.Errorf("%w: admin email, username and password are required", internal.ErrConfiguration)
	}

	exists, err := s.users.ExistsWithRole(ctx, user.RoleAdmin)
	if err != nil {
		return false, err
	}
	if exists {
		s.logger.Info("admin already exists, skipping")
		return false, nil
	}

	existing, err := s.users.FindByEmailOrUsername(ctx, cfg.Email, cfg.Username)
	switch {
	case err == nil && existing.Role != user.RoleAdmin:
		return false, ErrAdminIdentityTaken
	case err == nil:
		return false, nil
	case !errors.Is(err, user.ErrNotFound):
		return false, fmt.Errorf("check admin identity: %w", err)
	}

	hash, err := s.hasher.Hash(cfg.Password)
	if err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}

	u := &user.User{
		Email:           cfg.Email,
		Username:        cfg.Username,
		PasswordHash:    hash,
		Role:            user.RoleAdmin,
		FirstName:       cfg.FirstName,
		LastName:        cfg.LastName,
		Phone:           cfg.Phone,
		IsEmailVerified: true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return false, fmt.Errorf("create admin: %w", err)
	}
	s.logger.Info("admin seeded", "user_id", u.ID, "email", u.Email)
	return true, nil
}
