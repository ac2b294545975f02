package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	userDatamodel "github.com/frahmantamala/store-auth/internal/core/datamodel/user"
	"github.com/frahmantamala/store-auth/internal/user"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) first(ctx context.Context, query string, args ...interface{}) (*user.User, error) {
	var m userDatamodel.User
	if err := r.db.WithContext(ctx).Where(query, args...).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return user.FromDataModel(&m), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*user.User, error) {
	return r.first(ctx, "id = ?", id)
}

// FindByEmail matches the address exactly as stored.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *UserRepository) FindByIDAndEmail(ctx context.Context, id, email string) (*user.User, error) {
	return r.first(ctx, "id = ? AND email = ?", id, email)
}

func (r *UserRepository) FindByEmailOrUsername(ctx context.Context, email, username string) (*user.User, error) {
	return r.first(ctx, "email = ? OR username = ?", email, username)
}

func (r *UserRepository) ExistsWithRole(ctx context.Context, role user.Role) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&userDatamodel.User{}).
		Where("role = ? AND is_deleted = ?", string(role), false).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("count users by role: %w", err)
	}
	return count > 0, nil
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	m := user.ToDataModel(u)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	*u = *user.FromDataModel(m)
	return nil
}

func (r *UserRepository) updateColumns(ctx context.Context, userID string, columns map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&userDatamodel.User{}).
		Where("id = ?", userID).
		Updates(columns)
	if res.Error != nil {
		return fmt.Errorf("update user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return user.ErrNotFound
	}
	return nil
}

// RecordLogin writes the login time and the newly issued refresh token and
// nothing else, so a concurrent verification is never undone.
func (r *UserRepository) RecordLogin(ctx context.Context, userID string, at time.Time, refreshToken string) error {
	return r.updateColumns(ctx, userID, map[string]interface{}{
		"last_login_at": at,
		"refresh_token": refreshToken,
	})
}

func (r *UserRepository) ClearRefreshToken(ctx context.Context, userID string) error {
	return r.updateColumns(ctx, userID, map[string]interface{}{
		"refresh_token": nil,
	})
}

// MarkEmailVerified flips the flag only while it is still false. It reports
// false when the account was already verified or does not exist.
func (r *UserRepository) MarkEmailVerified(ctx context.Context, userID string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&userDatamodel.User{}).
		Where("id = ? AND is_email_verified = ?", userID, false).
		Update("is_email_verified", true)
	if res.Error != nil {
		return false, fmt.Errorf("mark email verified: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// SwapRefreshToken stores next only while the stored token still equals
// expected. It reports false when another rotation or a logout won the race.
func (r *UserRepository) SwapRefreshToken(ctx context.Context, userID, expected, next string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&userDatamodel.User{}).
		Where("id = ? AND refresh_token = ?", userID, expected).
		Update("refresh_token", next)
	if res.Error != nil {
		return false, fmt.Errorf("swap refresh token: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}
