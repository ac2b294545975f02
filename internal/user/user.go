package user

import (
	"context"
	"errors"
	"strings"
	"time"

	userDatamodel "github.com/frahmantamala/store-auth/internal/core/datamodel/user"
)

// Role is the global role of an account. The set is closed.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleStoreOwner   Role = "store_owner"
	RoleStoreManager Role = "store_manager"
)

var ErrUnknownRole = errors.New("unknown role")

func Roles() []Role {
	return []Role{RoleAdmin, RoleStoreOwner, RoleStoreManager}
}

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleStoreOwner, RoleStoreManager:
		return true
	}
	return false
}

func ParseRole(s string) (Role, error) {
	r := Role(strings.TrimSpace(s))
	if !r.IsValid() {
		return "", ErrUnknownRole
	}
	return r, nil
}

type User struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	Username        string     `json:"username"`
	PasswordHash    string     `json:"-"`
	RefreshToken    string     `json:"-"`
	Role            Role       `json:"role"`
	FirstName       string     `json:"first_name"`
	LastName        string     `json:"last_name"`
	Phone           string     `json:"phone,omitempty"`
	Avatar          string     `json:"avatar,omitempty"`
	IsEmailVerified bool       `json:"is_email_verified"`
	IsDeleted       bool       `json:"-"`
	DeletedAt       *time.Time `json:"-"`
	LastLoginAt     *time.Time `json:"last_login_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// HasRole reports whether the user's global role is one of roles.
func (u *User) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

func (u *User) HasActiveRefreshToken() bool {
	return u.RefreshToken != ""
}

// ErrNotFound never leaves the process; guards translate it.
var ErrNotFound = errors.New("user not found")

func ToDataModel(u *User) *userDatamodel.User {
	var refresh *string
	if u.RefreshToken != "" {
		token := u.RefreshToken
		refresh = &token
	}
	return &userDatamodel.User{
		ID:              u.ID,
		Email:           u.Email,
		Username:        u.Username,
		PasswordHash:    u.PasswordHash,
		RefreshToken:    refresh,
		Role:            string(u.Role),
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Phone:           u.Phone,
		Avatar:          u.Avatar,
		IsEmailVerified: u.IsEmailVerified,
		IsDeleted:       u.IsDeleted,
		DeletedAt:       u.DeletedAt,
		LastLoginAt:     u.LastLoginAt,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

func FromDataModel(u *userDatamodel.User) *User {
	var refresh string
	if u.RefreshToken != nil {
		refresh = *u.RefreshToken
	}
	return &User{
		ID:              u.ID,
		Email:           u.Email,
		Username:        u.Username,
		PasswordHash:    u.PasswordHash,
		RefreshToken:    refresh,
		Role:            Role(u.Role),
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Phone:           u.Phone,
		Avatar:          u.Avatar,
		IsEmailVerified: u.IsEmailVerified,
		IsDeleted:       u.IsDeleted,
		DeletedAt:       u.DeletedAt,
		LastLoginAt:     u.LastLoginAt,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

type ctxKey struct{}

// WithContext attaches the authenticated user to ctx.
func WithContext(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// FromContext returns the user attached by an authentication guard.
func FromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(ctxKey{}).(*User)
	return u, ok && u != nil
}
