package store

import (
	"context"
	"errors"
	"time"

	storeDatamodel "github.com/frahmantamala/store-auth/internal/core/datamodel/store"
	"github.com/frahmantamala/store-auth/internal/user"
)

var (
	ErrNotFound       = errors.New("store not found")
	ErrSlugTaken      = errors.New("store slug already taken")
	ErrMemberNotFound = errors.New("store member not found")
	ErrMemberExists   = errors.New("store member already exists")
)

type Store struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Member is a user's membership in a store.
type Member struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	StoreID   string    `json:"store_id"`
	Role      user.Role `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type Repository interface {
	// CreateWithOwner stores s and the owner's membership atomically.
	CreateWithOwner(ctx context.Context, s *Store) (*Member, error)
	FindByID(ctx context.Context, id string) (*Store, error)
	FindMember(ctx context.Context, storeID, userID string) (*Member, error)
	AddMember(ctx context.Context, m *Member) error
	// Grant links a permission row to a membership; granting twice is a no-op.
	Grant(ctx context.Context, memberID, permissionID string) error
}

func ToDataModel(s *Store) *storeDatamodel.Store {
	return &storeDatamodel.Store{
		ID:        s.ID,
		Name:      s.Name,
		Slug:      s.Slug,
		OwnerID:   s.OwnerID,
		CreatedAt: s.CreatedAt,
	}
}

func FromDataModel(s *storeDatamodel.Store) *Store {
	return &Store{
		ID:        s.ID,
		Name:      s.Name,
		Slug:      s.Slug,
		OwnerID:   s.OwnerID,
		CreatedAt: s.CreatedAt,
	}
}

func MemberFromDataModel(m *storeDatamodel.UserStore) *Member {
	return &Member{
		ID:        m.ID,
		UserID:    m.UserID,
		StoreID:   m.StoreID,
		Role:      user.Role(m.Role),
		CreatedAt: m.CreatedAt,
	}
}
