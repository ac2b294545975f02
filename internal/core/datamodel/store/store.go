package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Store struct {
	ID        string    `gorm:"column:id;primaryKey;size:36"`
	Name      string    `gorm:"column:name;size:150;not null"`
	Slug      string    `gorm:"column:slug;size:150;uniqueIndex;not null"`
	OwnerID   string    `gorm:"column:owner_id;size:36;index;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Store) TableName() string {
	return "stores"
}

func (s *Store) BeforeCreate(_ *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// UserStore is a membership of one user in one store with a store-scoped role.
type UserStore struct {
	ID        string    `gorm:"column:id;primaryKey;size:36"`
	UserID    string    `gorm:"column:user_id;size:36;not null;uniqueIndex:idx_user_stores_user_store"`
	StoreID   string    `gorm:"column:store_id;size:36;not null;uniqueIndex:idx_user_stores_user_store;index"`
	Role      string    `gorm:"column:role;size:32;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (UserStore) TableName() string {
	return "user_stores"
}

func (us *UserStore) BeforeCreate(_ *gorm.DB) error {
	if us.ID == "" {
		us.ID = uuid.NewString()
	}
	return nil
}
