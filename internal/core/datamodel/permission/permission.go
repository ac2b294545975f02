package permission

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Permission struct {
	ID             string    `gorm:"column:id;primaryKey;size:36"`
	Name           string    `gorm:"column:name;size:150;not null"`
	Code           string    `gorm:"column:code;size:100;not null;uniqueIndex:idx_permissions_code_action"`
	Action         string    `gorm:"column:action;size:32;not null;uniqueIndex:idx_permissions_code_action"`
	AllowedActions []string  `gorm:"column:allowed_actions;type:text;serializer:json;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Permission) TableName() string {
	return "permissions"
}

func (p *Permission) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// UserStorePermission grants one permission row to one store membership.
type UserStorePermission struct {
	ID           string    `gorm:"column:id;primaryKey;size:36"`
	UserStoreID  string    `gorm:"column:user_store_id;size:36;not null;uniqueIndex:idx_user_store_permissions_grant"`
	PermissionID string    `gorm:"column:permission_id;size:36;not null;uniqueIndex:idx_user_store_permissions_grant"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (UserStorePermission) TableName() string {
	return "user_store_permissions"
}

func (p *UserStorePermission) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
