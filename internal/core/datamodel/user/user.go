package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID              string     `gorm:"column:id;primaryKey;size:36"`
	Email           string     `gorm:"column:email;size:255;uniqueIndex;not null"`
	Username        string     `gorm:"column:username;size:100;uniqueIndex;not null"`
	PasswordHash    string     `gorm:"column:password;size:255;not null"`
	RefreshToken    *string    `gorm:"column:refresh_token;size:1024"`
	Role            string     `gorm:"column:role;size:32;index;not null"`
	FirstName       string     `gorm:"column:first_name;size:100"`
	LastName        string     `gorm:"column:last_name;size:100"`
	Phone           string     `gorm:"column:phone;size:32"`
	Avatar          string     `gorm:"column:avatar;size:512"`
	IsEmailVerified bool       `gorm:"column:is_email_verified;not null;default:false"`
	IsDeleted       bool       `gorm:"column:is_deleted;not null;default:false"`
	DeletedAt       *time.Time `gorm:"column:deleted_at"`
	LastLoginAt     *time.Time `gorm:"column:last_login_at"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
