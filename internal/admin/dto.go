package admin

import (
	"regexp"

	"github.com/frahmantamala/store-auth/internal/core/common/validation"
	"github.com/frahmantamala/store-auth/internal/user"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

type CreateStoreOwnerDTO struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	// Role may be omitted; when present it must be store_owner.
	Role string `json:"role"`
}

func (d CreateStoreOwnerDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("email", d.Email).Required().Email().MaxLength(255)
	v.Field("username", d.Username).Required().MinLength(3).MaxLength(100).
		Matches(usernamePattern, "username may contain letters, digits, dot, dash and underscore")
	v.Field("first_name", d.FirstName).Required().MaxLength(100)
	v.Field("last_name", d.LastName).Required().MaxLength(100)
	v.Field("phone", d.Phone).MaxLength(32)
	v.Field("role", d.Role).OneOf(string(user.RoleStoreOwner))
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type CreateStoreOwnerResponse struct {
	User              user.Response `json:"user"`
	TemporaryPassword string        `json:"temporary_password"`
}
