package store

import (
	"regexp"

	"github.com/frahmantamala/store-auth/internal/core/common/validation"
	"github.com/frahmantamala/store-auth/internal/permission"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

type CreateStoreDTO struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func (d CreateStoreDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(150)
	v.Field("slug", d.Slug).Required().MaxLength(150).
		Matches(slugPattern, "slug must contain lowercase letters, digits and single dashes")
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type AddMemberDTO struct {
	Email string `json:"email"`
}

func (d AddMemberDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("email", d.Email).Required().Email()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type AccessResponse struct {
	StoreID string            `json:"store_id"`
	Code    permission.Code   `json:"code"`
	Action  permission.Action `json:"action"`
	Allowed bool              `json:"allowed"`
}
