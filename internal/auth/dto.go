package auth

import (
	"github.com/frahmantamala/store-auth/internal/core/common/validation"
	"github.com/frahmantamala/store-auth/internal/user"
)

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
type LoginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (d LoginDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("email", d.Email).Required().Email()
	v.Field("password", d.Password).Required()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// RefreshTokenDTO accepts both snake and camel case keys.
type RefreshTokenDTO struct {
	RefreshToken      string `json:"refresh_token"`
	RefreshTokenCamel string `json:"refreshToken"`
}

// Token returns the presented refresh token exactly as sent.
func (d RefreshTokenDTO) Token() string {
	if d.RefreshToken != "" {
		return d.RefreshToken
	}
	return d.RefreshTokenCamel
}

type LoginResponse struct {
	AuthTokens
	User user.Response `json:"user"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
