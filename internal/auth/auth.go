package auth

import (
	"time"

	"github.com/frahmantamala/store-auth/internal/user"
	"github.com/golang-jwt/jwt/v5"
)

// Clock supplies the current time to token issuance, verification and
// login bookkeeping.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// AuthTokens is a freshly issued access/refresh pair for UserID.
type AuthTokens struct {
	UserID       string `json:"user_id"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Claims is the payload shared by access and refresh tokens.
type Claims struct {
	Email string    `json:"email"`
	Role  user.Role `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) UserID() string {
	return c.Subject
}

const emailVerificationType = "email_verification"

type EmailVerificationClaims struct {
	Email string `json:"email"`
	Type  string `json:"type"`
	jwt.RegisteredClaims
}

func (c *EmailVerificationClaims) UserID() string {
	return c.Subject
}
