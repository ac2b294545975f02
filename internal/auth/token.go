package auth

import (
	"fmt"
	"time"

	"github.com/frahmantamala/store-auth/internal"
	"github.com/frahmantamala/store-auth/internal/user"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenGenerator interface {
	GeneratePair(u *user.User) (AuthTokens, error)
	GenerateEmailVerification(u *user.User) (string, error)
	VerifyAccess(token string) (*Claims, error)
	VerifyRefresh(token string) (*Claims, error)
	VerifyEmailVerification(token string) (*EmailVerificationClaims, error)
}

// JWTTokenGenerator signs HS256 tokens with one secret per token kind, so a
// token of one kind never verifies as another.
type JWTTokenGenerator struct {
	accessSecret            []byte
	refreshSecret           []byte
	emailVerificationSecret []byte
	accessTTL               time.Duration
	refreshTTL              time.Duration
	emailVerificationTTL    time.Duration
	clock                   Clock
}

func NewJWTTokenGenerator(cfg internal.SecurityConfig, clock Clock) (*JWTTokenGenerator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &JWTTokenGenerator{
		accessSecret:            []byte(cfg.AccessTokenSecret),
		refreshSecret:           []byte(cfg.RefreshTokenSecret),
		emailVerificationSecret: []byte(cfg.EmailVerificationSecret),
		accessTTL:               cfg.AccessTokenDuration,
		refreshTTL:              cfg.RefreshTokenDuration,
		emailVerificationTTL:    cfg.EmailVerificationTokenDuration,
		clock:                   clock,
	}, nil
}

func (g *JWTTokenGenerator) registered(subject string, ttl time.Duration) jwt.RegisteredClaims {
	now := g.clock.Now()
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (g *JWTTokenGenerator) GeneratePair(u *user.User) (AuthTokens, error) {
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email:            u.Email,
		Role:             u.Role,
		RegisteredClaims: g.registered(u.ID, g.accessTTL),
	}).SignedString(g.accessSecret)
	if err != nil {
		return AuthTokens{}, fmt.Errorf("sign access token: %w", err)
	}

	refresh, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email:            u.Email,
		Role:             u.Role,
		RegisteredClaims: g.registered(u.ID, g.refreshTTL),
	}).SignedString(g.refreshSecret)
	if err != nil {
		return AuthTokens{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return AuthTokens{
		UserID:       u.ID,
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(g.accessTTL.Seconds()),
	}, nil
}

func (g *JWTTokenGenerator) GenerateEmailVerification(u *user.User) (string, error) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, EmailVerificationClaims{
		Email:            u.Email,
		Type:             emailVerificationType,
		RegisteredClaims: g.registered(u.ID, g.emailVerificationTTL),
	}).SignedString(g.emailVerificationSecret)
	if err != nil {
		return "", fmt.Errorf("sign email verification token: %w", err)
	}
	return token, nil
}

func (g *JWTTokenGenerator) VerifyAccess(token string) (*Claims, error) {
	return g.verifyPair(token, g.accessSecret)
}

func (g *JWTTokenGenerator) VerifyRefresh(token string) (*Claims, error) {
	return g.verifyPair(token, g.refreshSecret)
}

func (g *JWTTokenGenerator) verifyPair(token string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	if err := g.parse(token, secret, claims); err != nil {
		return nil, err
	}
	if claims.Subject == "" || claims.Email == "" {
		return nil, internal.ErrInvalidOrExpiredToken
	}
	return claims, nil
}

func (g *JWTTokenGenerator) VerifyEmailVerification(token string) (*EmailVerificationClaims, error) {
	claims := &EmailVerificationClaims{}
	if err := g.parse(token, g.emailVerificationSecret, claims); err != nil {
		return nil, err
	}
	if claims.Type != emailVerificationType || claims.Subject == "" || claims.Email == "" {
		return nil, internal.ErrInvalidOrExpiredToken
	}
	return claims, nil
}

// parse collapses every failure (signature, expiry, algorithm, shape) into
// ErrInvalidOrExpiredToken.
func (g *JWTTokenGenerator) parse(token string, secret []byte, claims jwt.Claims) error {
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(g.clock.Now),
	)
	if err != nil {
		return internal.ErrInvalidOrExpiredToken.WithCause(err)
	}
	return nil
}
