package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/frahmantamala/store-auth/internal"
	"github.com/frahmantamala/store-auth/internal/core/events"
	"github.com/frahmantamala/store-auth/internal/user"
)

type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*user.User, error)
	FindByID(ctx context.Context, id string) (*user.User, error)
	FindByIDAndEmail(ctx context.Context, id, email string) (*user.User, error)
	RecordLogin(ctx context.Context, userID string, at time.Time, refreshToken string) error
	ClearRefreshToken(ctx context.Context, userID string) error
	MarkEmailVerified(ctx context.Context, userID string) (bool, error)
	SwapRefreshToken(ctx context.Context, userID, expected, next string) (bool, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type ServiceAPI interface {
	VerifyCredentials(ctx context.Context, email, password string) (*user.User, error)
	Login(ctx context.Context, u *user.User, roleHint string) (AuthTokens, error)
	Refresh(ctx context.Context, u *user.User) (AuthTokens, error)
	Logout(ctx context.Context, u *user.User) error
	VerifyEmail(ctx context.Context, u *user.User) error
	GenerateEmailVerificationToken(u *user.User) (string, error)

	AuthenticateAccess(ctx context.Context, token string) (*user.User, error)
	AuthenticateRefresh(ctx context.Context, token string) (*user.User, error)
	AuthenticateEmailVerification(ctx context.Context, token string) (*user.User, error)
}

type Service struct {
	users  UserRepository
	tokens TokenGenerator
	hasher *PasswordHasher
	clock  Clock
	events EventPublisher
	logger *slog.Logger

	dummyOnce sync.Once
	dummyHash string
}

func NewService(users UserRepository, tokens TokenGenerator, hasher *PasswordHasher, clock Clock, publisher EventPublisher, logger *slog.Logger) *Service {
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		users:  users,
		tokens: tokens,
		hasher: hasher,
		clock:  clock,
		events: publisher,
		logger: logger,
	}
}

// VerifyCredentials returns the account for email when password matches.
// Deleted accounts are reported only after the password has been checked.
func (s *Service) VerifyCredentials(ctx context.Context, email, password string) (*user.User, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			s.burnHash(password)
			return nil, internal.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	ok, err := s.hasher.Verify(password, u.PasswordHash)
	if err != nil {
		s.logger.Warn("stored password hash is unreadable", "user_id", u.ID, "error", err)
		return nil, internal.ErrInvalidCredentials
	}
	if !ok {
		return nil, internal.ErrInvalidCredentials
	}

	if u.IsDeleted {
		return nil, internal.ErrAccountDeleted
	}
	return u, nil
}

// burnHash spends the same work as a real verification so unknown emails
// are not distinguishable by latency.
func (s *Service) burnHash(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("not-a-real-password")
	})
	_, _ = s.hasher.Verify(password, s.dummyHash)
}

func (s *Service) Login(ctx context.Context, u *user.User, roleHint string) (AuthTokens, error) {
	if roleHint != "" && user.Role(roleHint) != u.Role {
		return AuthTokens{}, internal.ErrRoleMismatch
	}

	tokens, err := s.tokens.GeneratePair(u)
	if err != nil {
		return AuthTokens{}, err
	}

	now := s.clock.Now()
	if err := s.users.RecordLogin(ctx, u.ID, now, tokens.RefreshToken); err != nil {
		return AuthTokens{}, fmt.Errorf("persist login: %w", err)
	}
	u.LastLoginAt = &now
	u.RefreshToken = tokens.RefreshToken

	s.publish(ctx, events.NewUserLoggedInEvent(u.ID, string(u.Role), now))
	return tokens, nil
}

// Refresh rotates the pair. The new refresh token replaces the stored one
// only if it is still the token the refresh guard matched.
func (s *Service) Refresh(ctx context.Context, u *user.User) (AuthTokens, error) {
	if !u.HasActiveRefreshToken() {
		return AuthTokens{}, internal.ErrInvalidRefreshToken
	}

	tokens, err := s.tokens.GeneratePair(u)
	if err != nil {
		return AuthTokens{}, err
	}

	swapped, err := s.users.SwapRefreshToken(ctx, u.ID, u.RefreshToken, tokens.RefreshToken)
	if err != nil {
		return AuthTokens{}, fmt.Errorf("rotate refresh token: %w", err)
	}
	if !swapped {
		s.logger.Warn("refresh token rotated concurrently", "user_id", u.ID)
		return AuthTokens{}, internal.ErrInvalidRefreshToken
	}

	u.RefreshToken = tokens.RefreshToken
	return tokens, nil
}

func (s *Service) Logout(ctx context.Context, u *user.User) error {
	if err := s.users.ClearRefreshToken(ctx, u.ID); err != nil {
		return fmt.Errorf("persist logout: %w", err)
	}
	u.RefreshToken = ""
	s.publish(ctx, events.NewUserLoggedOutEvent(u.ID, s.clock.Now()))
	return nil
}

// VerifyEmail flips the verification flag in storage. Whether the account
// was already verified is decided by the conditional update, not by the
// snapshot the guard loaded.
func (s *Service) VerifyEmail(ctx context.Context, u *user.User) error {
	if u.IsEmailVerified {
		return internal.ErrAlreadyVerified
	}
	flipped, err := s.users.MarkEmailVerified(ctx, u.ID)
	if err != nil {
		return fmt.Errorf("persist email verification: %w", err)
	}
	if !flipped {
		return internal.ErrAlreadyVerified
	}
	u.IsEmailVerified = true
	s.publish(ctx, events.NewEmailVerifiedEvent(u.ID, u.Email, s.clock.Now()))
	return nil
}

func (s *Service) GenerateEmailVerificationToken(u *user.User) (string, error) {
	return s.tokens.GenerateEmailVerification(u)
}

// AuthenticateAccess resolves a bearer access token to a live account.
func (s *Service) AuthenticateAccess(ctx context.Context, token string) (*user.User, error) {
	claims, err := s.tokens.VerifyAccess(token)
	if err != nil {
		return nil, internal.ErrInvalidOrExpiredToken
	}
	return s.liveUser(ctx, claims.UserID(), "")
}

// AuthenticateRefresh resolves a refresh token to its account and requires
// it to be the account's single active refresh token.
func (s *Service) AuthenticateRefresh(ctx context.Context, token string) (*user.User, error) {
	claims, err := s.tokens.VerifyRefresh(token)
	if err != nil {
		return nil, internal.ErrInvalidOrExpiredToken
	}

	u, err := s.liveUser(ctx, claims.UserID(), "")
	if err != nil {
		return nil, err
	}

	if !u.HasActiveRefreshToken() || subtle.ConstantTimeCompare([]byte(u.RefreshToken), []byte(token)) != 1 {
		s.logger.Warn("refresh token does not match stored token", "user_id", u.ID)
		return nil, internal.ErrInvalidRefreshToken
	}
	return u, nil
}

// AuthenticateEmailVerification resolves a verification token to the account
// it was issued for. A changed email address invalidates the token.
func (s *Service) AuthenticateEmailVerification(ctx context.Context, token string) (*user.User, error) {
	claims, err := s.tokens.VerifyEmailVerification(token)
	if err != nil {
		return nil, internal.ErrInvalidOrExpiredToken
	}
	return s.liveUser(ctx, claims.UserID(), claims.Email)
}

func (s *Service) liveUser(ctx context.Context, id, email string) (*user.User, error) {
	var (
		u   *user.User
		err error
	)
	if email != "" {
		u, err = s.users.FindByIDAndEmail(ctx, id, email)
	} else {
		u, err = s.users.FindByID(ctx, id)
	}
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			s.logger.Warn("token subject not found", "user_id", id)
			return nil, internal.ErrInvalidOrExpiredToken
		}
		return nil, fmt.Errorf("lookup token subject: %w", err)
	}
	if u.IsDeleted {
		s.logger.Warn("token subject is deleted", "user_id", id)
		return nil, internal.ErrInvalidOrExpiredToken
	}
	return u, nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(context.WithoutCancel(ctx), event); err != nil {
		s.logger.Error("failed to publish event", "event_type", event.EventType(), "error", err)
	}
}
