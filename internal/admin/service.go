package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/frahmantamala/store-auth/internal"
	"github.com/frahmantamala/store-auth/internal/core/events"
	"github.com/frahmantamala/store-auth/internal/user"
)

const generatedPasswordLength = 16

type UserRepository interface {
	FindByEmailOrUsername(ctx context.Context, email, username string) (*user.User, error)
	ExistsWithRole(ctx context.Context, role user.Role) (bool, error)
	Create(ctx context.Context, u *user.User) error
}

type PasswordHasher interface {
	Hash(password string) (string, error)
}

type VerificationTokens interface {
	GenerateEmailVerificationToken(u *user.User) (string, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type ServiceAPI interface {
	CreateStoreOwner(ctx context.Context, dto CreateStoreOwnerDTO) (*CreateStoreOwnerResponse, error)
}

type Service struct {
	users       UserRepository
	hasher      PasswordHasher
	tokens      VerificationTokens
	events      EventPublisher
	frontendURL string
	genPassword func(n int) (string, error)
	now         func() time.Time
	logger      *slog.Logger
}

func NewService(users UserRepository, hasher PasswordHasher, tokens VerificationTokens, publisher EventPublisher, frontendURL string, genPassword func(n int) (string, error), logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		users:       users,
		hasher:      hasher,
		tokens:      tokens,
		events:      publisher,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		genPassword: genPassword,
		now:         time.Now,
		logger:      logger,
	}
}

// CreateStoreOwner provisions an unverified store_owner account with a
// generated password and queues the welcome email.
func (s *Service) CreateStoreOwner(ctx context.Context, dto CreateStoreOwnerDTO) (*CreateStoreOwnerResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	_, err := s.users.FindByEmailOrUsername(ctx, dto.Email, dto.Username)
	switch {
	case err == nil:
		return nil, internal.ErrUserExists
	case !errors.Is(err, user.ErrNotFound):
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	password, err := s.genPassword(generatedPasswordLength)
	if err != nil {
		return nil, fmt.Errorf("generate password: %w", err)
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &user.User{
		Email:        dto.Email,
		Username:     dto.Username,
		PasswordHash: hash,
		Role:         user.RoleStoreOwner,
		FirstName:    dto.FirstName,
		LastName:     dto.LastName,
		Phone:        dto.Phone,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create store owner: %w", err)
	}

	token, err := s.tokens.GenerateEmailVerificationToken(u)
	if err != nil {
		return nil, fmt.Errorf("generate verification token: %w", err)
	}
	link := s.frontendURL + "/verify-email?token=" + url.QueryEscape(token)

	if s.events != nil {
		event := events.NewStoreOwnerCreatedEvent(u.ID, u.Email, u.FullName(), u.Username, password, link, s.now())
		if err := s.events.Publish(context.WithoutCancel(ctx), event); err != nil {
			s.logger.Error("failed to queue welcome email", "user_id", u.ID, "error", err)
		}
	}

	s.logger.Info("store owner created", "user_id", u.ID)
	return &CreateStoreOwnerResponse{User: user.ToResponse(u), TemporaryPassword: password}, nil
}
