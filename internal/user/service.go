package user

import (
	"context"
	"errors"
	"fmt"

	errs "github.com/frahmantamala/store-auth/internal"
)

type Repository interface {
	FindByID(ctx context.Context, id string) (*User, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
	}
}

func (s *Service) GetByID(ctx context.Context, userID string) (*User, error) {
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, errs.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	if u.IsDeleted {
		return nil, errs.ErrUserNotFound
	}
	return u, nil
}
