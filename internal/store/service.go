package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/store-auth/internal"
	"github.com/frahmantamala/store-auth/internal/permission"
	"github.com/frahmantamala/store-auth/internal/user"
)

type UserLookup interface {
	FindByEmail(ctx context.Context, email string) (*user.User, error)
}

type PermissionLookup interface {
	FindByCodeAndAction(ctx context.Context, code permission.Code, action permission.Action) (*permission.Record, error)
}

type Authorizer interface {
	CheckStorePermission(ctx context.Context, userID, storeID string, code permission.Code, action permission.Action) error
}

type ServiceAPI interface {
	CreateStore(ctx context.Context, owner *user.User, dto CreateStoreDTO) (*Store, error)
	AddManager(ctx context.Context, storeID string, dto AddMemberDTO) (*Member, error)
	GrantPermission(ctx context.Context, storeID, userID, code string) error
	CheckAccess(ctx context.Context, u *user.User, storeID, code, action string) (AccessResponse, error)
}

type Service struct {
	repo        Repository
	users       UserLookup
	permissions PermissionLookup
	authz       Authorizer
	logger      *slog.Logger
}

func NewService(repo Repository, users UserLookup, permissions PermissionLookup, authz Authorizer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, users: users, permissions: permissions, authz: authz, logger: logger}
}

// CreateStore creates a store and makes owner its store_owner member.
func (s *Service) CreateStore(ctx context.Context, owner *user.User, dto CreateStoreDTO) (*Store, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	st := &Store{Name: dto.Name, Slug: dto.Slug, OwnerID: owner.ID}
	if _, err := s.repo.CreateWithOwner(ctx, st); err != nil {
		if errors.Is(err, ErrSlugTaken) {
			return nil, internal.ErrStoreExists
		}
		return nil, fmt.Errorf("create store: %w", err)
	}

	s.logger.Info("store created", "store_id", st.ID, "owner_id", owner.ID)
	return st, nil
}

// AddManager adds an existing store_manager account to the store.
func (s *Service) AddManager(ctx context.Context, storeID string, dto AddMemberDTO) (*Member, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if err := s.ensureStore(ctx, storeID); err != nil {
		return nil, err
	}

	u, err := s.users.FindByEmail(ctx, dto.Email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if u.IsDeleted {
		return nil, internal.ErrUserNotFound
	}
	if u.Role != user.RoleStoreManager {
		return nil, internal.NewValidationFieldError("email", "user is not a store manager", internal.ErrCodeInvalidRole)
	}

	m := &Member{UserID: u.ID, StoreID: storeID, Role: user.RoleStoreManager}
	if err := s.repo.AddMember(ctx, m); err != nil {
		if errors.Is(err, ErrMemberExists) {
			return nil, internal.ErrAlreadyMember
		}
		return nil, fmt.Errorf("add member: %w", err)
	}
	return m, nil
}

// GrantPermission grants the seeded permission row for code to a member.
func (s *Service) GrantPermission(ctx context.Context, storeID, userID, code string) error {
	c, err := permission.ParseCode(code)
	if err != nil {
		return internal.ErrUnknownPermission
	}

	m, err := s.repo.FindMember(ctx, storeID, userID)
	if err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			return internal.ErrNotMember
		}
		return fmt.Errorf("find member: %w", err)
	}

	rec, err := s.permissions.FindByCodeAndAction(ctx, c, c.PrimaryAction())
	if err != nil {
		if errors.Is(err, permission.ErrNotFound) {
			s.logger.Error("permission catalog is not seeded", "code", c)
			return internal.ErrUnknownPermission
		}
		return fmt.Errorf("find permission: %w", err)
	}

	if err := s.repo.Grant(ctx, m.ID, rec.ID); err != nil {
		return fmt.Errorf("grant permission: %w", err)
	}
	s.logger.Info("permission granted", "store_id", storeID, "user_id", userID, "code", c)
	return nil
}

// CheckAccess reports whether u may perform action under code in the store.
func (s *Service) CheckAccess(ctx context.Context, u *user.User, storeID, code, action string) (AccessResponse, error) {
	c, err := permission.ParseCode(code)
	if err != nil {
		return AccessResponse{}, internal.ErrUnknownPermission
	}
	var a permission.Action
	if action != "" {
		if a, err = permission.ParseAction(action); err != nil {
			return AccessResponse{}, internal.NewValidationFieldError("action", "unknown action", internal.ErrCodeValidationFailed)
		}
	} else {
		a = c.PrimaryAction()
	}

	resp := AccessResponse{StoreID: storeID, Code: c, Action: a}
	err = s.authz.CheckStorePermission(ctx, u.ID, storeID, c, a)
	switch {
	case err == nil:
		resp.Allowed = true
	case errors.Is(err, internal.ErrForbidden):
	default:
		return AccessResponse{}, err
	}
	return resp, nil
}

func (s *Service) ensureStore(ctx context.Context, storeID string) error {
	if _, err := s.repo.FindByID(ctx, storeID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return internal.ErrStoreNotFound
		}
		return fmt.Errorf("find store: %w", err)
	}
	return nil
}
