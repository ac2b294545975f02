package permission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	errs "github.com/frahmantamala/store-auth/internal"
	"github.com/frahmantamala/store-auth/internal/user"
)

var ErrMembershipNotFound = errors.New("store membership not found")

// Membership is a user's role inside one store.
type Membership struct {
	ID      string
	UserID  string
	StoreID string
	Role    user.Role
}

type GrantRepository interface {
	FindMembership(ctx context.Context, userID, storeID string) (*Membership, error)
	// FindGrantedActions returns the allowed actions of every permission
	// granted to the membership whose code is in codes, keyed by code.
	FindGrantedActions(ctx context.Context, membershipID string, codes []Code) (map[Code][]Action, error)
}

// Request is what a route demands of the caller. Empty fields are not checked.
type Request struct {
	User    *user.User
	StoreID string
	Roles   []user.Role
	Code    Code
	Action  Action
}

type Resolver struct {
	grants GrantRepository
	logger *slog.Logger
}

func NewResolver(grants GrantRepository, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{grants: grants, logger: logger}
}

// Authorize applies the global role check and then the store-scoped
// permission check. Both must pass; neither implies the other.
func (r *Resolver) Authorize(ctx context.Context, req Request) error {
	if req.User == nil {
		return errs.Forbidden("no authenticated user")
	}
	if len(req.Roles) > 0 {
		if err := r.CheckRole(req.User, req.Roles...); err != nil {
			return err
		}
	}
	if req.Code == "" {
		return nil
	}
	if req.StoreID == "" {
		return errs.Forbidden("permission %s requires a store", req.Code)
	}
	return r.CheckStorePermission(ctx, req.User.ID, req.StoreID, req.Code, req.Action)
}

func (r *Resolver) CheckRole(u *user.User, roles ...user.Role) error {
	if u.HasRole(roles...) {
		return nil
	}
	return errs.Forbidden("role %s not in %v", u.Role, roles)
}

// CheckStorePermission resolves whether userID may perform action under code
// in storeID. An empty action means the code's primary action.
func (r *Resolver) CheckStorePermission(ctx context.Context, userID, storeID string, code Code, action Action) error {
	if !code.IsValid() {
		return errs.Forbidden("unknown permission code %q", code)
	}
	if action == "" {
		action = code.PrimaryAction()
	}
	if !action.IsValid() {
		return errs.Forbidden("unknown action %q", action)
	}

	m, err := r.grants.FindMembership(ctx, userID, storeID)
	if err != nil {
		if errors.Is(err, ErrMembershipNotFound) {
			return errs.Forbidden("user %s is not a member of store %s", userID, storeID)
		}
		return fmt.Errorf("resolve membership: %w", err)
	}

	switch m.Role {
	case user.RoleStoreOwner:
		return nil
	case user.RoleStoreManager:
	default:
		return errs.Forbidden("store role %q has no permissions", m.Role)
	}

	codes := []Code{code}
	manageCode, hasManage := ManageCodeFor(code.Resource())
	if hasManage && manageCode != code {
		codes = append(codes, manageCode)
	}

	granted, err := r.grants.FindGrantedActions(ctx, m.ID, codes)
	if err != nil {
		return fmt.Errorf("resolve grants: %w", err)
	}

	if allows(granted[code], action) {
		return nil
	}
	// A resource-level manage grant covers its sibling codes.
	if hasManage && manageCode != code && containsAction(granted[manageCode], ActionManage) {
		r.logger.Debug("permission granted through resource manage", "user_id", userID, "store_id", storeID, "code", code)
		return nil
	}

	return errs.Forbidden("missing %s:%s in store %s", code, action, storeID)
}

func allows(actions []Action, action Action) bool {
	return containsAction(actions, ActionManage) || containsAction(actions, action)
}
