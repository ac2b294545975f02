package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/frahmantamala/store-auth/internal/permission"
	"github.com/frahmantamala/store-auth/internal/user"
	"github.com/jmoiron/sqlx"
)

const (
	findMembershipQuery = `
SELECT id, user_id, store_id, role
FROM user_stores
WHERE user_id = ? AND store_id = ?`

	findGrantedActionsQuery = `
SELECT p.code, p.allowed_actions
FROM user_store_permissions usp
JOIN permissions p ON p.id = usp.permission_id
WHERE usp.user_store_id = ? AND p.code IN (?)`
)

// GrantRepository answers store-scoped permission lookups with plain SQL.
type GrantRepository struct {
	db *sqlx.DB
}

func NewGrantRepository(db *sqlx.DB) *GrantRepository {
	return &GrantRepository{db: db}
}

type membershipRow struct {
	ID      string `db:"id"`
	UserID  string `db:"user_id"`
	StoreID string `db:"store_id"`
	Role    string `db:"role"`
}

type grantRow struct {
	Code           string `db:"code"`
	AllowedActions string `db:"allowed_actions"`
}

func (r *GrantRepository) FindMembership(ctx context.Context, userID, storeID string) (*permission.Membership, error) {
	var row membershipRow
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(findMembershipQuery), userID, storeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, permission.ErrMembershipNotFound
		}
		return nil, fmt.Errorf("find membership: %w", err)
	}
	return &permission.Membership{
		ID:      row.ID,
		UserID:  row.UserID,
		StoreID: row.StoreID,
		Role:    user.Role(row.Role),
	}, nil
}

// FindGrantedActions unions the allowed actions of all matching grants per code.
func (r *GrantRepository) FindGrantedActions(ctx context.Context, membershipID string, codes []permission.Code) (map[permission.Code][]permission.Action, error) {
	granted := make(map[permission.Code][]permission.Action)
	if len(codes) == 0 {
		return granted, nil
	}

	raw := make([]string, len(codes))
	for i, c := range codes {
		raw[i] = string(c)
	}

	query, args, err := sqlx.In(findGrantedActionsQuery, membershipID, raw)
	if err != nil {
		return nil, fmt.Errorf("build grants query: %w", err)
	}

	var rows []grantRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("find granted actions: %w", err)
	}

	for _, row := range rows {
		var actions []permission.Action
		if err := json.Unmarshal([]byte(row.AllowedActions), &actions); err != nil {
			return nil, fmt.Errorf("decode allowed actions for %s: %w", row.Code, err)
		}
		code := permission.Code(row.Code)
		granted[code] = append(granted[code], actions...)
	}
	return granted, nil
}
