package postgres

import (
	"context"
	"errors"
	"fmt"

	permissionDatamodel "github.com/frahmantamala/store-auth/internal/core/datamodel/permission"
	"github.com/frahmantamala/store-auth/internal/permission"
	"gorm.io/gorm"
)

type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) FindByCodeAndAction(ctx context.Context, code permission.Code, action permission.Action) (*permission.Record, error) {
	var m permissionDatamodel.Permission
	err := r.db.WithContext(ctx).
		Where("code = ? AND action = ?", string(code), string(action)).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, permission.ErrNotFound
		}
		return nil, fmt.Errorf("find permission: %w", err)
	}
	return fromDataModel(&m), nil
}

func (r *CatalogRepository) Create(ctx context.Context, rec *permission.Record) error {
	m := toDataModel(rec)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("create permission: %w", err)
	}
	rec.ID = m.ID
	return nil
}

func (r *CatalogRepository) Update(ctx context.Context, rec *permission.Record) error {
	m := toDataModel(rec)
	// Struct updates go through the json serializer; map updates would not.
	err := r.db.WithContext(ctx).Model(m).
		Select("name", "allowed_actions").
		Updates(m).Error
	if err != nil {
		return fmt.Errorf("update permission: %w", err)
	}
	return nil
}

func (r *CatalogRepository) List(ctx context.Context) ([]permission.Record, error) {
	var rows []permissionDatamodel.Permission
	if err := r.db.WithContext(ctx).Order("code").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	out := make([]permission.Record, 0, len(rows))
	for i := range rows {
		out = append(out, *fromDataModel(&rows[i]))
	}
	return out, nil
}

func toDataModel(rec *permission.Record) *permissionDatamodel.Permission {
	actions := make([]string, len(rec.AllowedActions))
	for i, a := range rec.AllowedActions {
		actions[i] = string(a)
	}
	return &permissionDatamodel.Permission{
		ID:             rec.ID,
		Name:           rec.Name,
		Code:           string(rec.Code),
		Action:         string(rec.Action),
		AllowedActions: actions,
	}
}

func fromDataModel(m *permissionDatamodel.Permission) *permission.Record {
	actions := make([]permission.Action, len(m.AllowedActions))
	for i, a := range m.AllowedActions {
		actions[i] = permission.Action(a)
	}
	return &permission.Record{
		ID:             m.ID,
		Name:           m.Name,
		Code:           permission.Code(m.Code),
		Action:         permission.Action(m.Action),
		AllowedActions: actions,
	}
}
