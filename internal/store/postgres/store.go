package postgres

import (
	"context"
	"errors"
	"fmt"

	permissionDatamodel "github.com/frahmantamala/store-auth/internal/core/datamodel/permission"
	storeDatamodel "github.com/frahmantamala/store-auth/internal/core/datamodel/store"
	"github.com/frahmantamala/store-auth/internal/store"
	"github.com/frahmantamala/store-auth/internal/user"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StoreRepository struct {
	db *gorm.DB
}

func NewStoreRepository(db *gorm.DB) *StoreRepository {
	return &StoreRepository{db: db}
}

func (r *StoreRepository) CreateWithOwner(ctx context.Context, s *store.Store) (*store.Member, error) {
	var member *store.Member

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&storeDatamodel.Store{}).Where("slug = ?", s.Slug).Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return store.ErrSlugTaken
		}

		m := store.ToDataModel(s)
		if err := tx.Create(m).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return store.ErrSlugTaken
			}
			return err
		}

		owner := &storeDatamodel.UserStore{UserID: s.OwnerID, StoreID: m.ID, Role: string(user.RoleStoreOwner)}
		if err := tx.Create(owner).Error; err != nil {
			return err
		}

		*s = *store.FromDataModel(m)
		member = store.MemberFromDataModel(owner)
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrSlugTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("create store: %w", err)
	}
	return member, nil
}

func (r *StoreRepository) FindByID(ctx context.Context, id string) (*store.Store, error) {
	var m storeDatamodel.Store
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("find store: %w", err)
	}
	return store.FromDataModel(&m), nil
}

func (r *StoreRepository) FindMember(ctx context.Context, storeID, userID string) (*store.Member, error) {
	var m storeDatamodel.UserStore
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND user_id = ?", storeID, userID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrMemberNotFound
		}
		return nil, fmt.Errorf("find member: %w", err)
	}
	return store.MemberFromDataModel(&m), nil
}

func (r *StoreRepository) AddMember(ctx context.Context, member *store.Member) error {
	if _, err := r.FindMember(ctx, member.StoreID, member.UserID); err == nil {
		return store.ErrMemberExists
	} else if !errors.Is(err, store.ErrMemberNotFound) {
		return err
	}

	m := &storeDatamodel.UserStore{
		UserID:  member.UserID,
		StoreID: member.StoreID,
		Role:    string(member.Role),
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return store.ErrMemberExists
		}
		return fmt.Errorf("add member: %w", err)
	}
	*member = *store.MemberFromDataModel(m)
	return nil
}

func (r *StoreRepository) Grant(ctx context.Context, memberID, permissionID string) error {
	grant := &permissionDatamodel.UserStorePermission{UserStoreID: memberID, PermissionID: permissionID}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_store_id"}, {Name: "permission_id"}},
			DoNothing: true,
		}).
		Create(grant).Error
	if err != nil {
		return fmt.Errorf("grant permission: %w", err)
	}
	return nil
}
