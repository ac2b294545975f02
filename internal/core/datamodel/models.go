package datamodel

import (
	"github.com/frahmantamala/store-auth/internal/core/datamodel/permission"
	"github.com/frahmantamala/store-auth/internal/core/datamodel/store"
	"github.com/frahmantamala/store-auth/internal/core/datamodel/user"
)

// Models lists every persisted model in dependency order.
func Models() []interface{} {
	return []interface{}{
		&user.User{},
		&store.Store{},
		&store.UserStore{},
		&permission.Permission{},
		&permission.UserStorePermission{},
	}
}
