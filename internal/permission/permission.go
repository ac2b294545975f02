package permission

import (
	"errors"
	"strings"
)

// Action is an operation verb a permission may allow.
type Action string

const (
	ActionCreate    Action = "create"
	ActionRead      Action = "read"
	ActionUpdate    Action = "update"
	ActionDelete    Action = "delete"
	ActionManage    Action = "manage"
	ActionView      Action = "view"
	ActionExport    Action = "export"
	ActionInvite    Action = "invite"
	ActionRemove    Action = "remove"
	ActionCancel    Action = "cancel"
	ActionSettings  Action = "settings"
	ActionAnalytics Action = "analytics"
)

// Code identifies a permission as "<resource>.<action>".
type Code string

const (
	AdminManage            Code = "admin.manage"
	AdminCreateStoreOwner  Code = "admin.create_store_owner"
	AdminManageStoreOwners Code = "admin.manage_store_owners"
	AdminViewAllStores     Code = "admin.view_all_stores"
	AdminManageSystem      Code = "admin.manage_system"

	ProductsManage Code = "products.manage"
	ProductsCreate Code = "products.create"
	ProductsRead   Code = "products.read"
	ProductsUpdate Code = "products.update"
	ProductsDelete Code = "products.delete"

	OrdersManage Code = "orders.manage"
	OrdersCreate Code = "orders.create"
	OrdersRead   Code = "orders.read"
	OrdersUpdate Code = "orders.update"
	OrdersDelete Code = "orders.delete"
	OrdersCancel Code = "orders.cancel"

	StoreManage    Code = "store.manage"
	StoreSettings  Code = "store.settings"
	StoreAnalytics Code = "store.analytics"

	UsersManage Code = "users.manage"
	UsersInvite Code = "users.invite"
	UsersRemove Code = "users.remove"

	CategoriesManage Code = "categories.manage"
	CategoriesCreate Code = "categories.create"
	CategoriesUpdate Code = "categories.update"
	CategoriesDelete Code = "categories.delete"

	InventoryManage Code = "inventory.manage"
	InventoryUpdate Code = "inventory.update"

	PaymentsManage Code = "payments.manage"
	PaymentsView   Code = "payments.view"

	ReportsView   Code = "reports.view"
	ReportsExport Code = "reports.export"
)

var (
	ErrUnknownCode   = errors.New("unknown permission code")
	ErrUnknownAction = errors.New("unknown permission action")
)

var allActions = []Action{
	ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionManage, ActionView,
	ActionExport, ActionInvite, ActionRemove, ActionCancel, ActionSettings, ActionAnalytics,
}

var allCodes = []Code{
	AdminManage, AdminCreateStoreOwner, AdminManageStoreOwners, AdminViewAllStores, AdminManageSystem,
	ProductsManage, ProductsCreate, ProductsRead, ProductsUpdate, ProductsDelete,
	OrdersManage, OrdersCreate, OrdersRead, OrdersUpdate, OrdersDelete, OrdersCancel,
	StoreManage, StoreSettings, StoreAnalytics,
	UsersManage, UsersInvite, UsersRemove,
	CategoriesManage, CategoriesCreate, CategoriesUpdate, CategoriesDelete,
	InventoryManage, InventoryUpdate,
	PaymentsManage, PaymentsView,
	ReportsView, ReportsExport,
}

func AllActions() []Action {
	out := make([]Action, len(allActions))
	copy(out, allActions)
	return out
}

func AllCodes() []Code {
	out := make([]Code, len(allCodes))
	copy(out, allCodes)
	return out
}

func (a Action) IsValid() bool {
	for _, known := range allActions {
		if a == known {
			return true
		}
	}
	return false
}

// IsValid reports membership in the closed code set.
func (c Code) IsValid() bool {
	return c.AllowedActions() != nil
}

func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	if !a.IsValid() {
		return "", ErrUnknownAction
	}
	return a, nil
}

func ParseCode(s string) (Code, error) {
	c := Code(strings.TrimSpace(s))
	if !c.IsValid() {
		return "", ErrUnknownCode
	}
	return c, nil
}

// Resource is the part of the code before the first dot.
func (c Code) Resource() string {
	resource, _, _ := strings.Cut(string(c), ".")
	return resource
}

func (c Code) action() string {
	_, action, _ := strings.Cut(string(c), ".")
	return action
}
