package permission

import (
	"fmt"
	"strings"
)

// AllowedActions is the policy table. Every code in the closed set has a
// non-empty entry; unknown codes return nil.
func (c Code) AllowedActions() []Action {
	switch c {
	case AdminManage:
		return []Action{ActionRead, ActionCreate, ActionUpdate, ActionDelete, ActionManage}
	case AdminCreateStoreOwner:
		return []Action{ActionCreate}
	case AdminManageStoreOwners:
		return []Action{ActionRead, ActionUpdate, ActionDelete, ActionManage}
	case AdminViewAllStores:
		return []Action{ActionRead, ActionView}
	case AdminManageSystem:
		return []Action{ActionRead, ActionUpdate, ActionSettings, ActionManage}

	case ProductsManage:
		return []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionManage}
	case ProductsCreate:
		return []Action{ActionCreate}
	case ProductsRead:
		return []Action{ActionRead}
	case ProductsUpdate:
		return []Action{ActionUpdate}
	case ProductsDelete:
		return []Action{ActionDelete}

	case OrdersManage:
		return []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionCancel, ActionManage}
	case OrdersCreate:
		return []Action{ActionCreate}
	case OrdersRead:
		return []Action{ActionRead}
	case OrdersUpdate:
		return []Action{ActionUpdate}
	case OrdersDelete:
		return []Action{ActionDelete}
	case OrdersCancel:
		return []Action{ActionCancel}

	case StoreManage:
		return []Action{ActionRead, ActionUpdate, ActionSettings, ActionAnalytics, ActionManage}
	case StoreSettings:
		return []Action{ActionRead, ActionUpdate, ActionSettings}
	case StoreAnalytics:
		return []Action{ActionRead, ActionView, ActionAnalytics}

	case UsersManage:
		return []Action{ActionRead, ActionInvite, ActionRemove, ActionManage}
	case UsersInvite:
		return []Action{ActionInvite}
	case UsersRemove:
		return []Action{ActionRemove}

	case CategoriesManage:
		return []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionManage}
	case CategoriesCreate:
		return []Action{ActionCreate}
	case CategoriesUpdate:
		return []Action{ActionUpdate}
	case CategoriesDelete:
		return []Action{ActionDelete}

	case InventoryManage:
		return []Action{ActionRead, ActionUpdate, ActionManage}
	case InventoryUpdate:
		return []Action{ActionRead, ActionUpdate}

	case PaymentsManage:
		return []Action{ActionRead, ActionView, ActionManage}
	case PaymentsView:
		return []Action{ActionRead, ActionView}

	case ReportsView:
		return []Action{ActionRead, ActionView}
	case ReportsExport:
		return []Action{ActionRead, ActionView, ActionExport}
	}
	return nil
}

func (c Code) IsActionAllowed(a Action) bool {
	return containsAction(c.AllowedActions(), a)
}

// PrimaryAction is manage when present, otherwise the first listed action.
func PrimaryAction(actions []Action) Action {
	if containsAction(actions, ActionManage) {
		return ActionManage
	}
	if len(actions) == 0 {
		return ""
	}
	return actions[0]
}

func (c Code) PrimaryAction() Action {
	return PrimaryAction(c.AllowedActions())
}

// Name renders "Resource - Action Words", e.g. "Admin - Create Store Owner".
func (c Code) Name() string {
	resource := strings.ReplaceAll(c.Resource(), "_", " ")
	if resource != "" {
		resource = strings.ToUpper(resource[:1]) + resource[1:]
	}
	words := strings.Split(c.action(), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return resource + " - " + strings.Join(words, " ")
}

// CodesByResource returns the codes whose resource equals resource.
func CodesByResource(resource string) []Code {
	var out []Code
	for _, c := range allCodes {
		if c.Resource() == resource {
			out = append(out, c)
		}
	}
	return out
}

// ManageCodeFor returns "<resource>.manage" when the table defines it.
func ManageCodeFor(resource string) (Code, bool) {
	c := Code(resource + ".manage")
	return c, c.IsValid()
}

// ValidateAllowedActions checks a stored action set against the table.
func ValidateAllowedActions(c Code, actions []Action) error {
	expected := c.AllowedActions()
	if expected == nil {
		return fmt.Errorf("%w: %s", ErrUnknownCode, c)
	}
	if len(actions) == 0 {
		return fmt.Errorf("%s: allowed actions must not be empty", c)
	}
	seen := make(map[Action]bool, len(actions))
	for _, a := range actions {
		if !a.IsValid() {
			return fmt.Errorf("%w: %q on %s", ErrUnknownAction, a, c)
		}
		if !containsAction(expected, a) {
			return fmt.Errorf("%s: action %q is not in the policy", c, a)
		}
		seen[a] = true
	}
	for _, a := range expected {
		if !seen[a] {
			return fmt.Errorf("%s: missing action %q", c, a)
		}
	}
	return nil
}

func containsAction(actions []Action, a Action) bool {
	for _, x := range actions {
		if x == a {
			return true
		}
	}
	return false
}
