package catalog

import (
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// moduleActions lists which actions each module offers. Every module exposes
// read; manage is seeded wherever the module has more than read.
var moduleActions = []struct {
	module  string
	actions []Action
}{
	{ModuleDashboard, []Action{ActionRead}},
	{ModuleProducts, []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionManage}},
	{ModuleOrders, []Action{ActionRead, ActionUpdate, ActionDelete, ActionManage}},
	{ModuleCustomers, []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionManage}},
	{ModuleVendors, []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionManage}},
	{ModuleUsers, []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionManage}},
	{ModuleRoles, []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionManage}},
	{ModuleSettings, []Action{ActionRead, ActionUpdate, ActionManage}},
}

var titler = cases.Title(language.English)

// Name builds the stable permission name for a module and action,
// e.g. "products.read".
func Name(module string, action Action) string {
	return module + "." + string(action)
}

// Seed returns the full permission catalog in its canonical order.
// IDs are assigned sequentially and are stable across runs.
func Seed() []Permission {
	var perms []Permission
	id := int64(1)
	for _, ma := range moduleActions {
		for _, action := range ma.actions {
			perms = append(perms, Permission{
				ID:          id,
				Name:        Name(ma.module, action),
				Description: describe(ma.module, action),
				Module:      ma.module,
				Action:      action,
			})
			id++
		}
	}
	return perms
}

func describe(module string, action Action) string {
	label := titler.String(module)
	switch action {
	case ActionCreate:
		return fmt.Sprintf("Create %s records", label)
	case ActionRead:
		return fmt.Sprintf("View %s", label)
	case ActionUpdate:
		return fmt.Sprintf("Edit %s records", label)
	case ActionDelete:
		return fmt.Sprintf("Delete %s records", label)
	case ActionManage:
		return fmt.Sprintf("Full control over %s", label)
	default:
		return label
	}
}
