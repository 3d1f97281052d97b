package catalog

// Action identifies what a permission allows within its module.
type Action string

// Supported actions. ActionManage grants every other action within the
// permission's own module and nothing outside it.
const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionManage Action = "manage"
)

// Functional areas of the back office. Permissions are tagged with exactly
// one module.
const (
	ModuleDashboard = "dashboard"
	ModuleProducts  = "products"
	ModuleOrders    = "orders"
	ModuleCustomers = "customers"
	ModuleVendors   = "vendors"
	ModuleUsers     = "users"
	ModuleRoles     = "roles"
	ModuleSettings  = "settings"
)

// Permission represents an atomic capability tagged with a module and an
// action. Catalog entries are immutable after seeding.
type Permission struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Module      string `json:"module"`
	Action      Action `json:"action"`
}
