package enum

// StaffRole is the job role of a staff member
type StaffRole string

const (
	RoleAdmin   StaffRole = "admin"
	RoleManager StaffRole = "manager"
	RoleWaiter  StaffRole = "waiter"
	RoleKitchen StaffRole = "kitchen"
	RoleCashier StaffRole = "cashier"
)

// Permission names checked by the HTTP layer
const (
	PermManageOrders    = "manage-orders"
	PermViewOrders      = "view-orders"
	PermUpdateKitchen   = "update-kitchen"
	PermManageTables    = "manage-tables"
	PermManageInventory = "manage-inventory"
	PermManageMenu      = "manage-menu"
	PermManagePayments  = "manage-payments"
	PermVerifyPayments  = "verify-payments"
)

var rolePermissions = map[StaffRole][]string{
	RoleAdmin: {
		PermManageOrders, PermViewOrders, PermUpdateKitchen, PermManageTables,
		PermManageInventory, PermManageMenu, PermManagePayments, PermVerifyPayments,
	},
	RoleManager: {
		PermManageOrders, PermViewOrders, PermUpdateKitchen, PermManageTables,
		PermManageInventory, PermManageMenu, PermManagePayments, PermVerifyPayments,
	},
	RoleWaiter:  {PermManageOrders, PermViewOrders, PermManageTables},
	RoleKitchen: {PermViewOrders, PermUpdateKitchen, PermManageInventory},
	RoleCashier: {PermViewOrders, PermManagePayments, PermVerifyPayments},
}

func (r StaffRole) IsValid() bool {
	_, ok := rolePermissions[r]
	return ok
}

// Permissions returns the static permission set for the role
func (r StaffRole) Permissions() []string {
	perms := rolePermissions[r]
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}
