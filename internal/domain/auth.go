package domain

// Role enumerates account roles across hotels and restaurants.
type Role string

const (
	RoleSuperAdmin      Role = "super_admin"
	RoleRestaurantAdmin Role = "restaurant_admin"
	RoleHotelManager    Role = "hotel_manager"
	RoleManager         Role = "manager"
	RoleWaiter          Role = "waiter"
	RoleAccountant      Role = "accountant"
	RoleHR              Role = "hr"
	RoleReceptionist    Role = "receptionist"
	RoleChef            Role = "chef"
)

// EmployeeManagerRoles may register and list employees of their establishment.
var EmployeeManagerRoles = []Role{RoleManager, RoleHotelManager, RoleRestaurantAdmin}

// CanManageEmployees reports whether the role is allowed to register employees.
func (r Role) CanManageEmployees() bool {
	for _, allowed := range EmployeeManagerRoles {
		if r == allowed {
			return true
		}
	}
	return false
}

// IsEmployeeRole reports whether the role can be granted through employee registration.
func (r Role) IsEmployeeRole() bool {
	switch r {
	case RoleManager, RoleWaiter, RoleAccountant, RoleHR, RoleReceptionist, RoleChef:
		return true
	}
	return false
}
