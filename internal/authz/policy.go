package authz

// Operation names a privileged action checked against the policy
// table. Entity CRUD shares one pair of read/write operations; the
// operations with stricter role requirements get their own entries.
type Operation string

const (
	OpEntityRead  Operation = "entity:read"
	OpEntityWrite Operation = "entity:write"

	OpBrandEdit       Operation = "brand:edit"
	OpBrandListGlobal Operation = "brand:list_global"

	OpPlanCreate   Operation = "plan:create"
	OpPlanPurchase Operation = "plan:purchase"

	OpUserCreate      Operation = "user:create"
	OpUserList        Operation = "user:list"
	OpUserCredentials Operation = "user:credentials"
	OpUserDelete      Operation = "user:delete"
)

// policy is the single source of truth for role requirements. An
// operation absent from the table is denied for everyone.
var policy = map[Operation][]Role{
	OpEntityRead:  {RoleSuperAdmin, RoleChairman, RoleAdmin, RoleRegular},
	OpEntityWrite: {RoleSuperAdmin, RoleChairman, RoleAdmin, RoleRegular},

	OpBrandEdit:       {RoleSuperAdmin, RoleChairman, RoleAdmin},
	OpBrandListGlobal: {RoleSuperAdmin},

	OpPlanCreate:   {RoleSuperAdmin},
	OpPlanPurchase: {RoleSuperAdmin, RoleChairman, RoleAdmin},

	OpUserCreate:      {RoleSuperAdmin, RoleChairman, RoleAdmin},
	OpUserList:        {RoleSuperAdmin, RoleChairman, RoleAdmin},
	OpUserCredentials: {RoleSuperAdmin, RoleChairman, RoleAdmin},
	OpUserDelete:      {RoleSuperAdmin, RoleChairman, RoleAdmin},
}

func allowed(op Operation, role Role) bool {
	for _, r := range policy[op] {
		if r == role {
			return true
		}
	}
	return false
}
