package services

import (
	"sort"

	"propdesk/contexts/identity-access/authorization-service/domain/entities"
)

var catalog = map[string]entities.Role{
	entities.RoleCompanyAdmin: {
		RoleID:   entities.RoleCompanyAdmin,
		RoleName: "company admin",
		Permissions: []string{
			entities.PermissionDecisionView,
			entities.PermissionDecisionManage,
			entities.PermissionBallotCast,
		},
	},
	entities.RolePropertyManager: {
		RoleID:   entities.RolePropertyManager,
		RoleName: "property manager",
		Permissions: []string{
			entities.PermissionDecisionView,
			entities.PermissionDecisionManage,
			entities.PermissionBallotCast,
		},
	},
	entities.RoleBoardMember: {
		RoleID:      entities.RoleBoardMember,
		RoleName:    "board member",
		Permissions: []string{entities.PermissionDecisionView, entities.PermissionBallotCast},
	},
	entities.RoleOwner: {
		RoleID:      entities.RoleOwner,
		RoleName:    "owner",
		Permissions: []string{entities.PermissionDecisionView, entities.PermissionBallotCast},
	},
	entities.RoleViewer: {
		RoleID:      entities.RoleViewer,
		RoleName:    "viewer",
		Permissions: []string{entities.PermissionDecisionView},
	},
}

// LookupRole returns a copy of the catalog entry for roleID.
func LookupRole(roleID string) (entities.Role, bool) {
	role, ok := catalog[roleID]
	if !ok {
		return entities.Role{}, false
	}
	role.Permissions = append([]string(nil), role.Permissions...)
	return role, true
}

// PolicyEngine evaluates whether a role grants a permission.
func PolicyEngine(role entities.Role, permission string) bool {
	for _, p := range role.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// EffectivePermissions flattens the permissions of every known role, sorted and unique.
// Unknown role ids contribute nothing.
func EffectivePermissions(roleIDs []string) []string {
	set := make(map[string]struct{})
	for _, roleID := range roleIDs {
		role, ok := catalog[roleID]
		if !ok {
			continue
		}
		for _, permission := range role.Permissions {
			set[permission] = struct{}{}
		}
	}
	items := make([]string, 0, len(set))
	for permission := range set {
		items = append(items, permission)
	}
	sort.Strings(items)
	return items
}

func GrantsPermission(permissions []string, permission string) bool {
	for _, p := range permissions {
		if p == permission {
			return true
		}
	}
	return false
}
