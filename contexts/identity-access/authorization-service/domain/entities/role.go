package entities

// Role models a permission bundle that can be assigned to company members.
type Role struct {
	RoleID      string   `json:"role_id"`
	RoleName    string   `json:"role_name"`
	Permissions []string `json:"permissions"`
}

const (
	PermissionDecisionView   = "decision.view"
	PermissionDecisionManage = "decision.manage"
	PermissionBallotCast     = "ballot.cast"
)

const (
	RoleCompanyAdmin    = "company_admin"
	RolePropertyManager = "property_manager"
	RoleBoardMember     = "board_member"
	RoleOwner           = "owner"
	RoleViewer          = "viewer"
)
