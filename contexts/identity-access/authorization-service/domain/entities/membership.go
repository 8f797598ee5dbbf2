package entities

import "time"

// Membership binds a user to a role inside one company.
type Membership struct {
	CompanyID  string     `json:"company_id"`
	UserID     string     `json:"user_id"`
	RoleID     string     `json:"role_id"`
	AssignedBy string     `json:"assigned_by"`
	AssignedAt time.Time  `json:"assigned_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
}

// Active reports whether the membership still grants its role.
func (m Membership) Active() bool {
	return m.RevokedAt == nil
}
