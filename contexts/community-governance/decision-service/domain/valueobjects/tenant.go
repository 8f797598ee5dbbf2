package valueobjects

import "strings"

// TenantContext carries the authenticated company and user for one call.
// Every decision read and write is scoped by CompanyID.
type TenantContext struct {
	CompanyID string
	UserID    string
}

func (t TenantContext) Valid() bool {
	return strings.TrimSpace(t.CompanyID) != "" && strings.TrimSpace(t.UserID) != ""
}
