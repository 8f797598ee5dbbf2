package commands

import (
	"context"
	"strings"

	application "propdesk/contexts/identity-access/authorization-service/application"
	domainerrors "propdesk/contexts/identity-access/authorization-service/domain/errors"
)

// RevokeMembershipCommand removes the active role of a user in a company.
type RevokeMembershipCommand struct {
	CompanyID string
	UserID    string
	AdminID   string
}

// Revoke soft-deletes the membership. Revoking an inactive membership is ErrRoleNotAssigned.
func (u MembershipUseCase) Revoke(ctx context.Context, cmd RevokeMembershipCommand) error {
	logger := application.ResolveLogger(u.Logger)
	companyID := strings.TrimSpace(cmd.CompanyID)
	userID := strings.TrimSpace(cmd.UserID)
	if companyID == "" {
		return domainerrors.ErrInvalidCompanyID
	}
	if userID == "" {
		return domainerrors.ErrInvalidUserID
	}
	if strings.TrimSpace(cmd.AdminID) == "" {
		return domainerrors.ErrInvalidAdminID
	}

	current, found, err := u.Repository.GetMembership(ctx, companyID, userID)
	if err != nil {
		return err
	}
	if !found || !current.Active() {
		return domainerrors.ErrRoleNotAssigned
	}
	if err := u.Repository.RevokeMembership(ctx, companyID, userID, u.now()); err != nil {
		logger.Error("revoke membership failed",
			"event", "authz_revoke_membership_failed",
			"module", "identity-access/authorization-service",
			"layer", "application",
			"company_id", companyID,
			"user_id", userID,
			"error", err.Error(),
		)
		return err
	}
	u.invalidate(ctx, companyID, userID)

	logger.Info("membership revoked",
		"event", "authz_membership_revoked",
		"module", "identity-access/authorization-service",
		"layer", "application",
		"company_id", companyID,
		"user_id", userID,
		"role_id", current.RoleID,
		"admin_id", strings.TrimSpace(cmd.AdminID),
	)
	return nil
}
