package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "propdesk/contexts/identity-access/authorization-service/application"
	"propdesk/contexts/identity-access/authorization-service/domain/entities"
	domainerrors "propdesk/contexts/identity-access/authorization-service/domain/errors"
	"propdesk/contexts/identity-access/authorization-service/domain/services"
	"propdesk/contexts/identity-access/authorization-service/ports"
)

// AssignMembershipCommand sets the role a user holds inside a company.
type AssignMembershipCommand struct {
	CompanyID string
	UserID    string
	RoleID    string
	AdminID   string
}

// MembershipUseCase coordinates membership writes and the permission cache.
type MembershipUseCase struct {
	Repository      ports.Repository
	PermissionCache ports.PermissionCache
	Clock           ports.Clock
	Logger          *slog.Logger
}

// Assign replaces any previous role of the user in the company.
func (u MembershipUseCase) Assign(ctx context.Context, cmd AssignMembershipCommand) (entities.Membership, error) {
	logger := application.ResolveLogger(u.Logger)
	if strings.TrimSpace(cmd.CompanyID) == "" {
		return entities.Membership{}, domainerrors.ErrInvalidCompanyID
	}
	if strings.TrimSpace(cmd.UserID) == "" {
		return entities.Membership{}, domainerrors.ErrInvalidUserID
	}
	if strings.TrimSpace(cmd.AdminID) == "" {
		return entities.Membership{}, domainerrors.ErrInvalidAdminID
	}
	roleID := strings.TrimSpace(cmd.RoleID)
	if roleID == "" {
		return entities.Membership{}, domainerrors.ErrInvalidRoleID
	}
	if _, ok := services.LookupRole(roleID); !ok {
		return entities.Membership{}, domainerrors.ErrRoleNotFound
	}

	membership := entities.Membership{
		CompanyID:  strings.TrimSpace(cmd.CompanyID),
		UserID:     strings.TrimSpace(cmd.UserID),
		RoleID:     roleID,
		AssignedBy: strings.TrimSpace(cmd.AdminID),
		AssignedAt: u.now(),
	}
	if err := u.Repository.UpsertMembership(ctx, membership); err != nil {
		logger.Error("assign membership failed",
			"event", "authz_assign_membership_failed",
			"module", "identity-access/authorization-service",
			"layer", "application",
			"company_id", membership.CompanyID,
			"user_id", membership.UserID,
			"role_id", membership.RoleID,
			"error", err.Error(),
		)
		return entities.Membership{}, err
	}
	u.invalidate(ctx, membership.CompanyID, membership.UserID)

	logger.Info("membership assigned",
		"event", "authz_membership_assigned",
		"module", "identity-access/authorization-service",
		"layer", "application",
		"company_id", membership.CompanyID,
		"user_id", membership.UserID,
		"role_id", membership.RoleID,
		"admin_id", membership.AssignedBy,
	)
	return membership, nil
}

func (u MembershipUseCase) invalidate(ctx context.Context, companyID string, userID string) {
	if u.PermissionCache == nil {
		return
	}
	if err := u.PermissionCache.Invalidate(ctx, companyID, userID); err != nil {
		application.ResolveLogger(u.Logger).Warn("permission cache invalidation failed",
			"event", "authz_cache_invalidate_failed",
			"module", "identity-access/authorization-service",
			"layer", "application",
			"company_id", companyID,
			"user_id", userID,
			"error", err.Error(),
		)
	}
}

func (u MembershipUseCase) now() time.Time {
	if u.Clock != nil {
		return u.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
