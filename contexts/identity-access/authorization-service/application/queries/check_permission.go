package queries

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "propdesk/contexts/identity-access/authorization-service/application"
	"propdesk/contexts/identity-access/authorization-service/domain/entities"
	domainerrors "propdesk/contexts/identity-access/authorization-service/domain/errors"
	"propdesk/contexts/identity-access/authorization-service/domain/services"
	"propdesk/contexts/identity-access/authorization-service/ports"
)

// CheckPermissionQuery is the request model for single-permission evaluation.
type CheckPermissionQuery struct {
	CompanyID    string
	UserID       string
	Permission   string
	ResourceType string
	ResourceID   string
}

// CheckPermissionUseCase orchestrates cache-first permission evaluation.
type CheckPermissionUseCase struct {
	Repository         ports.Repository
	PermissionCache    ports.PermissionCache
	Clock              ports.Clock
	PermissionCacheTTL time.Duration
	Logger             *slog.Logger
}

// Execute evaluates a permission. A lookup failure yields a denied decision
// together with an error wrapping ErrPersistence.
func (u CheckPermissionUseCase) Execute(ctx context.Context, query CheckPermissionQuery) (entities.PermissionDecision, error) {
	if strings.TrimSpace(query.CompanyID) == "" {
		return entities.PermissionDecision{}, domainerrors.ErrInvalidCompanyID
	}
	if strings.TrimSpace(query.UserID) == "" {
		return entities.PermissionDecision{}, domainerrors.ErrInvalidUserID
	}
	if strings.TrimSpace(query.Permission) == "" {
		return entities.PermissionDecision{}, domainerrors.ErrInvalidPermission
	}

	logger := application.ResolveLogger(u.Logger)
	now := u.now()
	logger.Debug("check permission started",
		"event", "authz_check_started",
		"module", "identity-access/authorization-service",
		"layer", "application",
		"company_id", query.CompanyID,
		"user_id", query.UserID,
		"permission", query.Permission,
		"resource_type", query.ResourceType,
		"resource_id", query.ResourceID,
	)

	permissions, cacheHit, err := u.loadPermissions(ctx, query.CompanyID, query.UserID, now)
	if err != nil {
		logger.Error("permission lookup failed, deny by default",
			"event", "authz_permission_lookup_failed",
			"module", "identity-access/authorization-service",
			"layer", "application",
			"company_id", query.CompanyID,
			"user_id", query.UserID,
			"permission", query.Permission,
			"error", err.Error(),
		)
		return entities.PermissionDecision{
			CompanyID:  query.CompanyID,
			UserID:     query.UserID,
			Permission: query.Permission,
			Allowed:    false,
			Reason:     "deny_by_default",
			CheckedAt:  now,
			CacheHit:   false,
		}, persistenceError(err)
	}

	allowed := services.GrantsPermission(permissions, query.Permission)
	reason := "permission_granted"
	if !allowed {
		reason = "permission_missing"
		logger.Warn("check permission denied",
			"event", "authz_check_denied",
			"module", "identity-access/authorization-service",
			"layer", "application",
			"company_id", query.CompanyID,
			"user_id", query.UserID,
			"permission", query.Permission,
			"resource_type", query.ResourceType,
			"resource_id", query.ResourceID,
			"cache_hit", cacheHit,
		)
	} else {
		logger.Debug("check permission allowed",
			"event", "authz_check_allowed",
			"module", "identity-access/authorization-service",
			"layer", "application",
			"company_id", query.CompanyID,
			"user_id", query.UserID,
			"permission", query.Permission,
			"resource_type", query.ResourceType,
			"resource_id", query.ResourceID,
			"cache_hit", cacheHit,
		)
	}

	return entities.PermissionDecision{
		CompanyID:  query.CompanyID,
		UserID:     query.UserID,
		Permission: query.Permission,
		Allowed:    allowed,
		Reason:     reason,
		CheckedAt:  now,
		CacheHit:   cacheHit,
	}, nil
}

func (u CheckPermissionUseCase) loadPermissions(
	ctx context.Context,
	companyID string,
	userID string,
	now time.Time,
) ([]string, bool, error) {
	if u.PermissionCache != nil {
		items, hit, err := u.PermissionCache.Get(ctx, companyID, userID, now)
		if err != nil {
			return nil, false, err
		}
		if hit {
			return items, true, nil
		}
	}

	permissions, err := u.Repository.ListEffectivePermissions(ctx, companyID, userID, now)
	if err != nil {
		return nil, false, err
	}

	if u.PermissionCache != nil {
		_ = u.PermissionCache.Set(ctx, companyID, userID, permissions, now.Add(u.cacheTTL()))
	}
	return permissions, false, nil
}

func (u CheckPermissionUseCase) cacheTTL() time.Duration {
	if u.PermissionCacheTTL <= 0 {
		return 5 * time.Minute
	}
	return u.PermissionCacheTTL
}

func (u CheckPermissionUseCase) now() time.Time {
	if u.Clock != nil {
		return u.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func persistenceError(err error) error {
	if errors.Is(err, domainerrors.ErrPersistence) {
		return err
	}
	return fmt.Errorf("%w: %v", domainerrors.ErrPersistence, err)
}
