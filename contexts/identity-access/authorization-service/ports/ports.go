package ports

import (
	"context"
	"time"

	"propdesk/contexts/identity-access/authorization-service/domain/entities"
)

// Clock abstracts current time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// PermissionCache stores effective permissions per company member with TTL semantics.
type PermissionCache interface {
	Get(ctx context.Context, companyID string, userID string, now time.Time) ([]string, bool, error)
	Set(ctx context.Context, companyID string, userID string, permissions []string, expiresAt time.Time) error
	Invalidate(ctx context.Context, companyID string, userID string) error
}

// Repository persists company memberships and resolves what they grant.
type Repository interface {
	ListEffectivePermissions(ctx context.Context, companyID string, userID string, now time.Time) ([]string, error)
	GetMembership(ctx context.Context, companyID string, userID string) (entities.Membership, bool, error)
	UpsertMembership(ctx context.Context, membership entities.Membership) error
	RevokeMembership(ctx context.Context, companyID string, userID string, revokedAt time.Time) error
}
