package postgresadapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"propdesk/contexts/identity-access/authorization-service/domain/entities"
	domainerrors "propdesk/contexts/identity-access/authorization-service/domain/errors"
	"propdesk/contexts/identity-access/authorization-service/domain/services"
	"propdesk/contexts/identity-access/authorization-service/ports"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type membershipModel struct {
	CompanyID  string     `gorm:"column:company_id;primaryKey;size:64"`
	UserID     string     `gorm:"column:user_id;primaryKey;size:64"`
	RoleID     string     `gorm:"column:role_id;size:64;not null"`
	AssignedBy string     `gorm:"column:assigned_by;size:64;not null"`
	AssignedAt time.Time  `gorm:"column:assigned_at;not null"`
	RevokedAt  *time.Time `gorm:"column:revoked_at"`
}

func (membershipModel) TableName() string {
	return "company_memberships"
}

func (m membershipModel) toEntity() entities.Membership {
	return entities.Membership{
		CompanyID:  m.CompanyID,
		UserID:     m.UserID,
		RoleID:     m.RoleID,
		AssignedBy: m.AssignedBy,
		AssignedAt: m.AssignedAt.UTC(),
		RevokedAt:  m.RevokedAt,
	}
}

// Repository stores company memberships in PostgreSQL.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&membershipModel{}); err != nil {
		return r.logError("authz_repo_migrate_failed", err)
	}
	return nil
}

func (r *Repository) ListEffectivePermissions(ctx context.Context, companyID string, userID string, _ time.Time) ([]string, error) {
	var roleIDs []string
	err := r.db.WithContext(ctx).
		Model(&membershipModel{}).
		Where("company_id = ? AND user_id = ? AND revoked_at IS NULL", companyID, userID).
		Pluck("role_id", &roleIDs).Error
	if err != nil {
		return nil, r.logError("authz_repo_list_permissions_failed", err,
			"company_id", companyID,
			"user_id", userID,
		)
	}
	return services.EffectivePermissions(roleIDs), nil
}

func (r *Repository) GetMembership(ctx context.Context, companyID string, userID string) (entities.Membership, bool, error) {
	var row membershipModel
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND user_id = ?", companyID, userID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entities.Membership{}, false, nil
	}
	if err != nil {
		return entities.Membership{}, false, r.logError("authz_repo_get_membership_failed", err,
			"company_id", companyID,
			"user_id", userID,
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) UpsertMembership(ctx context.Context, membership entities.Membership) error {
	row := membershipModel{
		CompanyID:  membership.CompanyID,
		UserID:     membership.UserID,
		RoleID:     membership.RoleID,
		AssignedBy: membership.AssignedBy,
		AssignedAt: membership.AssignedAt.UTC(),
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "company_id"}, {Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"role_id":     row.RoleID,
			"assigned_by": row.AssignedBy,
			"assigned_at": row.AssignedAt,
			"revoked_at":  nil,
		}),
	}).Create(&row).Error
	if err != nil {
		return r.logError("authz_repo_upsert_membership_failed", err,
			"company_id", membership.CompanyID,
			"user_id", membership.UserID,
		)
	}
	return nil
}

func (r *Repository) RevokeMembership(ctx context.Context, companyID string, userID string, revokedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&membershipModel{}).
		Where("company_id = ? AND user_id = ? AND revoked_at IS NULL", companyID, userID).
		Update("revoked_at", revokedAt.UTC())
	if result.Error != nil {
		return r.logError("authz_repo_revoke_membership_failed", result.Error,
			"company_id", companyID,
			"user_id", userID,
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrRoleNotAssigned
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "identity-access/authorization-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("authorization repository operation failed", fields...)
	return fmt.Errorf("%w: %w", domainerrors.ErrPersistence, err)
}

var _ ports.Repository = (*Repository)(nil)
