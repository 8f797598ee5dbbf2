package postgresadapter

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"propdesk/contexts/identity-access/authorization-service/domain/entities"
	domainerrors "propdesk/contexts/identity-access/authorization-service/domain/errors"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "authz.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	repo := NewRepository(db, nil)
	if err := repo.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return repo
}

func TestMembershipLifecycle(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := repo.UpsertMembership(ctx, entities.Membership{
		CompanyID:  "company-1",
		UserID:     "user-1",
		RoleID:     entities.RoleViewer,
		AssignedBy: "admin-1",
		AssignedAt: now,
	}); err != nil {
		t.Fatalf("insert membership: %v", err)
	}
	permissions, err := repo.ListEffectivePermissions(ctx, "company-1", "user-1", now)
	if err != nil {
		t.Fatalf("list permissions: %v", err)
	}
	if len(permissions) != 1 || permissions[0] != entities.PermissionDecisionView {
		t.Fatalf("expected viewer permissions, got %v", permissions)
	}

	if err := repo.UpsertMembership(ctx, entities.Membership{
		CompanyID:  "company-1",
		UserID:     "user-1",
		RoleID:     entities.RoleCompanyAdmin,
		AssignedBy: "admin-1",
		AssignedAt: now.Add(time.Minute),
	}); err != nil {
		t.Fatalf("upsert membership: %v", err)
	}
	membership, found, err := repo.GetMembership(ctx, "company-1", "user-1")
	if err != nil || !found {
		t.Fatalf("get membership: found=%v err=%v", found, err)
	}
	if membership.RoleID != entities.RoleCompanyAdmin {
		t.Fatalf("expected upgraded role, got %s", membership.RoleID)
	}

	other, err := repo.ListEffectivePermissions(ctx, "company-2", "user-1", now)
	if err != nil {
		t.Fatalf("list other company: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("expected no permissions in another company, got %v", other)
	}

	if err := repo.RevokeMembership(ctx, "company-1", "user-1", now.Add(time.Hour)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	revoked, err := repo.ListEffectivePermissions(ctx, "company-1", "user-1", now)
	if err != nil {
		t.Fatalf("list after revoke: %v", err)
	}
	if len(revoked) != 0 {
		t.Fatalf("expected no permissions after revoke, got %v", revoked)
	}
	if err := repo.RevokeMembership(ctx, "company-1", "user-1", now); !errors.Is(err, domainerrors.ErrRoleNotAssigned) {
		t.Fatalf("expected ErrRoleNotAssigned, got %v", err)
	}
}
