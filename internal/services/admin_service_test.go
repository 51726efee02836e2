package services

import (
	"errors"
	"testing"

	"realest/internal/models"
)

func TestRequireRole(t *testing.T) {
	db := setupTestDB(t)
	service := NewAdminService(db)

	user := createTestUser(t, db, "user@example.com")
	moderator := createTestAdmin(t, db, "moderator@example.com")

	superUser := createTestUser(t, db, "super@example.com")
	if err := db.Create(&models.AdminUser{UserID: superUser.ID, Role: models.RoleSuperAdmin}).Error; err != nil {
		t.Fatalf("failed to create super admin: %v", err)
	}

	if _, err := service.RequireRole(user.ID, models.RoleModerator); !errors.Is(err, ErrForbidden) {
		t.Errorf("plain user: expected ErrForbidden, got %v", err)
	}
	if _, err := service.RequireRole(moderator.UserID, models.RoleModerator); err != nil {
		t.Errorf("moderator: unexpected error %v", err)
	}
	if _, err := service.RequireRole(moderator.UserID, models.RoleSuperAdmin); !errors.Is(err, ErrForbidden) {
		t.Errorf("moderator asking for super admin: expected ErrForbidden, got %v", err)
	}

	// SUPER_ADMIN satisfies every role check.
	if _, err := service.RequireRole(superUser.ID, models.RoleModerator); err != nil {
		t.Errorf("super admin: unexpected error %v", err)
	}
}

func TestPromoteUserToAdmin(t *testing.T) {
	db := setupTestDB(t)
	service := NewAdminService(db)

	promoter := createTestAdmin(t, db, "promoter@example.com")
	user := createTestUser(t, db, "user@example.com")

	admin, err := service.PromoteUserToAdmin(user.ID, models.RoleModerator, promoter.ID)
	if err != nil {
		t.Fatalf("PromoteUserToAdmin failed: %v", err)
	}
	if admin.Role != models.RoleModerator {
		t.Errorf("expected role %s, got %s", models.RoleModerator, admin.Role)
	}
	if !service.IsAdmin(user.ID) {
		t.Error("promoted user should be an admin")
	}

	if _, err := service.PromoteUserToAdmin(user.ID, models.RoleModerator, promoter.ID); err == nil {
		t.Error("promoting an existing admin must fail")
	}

	var logCount int64
	db.Model(&models.AdminActionLog{}).Where("action = ?", models.ActionTypePromoteUser).Count(&logCount)
	if logCount != 1 {
		t.Errorf("expected 1 promotion audit record, got %d", logCount)
	}
}
