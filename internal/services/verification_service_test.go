package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"realest/internal/config"
	"realest/internal/models"
	"realest/internal/repository"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Discard,
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Property{},
		&models.AdminUser{},
		&models.AdminActionLog{},
		&models.Notification{},
		&models.Inquiry{},
	)
	if err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	return db
}

func testPolicy() config.VerificationPolicy {
	return config.VerificationPolicy{
		DuplicateRadiusMeters: 500,
		ExactAddressLimit:     5,
		SimilarTitleLimit:     5,
		MinTitleTokenLength:   4,
	}
}

func createTestUser(t *testing.T, db *gorm.DB, email string) *models.User {
	user := models.User{Email: email, PasswordHash: "x"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return &user
}

func createTestAdmin(t *testing.T, db *gorm.DB, email string) *models.AdminUser {
	user := createTestUser(t, db, email)
	admin := models.AdminUser{UserID: user.ID, Role: models.RoleModerator}
	if err := db.Create(&admin).Error; err != nil {
		t.Fatalf("failed to create admin: %v", err)
	}
	return &admin
}

func createTestProperty(t *testing.T, db *gorm.DB, ownerID uint, status models.PropertyStatus) *models.Property {
	property := models.Property{
		ReferenceCode: "RE-" + uuid.New().String()[:8],
		Title:         "3 Bedroom Flat in Yaba",
		Address:       "5 Herbert Macaulay Way",
		City:          "Lagos",
		State:         "Lagos",
		Price:         decimal.NewFromInt(25000000),
		PropertyType:  "apartment",
		OwnerID:       ownerID,
		Status:        status,
	}
	if err := db.Create(&property).Error; err != nil {
		t.Fatalf("failed to create property: %v", err)
	}
	return &property
}

func newVerificationService(db *gorm.DB) *VerificationService {
	repo := repository.NewPropertyRepository(db)
	return NewVerificationService(repo, NewAdminService(db), NewNotificationService(db), 90)
}

func TestMLValidationRequiresPendingStatus(t *testing.T) {
	db := setupTestDB(t)
	service := newVerificationService(db)
	owner := createTestUser(t, db, "owner@example.com")
	admin := createTestAdmin(t, db, "admin@example.com")

	statuses := []models.PropertyStatus{
		models.StatusDraft,
		models.StatusPendingVetting,
		models.StatusPendingDuplicateReview,
		models.StatusLive,
		models.StatusRejected,
	}

	for _, status := range statuses {
		property := createTestProperty(t, db, owner.ID, status)
		for _, action := range []string{"approve", "reject", "flag_duplicate"} {
			_, err := service.ApplyMLValidation(context.Background(), property.ID, admin.ID, MLValidationInput{Action: action})
			if !errors.Is(err, ErrNotFound) {
				t.Errorf("status %s action %s: expected ErrNotFound, got %v", status, action, err)
			}
		}
	}
}

func TestMLApproveDefaults(t *testing.T) {
	db := setupTestDB(t)
	service := newVerificationService(db)
	owner := createTestUser(t, db, "owner@example.com")
	admin := createTestAdmin(t, db, "admin@example.com")
	property := createTestProperty(t, db, owner.ID, models.StatusPendingMLValidation)

	result, err := service.ApplyMLValidation(context.Background(), property.ID, admin.ID, MLValidationInput{
		Action:          "approve",
		ValidationNotes: "looks plausible",
	})
	if err != nil {
		t.Fatalf("ApplyMLValidation failed: %v", err)
	}

	if result.NewStatus != models.StatusPendingVetting {
		t.Errorf("expected status pending_vetting, got %s", result.NewStatus)
	}
	if result.Property.MLConfidenceScore == nil || *result.Property.MLConfidenceScore != DefaultApproveConfidence {
		t.Errorf("expected default confidence %v, got %v", DefaultApproveConfidence, result.Property.MLConfidenceScore)
	}
	if result.Property.MLValidationStatus != models.MLValidationPassed {
		t.Errorf("expected ml_validation_status passed, got %s", result.Property.MLValidationStatus)
	}
	if result.Property.MLValidatedAt == nil {
		t.Error("expected ml_validated_at to be set")
	}
	if !result.AuditLogged || !result.OwnerNotified {
		t.Errorf("expected both side effects to land, got audit=%v notify=%v", result.AuditLogged, result.OwnerNotified)
	}

	var auditCount int64
	db.Model(&models.AdminActionLog{}).Where("action = ?", models.ActionTypeMLValidationUpdate).Count(&auditCount)
	if auditCount != 1 {
		t.Errorf("expected 1 audit record, got %d", auditCount)
	}

	var notifCount int64
	db.Model(&models.Notification{}).Where("user_id = ?", owner.ID).Count(&notifCount)
	if notifCount != 1 {
		t.Errorf("expected 1 notification for owner, got %d", notifCount)
	}
}

func TestMLRejectDefaultsAndIdempotence(t *testing.T) {
	db := setupTestDB(t)
	service := newVerificationService(db)
	owner := createTestUser(t, db, "owner@example.com")
	admin := createTestAdmin(t, db, "admin@example.com")
	property := createTestProperty(t, db, owner.ID, models.StatusPendingMLValidation)

	result, err := service.ApplyMLValidation(context.Background(), property.ID, admin.ID, MLValidationInput{Action: "reject"})
	if err != nil {
		t.Fatalf("ApplyMLValidation failed: %v", err)
	}

	if result.NewStatus != models.StatusRejected {
		t.Errorf("expected status rejected, got %s", result.NewStatus)
	}
	if result.Property.RejectionReason != "Failed ML validation" {
		t.Errorf("expected default rejection reason, got %q", result.Property.RejectionReason)
	}
	if result.Property.MLConfidenceScore == nil || *result.Property.MLConfidenceScore != DefaultRejectConfidence {
		t.Errorf("expected default confidence %v, got %v", DefaultRejectConfidence, result.Property.MLConfidenceScore)
	}

	// A raced second reject lands after the first already moved the status
	// away from pending_ml_validation: it must fail, never double-apply.
	_, err = service.ApplyMLValidation(context.Background(), property.ID, admin.ID, MLValidationInput{Action: "reject"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("second reject: expected ErrNotFound, got %v", err)
	}

	var auditCount int64
	db.Model(&models.AdminActionLog{}).Count(&auditCount)
	if auditCount != 1 {
		t.Errorf("expected exactly 1 audit record after double reject, got %d", auditCount)
	}
}

func TestMLFlagDuplicate(t *testing.T) {
	db := setupTestDB(t)
	service := newVerificationService(db)
	owner := createTestUser(t, db, "owner@example.com")
	admin := createTestAdmin(t, db, "admin@example.com")
	property := createTestProperty(t, db, owner.ID, models.StatusPendingMLValidation)

	result, err := service.ApplyMLValidation(context.Background(), property.ID, admin.ID, MLValidationInput{Action: "flag_duplicate"})
	if err != nil {
		t.Fatalf("ApplyMLValidation failed: %v", err)
	}

	if result.NewStatus != models.StatusPendingDuplicateReview {
		t.Errorf("expected status pending_duplicate_review, got %s", result.NewStatus)
	}
	if !result.Property.FlaggedAsDuplicate {
		t.Error("expected flagged_as_duplicate to be set")
	}
	if result.Property.MLValidationStatus != models.MLValidationReviewRequired {
		t.Errorf("expected ml_validation_status review_required, got %s", result.Property.MLValidationStatus)
	}
	if result.Property.MLConfidenceScore == nil || *result.Property.MLConfidenceScore != DefaultFlagConfidence {
		t.Errorf("expected default confidence %v, got %v", DefaultFlagConfidence, result.Property.MLConfidenceScore)
	}
}

func TestMLValidationInputValidation(t *testing.T) {
	db := setupTestDB(t)
	service := newVerificationService(db)
	owner := createTestUser(t, db, "owner@example.com")
	admin := createTestAdmin(t, db, "admin@example.com")
	property := createTestProperty(t, db, owner.ID, models.StatusPendingMLValidation)

	_, err := service.ApplyMLValidation(context.Background(), property.ID, admin.ID, MLValidationInput{Action: "publish"})
	if _, ok := IsValidationError(err); !ok {
		t.Errorf("expected validation error for bad action, got %v", err)
	}

	badScore := 1.5
	_, err = service.ApplyMLValidation(context.Background(), property.ID, admin.ID, MLValidationInput{
		Action:          "approve",
		ConfidenceScore: &badScore,
	})
	if _, ok := IsValidationError(err); !ok {
		t.Errorf("expected validation error for out-of-range score, got %v", err)
	}

	// Nothing should have changed
	var reloaded models.Property
	db.First(&reloaded, "id = ?", property.ID)
	if reloaded.Status != models.StatusPendingMLValidation {
		t.Errorf("property mutated by rejected input: status %s", reloaded.Status)
	}
}

func TestVettingRequiresPendingVetting(t *testing.T) {
	db := setupTestDB(t)
	service := newVerificationService(db)
	owner := createTestUser(t, db, "owner@example.com")
	admin := createTestAdmin(t, db, "admin@example.com")

	statuses := []models.PropertyStatus{
		models.StatusDraft,
		models.StatusPendingMLValidation,
		models.StatusPendingDuplicateReview,
		models.StatusLive,
		models.StatusRejected,
	}

	for _, status := range statuses {
		property := createTestProperty(t, db, owner.ID, status)
		_, err := service.ApplyVettingDecision(context.Background(), property.ID, admin.ID, VettingInput{Status: "live"})
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("status %s: expected ErrNotFound, got %v", status, err)
		}
	}
}

func TestVettingRejectRequiresReason(t *testing.T) {
	db := setupTestDB(t)
	service := newVerificationService(db)
	owner := createTestUser(t, db, "owner@example.com")
	admin := createTestAdmin(t, db, "admin@example.com")
	property := createTestProperty(t, db, owner.ID, models.StatusPendingVetting)

	_, err := service.ApplyVettingDecision(context.Background(), property.ID, admin.ID, VettingInput{Status: "rejected"})
	ve, ok := IsValidationError(err)
	if !ok {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, present := ve.Fields["rejection_reason"]; !present {
		t.Errorf("expected rejection_reason field error, got %v", ve.Fields)
	}

	var reloaded models.Property
	db.First(&reloaded, "id = ?", property.ID)
	if reloaded.Status != models.StatusPendingVetting {
		t.Errorf("property mutated by failed vetting: status %s", reloaded.Status)
	}
}

func TestVettingLiveStampsVerification(t *testing.T) {
	db := setupTestDB(t)
	service := newVerificationService(db)
	owner := createTestUser(t, db, "owner@example.com")
	admin := createTestAdmin(t, db, "admin@example.com")
	property := createTestProperty(t, db, owner.ID, models.StatusPendingVetting)

	result, err := service.ApplyVettingDecision(context.Background(), property.ID, admin.ID, VettingInput{
		Status:     "live",
		AdminNotes: "documents checked",
	})
	if err != nil {
		t.Fatalf("ApplyVettingDecision failed: %v", err)
	}

	if result.NewStatus != models.StatusLive {
		t.Errorf("expected status live, got %s", result.NewStatus)
	}
	if result.Property.VerifiedAt == nil {
		t.Error("live property must have verified_at set")
	}
	if result.Property.VettedBy == nil || *result.Property.VettedBy != admin.ID {
		t.Errorf("expected vetted_by %d, got %v", admin.ID, result.Property.VettedBy)
	}
	if result.Property.VettedAt == nil {
		t.Error("expected vetted_at to be set")
	}
	if result.Property.ExpiresAt == nil {
		t.Error("live property must have expires_at set")
	} else if !result.Property.ExpiresAt.After(*result.Property.VerifiedAt) {
		t.Error("expires_at must be after verified_at")
	}

	var notif models.Notification
	if err := db.Where("user_id = ?", owner.ID).First(&notif).Error; err != nil {
		t.Fatalf("expected owner notification: %v", err)
	}
	if notif.Type != models.NotificationPropertyLive {
		t.Errorf("expected notification type %s, got %s", models.NotificationPropertyLive, notif.Type)
	}
}

func TestVettingRejectNotifiesOwnerWithReason(t *testing.T) {
	db := setupTestDB(t)
	service := newVerificationService(db)
	owner := createTestUser(t, db, "owner@example.com")
	admin := createTestAdmin(t, db, "admin@example.com")
	property := createTestProperty(t, db, owner.ID, models.StatusPendingVetting)

	result, err := service.ApplyVettingDecision(context.Background(), property.ID, admin.ID, VettingInput{
		Status:          "rejected",
		RejectionReason: "address could not be confirmed",
	})
	if err != nil {
		t.Fatalf("ApplyVettingDecision failed: %v", err)
	}

	if result.Property.RejectionReason != "address could not be confirmed" {
		t.Errorf("unexpected rejection reason %q", result.Property.RejectionReason)
	}

	var notif models.Notification
	if err := db.Where("user_id = ?", owner.ID).First(&notif).Error; err != nil {
		t.Fatalf("expected owner notification: %v", err)
	}
	if notif.Type != models.NotificationPropertyRejected {
		t.Errorf("expected notification type %s, got %s", models.NotificationPropertyRejected, notif.Type)
	}

	// A second decision on an already-decided property must fail.
	_, err = service.ApplyVettingDecision(context.Background(), property.ID, admin.ID, VettingInput{Status: "live"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("re-vetting a decided property: expected ErrNotFound, got %v", err)
	}
}

func TestSideEffectFailureDoesNotRollBackTransition(t *testing.T) {
	db := setupTestDB(t)
	service := newVerificationService(db)
	owner := createTestUser(t, db, "owner@example.com")
	admin := createTestAdmin(t, db, "admin@example.com")
	property := createTestProperty(t, db, owner.ID, models.StatusPendingMLValidation)

	// With both sinks unavailable the committed transition must stand and
	// the result must report the failed side effects.
	if err := db.Migrator().DropTable(&models.AdminActionLog{}); err != nil {
		t.Fatalf("failed to drop audit table: %v", err)
	}
	if err := db.Migrator().DropTable(&models.Notification{}); err != nil {
		t.Fatalf("failed to drop notification table: %v", err)
	}

	result, err := service.ApplyMLValidation(context.Background(), property.ID, admin.ID, MLValidationInput{Action: "approve"})
	if err != nil {
		t.Fatalf("ApplyMLValidation failed: %v", err)
	}

	if result.NewStatus != models.StatusPendingVetting {
		t.Errorf("expected status pending_vetting, got %s", result.NewStatus)
	}
	if result.AuditLogged || result.OwnerNotified {
		t.Errorf("expected failed side effects to be reported, got audit=%v notify=%v", result.AuditLogged, result.OwnerNotified)
	}

	var reloaded models.Property
	if err := db.First(&reloaded, "id = ?", property.ID).Error; err != nil {
		t.Fatalf("failed to reload property: %v", err)
	}
	if reloaded.Status != models.StatusPendingVetting {
		t.Errorf("transition rolled back: status %s", reloaded.Status)
	}
}

func TestDuplicateReviewResolution(t *testing.T) {
	db := setupTestDB(t)
	service := newVerificationService(db)
	owner := createTestUser(t, db, "owner@example.com")
	admin := createTestAdmin(t, db, "admin@example.com")

	cleared := createTestProperty(t, db, owner.ID, models.StatusPendingDuplicateReview)
	db.Model(cleared).Update("flagged_as_duplicate", true)

	result, err := service.ResolveDuplicateReview(context.Background(), cleared.ID, admin.ID, DuplicateReviewInput{
		Action:      "clear",
		ReviewNotes: "different unit in the same estate",
	})
	if err != nil {
		t.Fatalf("ResolveDuplicateReview failed: %v", err)
	}
	if result.NewStatus != models.StatusPendingVetting {
		t.Errorf("expected status pending_vetting, got %s", result.NewStatus)
	}
	if result.Property.FlaggedAsDuplicate {
		t.Error("cleared property should no longer be flagged")
	}

	rejected := createTestProperty(t, db, owner.ID, models.StatusPendingDuplicateReview)

	_, err = service.ResolveDuplicateReview(context.Background(), rejected.ID, admin.ID, DuplicateReviewInput{Action: "reject"})
	if _, ok := IsValidationError(err); !ok {
		t.Errorf("reject without reason: expected validation error, got %v", err)
	}

	result, err = service.ResolveDuplicateReview(context.Background(), rejected.ID, admin.ID, DuplicateReviewInput{
		Action:          "reject",
		RejectionReason: "duplicate of an existing listing",
	})
	if err != nil {
		t.Fatalf("ResolveDuplicateReview failed: %v", err)
	}
	if result.NewStatus != models.StatusRejected {
		t.Errorf("expected status rejected, got %s", result.NewStatus)
	}

	// Resolution only applies to listings parked in duplicate review.
	live := createTestProperty(t, db, owner.ID, models.StatusLive)
	_, err = service.ResolveDuplicateReview(context.Background(), live.ID, admin.ID, DuplicateReviewInput{
		Action:      "clear",
		ReviewNotes: "n/a",
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("resolving a live listing: expected ErrNotFound, got %v", err)
	}
}
