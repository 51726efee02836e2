package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"realest/internal/models"
	"realest/internal/repository"
)

// Default confidence scores recorded when the caller does not supply one.
// These stand in for a real scoring service and carry no product meaning.
const (
	DefaultApproveConfidence = 0.8
	DefaultRejectConfidence  = 0.0
	DefaultFlagConfidence    = 0.5
)

const fallbackMLRejectionReason = "Failed ML validation"

// VerificationService owns every status transition in the listing pipeline:
// the automated pre-screen gate, the human vetting decision and the
// duplicate-review resolution. All transitions go through the status table in
// models and the repository's conditional update.
type VerificationService struct {
	repo           *repository.PropertyRepository
	admins         *AdminService
	notifications  *NotificationService
	listingTTLDays int
}

func NewVerificationService(repo *repository.PropertyRepository, admins *AdminService, notifications *NotificationService, listingTTLDays int) *VerificationService {
	return &VerificationService{
		repo:           repo,
		admins:         admins,
		notifications:  notifications,
		listingTTLDays: listingTTLDays,
	}
}

// MLValidationInput is the pre-screen outcome recorded by an admin.
type MLValidationInput struct {
	Action          string   `json:"action"` // approve, reject, flag_duplicate
	ConfidenceScore *float64 `json:"ml_confidence_score,omitempty"`
	ValidationNotes string   `json:"ml_validation_notes,omitempty"`
	AdminNotes      string   `json:"admin_notes,omitempty"`
}

// VettingInput is the terminal human decision on a pending listing.
type VettingInput struct {
	Status          string     `json:"status"` // live, rejected
	RejectionReason string     `json:"rejection_reason,omitempty"`
	AdminNotes      string     `json:"admin_notes,omitempty"`
	VerifiedAt      *time.Time `json:"verified_at,omitempty"`
}

// DuplicateReviewInput resolves a listing parked in duplicate review.
type DuplicateReviewInput struct {
	Action          string `json:"action"` // clear, reject
	ReviewNotes     string `json:"review_notes,omitempty"`
	RejectionReason string `json:"rejection_reason,omitempty"`
}

// TransitionResult reports a completed status change. The side-effect flags
// distinguish "transition committed" from "audit/notification also landed";
// a false flag means the failure was logged but the transition stands.
type TransitionResult struct {
	Property      *models.Property      `json:"property"`
	OldStatus     models.PropertyStatus `json:"old_status"`
	NewStatus     models.PropertyStatus `json:"new_status"`
	AuditLogged   bool                  `json:"audit_logged"`
	OwnerNotified bool                  `json:"owner_notified"`
}

// ApplyMLValidation records the automated pre-screen outcome and advances the
// listing out of pending_ml_validation. Exactly one of the three actions is
// applied per call; a listing in any other status fails with ErrNotFound.
func (s *VerificationService) ApplyMLValidation(ctx context.Context, propertyID uuid.UUID, adminID uint, in MLValidationInput) (*TransitionResult, error) {
	action, err := mlAction(in.Action)
	if err != nil {
		return nil, err
	}

	if in.ConfidenceScore != nil && (*in.ConfidenceScore < 0 || *in.ConfidenceScore > 1) {
		return nil, newValidationError("ml_confidence_score", "must be between 0 and 1")
	}

	property, err := s.repo.GetByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load property: %w", err)
	}

	if property.Status != models.StatusPendingMLValidation {
		return nil, ErrNotFound
	}

	nextStatus, ok := models.NextStatus(models.StatusPendingMLValidation, action)
	if !ok {
		return nil, ErrNotFound
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":              nextStatus,
		"ml_validation_notes": in.ValidationNotes,
		"ml_validated_at":     now,
		"admin_notes":         in.AdminNotes,
	}

	switch action {
	case models.ActionMLApprove:
		updates["ml_validation_status"] = models.MLValidationPassed
		updates["ml_confidence_score"] = confidenceOrDefault(in.ConfidenceScore, DefaultApproveConfidence)
	case models.ActionMLReject:
		updates["ml_validation_status"] = models.MLValidationFailed
		updates["ml_confidence_score"] = confidenceOrDefault(in.ConfidenceScore, DefaultRejectConfidence)
		reason := in.AdminNotes
		if reason == "" {
			reason = fallbackMLRejectionReason
		}
		updates["rejection_reason"] = reason
	case models.ActionMLFlagDuplicate:
		updates["ml_validation_status"] = models.MLValidationReviewRequired
		updates["ml_confidence_score"] = confidenceOrDefault(in.ConfidenceScore, DefaultFlagConfidence)
		updates["flagged_as_duplicate"] = true
	}

	applied, err := s.repo.TransitionStatus(ctx, propertyID, models.StatusPendingMLValidation, updates)
	if err != nil {
		return nil, fmt.Errorf("failed to update property: %w", err)
	}
	if !applied {
		return nil, ErrNotFound
	}

	updated, err := s.repo.GetByID(ctx, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload property: %w", err)
	}

	result := &TransitionResult{
		Property:  updated,
		OldStatus: models.StatusPendingMLValidation,
		NewStatus: updated.Status,
	}

	s.recordSideEffects(result, adminID, models.ActionTypeMLValidationUpdate, map[string]interface{}{
		"action":              in.Action,
		"old_status":          string(models.StatusPendingMLValidation),
		"new_status":          string(updated.Status),
		"ml_confidence_score": updates["ml_confidence_score"],
		"notes":               in.ValidationNotes,
	})

	return result, nil
}

// ApplyVettingDecision converts pending_vetting into live or rejected. The
// conditional update makes a raced second decision fail with ErrNotFound
// instead of re-applying.
func (s *VerificationService) ApplyVettingDecision(ctx context.Context, propertyID uuid.UUID, adminID uint, in VettingInput) (*TransitionResult, error) {
	var action models.VerificationAction
	switch models.PropertyStatus(in.Status) {
	case models.StatusLive:
		action = models.ActionVetApprove
	case models.StatusRejected:
		action = models.ActionVetReject
	default:
		return nil, newValidationError("status", "must be live or rejected")
	}

	if action == models.ActionVetReject && in.RejectionReason == "" {
		return nil, newValidationError("rejection_reason", "required when rejecting a property")
	}

	property, err := s.repo.GetByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load property: %w", err)
	}

	if property.Status != models.StatusPendingVetting {
		return nil, ErrNotFound
	}

	nextStatus, ok := models.NextStatus(models.StatusPendingVetting, action)
	if !ok {
		return nil, ErrNotFound
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":      nextStatus,
		"vetted_by":   adminID,
		"vetted_at":   now,
		"admin_notes": in.AdminNotes,
	}

	if action == models.ActionVetApprove {
		verifiedAt := now
		if in.VerifiedAt != nil {
			verifiedAt = *in.VerifiedAt
		}
		updates["verified_at"] = verifiedAt
		if s.listingTTLDays > 0 {
			updates["expires_at"] = verifiedAt.AddDate(0, 0, s.listingTTLDays)
		}
	} else {
		updates["rejection_reason"] = in.RejectionReason
	}

	applied, err := s.repo.TransitionStatus(ctx, propertyID, models.StatusPendingVetting, updates)
	if err != nil {
		return nil, fmt.Errorf("failed to update property: %w", err)
	}
	if !applied {
		return nil, ErrNotFound
	}

	updated, err := s.repo.GetByID(ctx, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload property: %w", err)
	}

	result := &TransitionResult{
		Property:  updated,
		OldStatus: models.StatusPendingVetting,
		NewStatus: updated.Status,
	}

	s.recordSideEffects(result, adminID, models.ActionTypePropertyVetting, map[string]interface{}{
		"old_status":       string(models.StatusPendingVetting),
		"new_status":       string(updated.Status),
		"rejection_reason": in.RejectionReason,
		"notes":            in.AdminNotes,
	})

	return result, nil
}

// ResolveDuplicateReview clears a flagged listing back into the vetting queue
// or rejects it outright.
func (s *VerificationService) ResolveDuplicateReview(ctx context.Context, propertyID uuid.UUID, adminID uint, in DuplicateReviewInput) (*TransitionResult, error) {
	var action models.VerificationAction
	switch in.Action {
	case "clear":
		action = models.ActionDuplicateClear
	case "reject":
		action = models.ActionDuplicateReject
	default:
		return nil, newValidationError("action", "must be clear or reject")
	}

	if action == models.ActionDuplicateReject && in.RejectionReason == "" {
		return nil, newValidationError("rejection_reason", "required when rejecting a property")
	}

	if _, err := s.repo.GetByID(ctx, propertyID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load property: %w", err)
	}

	expected, ok := models.SourceStatus(action)
	if !ok {
		return nil, ErrNotFound
	}

	nextStatus, ok := models.NextStatus(expected, action)
	if !ok {
		return nil, ErrNotFound
	}

	updates := map[string]interface{}{
		"status":                 nextStatus,
		"duplicate_review_notes": in.ReviewNotes,
	}

	if action == models.ActionDuplicateClear {
		updates["flagged_as_duplicate"] = false
	} else {
		updates["rejection_reason"] = in.RejectionReason
		updates["vetted_by"] = adminID
		updates["vetted_at"] = time.Now()
	}

	applied, err := s.repo.TransitionStatus(ctx, propertyID, expected, updates)
	if err != nil {
		return nil, fmt.Errorf("failed to update property: %w", err)
	}
	if !applied {
		return nil, ErrNotFound
	}

	updated, err := s.repo.GetByID(ctx, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload property: %w", err)
	}

	result := &TransitionResult{
		Property:  updated,
		OldStatus: expected,
		NewStatus: updated.Status,
	}

	s.recordSideEffects(result, adminID, models.ActionTypeDuplicateReview, map[string]interface{}{
		"action":           in.Action,
		"old_status":       string(expected),
		"new_status":       string(updated.Status),
		"rejection_reason": in.RejectionReason,
		"notes":            in.ReviewNotes,
	})

	return result, nil
}

// recordSideEffects appends the audit entry and the owner notification.
// Both are best-effort: failures are logged and reflected on the result but
// never roll back the committed transition.
func (s *VerificationService) recordSideEffects(result *TransitionResult, adminID uint, actionType string, details map[string]interface{}) {
	id := result.Property.ID
	if err := s.admins.LogAction(adminID, actionType, "PROPERTY", &id, details); err != nil {
		log.Printf("Warning: audit log write failed for property %s: %v", id, err)
	} else {
		result.AuditLogged = true
	}

	notifType, title, message := ownerNotification(result.Property)
	if notifType == "" {
		result.OwnerNotified = true
		return
	}

	data := map[string]interface{}{
		"property_id": id.String(),
		"old_status":  string(result.OldStatus),
		"new_status":  string(result.NewStatus),
	}
	if err := s.notifications.Create(result.Property.OwnerID, notifType, title, message, data); err != nil {
		log.Printf("Warning: owner notification failed for property %s: %v", id, err)
	} else {
		result.OwnerNotified = true
	}
}

// ownerNotification builds the owner-facing message for a status change.
func ownerNotification(property *models.Property) (notifType, title, message string) {
	switch property.Status {
	case models.StatusPendingVetting:
		return models.NotificationPropertyApproved,
			"Listing passed automated checks",
			fmt.Sprintf("Your property %q passed automated checks and is awaiting review.", property.Title)
	case models.StatusPendingDuplicateReview:
		return models.NotificationPropertyFlagged,
			"Listing needs additional review",
			fmt.Sprintf("Your property %q was flagged as a possible duplicate and needs additional review.", property.Title)
	case models.StatusLive:
		return models.NotificationPropertyLive,
			"Listing is live",
			fmt.Sprintf("Your property %q has been verified and is now live.", property.Title)
	case models.StatusRejected:
		return models.NotificationPropertyRejected,
			"Listing rejected",
			fmt.Sprintf("Your property %q was rejected: %s", property.Title, property.RejectionReason)
	}
	return "", "", ""
}

func mlAction(action string) (models.VerificationAction, error) {
	switch action {
	case "approve":
		return models.ActionMLApprove, nil
	case "reject":
		return models.ActionMLReject, nil
	case "flag_duplicate":
		return models.ActionMLFlagDuplicate, nil
	}
	return "", newValidationError("action", "must be one of approve, reject, flag_duplicate")
}

func confidenceOrDefault(score *float64, fallback float64) float64 {
	if score != nil {
		return *score
	}
	return fallback
}
