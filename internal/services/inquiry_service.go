package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"realest/internal/models"
	"realest/internal/repository"
)

// InquiryService records buyer inquiries on live listings and notifies the
// owner.
type InquiryService struct {
	db            *gorm.DB
	repo          *repository.PropertyRepository
	notifications *NotificationService
}

func NewInquiryService(db *gorm.DB, repo *repository.PropertyRepository, notifications *NotificationService) *InquiryService {
	return &InquiryService{
		db:            db,
		repo:          repo,
		notifications: notifications,
	}
}

// CreateInquiryInput is the buyer's message payload.
type CreateInquiryInput struct {
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// Create records an inquiry against a live listing. userID is nil for
// unauthenticated visitors.
func (s *InquiryService) Create(ctx context.Context, propertyID uuid.UUID, userID *uint, in CreateInquiryInput) (*models.Inquiry, error) {
	fields := map[string]string{}
	if in.Email == "" {
		fields["email"] = "required"
	}
	if in.Message == "" {
		fields["message"] = "required"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	property, err := s.repo.GetByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load property: %w", err)
	}

	if property.Status != models.StatusLive {
		return nil, ErrNotFound
	}

	inquiry := models.Inquiry{
		PropertyID: propertyID,
		UserID:     userID,
		Email:      in.Email,
		Phone:      in.Phone,
		Message:    in.Message,
	}

	if err := s.db.WithContext(ctx).Create(&inquiry).Error; err != nil {
		return nil, fmt.Errorf("failed to create inquiry: %w", err)
	}

	// Best-effort owner notification
	if err := s.notifications.Create(property.OwnerID, models.NotificationNewInquiry,
		"New inquiry on your listing",
		fmt.Sprintf("Someone is interested in %q. Reply to %s.", property.Title, in.Email),
		map[string]interface{}{
			"property_id": propertyID.String(),
			"inquiry_id":  inquiry.ID,
		}); err != nil {
		log.Printf("Warning: inquiry notification failed for property %s: %v", propertyID, err)
	}

	return &inquiry, nil
}

// ListForProperty returns inquiries on a listing, owner-only.
func (s *InquiryService) ListForProperty(ctx context.Context, propertyID uuid.UUID, ownerID uint) ([]models.Inquiry, error) {
	property, err := s.repo.GetByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load property: %w", err)
	}

	if property.OwnerID != ownerID {
		return nil, ErrForbidden
	}

	var inquiries []models.Inquiry
	if err := s.db.WithContext(ctx).
		Where("property_id = ?", propertyID).
		Order("created_at DESC").
		Find(&inquiries).Error; err != nil {
		return nil, fmt.Errorf("failed to list inquiries: %w", err)
	}

	return inquiries, nil
}

// ListForOwner returns every inquiry across a user's listings.
func (s *InquiryService) ListForOwner(ctx context.Context, ownerID uint) ([]models.Inquiry, error) {
	var inquiries []models.Inquiry
	err := s.db.WithContext(ctx).
		Joins("JOIN properties ON properties.id = inquiries.property_id").
		Where("properties.owner_id = ?", ownerID).
		Preload("Property").
		Order("inquiries.created_at DESC").
		Find(&inquiries).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list inquiries: %w", err)
	}

	return inquiries, nil
}
