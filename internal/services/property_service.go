package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"realest/internal/models"
	"realest/internal/repository"
	"realest/internal/utils"
)

// PropertyService handles listing CRUD and the owner-side lifecycle
// (submit, mark sold, expiry). Verification transitions live in
// VerificationService.
type PropertyService struct {
	db            *gorm.DB
	repo          *repository.PropertyRepository
	notifications *NotificationService
}

func NewPropertyService(db *gorm.DB, repo *repository.PropertyRepository, notifications *NotificationService) *PropertyService {
	return &PropertyService{
		db:            db,
		repo:          repo,
		notifications: notifications,
	}
}

// CreatePropertyInput is the owner-supplied listing payload.
type CreatePropertyInput struct {
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Address      string          `json:"address"`
	City         string          `json:"city"`
	State        string          `json:"state"`
	Latitude     *float64        `json:"latitude,omitempty"`
	Longitude    *float64        `json:"longitude,omitempty"`
	Price        decimal.Decimal `json:"price"`
	PropertyType string          `json:"property_type"`
	ListingType  string          `json:"listing_type"`
	Bedrooms     int             `json:"bedrooms"`
	Bathrooms    int             `json:"bathrooms"`
	SubmitNow    bool            `json:"submit_now"`
}

// SearchFilters narrows the public listing search. Only live listings are
// ever returned.
type SearchFilters struct {
	State        string
	City         string
	PropertyType string
	ListingType  string
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	MinBedrooms  int
	Limit        int
	Offset       int
}

// Create stores a new listing for the owner. With SubmitNow the listing
// enters the verification pipeline immediately, otherwise it stays a draft.
func (s *PropertyService) Create(ctx context.Context, ownerID uint, in CreatePropertyInput) (*models.Property, error) {
	fields := map[string]string{}
	if in.Title == "" {
		fields["title"] = "required"
	}
	if in.Address == "" {
		fields["address"] = "required"
	}
	if in.State == "" {
		fields["state"] = "required"
	}
	if in.Price.IsNegative() || in.Price.IsZero() {
		fields["price"] = "must be greater than zero"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	refCode, err := utils.GenerateReferenceCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate reference code: %w", err)
	}

	status := models.StatusDraft
	if in.SubmitNow {
		status = models.StatusPendingMLValidation
	}

	listingType := in.ListingType
	if listingType == "" {
		listingType = "sale"
	}

	property := models.Property{
		ReferenceCode: refCode,
		Title:         in.Title,
		Description:   in.Description,
		Address:       in.Address,
		City:          in.City,
		State:         in.State,
		Latitude:      in.Latitude,
		Longitude:     in.Longitude,
		Price:         in.Price,
		PropertyType:  in.PropertyType,
		ListingType:   listingType,
		Bedrooms:      in.Bedrooms,
		Bathrooms:     in.Bathrooms,
		OwnerID:       ownerID,
		Status:        status,
	}

	if err := s.repo.Create(ctx, &property); err != nil {
		return nil, fmt.Errorf("failed to create property: %w", err)
	}

	log.Printf("Property created: %s (%s) by user %d", property.ID, property.ReferenceCode, ownerID)
	return &property, nil
}

// UpdateDraft lets the owner edit a listing that has not entered the
// pipeline. Submitted listings are only mutated by the verification engine.
func (s *PropertyService) UpdateDraft(ctx context.Context, propertyID uuid.UUID, ownerID uint, in CreatePropertyInput) (*models.Property, error) {
	property, err := s.getOwned(ctx, propertyID, ownerID)
	if err != nil {
		return nil, err
	}

	if property.Status != models.StatusDraft {
		return nil, ErrNotFound
	}

	updates := map[string]interface{}{
		"title":         in.Title,
		"description":   in.Description,
		"address":       in.Address,
		"city":          in.City,
		"state":         in.State,
		"latitude":      in.Latitude,
		"longitude":     in.Longitude,
		"price":         in.Price,
		"property_type": in.PropertyType,
		"bedrooms":      in.Bedrooms,
		"bathrooms":     in.Bathrooms,
	}

	if err := s.db.WithContext(ctx).Model(property).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update property: %w", err)
	}

	return s.repo.GetByID(ctx, propertyID)
}

// Submit moves an owner's draft into the verification pipeline.
func (s *PropertyService) Submit(ctx context.Context, propertyID uuid.UUID, ownerID uint) (*models.Property, error) {
	if _, err := s.getOwned(ctx, propertyID, ownerID); err != nil {
		return nil, err
	}

	next, ok := models.NextStatus(models.StatusDraft, models.ActionSubmit)
	if !ok {
		return nil, ErrNotFound
	}

	applied, err := s.repo.TransitionStatus(ctx, propertyID, models.StatusDraft, map[string]interface{}{
		"status": next,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to submit property: %w", err)
	}
	if !applied {
		return nil, ErrNotFound
	}

	return s.repo.GetByID(ctx, propertyID)
}

// MarkSold ends a live listing as sold.
func (s *PropertyService) MarkSold(ctx context.Context, propertyID uuid.UUID, ownerID uint) (*models.Property, error) {
	if _, err := s.getOwned(ctx, propertyID, ownerID); err != nil {
		return nil, err
	}

	next, ok := models.NextStatus(models.StatusLive, models.ActionMarkSold)
	if !ok {
		return nil, ErrNotFound
	}

	applied, err := s.repo.TransitionStatus(ctx, propertyID, models.StatusLive, map[string]interface{}{
		"status":  next,
		"sold_at": time.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to mark property sold: %w", err)
	}
	if !applied {
		return nil, ErrNotFound
	}

	return s.repo.GetByID(ctx, propertyID)
}

// GetVisible returns a listing if the caller may see it: live listings are
// public, everything else is owner-only (admins use the queue endpoints).
func (s *PropertyService) GetVisible(ctx context.Context, propertyID uuid.UUID, callerID uint, isAdmin bool) (*models.Property, error) {
	property, err := s.repo.GetByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load property: %w", err)
	}

	if property.Status == models.StatusLive || property.OwnerID == callerID || isAdmin {
		return property, nil
	}

	return nil, ErrNotFound
}

// Search returns live listings matching the filters.
func (s *PropertyService) Search(ctx context.Context, filters SearchFilters) ([]models.Property, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Property{}).Where("status = ?", models.StatusLive)

	if filters.State != "" {
		query = query.Where("state = ?", filters.State)
	}
	if filters.City != "" {
		query = query.Where("city = ?", filters.City)
	}
	if filters.PropertyType != "" {
		query = query.Where("property_type = ?", filters.PropertyType)
	}
	if filters.ListingType != "" {
		query = query.Where("listing_type = ?", filters.ListingType)
	}
	if filters.MinPrice != nil {
		query = query.Where("price >= ?", filters.MinPrice)
	}
	if filters.MaxPrice != nil {
		query = query.Where("price <= ?", filters.MaxPrice)
	}
	if filters.MinBedrooms > 0 {
		query = query.Where("bedrooms >= ?", filters.MinBedrooms)
	}

	var total int64
	query.Count(&total)

	limit := filters.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var properties []models.Property
	if err := query.Order("verified_at DESC").Limit(limit).Offset(filters.Offset).Find(&properties).Error; err != nil {
		return nil, 0, fmt.Errorf("search failed: %w", err)
	}

	return properties, total, nil
}

// ListByOwner returns all of a user's listings.
func (s *PropertyService) ListByOwner(ctx context.Context, ownerID uint) ([]models.Property, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// ExpireStale marks live listings past their expiry as expired. Each row
// goes through the same conditional update as every other transition.
func (s *PropertyService) ExpireStale(ctx context.Context) (int, error) {
	cutoff := time.Now()

	var stale []models.Property
	if err := s.db.WithContext(ctx).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?", models.StatusLive, cutoff).
		Find(&stale).Error; err != nil {
		return 0, fmt.Errorf("failed to find stale listings: %w", err)
	}

	next, _ := models.NextStatus(models.StatusLive, models.ActionExpire)

	expired := 0
	for _, property := range stale {
		applied, err := s.repo.TransitionStatus(ctx, property.ID, models.StatusLive, map[string]interface{}{
			"status": next,
		})
		if err != nil {
			log.Printf("Warning: failed to expire property %s: %v", property.ID, err)
			continue
		}
		if applied {
			expired++
		}
	}

	return expired, nil
}

func (s *PropertyService) getOwned(ctx context.Context, propertyID uuid.UUID, ownerID uint) (*models.Property, error) {
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

	return property, nil
}
