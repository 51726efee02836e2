package repository

import (
	"context"
	"strings"

	"realest/internal/models"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const earthRadiusMeters = 6371000.0

type PropertyRepository struct {
	db *gorm.DB
}

func NewPropertyRepository(db *gorm.DB) *PropertyRepository {
	return &PropertyRepository{db: db}
}

// GetByID retrieves a property by ID
func (r *PropertyRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	var property models.Property
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&property).Error
	if err != nil {
		return nil, err
	}
	return &property, nil
}

// Create persists a new property
func (r *PropertyRepository) Create(ctx context.Context, property *models.Property) error {
	return r.db.WithContext(ctx).Create(property).Error
}

// TransitionStatus applies a status change plus the accompanying field
// updates as a single conditional UPDATE keyed on the expected current
// status. This is the only concurrency control in the pipeline: a raced
// second writer observes zero affected rows and reports not-found instead
// of silently re-applying the transition.
func (r *PropertyRepository) TransitionStatus(
	ctx context.Context,
	id uuid.UUID,
	expected models.PropertyStatus,
	updates map[string]interface{},
) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Property{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(updates)

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

// FindByExactAddress returns other non-rejected properties sharing the same
// address string and state, case-insensitively.
func (r *PropertyRepository) FindByExactAddress(
	ctx context.Context,
	address string,
	state string,
	excludeID uuid.UUID,
	limit int,
) ([]models.Property, error) {
	var properties []models.Property
	err := r.db.WithContext(ctx).
		Where("LOWER(address) = ? AND state = ? AND id <> ? AND status <> ?",
			strings.ToLower(strings.TrimSpace(address)), state, excludeID, models.StatusRejected).
		Limit(limit).
		Find(&properties).Error

	if err != nil {
		return nil, err
	}

	return properties, nil
}

// FindWithinRadius returns other non-rejected properties within radiusMeters
// of the given point. Candidates are prefiltered with the bounding rectangle
// of an s2 cap around the center, then confirmed with the great-circle
// distance so corner hits outside the circle are dropped.
func (r *PropertyRepository) FindWithinRadius(
	ctx context.Context,
	lat float64,
	lng float64,
	radiusMeters float64,
	excludeID uuid.UUID,
) ([]models.Property, error) {
	center := s2.LatLngFromDegrees(lat, lng)
	searchCap := s2.CapFromCenterAngle(s2.PointFromLatLng(center), s1.Angle(radiusMeters/earthRadiusMeters))
	rect := searchCap.RectBound()

	var candidates []models.Property
	err := r.db.WithContext(ctx).
		Where("latitude IS NOT NULL AND longitude IS NOT NULL").
		Where("latitude BETWEEN ? AND ?", s1.Angle(rect.Lat.Lo).Degrees(), s1.Angle(rect.Lat.Hi).Degrees()).
		Where("longitude BETWEEN ? AND ?", s1.Angle(rect.Lng.Lo).Degrees(), s1.Angle(rect.Lng.Hi).Degrees()).
		Where("id <> ? AND status <> ?", excludeID, models.StatusRejected).
		Find(&candidates).Error

	if err != nil {
		return nil, err
	}

	nearby := make([]models.Property, 0, len(candidates))
	for _, candidate := range candidates {
		point := s2.LatLngFromDegrees(*candidate.Latitude, *candidate.Longitude)
		if float64(center.Distance(point))*earthRadiusMeters <= radiusMeters {
			nearby = append(nearby, candidate)
		}
	}

	return nearby, nil
}

// FindByTitleToken returns other non-rejected same-state properties whose
// title contains the given token.
func (r *PropertyRepository) FindByTitleToken(
	ctx context.Context,
	token string,
	state string,
	excludeID uuid.UUID,
	limit int,
) ([]models.Property, error) {
	var properties []models.Property
	err := r.db.WithContext(ctx).
		Where("state = ? AND id <> ? AND status <> ? AND LOWER(title) LIKE ?",
			state, excludeID, models.StatusRejected, "%"+strings.ToLower(token)+"%").
		Limit(limit).
		Find(&properties).Error

	if err != nil {
		return nil, err
	}

	return properties, nil
}

// ListByStatus returns properties in a given pipeline status, oldest first so
// admin queues are worked in submission order.
func (r *PropertyRepository) ListByStatus(
	ctx context.Context,
	status models.PropertyStatus,
	limit int,
	offset int,
) ([]models.Property, int64, error) {
	var properties []models.Property
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Property{}).Where("status = ?", status)
	query.Count(&total)

	err := query.Preload("Owner").
		Order("updated_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&properties).Error

	if err != nil {
		return nil, 0, err
	}

	return properties, total, nil
}

// ListByOwner returns all properties belonging to a user, newest first.
func (r *PropertyRepository) ListByOwner(ctx context.Context, ownerID uint) ([]models.Property, error) {
	var properties []models.Property
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&properties).Error

	if err != nil {
		return nil, err
	}

	return properties, nil
}
