package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"realest/internal/config"
	"realest/internal/models"
	"realest/internal/repository"
)

// Risk levels summarizing duplicate-signal strength.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

var riskRecommendations = map[string][]string{
	RiskLow: {
		"No duplicate signals found. The listing can proceed through normal vetting.",
	},
	RiskMedium: {
		"One or more similar listings exist. Compare photos and ownership documents during vetting.",
		"Contact the owner to confirm the unit is distinct before approving.",
	},
	RiskHigh: {
		"Strong duplicate signals across multiple checks. Flag for duplicate review before vetting.",
		"Verify ownership documents against the matching listings.",
		"Request fresh photos with identifiable surroundings.",
	},
}

// Common words that carry no signal in Nigerian listing titles.
var titleStopwords = map[string]bool{
	"property": true, "house": true, "home": true, "land": true,
	"sale": true, "rent": true, "lease": true, "with": true,
	"bedroom": true, "bathroom": true, "luxury": true, "newly": true,
	"built": true, "furnished": true, "serviced": true, "spacious": true,
}

// DuplicateCandidates groups the three signal result sets. The sets are
// non-exclusive: one listing can appear in more than one of them.
type DuplicateCandidates struct {
	ExactAddress     []models.Property `json:"exact_address"`
	NearbyProperties []models.Property `json:"nearby_properties"`
	SimilarTitles    []models.Property `json:"similar_titles"`
}

// DuplicateCheckResult is the full duplicate assessment for one listing.
// It is computed fresh on every request and never persisted.
type DuplicateCheckResult struct {
	RiskLevel       string              `json:"risk_level"`
	TotalDuplicates int                 `json:"total_duplicates"`
	Duplicates      DuplicateCandidates `json:"duplicates"`
	Recommendations []string            `json:"recommendations"`
}

// DuplicateService runs the three similarity signals against the property
// store and aggregates them into a risk classification. It is read-only.
type DuplicateService struct {
	repo   *repository.PropertyRepository
	admins *AdminService
	policy config.VerificationPolicy
}

func NewDuplicateService(repo *repository.PropertyRepository, admins *AdminService, policy config.VerificationPolicy) *DuplicateService {
	return &DuplicateService{
		repo:   repo,
		admins: admins,
		policy: policy,
	}
}

// CheckProperty computes the duplicate assessment for a listing. Only the
// owner or an admin may run it.
func (s *DuplicateService) CheckProperty(ctx context.Context, propertyID uuid.UUID, callerID uint) (*DuplicateCheckResult, error) {
	property, err := s.repo.GetByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load property: %w", err)
	}

	if property.OwnerID != callerID && !s.admins.IsAdmin(callerID) {
		return nil, ErrForbidden
	}

	result := &DuplicateCheckResult{}

	exact, err := s.repo.FindByExactAddress(ctx, property.Address, property.State, property.ID, s.policy.ExactAddressLimit)
	if err != nil {
		return nil, fmt.Errorf("exact address check failed: %w", err)
	}
	result.Duplicates.ExactAddress = exact

	// The geo signal is skipped entirely when the listing has no coordinates.
	if property.HasCoordinates() {
		nearby, err := s.repo.FindWithinRadius(ctx, *property.Latitude, *property.Longitude, s.policy.DuplicateRadiusMeters, property.ID)
		if err != nil {
			return nil, fmt.Errorf("proximity check failed: %w", err)
		}
		result.Duplicates.NearbyProperties = nearby
	} else {
		result.Duplicates.NearbyProperties = []models.Property{}
	}

	if token := s.firstSignificantToken(property.Title); token != "" {
		similar, err := s.repo.FindByTitleToken(ctx, token, property.State, property.ID, s.policy.SimilarTitleLimit)
		if err != nil {
			return nil, fmt.Errorf("title similarity check failed: %w", err)
		}
		result.Duplicates.SimilarTitles = similar
	} else {
		result.Duplicates.SimilarTitles = []models.Property{}
	}

	result.TotalDuplicates = len(result.Duplicates.ExactAddress) +
		len(result.Duplicates.NearbyProperties) +
		len(result.Duplicates.SimilarTitles)
	result.RiskLevel = classifyRisk(result.TotalDuplicates)
	result.Recommendations = riskRecommendations[result.RiskLevel]

	return result, nil
}

// classifyRisk buckets the combined signal count. The buckets are exhaustive
// and mutually exclusive: high iff total >= 3, medium iff 1 <= total <= 2,
// low iff total == 0.
func classifyRisk(total int) string {
	switch {
	case total >= 3:
		return RiskHigh
	case total >= 1:
		return RiskMedium
	default:
		return RiskLow
	}
}

// firstSignificantToken returns the first title token that survives the
// stopword list and the minimum length policy, lowercased.
func (s *DuplicateService) firstSignificantToken(title string) string {
	for _, token := range strings.Fields(title) {
		token = strings.ToLower(strings.Trim(token, ".,;:!?()[]\"'"))
		if len(token) < s.policy.MinTitleTokenLength {
			continue
		}
		if titleStopwords[token] {
			continue
		}
		return token
	}
	return ""
}
