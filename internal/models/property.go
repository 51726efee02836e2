package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MLValidationStatus is the outcome recorded by the automated pre-screen.
type MLValidationStatus string

const (
	MLValidationPassed         MLValidationStatus = "passed"
	MLValidationFailed         MLValidationStatus = "failed"
	MLValidationReviewRequired MLValidationStatus = "review_required"
)

// Property represents a listing in the marketplace.
type Property struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ReferenceCode string    `gorm:"size:20;uniqueIndex" json:"reference_code"`
	Title         string    `gorm:"size:500;not null" json:"title"`
	Description   string    `gorm:"type:text" json:"description"`
	Address       string    `gorm:"size:500;not null" json:"address"`
	City          string    `gorm:"size:100;index" json:"city"`
	State         string    `gorm:"size:50;not null;index" json:"state"`
	Latitude      *float64  `json:"latitude,omitempty"`
	Longitude     *float64  `json:"longitude,omitempty"`

	Price        decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"price"`
	PropertyType string          `gorm:"size:50;index" json:"property_type"` // apartment, duplex, bungalow, land
	ListingType  string          `gorm:"size:20;default:sale" json:"listing_type"` // sale, rent
	Bedrooms     int             `gorm:"default:0" json:"bedrooms"`
	Bathrooms    int             `gorm:"default:0" json:"bathrooms"`

	OwnerID uint  `gorm:"not null;index" json:"owner_id"`
	Owner   *User `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`

	Status PropertyStatus `gorm:"size:50;not null;default:draft;index" json:"status"`

	// Automated pre-screen metadata
	MLValidationStatus MLValidationStatus `gorm:"size:50" json:"ml_validation_status,omitempty"`
	MLConfidenceScore  *float64           `json:"ml_confidence_score,omitempty"`
	MLValidationNotes  string             `gorm:"type:text" json:"ml_validation_notes,omitempty"`
	MLValidatedAt      *time.Time         `json:"ml_validated_at,omitempty"`

	// Human vetting metadata
	VettedBy        *uint      `gorm:"index" json:"vetted_by,omitempty"`
	VettedAt        *time.Time `json:"vetted_at,omitempty"`
	VerifiedAt      *time.Time `json:"verified_at,omitempty"`
	RejectionReason string     `gorm:"type:text" json:"rejection_reason,omitempty"`
	AdminNotes      string     `gorm:"type:text" json:"admin_notes,omitempty"`

	// Duplicate review metadata
	FlaggedAsDuplicate   bool   `gorm:"default:false" json:"flagged_as_duplicate"`
	DuplicateReviewNotes string `gorm:"type:text" json:"duplicate_review_notes,omitempty"`

	ExpiresAt *time.Time `gorm:"index" json:"expires_at,omitempty"`
	SoldAt    *time.Time `json:"sold_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Property model
func (Property) TableName() string {
	return "properties"
}

// BeforeCreate assigns the property ID when one was not set by the caller.
func (p *Property) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// HasCoordinates reports whether the listing carries a usable geo position.
func (p *Property) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// IsTerminal reports whether the listing has left the verification pipeline.
func (p *Property) IsTerminal() bool {
	switch p.Status {
	case StatusLive, StatusRejected, StatusExpired, StatusSold:
		return true
	}
	return false
}
