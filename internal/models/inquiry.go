package models

import (
	"time"

	"github.com/google/uuid"
)

// Inquiry is a buyer's message about a live listing. The user reference is
// optional so unauthenticated visitors can still reach an owner by email.
type Inquiry struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	PropertyID uuid.UUID  `gorm:"type:uuid;not null;index" json:"property_id"`
	Property   *Property  `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
	UserID     *uint      `gorm:"index" json:"user_id,omitempty"`
	User       *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Email      string     `gorm:"size:255;not null" json:"email"`
	Phone      string     `gorm:"size:30" json:"phone,omitempty"`
	Message    string     `gorm:"type:text;not null" json:"message"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (Inquiry) TableName() string {
	return "inquiries"
}
