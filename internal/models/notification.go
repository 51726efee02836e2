package models

import (
	"time"
)

// Notification types visible to listing owners.
const (
	NotificationPropertyApproved = "property_approved"
	NotificationPropertyRejected = "property_rejected"
	NotificationPropertyFlagged  = "property_flagged"
	NotificationPropertyLive     = "property_live"
	NotificationNewInquiry       = "new_inquiry"
)

// Notification is a message delivered to a user's in-app inbox.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Type      string    `gorm:"size:50;not null" json:"type"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Message   string    `gorm:"type:text" json:"message"`
	Data      JSONB     `gorm:"type:jsonb" json:"data,omitempty"`
	IsRead    bool      `gorm:"default:false;index" json:"is_read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
