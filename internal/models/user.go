package models

import (
	"time"
)

// User represents an account in the system (buyer, owner or agent).
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	FullName     string    `gorm:"size:255" json:"full_name"`
	Phone        string    `gorm:"size:30" json:"phone,omitempty"`
	IsAgent      bool      `gorm:"default:false" json:"is_agent"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}
