package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// JSONB for PostgreSQL JSON support
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, &j)
}

// Admin roles.
const (
	RoleSuperAdmin = "SUPER_ADMIN"
	RoleModerator  = "MODERATOR"
	RoleAnalyst    = "ANALYST"
)

// AdminUser represents a user with administrative permissions
type AdminUser struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	User        *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role        string    `gorm:"size:20;not null" json:"role"` // SUPER_ADMIN, MODERATOR, ANALYST
	Permissions JSONB     `gorm:"type:jsonb" json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (AdminUser) TableName() string {
	return "admin_users"
}

// Admin action types recorded in the audit trail.
const (
	ActionTypeMLValidationUpdate = "ml_validation_update"
	ActionTypePropertyVetting    = "property_vetting"
	ActionTypeDuplicateReview    = "duplicate_review"
	ActionTypePromoteUser        = "promote_user"
)

// AdminActionLog records admin actions for the audit trail. Rows are
// append-only; nothing updates or deletes them.
type AdminActionLog struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	AdminID      uint       `gorm:"not null;index" json:"admin_id"`
	Admin        *AdminUser `gorm:"foreignKey:AdminID" json:"admin,omitempty"`
	Action       string     `gorm:"size:100;not null" json:"action"`
	ResourceType string     `gorm:"size:50" json:"resource_type"`
	ResourceID   *uuid.UUID `gorm:"type:uuid" json:"resource_id,omitempty"`
	Details      JSONB      `gorm:"type:jsonb" json:"details"`
	CreatedAt    time.Time  `json:"created_at"`
}

func (AdminActionLog) TableName() string {
	return "admin_action_logs"
}
