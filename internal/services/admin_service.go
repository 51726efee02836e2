package services

import (
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"realest/internal/models"
)

type AdminService struct {
	db *gorm.DB
	mu sync.Mutex
}

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{
		db: db,
	}
}

// IsAdmin checks if a user is an admin
func (s *AdminService) IsAdmin(userID uint) bool {
	var admin models.AdminUser
	result := s.db.Where("user_id = ?", userID).First(&admin)
	return result.Error == nil
}

// GetAdminByUserID gets admin by user ID
func (s *AdminService) GetAdminByUserID(userID uint) (*models.AdminUser, error) {
	var admin models.AdminUser
	if err := s.db.Where("user_id = ?", userID).First(&admin).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

// RequireRole is the single authorization predicate used before any
// privileged transition. SUPER_ADMIN satisfies every role check.
func (s *AdminService) RequireRole(userID uint, role string) (*models.AdminUser, error) {
	admin, err := s.GetAdminByUserID(userID)
	if err != nil {
		return nil, ErrForbidden
	}

	if admin.Role != role && admin.Role != models.RoleSuperAdmin {
		return nil, ErrForbidden
	}

	return admin, nil
}

// PromoteUserToAdmin promotes a user to admin
func (s *AdminService) PromoteUserToAdmin(userID uint, role string, promotedByAdminID uint) (*models.AdminUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Check if user exists
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	// Check if already admin
	var existing models.AdminUser
	if err := s.db.Where("user_id = ?", userID).First(&existing).Error; err == nil {
		return nil, fmt.Errorf("user is already an admin")
	}

	permissions := models.JSONB{
		"manage_users":      true,
		"manage_properties": true,
		"vet_properties":    role == models.RoleSuperAdmin || role == models.RoleModerator,
		"view_analytics":    true,
	}

	adminUser := models.AdminUser{
		UserID:      userID,
		Role:        role,
		Permissions: permissions,
	}

	if err := s.db.Create(&adminUser).Error; err != nil {
		return nil, fmt.Errorf("failed to promote user: %w", err)
	}

	s.LogAction(promotedByAdminID, models.ActionTypePromoteUser, "USER", nil, map[string]interface{}{
		"user_id": userID,
		"role":    role,
	})

	log.Printf("User %d promoted to %s", userID, role)
	return &adminUser, nil
}

// LogAction appends an entry to the audit trail. Failures are returned to
// the caller so transition results can report them, but callers never treat
// them as fatal.
func (s *AdminService) LogAction(adminID uint, action string, resourceType string,
	resourceID *uuid.UUID, details map[string]interface{}) error {

	entry := models.AdminActionLog{
		AdminID:      adminID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Details:      models.JSONB(details),
	}

	return s.db.Create(&entry).Error
}

// GetActionLogs returns audit trail entries, newest first
func (s *AdminService) GetActionLogs(limit int, offset int) ([]models.AdminActionLog, error) {
	var logs []models.AdminActionLog
	if err := s.db.Preload("Admin").Preload("Admin.User").
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// DashboardCounts summarizes the verification pipeline for the admin home.
type DashboardCounts struct {
	TotalProperties  int64 `json:"total_properties"`
	PendingML        int64 `json:"pending_ml_validation"`
	PendingVetting   int64 `json:"pending_vetting"`
	DuplicateReview  int64 `json:"pending_duplicate_review"`
	Live             int64 `json:"live"`
	Rejected         int64 `json:"rejected"`
	TotalUsers       int64 `json:"total_users"`
	TotalInquiries   int64 `json:"total_inquiries"`
}

// GetDashboardCounts computes the pipeline summary
func (s *AdminService) GetDashboardCounts() (*DashboardCounts, error) {
	var counts DashboardCounts

	s.db.Model(&models.Property{}).Count(&counts.TotalProperties)
	s.db.Model(&models.Property{}).Where("status = ?", models.StatusPendingMLValidation).Count(&counts.PendingML)
	s.db.Model(&models.Property{}).Where("status = ?", models.StatusPendingVetting).Count(&counts.PendingVetting)
	s.db.Model(&models.Property{}).Where("status = ?", models.StatusPendingDuplicateReview).Count(&counts.DuplicateReview)
	s.db.Model(&models.Property{}).Where("status = ?", models.StatusLive).Count(&counts.Live)
	s.db.Model(&models.Property{}).Where("status = ?", models.StatusRejected).Count(&counts.Rejected)
	s.db.Model(&models.User{}).Count(&counts.TotalUsers)
	s.db.Model(&models.Inquiry{}).Count(&counts.TotalInquiries)

	return &counts, nil
}
