package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"realest/internal/models"
	"realest/internal/repository"
	"realest/internal/services"
)

type AdminHandler struct {
	adminService *services.AdminService
	repo         *repository.PropertyRepository
}

func NewAdminHandler(adminService *services.AdminService, repo *repository.PropertyRepository) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		repo:         repo,
	}
}

// AdminMiddleware checks if user is admin
func (h *AdminHandler) AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("user_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		admin, err := h.adminService.GetAdminByUserID(userID.(uint))
		if err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "Not an admin"})
			c.Abort()
			return
		}

		c.Set("admin_id", admin.ID)
		c.Set("admin_role", admin.Role)
		c.Next()
	}
}

// SuperAdminMiddleware checks if user is super admin
func (h *AdminHandler) SuperAdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("user_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		if _, err := h.adminService.RequireRole(userID.(uint), models.RoleSuperAdmin); err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "Super admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetDashboard returns the verification pipeline summary.
// GET /api/admin/dashboard
func (h *AdminHandler) GetDashboard(c *gin.Context) {
	counts, err := h.adminService.GetDashboardCounts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute dashboard"})
		return
	}

	recentLogs, _ := h.adminService.GetActionLogs(10, 0)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"counts":      counts,
			"recent_logs": recentLogs,
		},
	})
}

// GetQueue returns properties awaiting a given pipeline stage.
// GET /api/admin/properties/queue?status=pending_vetting
func (h *AdminHandler) GetQueue(c *gin.Context) {
	status := models.PropertyStatus(c.DefaultQuery("status", string(models.StatusPendingVetting)))

	switch status {
	case models.StatusPendingMLValidation, models.StatusPendingVetting, models.StatusPendingDuplicateReview:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid queue status"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	properties, total, err := h.repo.ListByStatus(c.Request.Context(), status, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch queue"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    properties,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

// GetActionLogs returns the audit trail.
// GET /api/admin/logs
func (h *AdminHandler) GetActionLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	logs, err := h.adminService.GetActionLogs(limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    logs,
	})
}

// PromoteToAdmin promotes a user to admin (super admin only).
// POST /api/admin/users/promote
func (h *AdminHandler) PromoteToAdmin(c *gin.Context) {
	adminID := c.GetUint("admin_id")

	var req struct {
		UserID uint   `json:"user_id" binding:"required"`
		Role   string `json:"role" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Role != models.RoleSuperAdmin && req.Role != models.RoleModerator && req.Role != models.RoleAnalyst {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
		return
	}

	admin, err := h.adminService.PromoteUserToAdmin(req.UserID, req.Role, adminID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    admin,
	})
}
