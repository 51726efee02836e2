package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"realest/internal/auth"
	"realest/internal/services"
)

// VerificationHandler exposes the verification pipeline: duplicate checks,
// the ML validation gate and the vetting decision.
type VerificationHandler struct {
	verificationService *services.VerificationService
	duplicateService    *services.DuplicateService
}

func NewVerificationHandler(verificationService *services.VerificationService, duplicateService *services.DuplicateService) *VerificationHandler {
	return &VerificationHandler{
		verificationService: verificationService,
		duplicateService:    duplicateService,
	}
}

// CheckDuplicates runs the three-signal duplicate assessment.
// GET /api/properties/:id/duplicates
func (h *VerificationHandler) CheckDuplicates(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	propertyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid property ID"})
		return
	}

	result, err := h.duplicateService.CheckProperty(c.Request.Context(), propertyID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// UpdateMLValidation records the pre-screen outcome (admin only).
// POST /api/admin/properties/:id/ml-validation
func (h *VerificationHandler) UpdateMLValidation(c *gin.Context) {
	adminID := c.GetUint("admin_id")

	propertyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid property ID"})
		return
	}

	var req services.MLValidationInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.verificationService.ApplyMLValidation(c.Request.Context(), propertyID, adminID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "ML validation recorded",
		"data":    result,
	})
}

// VetProperty applies the terminal human decision (admin only).
// POST /api/admin/properties/:id/vet
func (h *VerificationHandler) VetProperty(c *gin.Context) {
	adminID := c.GetUint("admin_id")

	propertyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid property ID"})
		return
	}

	var req services.VettingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.verificationService.ApplyVettingDecision(c.Request.Context(), propertyID, adminID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Vetting decision recorded",
		"data":    result,
	})
}

// ResolveDuplicateReview clears or rejects a flagged listing (admin only).
// POST /api/admin/properties/:id/duplicate-review
func (h *VerificationHandler) ResolveDuplicateReview(c *gin.Context) {
	adminID := c.GetUint("admin_id")

	propertyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid property ID"})
		return
	}

	var req services.DuplicateReviewInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.verificationService.ResolveDuplicateReview(c.Request.Context(), propertyID, adminID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Duplicate review resolved",
		"data":    result,
	})
}
