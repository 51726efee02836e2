package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"realest/internal/auth"
	"realest/internal/services"
)

type InquiryHandler struct {
	inquiryService *services.InquiryService
}

func NewInquiryHandler(inquiryService *services.InquiryService) *InquiryHandler {
	return &InquiryHandler{inquiryService: inquiryService}
}

// CreateInquiry records an inquiry on a live listing. Works for both
// anonymous and authenticated callers.
// POST /api/properties/:id/inquiries
func (h *InquiryHandler) CreateInquiry(c *gin.Context) {
	propertyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid property ID"})
		return
	}

	var req services.CreateInquiryInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var userID *uint
	if id, ok := auth.GetUserID(c); ok {
		userID = &id
	}

	inquiry, err := h.inquiryService.Create(c.Request.Context(), propertyID, userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    inquiry,
	})
}

// GetPropertyInquiries lists inquiries on an owned listing.
// GET /api/properties/:id/inquiries
func (h *InquiryHandler) GetPropertyInquiries(c *gin.Context) {
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

	inquiries, err := h.inquiryService.ListForProperty(c.Request.Context(), propertyID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    inquiries,
		"count":   len(inquiries),
	})
}

// GetMyInquiries lists inquiries across all of the caller's listings.
// GET /api/inquiries
func (h *InquiryHandler) GetMyInquiries(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	inquiries, err := h.inquiryService.ListForOwner(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch inquiries"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    inquiries,
		"count":   len(inquiries),
	})
}
