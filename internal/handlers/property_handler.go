package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"realest/internal/auth"
	"realest/internal/services"
)

type PropertyHandler struct {
	propertyService *services.PropertyService
	adminService    *services.AdminService
}

func NewPropertyHandler(propertyService *services.PropertyService, adminService *services.AdminService) *PropertyHandler {
	return &PropertyHandler{
		propertyService: propertyService,
		adminService:    adminService,
	}
}

// CreateProperty creates a listing for the authenticated user.
// POST /api/properties
func (h *PropertyHandler) CreateProperty(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req services.CreatePropertyInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	property, err := h.propertyService.Create(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    property,
	})
}

// UpdateProperty edits an owned draft.
// PUT /api/properties/:id
func (h *PropertyHandler) UpdateProperty(c *gin.Context) {
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

	var req services.CreatePropertyInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	property, err := h.propertyService.UpdateDraft(c.Request.Context(), propertyID, userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    property,
	})
}

// SubmitProperty moves an owned draft into the verification pipeline.
// POST /api/properties/:id/submit
func (h *PropertyHandler) SubmitProperty(c *gin.Context) {
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

	property, err := h.propertyService.Submit(c.Request.Context(), propertyID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Property submitted for verification",
		"data":    property,
	})
}

// MarkSold ends an owned live listing.
// POST /api/properties/:id/sold
func (h *PropertyHandler) MarkSold(c *gin.Context) {
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

	property, err := h.propertyService.MarkSold(c.Request.Context(), propertyID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    property,
	})
}

// GetProperty returns a listing the caller may see.
// GET /api/properties/:id
func (h *PropertyHandler) GetProperty(c *gin.Context) {
	propertyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid property ID"})
		return
	}

	// Works for both anonymous and authenticated callers.
	userID, _ := auth.GetUserID(c)
	isAdmin := userID != 0 && h.adminService.IsAdmin(userID)

	property, err := h.propertyService.GetVisible(c.Request.Context(), propertyID, userID, isAdmin)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    property,
	})
}

// SearchProperties returns live listings matching query filters.
// GET /api/properties
func (h *PropertyHandler) SearchProperties(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	minBedrooms, _ := strconv.Atoi(c.DefaultQuery("min_bedrooms", "0"))

	filters := services.SearchFilters{
		State:        c.Query("state"),
		City:         c.Query("city"),
		PropertyType: c.Query("property_type"),
		ListingType:  c.Query("listing_type"),
		MinBedrooms:  minBedrooms,
		Limit:        limit,
		Offset:       offset,
	}

	if raw := c.Query("min_price"); raw != "" {
		if price, err := decimal.NewFromString(raw); err == nil {
			filters.MinPrice = &price
		}
	}
	if raw := c.Query("max_price"); raw != "" {
		if price, err := decimal.NewFromString(raw); err == nil {
			filters.MaxPrice = &price
		}
	}

	properties, total, err := h.propertyService.Search(c.Request.Context(), filters)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search properties"})
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

// GetMyProperties returns all of the caller's listings.
// GET /api/properties/mine
func (h *PropertyHandler) GetMyProperties(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	properties, err := h.propertyService.ListByOwner(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch properties"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    properties,
		"count":   len(properties),
	})
}
