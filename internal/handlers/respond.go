package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"realest/internal/services"
)

// respondError maps service errors to HTTP responses. Validation problems
// carry field detail; state conflicts surface as a generic not-found so the
// current pipeline status is not leaked.
func respondError(c *gin.Context, err error) {
	if ve, ok := services.IsValidationError(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "validation failed",
			"fields": ve.Fields,
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Property not found or not in an applicable state"})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
