package handler

import (
	"context"
	"errors"
	"net/http"

	"clustering-api/internal/address"
	"clustering-api/internal/geocoding"
	"clustering-api/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// GeoCodeHandler handles single-address resolution requests
type GeoCodeHandler struct {
	service GeoCodeService
}

// Service interface for dependency injection
type GeoCodeService interface {
	ResolveOne(context.Context, string) (*models.Location, error)
}

// NewGeoCodeHandler creates a new geocode handler
func NewGeoCodeHandler(svc GeoCodeService) *GeoCodeHandler {
	return &GeoCodeHandler{service: svc}
}

// GeoCode handles GET /geocode requests
func (h *GeoCodeHandler) GeoCode(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required query parameter 'q'"})
		return
	}

	location, err := h.service.ResolveOne(c.Request.Context(), query)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, location)
	case errors.Is(err, address.ErrNotParseable):
		c.JSON(http.StatusBadRequest, gin.H{"error": "address not parseable"})
	case errors.Is(err, geocoding.ErrGeocodeFailure):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "address could not be geocoded"})
	default:
		log.Error().Err(err).Str("address", query).Msg("geocode request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// Normalize handles GET /addresses/normalize requests
func Normalize(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required query parameter 'q'"})
		return
	}

	addr, err := address.Normalize(query)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "address not parseable"})
		return
	}

	c.JSON(http.StatusOK, addr)
}
