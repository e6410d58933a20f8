package handler

import (
	"context"
	"errors"
	"net/http"

	"clustering-api/internal/cluster"
	"clustering-api/internal/models"
	"clustering-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ClusterHandler handles ticket clustering requests
type ClusterHandler struct {
	service ClusterService
}

// ClusterService interface for dependency injection
type ClusterService interface {
	Run(context.Context, []models.RawTicket, models.ClusterOverrides) (*models.ClusterResult, error)
}

type clusterRequest struct {
	Tickets []models.RawTicket `json:"tickets" binding:"required,dive"`
	models.ClusterOverrides
}

// NewClusterHandler creates a new cluster handler
func NewClusterHandler(svc ClusterService) *ClusterHandler {
	return &ClusterHandler{service: svc}
}

// Cluster handles POST /clusters requests
func (h *ClusterHandler) Cluster(c *gin.Context) {
	var req clusterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.service.Run(c.Request.Context(), req.Tickets, req.ClusterOverrides)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, result)
	case errors.Is(err, cluster.ErrInvalidConfiguration):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid clustering configuration"})
	case errors.Is(err, service.ErrNoLocationsResolved):
		body := gin.H{"error": "no ticket address could be resolved"}
		if result != nil {
			body["failed_addresses"] = result.FailedAddresses
			body["unassigned"] = result.Unassigned
		}
		c.JSON(http.StatusUnprocessableEntity, body)
	default:
		log.Error().Err(err).Int("tickets", len(req.Tickets)).Msg("cluster request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
