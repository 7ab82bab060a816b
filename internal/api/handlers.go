package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/megbaru-hub/teffexpo/internal/apperr"
	"github.com/megbaru-hub/teffexpo/internal/catalog"
	"github.com/megbaru-hub/teffexpo/internal/fulfillment"
	"github.com/megbaru-hub/teffexpo/internal/logging"
	"github.com/megbaru-hub/teffexpo/internal/models"
	"github.com/megbaru-hub/teffexpo/internal/storage"
)

const requestTimeout = 10 * time.Second

// HealthChecker reports whether the backing store is reachable
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Handler holds the services and provides HTTP handlers
type Handler struct {
	orders  *fulfillment.Service
	catalog *catalog.Service
	proofs  *storage.ProofStore
	health  HealthChecker
}

// NewHandler creates a new handler instance. proofs may be nil when uploads are disabled.
func NewHandler(orders *fulfillment.Service, catalogSvc *catalog.Service, proofs *storage.ProofStore, health HealthChecker) *Handler {
	return &Handler{
		orders:  orders,
		catalog: catalogSvc,
		proofs:  proofs,
		health:  health,
	}
}

// Health checks the health of the service
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if h.health != nil {
		if err := h.health.Health(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
				Error:   "Database connection failed",
				Message: err.Error(),
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "teff-service",
		"timestamp": time.Now().UTC(),
	})
}

// respondError maps a service error onto the response envelope.
func respondError(c *gin.Context, action string, err error) {
	kind := apperr.KindOf(err)
	status, title := http.StatusInternalServerError, action
	switch kind {
	case apperr.KindNotFound:
		status, title = http.StatusNotFound, "Not found"
	case apperr.KindForbidden:
		status, title = http.StatusForbidden, "Forbidden"
	case apperr.KindInvalidInput:
		status, title = http.StatusBadRequest, "Invalid request"
	case apperr.KindOutOfStock:
		status, title = http.StatusBadRequest, "Insufficient stock"
	case apperr.KindInvalidState:
		status, title = http.StatusBadRequest, "Invalid order state"
	case apperr.KindInvalidMerchant:
		status, title = http.StatusBadRequest, "Invalid merchant"
	}

	if status == http.StatusInternalServerError {
		fields := map[string]interface{}{
			"action": action,
			"path":   c.FullPath(),
			"error":  err.Error(),
		}
		if userID, ok := GetUserID(c); ok {
			fields["user_id"] = userID
		}
		logging.LogKV("error", "request failed", fields)
		c.JSON(status, models.ErrorResponse{
			Error:   action,
			Message: "An internal error occurred",
		})
		return
	}

	c.JSON(status, models.ErrorResponse{
		Error:   title,
		Message: apperr.MessageOf(err),
	})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "Invalid request",
		Message: err.Error(),
	})
}
