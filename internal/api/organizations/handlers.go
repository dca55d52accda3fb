// Package organizations implements the read-only organization endpoints.
// Organization lifecycle management happens out of band (seeding, ops
// tooling); this API only exposes the active directory.
package organizations

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/friendindeed/friendindeed/internal/middleware"
	"github.com/friendindeed/friendindeed/internal/store"
)

// Handler serves the /organizations routes.
type Handler struct {
	orgs store.OrganizationStore
}

// NewHandler creates the organizations handler.
func NewHandler(orgs store.OrganizationStore) *Handler {
	return &Handler{orgs: orgs}
}

// List handles GET /organizations: every active organization, name ascending.
func (h *Handler) List(c *gin.Context) {
	orgs, err := h.orgs.ListActive(c.Request.Context())
	if err != nil {
		slog.Error("failed to list organizations",
			"error", err,
			"request_id", c.GetString(middleware.RequestIDKey))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, orgs)
}

// GetBySlug handles GET /organizations/:slug. Inactive organizations are
// indistinguishable from absent ones: both answer 404.
func (h *Handler) GetBySlug(c *gin.Context) {
	org, err := h.orgs.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "organization not found"})
			return
		}
		slog.Error("failed to get organization",
			"error", err,
			"request_id", c.GetString(middleware.RequestIDKey))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if !org.IsActive {
		c.JSON(http.StatusNotFound, gin.H{"error": "organization not found"})
		return
	}
	c.JSON(http.StatusOK, org)
}
