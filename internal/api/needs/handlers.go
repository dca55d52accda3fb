// Package needs implements the HTTP handlers for the need endpoints. Handlers
// parse and bind requests, delegate every decision to the service, and map
// service errors onto the response taxonomy: validation failures are 400,
// missing records 404, lost status races 409, everything else a generic 500.
package needs

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/friendindeed/friendindeed/internal/db/models"
	"github.com/friendindeed/friendindeed/internal/middleware"
	"github.com/friendindeed/friendindeed/internal/needs"
	"github.com/friendindeed/friendindeed/internal/store"
)

// Handler serves the /needs routes.
type Handler struct {
	svc *needs.Service
}

// NewHandler creates the needs handler.
func NewHandler(svc *needs.Service) *Handler {
	return &Handler{svc: svc}
}

// List handles GET /needs. All filters are optional and ANDed; anonymous
// callers see open needs unless they ask for a status explicitly.
func (h *Handler) List(c *gin.Context) {
	filter := store.NeedFilter{
		OrganizationID: c.Query("organization"),
		Location:       c.Query("location"),
		Category:       models.NeedCategory(c.Query("category")),
		Status:         models.NeedStatus(c.Query("status")),
	}

	var err error
	if filter.Limit, err = queryInt(c, "limit"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
		return
	}
	if filter.Offset, err = queryInt(c, "offset"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "offset must be an integer"})
		return
	}

	authenticated := middleware.PrincipalFrom(c) != nil
	result, err := h.svc.List(c.Request.Context(), filter, authenticated)
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, result)
}

// Create handles POST /needs. The route group guarantees a principal is
// present. Client-supplied id, status, and createdAt are ignored: the bound
// input type simply has no fields for them.
func (h *Handler) Create(c *gin.Context) {
	var in needs.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	need, err := h.svc.Create(c.Request.Context(), in, middleware.PrincipalFrom(c))
	if err != nil {
		// The only record Create can fail to find is the referenced
		// organization.
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "organization not found"})
			return
		}
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusCreated, need)
}

// Claim handles POST /needs/:id/claim.
func (h *Handler) Claim(c *gin.Context) {
	need, err := h.svc.Claim(c.Request.Context(), c.Param("id"), middleware.PrincipalFrom(c))
	if err != nil {
		respondError(c, err, "need already claimed")
		return
	}
	c.JSON(http.StatusOK, need)
}

// Complete handles POST /needs/:id/complete.
func (h *Handler) Complete(c *gin.Context) {
	need, err := h.svc.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "need is not claimed")
		return
	}
	c.JSON(http.StatusOK, need)
}

// Cancel handles POST /needs/:id/cancel.
func (h *Handler) Cancel(c *gin.Context) {
	need, err := h.svc.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "need is already closed")
		return
	}
	c.JSON(http.StatusOK, need)
}

// respondError maps a service error to a response. conflictMsg is the body
// used for lost status races, which read differently per transition.
func respondError(c *gin.Context, err error, conflictMsg string) {
	var verr *needs.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "need not found"})
	case errors.Is(err, store.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": conflictMsg})
	default:
		slog.Error("need request failed",
			"error", err,
			"request_id", c.GetString(middleware.RequestIDKey))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func queryInt(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
