package venues

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nitehive/backend/internal/middleware"
	"github.com/nitehive/backend/internal/models"
	"github.com/nitehive/backend/pkg/response"
)

// CreateRequest is the body for POST /venues.
type CreateRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Address     string `json:"address"`
	City        string `json:"city"`
	Capacity    int    `json:"capacity"`
}

// Handler handles venue HTTP endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates a venues handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// Create handles POST /venues (venue_owner/admin).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	v := &models.Venue{
		OwnerID:     userID,
		Name:        req.Name,
		Description: req.Description,
		Address:     req.Address,
		City:        req.City,
		Capacity:    req.Capacity,
	}
	if err := h.repo.Create(c.Request.Context(), v); err != nil {
		response.Internal(c, "failed to create venue")
		return
	}
	response.Created(c, v)
}

// List handles GET /venues.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list venues")
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /venues/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid venue id")
		return
	}
	v, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "venue not found")
		return
	}
	response.OK(c, v)
}
