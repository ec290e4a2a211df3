package bookings

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nitehive/backend/internal/middleware"
	"github.com/nitehive/backend/internal/models"
	"github.com/nitehive/backend/internal/notifications"
	"github.com/nitehive/backend/internal/venues"
	"github.com/nitehive/backend/pkg/response"
)

// CreateRequest is the body for POST /venues/:id/bookings.
type CreateRequest struct {
	PartySize int       `json:"party_size" binding:"required,min=1"`
	BookedFor time.Time `json:"booked_for" binding:"required"`
	Note      string    `json:"note"`
}

// Handler handles booking HTTP endpoints.
type Handler struct {
	repo      *Repository
	venueRepo *venues.Repository
	notifRepo *notifications.Repository
	logger    *zap.Logger
}

// NewHandler creates a bookings handler.
func NewHandler(repo *Repository, venueRepo *venues.Repository, notifRepo *notifications.Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, venueRepo: venueRepo, notifRepo: notifRepo, logger: logger}
}

// Create handles POST /venues/:id/bookings.
func (h *Handler) Create(c *gin.Context) {
	venueID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid venue id")
		return
	}
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if _, err := h.venueRepo.GetByID(c.Request.Context(), venueID); err != nil {
		response.NotFound(c, "venue not found")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	b := &models.Booking{
		VenueID:   venueID,
		UserID:    userID,
		PartySize: req.PartySize,
		BookedFor: req.BookedFor,
		Note:      req.Note,
	}
	if err := h.repo.Create(c.Request.Context(), b); err != nil {
		response.Internal(c, "failed to create booking")
		return
	}
	response.Created(c, b)
}

// ListMine handles GET /bookings.
func (h *Handler) ListMine(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.repo.ListByUser(c.Request.Context(), userID)
	if err != nil {
		response.Internal(c, "failed to list bookings")
		return
	}
	response.OK(c, list)
}

// ListByVenue handles GET /venues/:id/bookings?date=YYYY-MM-DD (venue owner).
func (h *Handler) ListByVenue(c *gin.Context) {
	venueID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid venue id")
		return
	}
	day := time.Now()
	if v := c.Query("date"); v != "" {
		day, err = time.Parse("2006-01-02", v)
		if err != nil {
			response.BadRequest(c, "invalid date")
			return
		}
	}
	list, err := h.repo.ListByVenue(c.Request.Context(), venueID, day)
	if err != nil {
		response.Internal(c, "failed to list bookings")
		return
	}
	response.OK(c, list)
}

// Confirm handles POST /bookings/:id/confirm (venue owner).
func (h *Handler) Confirm(c *gin.Context) {
	h.transition(c, models.BookingStatusConfirmed, models.NotificationBookingConfirmed, "Your booking was confirmed")
}

// Cancel handles POST /bookings/:id/cancel (venue owner or booking user).
func (h *Handler) Cancel(c *gin.Context) {
	h.transition(c, models.BookingStatusCancelled, models.NotificationBookingCancelled, "Your booking was cancelled")
}

func (h *Handler) transition(c *gin.Context, to models.BookingStatus, notifKind, notifTitle string) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking id")
		return
	}
	b, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "booking not found")
		return
	}
	if !h.mayManage(c, b) {
		response.Forbidden(c, "not allowed to manage this booking")
		return
	}
	if !b.Status.CanTransitionTo(to) {
		response.Conflict(c, fmt.Sprintf("cannot transition booking from %s to %s", b.Status, to))
		return
	}
	ok, err := h.repo.SetStatus(c.Request.Context(), id, b.Status, to)
	if err != nil || !ok {
		response.Internal(c, "failed to update booking")
		return
	}

	n := &models.Notification{UserID: b.UserID, Kind: notifKind, Title: notifTitle}
	if err := h.notifRepo.Create(c.Request.Context(), n); err != nil {
		h.logger.Warn("booking notification failed", zap.Error(err), zap.String("booking_id", id.String()))
	}
	response.OK(c, gin.H{"id": id, "status": to})
}

// mayManage allows the booking user, the venue owner, or an admin.
func (h *Handler) mayManage(c *gin.Context, b *models.Booking) bool {
	role := c.MustGet(middleware.ContextUserRole).(string)
	if role == string(models.RoleAdmin) {
		return true
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if userID == b.UserID {
		return true
	}
	ok, err := h.venueRepo.IsOwner(c.Request.Context(), b.VenueID, userID)
	return err == nil && ok
}
