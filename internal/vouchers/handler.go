package vouchers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nitehive/backend/internal/middleware"
	"github.com/nitehive/backend/internal/models"
	"github.com/nitehive/backend/internal/notifications"
	"github.com/nitehive/backend/internal/wallets"
	"github.com/nitehive/backend/pkg/response"
)

// CreateRequest is the body for POST /vouchers (admin).
type CreateRequest struct {
	VenueID   *uuid.UUID `json:"venue_id"`
	Code      string     `json:"code" binding:"required,min=4,max=32"`
	Value     int64      `json:"value" binding:"required,min=1"`
	MaxClaims int        `json:"max_claims" binding:"required,min=1"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// ClaimRequest is the body for POST /vouchers/claim.
type ClaimRequest struct {
	Code string `json:"code" binding:"required"`
}

// Handler handles voucher HTTP endpoints.
type Handler struct {
	repo       *Repository
	walletRepo *wallets.Repository
	notifRepo  *notifications.Repository
	logger     *zap.Logger
}

// NewHandler creates a vouchers handler.
func NewHandler(repo *Repository, walletRepo *wallets.Repository, notifRepo *notifications.Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, walletRepo: walletRepo, notifRepo: notifRepo, logger: logger}
}

// Create handles POST /vouchers (admin).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	v := &models.Voucher{
		VenueID:   req.VenueID,
		Code:      req.Code,
		Value:     req.Value,
		MaxClaims: req.MaxClaims,
		ExpiresAt: req.ExpiresAt,
	}
	if err := h.repo.Create(c.Request.Context(), v); err != nil {
		response.Internal(c, "failed to create voucher")
		return
	}
	response.Created(c, v)
}

// List handles GET /vouchers (admin).
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list vouchers")
		return
	}
	response.OK(c, list)
}

// Claim handles POST /vouchers/claim. A successful claim credits the user's
// wallet with the voucher value and drops a notification.
func (h *Handler) Claim(c *gin.Context) {
	var req ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	v, err := h.repo.Claim(c.Request.Context(), req.Code, userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrVoucherExhausted):
			response.Conflict(c, "voucher exhausted or expired")
		case errors.Is(err, ErrAlreadyClaimed):
			response.Conflict(c, "voucher already claimed")
		default:
			response.Internal(c, "failed to claim voucher")
		}
		return
	}

	w, err := h.walletRepo.Credit(c.Request.Context(), userID, v.Value, "voucher:"+v.Code)
	if err != nil {
		// The claim row is committed; the credit is retriable from logs.
		h.logger.Error("voucher credit failed", zap.Error(err),
			zap.String("voucher_id", v.ID.String()), zap.String("user_id", userID.String()))
		response.Internal(c, "failed to credit wallet")
		return
	}

	n := &models.Notification{
		UserID: userID,
		Kind:   models.NotificationVoucherClaimed,
		Title:  fmt.Sprintf("Voucher %s claimed", v.Code),
	}
	if err := h.notifRepo.Create(c.Request.Context(), n); err != nil {
		h.logger.Warn("voucher notification failed", zap.Error(err))
	}

	response.OK(c, gin.H{"voucher": v, "wallet": w})
}
