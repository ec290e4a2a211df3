package wallets

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nitehive/backend/internal/middleware"
	"github.com/nitehive/backend/pkg/response"
)

// Handler handles wallet HTTP endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates a wallets handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// Get handles GET /wallet.
func (h *Handler) Get(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	w, err := h.repo.Get(c.Request.Context(), userID)
	if err != nil {
		response.Internal(c, "failed to load wallet")
		return
	}
	response.OK(c, w)
}

// Transactions handles GET /wallet/transactions.
func (h *Handler) Transactions(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.repo.ListTransactions(c.Request.Context(), userID, 100)
	if err != nil {
		response.Internal(c, "failed to list transactions")
		return
	}
	response.OK(c, list)
}

// AdjustRequest is the body for POST /wallet/credit and /wallet/debit (admin).
type AdjustRequest struct {
	UserID    uuid.UUID `json:"user_id" binding:"required"`
	Amount    int64     `json:"amount" binding:"required,min=1"`
	Reference string    `json:"reference"`
}

// Credit handles POST /wallet/credit (admin).
func (h *Handler) Credit(c *gin.Context) {
	var req AdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	w, err := h.repo.Credit(c.Request.Context(), req.UserID, req.Amount, req.Reference)
	if err != nil {
		response.Internal(c, "failed to credit wallet")
		return
	}
	response.OK(c, w)
}

// Debit handles POST /wallet/debit (admin).
func (h *Handler) Debit(c *gin.Context) {
	var req AdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	w, err := h.repo.Debit(c.Request.Context(), req.UserID, req.Amount, req.Reference)
	if err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			response.Conflict(c, "insufficient funds")
			return
		}
		response.Internal(c, "failed to debit wallet")
		return
	}
	response.OK(c, w)
}
