package ads

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nitehive/backend/internal/middleware"
	"github.com/nitehive/backend/internal/models"
	"github.com/nitehive/backend/internal/notifications"
	"github.com/nitehive/backend/internal/venues"
	"github.com/nitehive/backend/pkg/response"
	"github.com/nitehive/backend/pkg/storage"
)

// CreateRequest is the body for POST /venues/:id/ads.
type CreateRequest struct {
	Title        string `json:"title" binding:"required"`
	PricingModel string `json:"pricing_model" binding:"required"`
	BidAmount    int64  `json:"bid_amount" binding:"required"`
	ImageURL     string `json:"image_url"`
	TargetURL    string `json:"target_url"`
	S3Key        string `json:"s3_key"`
}

// BudgetRequest is the body for POST /ads/:id/budget.
type BudgetRequest struct {
	Impressions int64 `json:"impressions" binding:"required"`
	Budget      int64 `json:"budget" binding:"required"`
}

// ReconcileRequest is the body for POST /ads/:id/reconcile.
type ReconcileRequest struct {
	ExternalImpressions int64 `json:"external_impressions"`
	ExternalClicks      int64 `json:"external_clicks"`
}

// StaticCreateRequest is the body for POST /static-ads.
type StaticCreateRequest struct {
	Title        string `json:"title" binding:"required"`
	ImageURL     string `json:"image_url"`
	TargetURL    string `json:"target_url"`
	DisplayOrder int    `json:"display_order"`
	Enabled      *bool  `json:"enabled"`
}

// Handler handles dynamic/static ad lifecycle HTTP endpoints.
type Handler struct {
	repo       *Repository
	staticRepo *StaticRepository
	venueRepo  *venues.Repository
	notifRepo  *notifications.Repository
	ledger     *Ledger
	logRepo    *LogRepository
	s3         *storage.S3
	logger     *zap.Logger
}

// NewHandler creates an ads lifecycle handler.
func NewHandler(repo *Repository, staticRepo *StaticRepository, venueRepo *venues.Repository, notifRepo *notifications.Repository, ledger *Ledger, logRepo *LogRepository, s3 *storage.S3, logger *zap.Logger) *Handler {
	return &Handler{
		repo:       repo,
		staticRepo: staticRepo,
		venueRepo:  venueRepo,
		notifRepo:  notifRepo,
		ledger:     ledger,
		logRepo:    logRepo,
		s3:         s3,
		logger:     logger,
	}
}

// Create handles POST /venues/:id/ads (venue owner). New ads start pending
// until moderation approves them.
func (h *Handler) Create(c *gin.Context) {
	venueID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid venue id")
		return
	}
	if !h.requireVenueOwner(c, venueID) {
		return
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	pricing := models.PricingModel(req.PricingModel)
	if pricing != models.PricingCPM && pricing != models.PricingCPC {
		response.BadRequest(c, "pricing_model must be CPM or CPC")
		return
	}
	if req.BidAmount <= 0 {
		response.BadRequest(c, "bid_amount must be positive")
		return
	}

	a := &models.DynamicAd{
		VenueID:      venueID,
		Title:        req.Title,
		ImageURL:     req.ImageURL,
		TargetURL:    req.TargetURL,
		S3Key:        req.S3Key,
		PricingModel: pricing,
		BidAmount:    req.BidAmount,
	}
	if err := h.repo.Create(c.Request.Context(), a); err != nil {
		response.Internal(c, "failed to create ad")
		return
	}
	response.Created(c, a)
}

// ListByVenue handles GET /venues/:id/ads (venue owner or admin).
func (h *Handler) ListByVenue(c *gin.Context) {
	venueID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid venue id")
		return
	}
	list, err := h.repo.ListByVenue(c.Request.Context(), venueID)
	if err != nil {
		response.Internal(c, "failed to list ads")
		return
	}
	response.OK(c, list)
}

// Approve handles PATCH /ads/:id/approve (admin moderation).
func (h *Handler) Approve(c *gin.Context) {
	h.moderate(c, models.AdStatusApproved, models.NotificationAdApproved, "Your ad was approved")
}

// Reject handles PATCH /ads/:id/reject (admin moderation).
func (h *Handler) Reject(c *gin.Context) {
	h.moderate(c, models.AdStatusRejected, models.NotificationAdRejected, "Your ad was rejected")
}

func (h *Handler) moderate(c *gin.Context, to models.AdStatus, notifKind, notifTitle string) {
	adID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid ad id")
		return
	}
	a, err := h.repo.GetByID(c.Request.Context(), adID)
	if err != nil {
		response.NotFound(c, "ad not found")
		return
	}
	if !a.Status.CanTransitionTo(to) {
		response.Conflict(c, fmt.Sprintf("cannot transition ad from %s to %s", a.Status, to))
		return
	}
	ok, err := h.repo.SetStatus(c.Request.Context(), adID, a.Status, to)
	if err != nil || !ok {
		response.Internal(c, "failed to update ad status")
		return
	}
	h.notifyVenueOwner(c, a.VenueID, notifKind, notifTitle, a.Title)
	response.OK(c, gin.H{"id": adID, "status": to})
}

// AttachBudget handles POST /ads/:id/budget (admin, after a purchase is
// settled). Activates the approved ad with its purchased impression budget.
func (h *Handler) AttachBudget(c *gin.Context) {
	adID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid ad id")
		return
	}
	var req BudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.Impressions <= 0 || req.Budget <= 0 {
		response.BadRequest(c, "impressions and budget must be positive")
		return
	}
	ok, err := h.repo.AttachBudget(c.Request.Context(), adID, req.Impressions, req.Budget)
	if err != nil {
		response.Internal(c, "failed to attach budget")
		return
	}
	if !ok {
		response.Conflict(c, "ad is not in approved status")
		return
	}
	response.OK(c, gin.H{"id": adID, "status": models.AdStatusActive, "purchased_impressions": req.Impressions})
}

// Pause handles POST /ads/:id/pause (venue owner or admin).
func (h *Handler) Pause(c *gin.Context) {
	h.toggle(c, models.AdStatusActive, models.AdStatusPaused)
}

// Resume handles POST /ads/:id/resume (venue owner or admin).
func (h *Handler) Resume(c *gin.Context) {
	h.toggle(c, models.AdStatusPaused, models.AdStatusActive)
}

func (h *Handler) toggle(c *gin.Context, from, to models.AdStatus) {
	adID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid ad id")
		return
	}
	a, err := h.repo.GetByID(c.Request.Context(), adID)
	if err != nil {
		response.NotFound(c, "ad not found")
		return
	}
	if !h.requireVenueOwner(c, a.VenueID) {
		return
	}
	if !a.Status.CanTransitionTo(to) || a.Status != from {
		response.Conflict(c, fmt.Sprintf("cannot transition ad from %s to %s", a.Status, to))
		return
	}
	ok, err := h.repo.SetStatus(c.Request.Context(), adID, from, to)
	if err != nil || !ok {
		response.Internal(c, "failed to update ad status")
		return
	}
	response.OK(c, gin.H{"id": adID, "status": to})
}

// Reconcile handles POST /ads/:id/reconcile (admin): sync local counters with
// an external ad-serving ledger's authoritative totals.
func (h *Handler) Reconcile(c *gin.Context) {
	adID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid ad id")
		return
	}
	var req ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.ExternalImpressions < 0 || req.ExternalClicks < 0 {
		response.BadRequest(c, "external totals must not be negative")
		return
	}
	a, err := h.ledger.Reconcile(c.Request.Context(), adID, req.ExternalImpressions, req.ExternalClicks)
	if err != nil {
		response.Internal(c, "failed to reconcile ad counters")
		return
	}
	response.OK(c, a)
}

// Audit handles GET /ads/:id/audit (admin).
func (h *Handler) Audit(c *gin.Context) {
	adID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid ad id")
		return
	}
	limit := 100
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}
	list, err := h.logRepo.ListAuditByAd(c.Request.Context(), adID, limit)
	if err != nil {
		response.Internal(c, "failed to list audit log")
		return
	}
	response.OK(c, list)
}

// UploadCreative handles POST /venues/:id/ads/upload (venue owner): multipart
// creative upload to S3, returning the public URL and key to attach on create.
func (h *Handler) UploadCreative(c *gin.Context) {
	venueID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid venue id")
		return
	}
	if !h.requireVenueOwner(c, venueID) {
		return
	}
	if h.s3 == nil {
		response.ServiceUnavailable(c, "creative storage is not configured")
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.BadRequest(c, "missing file")
		return
	}
	defer file.Close()
	if header.Size > storage.MaxCreativeFileSize {
		response.BadRequest(c, "file too large")
		return
	}
	contentType := header.Header.Get("Content-Type")
	if !storage.ValidateCreativeFileType(contentType, header.Filename) {
		response.BadRequest(c, "unsupported file type")
		return
	}
	if contentType == "" {
		contentType = storage.ContentTypeForFilename(header.Filename)
	}

	key := storage.CreativeKey(venueID.String(), uuid.New().String()+"_"+header.Filename)
	url, err := h.s3.UploadCreative(c.Request.Context(), key, contentType, file, header.Size, true)
	if err != nil {
		h.logger.Error("creative upload failed", zap.Error(err), zap.String("venue_id", venueID.String()))
		response.Internal(c, "failed to upload creative")
		return
	}
	response.Created(c, gin.H{"image_url": url, "s3_key": key})
}

// CreateStatic handles POST /static-ads (admin).
func (h *Handler) CreateStatic(c *gin.Context) {
	var req StaticCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	a := &models.StaticAd{
		Title:        req.Title,
		ImageURL:     req.ImageURL,
		TargetURL:    req.TargetURL,
		DisplayOrder: req.DisplayOrder,
		Enabled:      enabled,
	}
	if err := h.staticRepo.Create(c.Request.Context(), a); err != nil {
		response.Internal(c, "failed to create static ad")
		return
	}
	response.Created(c, a)
}

// ListStatic handles GET /static-ads (admin).
func (h *Handler) ListStatic(c *gin.Context) {
	list, err := h.staticRepo.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list static ads")
		return
	}
	response.OK(c, list)
}

// SetStaticEnabled handles PATCH /static-ads/:id/enabled (admin).
func (h *Handler) SetStaticEnabled(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid static ad id")
		return
	}
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := h.staticRepo.SetEnabled(c.Request.Context(), id, req.Enabled); err != nil {
		response.Internal(c, "failed to update static ad")
		return
	}
	response.OK(c, gin.H{"id": id, "enabled": req.Enabled})
}

// DeleteStatic handles DELETE /static-ads/:id (admin).
func (h *Handler) DeleteStatic(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid static ad id")
		return
	}
	if err := h.staticRepo.Delete(c.Request.Context(), id); err != nil {
		response.Internal(c, "failed to delete static ad")
		return
	}
	response.OK(c, gin.H{"id": id, "deleted": true})
}

// requireVenueOwner aborts with 403 unless the caller owns the venue or is an
// admin. Returns true when the request may proceed.
func (h *Handler) requireVenueOwner(c *gin.Context, venueID uuid.UUID) bool {
	role := c.MustGet(middleware.ContextUserRole).(string)
	if role == string(models.RoleAdmin) {
		return true
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	ok, err := h.venueRepo.IsOwner(c.Request.Context(), venueID, userID)
	if err != nil || !ok {
		response.Forbidden(c, "only the venue owner can manage its ads")
		return false
	}
	return true
}

func (h *Handler) notifyVenueOwner(c *gin.Context, venueID uuid.UUID, kind, title, body string) {
	v, err := h.venueRepo.GetByID(c.Request.Context(), venueID)
	if err != nil {
		return
	}
	n := &models.Notification{UserID: v.OwnerID, Kind: kind, Title: title, Body: body}
	if err := h.notifRepo.Create(c.Request.Context(), n); err != nil {
		h.logger.Warn("notification write failed", zap.Error(err), zap.String("venue_id", venueID.String()))
	}
}
