package ads

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nitehive/backend/internal/auction"
	"github.com/nitehive/backend/internal/middleware"
	"github.com/nitehive/backend/internal/models"
	"github.com/nitehive/backend/pkg/queue"
	"github.com/nitehive/backend/pkg/response"
)

// ServePayload is the JSON ad payload rendered into a page's ad slot. A "none"
// type means the page renders without an ad slot.
type ServePayload struct {
	Type            models.DecisionType `json:"type"`
	AdID            *uuid.UUID          `json:"ad_id,omitempty"`
	Title           string              `json:"title,omitempty"`
	ImageURL        string              `json:"image_url,omitempty"`
	TargetURL       string              `json:"target_url,omitempty"`
	PricingModel    string              `json:"pricing_model,omitempty"`
	ImpressionLogID *uuid.UUID          `json:"impression_log_id,omitempty"`
}

// ClickRequest is the body for POST /ads/:id/click.
type ClickRequest struct {
	ImpressionLogID *uuid.UUID `json:"impression_log_id"`
}

// ServeHandler handles ad delivery, click, and stats HTTP endpoints.
type ServeHandler struct {
	engine *auction.Engine
	ledger *Ledger
	queue  *queue.Queue
	logger *zap.Logger
}

// NewServeHandler creates an ad delivery handler.
func NewServeHandler(engine *auction.Engine, ledger *Ledger, q *queue.Queue, logger *zap.Logger) *ServeHandler {
	return &ServeHandler{engine: engine, ledger: ledger, queue: q, logger: logger}
}

// Serve handles GET /venues/:id/ads/serve. Always returns 200 with a payload;
// delivery degrades to type "none" rather than erroring.
func (h *ServeHandler) Serve(c *gin.Context) {
	venueID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid venue id")
		return
	}
	zoneID := c.Query("zone")

	actx := &models.AuctionContext{
		VenueID:   venueID,
		ZoneID:    zoneID,
		Timestamp: time.Now(),
		SourceIP:  c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
	if v, ok := c.Get(middleware.ContextUserID); ok {
		if viewerID, ok := v.(uuid.UUID); ok {
			actx.ViewerID = &viewerID
		}
	}

	result, entry := h.engine.ServeAd(c.Request.Context(), venueID, zoneID, actx)

	payload := ServePayload{Type: result.Type}
	if entry != nil && entry.ID != uuid.Nil {
		payload.ImpressionLogID = &entry.ID
	}
	switch result.Type {
	case models.DecisionDynamic:
		payload.AdID = &result.DynamicAd.ID
		payload.Title = result.DynamicAd.Title
		payload.ImageURL = result.DynamicAd.ImageURL
		payload.TargetURL = result.DynamicAd.TargetURL
		payload.PricingModel = string(result.DynamicAd.PricingModel)
	case models.DecisionStatic:
		payload.AdID = &result.StaticAd.ID
		payload.Title = result.StaticAd.Title
		payload.ImageURL = result.StaticAd.ImageURL
		payload.TargetURL = result.StaticAd.TargetURL
	}
	response.OK(c, payload)
}

// Click handles POST /ads/:id/click. Clicks are recorded out-of-band through
// the worker queue; if the queue is unreachable the click is counted
// synchronously instead of being dropped.
func (h *ServeHandler) Click(c *gin.Context) {
	adID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid ad id")
		return
	}
	var req ClickRequest
	_ = c.ShouldBindJSON(&req) // body is optional

	payload := queue.ClickPayload{AdID: adID, ImpressionLogID: req.ImpressionLogID}
	if h.queue != nil {
		if err := h.queue.EnqueueClick(c.Request.Context(), payload); err == nil {
			response.OK(c, gin.H{"queued": true})
			return
		}
		h.logger.Warn("click enqueue failed, recording synchronously", zap.String("ad_id", adID.String()))
	}
	clicks, err := h.ledger.RecordClick(c.Request.Context(), adID)
	if err != nil {
		response.NotFound(c, "ad not found")
		return
	}
	response.OK(c, gin.H{"queued": false, "total_clicks": clicks})
}

// Stats handles GET /auction/stats?start=YYYY-MM-DD&end=YYYY-MM-DD (admin).
func (h *ServeHandler) Stats(c *gin.Context) {
	start, err := time.Parse("2006-01-02", c.Query("start"))
	if err != nil {
		response.BadRequest(c, "invalid start date")
		return
	}
	end, err := time.Parse("2006-01-02", c.Query("end"))
	if err != nil {
		response.BadRequest(c, "invalid end date")
		return
	}
	// Make the end date inclusive of its whole day.
	end = end.Add(24*time.Hour - time.Nanosecond)

	stats, err := h.engine.Stats(c.Request.Context(), start, end)
	if err != nil {
		response.Internal(c, "failed to load auction stats")
		return
	}
	response.OK(c, stats)
}
