package auction

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nitehive/backend/internal/models"
)

// Fallback reasons recorded in auction diagnostics.
const (
	FallbackNoCandidates   = "no_candidates"
	FallbackNoneEligible   = "no_eligible_candidates"
	FallbackBelowThreshold = "below_threshold"
	FallbackStoreError     = "store_error"
	FallbackStaticEmpty    = "static_pool_empty"
)

// CandidateSource loads the dynamic ads competing for a venue's ad slot.
type CandidateSource interface {
	ActiveAdsForVenue(ctx context.Context, venueID uuid.UUID) ([]models.DynamicAd, error)
}

// StaticFallback supplies the next house ad in round-robin order, or nil when
// the pool is empty.
type StaticFallback interface {
	NextStaticAd(ctx context.Context, venueID uuid.UUID) (*models.StaticAd, error)
}

// ImpressionLedger applies the budget side effects of a delivered dynamic impression.
type ImpressionLedger interface {
	RecordImpression(ctx context.Context, adID uuid.UUID) (*models.ImpressionReceipt, error)
}

// ImpressionLogStore appends delivered-impression rows and aggregates them for reporting.
type ImpressionLogStore interface {
	Append(ctx context.Context, entry *models.ImpressionLog) error
	CountByTypeBetween(ctx context.Context, start, end time.Time) (dynamic, static int64, err error)
}

// Engine runs the per-request ad auction: eligibility filter, scoring, winner
// pick, and the static round-robin fallback. Each request is scored
// independently and synchronously; there is no background scheduler.
type Engine struct {
	candidates CandidateSource
	fallback   StaticFallback
	ledger     ImpressionLedger
	logs       ImpressionLogStore
	scorer     *Scorer
	logger     *zap.Logger
}

// NewEngine creates an auction engine.
func NewEngine(candidates CandidateSource, fallback StaticFallback, ledger ImpressionLedger, logs ImpressionLogStore, scorer *Scorer, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		candidates: candidates,
		fallback:   fallback,
		ledger:     ledger,
		logs:       logs,
		scorer:     scorer,
		logger:     logger,
	}
}

type scoredAd struct {
	ad    models.DynamicAd
	score float64
}

// RunAuction picks the ad to render for one page view. Store failures degrade
// dynamic -> static -> none; the caller always gets a result, never an error.
func (e *Engine) RunAuction(ctx context.Context, venueID uuid.UUID, zoneID string, actx *models.AuctionContext) models.AuctionResult {
	diag := models.Diagnostics{Threshold: e.scorer.MinScore()}

	candidates, err := e.candidates.ActiveAdsForVenue(ctx, venueID)
	if err != nil {
		e.logger.Warn("load auction candidates failed", zap.Error(err), zap.String("venue_id", venueID.String()))
		diag.FallbackReason = FallbackStoreError
		return e.staticResult(ctx, venueID, diag)
	}
	diag.CandidateCount = len(candidates)
	if len(candidates) == 0 {
		diag.FallbackReason = FallbackNoCandidates
		return e.staticResult(ctx, venueID, diag)
	}

	scored := make([]scoredAd, 0, len(candidates))
	for i := range candidates {
		if !Eligible(&candidates[i]) {
			continue
		}
		scored = append(scored, scoredAd{ad: candidates[i], score: e.scorer.Score(&candidates[i])})
	}
	diag.EligibleCount = len(scored)
	if len(scored) == 0 {
		diag.FallbackReason = FallbackNoneEligible
		return e.staticResult(ctx, venueID, diag)
	}

	// Stable sort keeps encounter order as the only tiebreak.
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })

	top := scored[0]
	if top.score < e.scorer.MinScore() {
		diag.FallbackReason = FallbackBelowThreshold
		return e.staticResult(ctx, venueID, diag)
	}

	winner := top.ad
	return models.AuctionResult{
		Type:        models.DecisionDynamic,
		DynamicAd:   &winner,
		Score:       top.score,
		Diagnostics: diag,
	}
}

// staticResult serves the round-robin fallback; if that also fails the result
// degrades to "none" rather than propagating the failure.
func (e *Engine) staticResult(ctx context.Context, venueID uuid.UUID, diag models.Diagnostics) models.AuctionResult {
	ad, err := e.fallback.NextStaticAd(ctx, venueID)
	if err != nil {
		e.logger.Warn("static fallback failed", zap.Error(err), zap.String("venue_id", venueID.String()))
		if diag.FallbackReason == "" {
			diag.FallbackReason = FallbackStoreError
		}
		return models.AuctionResult{Type: models.DecisionNone, Diagnostics: diag}
	}
	if ad == nil {
		if diag.FallbackReason == "" {
			diag.FallbackReason = FallbackStaticEmpty
		}
		return models.AuctionResult{Type: models.DecisionNone, Diagnostics: diag}
	}
	return models.AuctionResult{Type: models.DecisionStatic, StaticAd: ad, Diagnostics: diag}
}

// ServeAd runs the auction and applies delivery side effects: an impression
// log row for every decision, plus a ledger decrement when a dynamic ad won.
// Bookkeeping failures are logged but never unwind the delivery decision.
func (e *Engine) ServeAd(ctx context.Context, venueID uuid.UUID, zoneID string, actx *models.AuctionContext) (models.AuctionResult, *models.ImpressionLog) {
	result := e.RunAuction(ctx, venueID, zoneID, actx)

	entry := &models.ImpressionLog{
		VenueID:      venueID,
		ZoneID:       zoneID,
		DecisionType: result.Type,
		Score:        result.Score,
	}
	switch result.Type {
	case models.DecisionDynamic:
		entry.AdID = &result.DynamicAd.ID
	case models.DecisionStatic:
		entry.AdID = &result.StaticAd.ID
	}
	if err := e.logs.Append(ctx, entry); err != nil {
		e.logger.Error("append impression log failed", zap.Error(err), zap.String("venue_id", venueID.String()))
	}

	if result.Type == models.DecisionDynamic {
		receipt, err := e.ledger.RecordImpression(ctx, result.DynamicAd.ID)
		if err != nil {
			e.logger.Error("record impression failed", zap.Error(err), zap.String("ad_id", result.DynamicAd.ID.String()))
		} else if !receipt.Success {
			e.logger.Warn("impression not counted",
				zap.String("ad_id", result.DynamicAd.ID.String()),
				zap.String("reason", receipt.Reason))
		}
	}
	return result, entry
}

// Stats aggregates previously logged impressions by decision type over a date
// range. Percentages are 0 when nothing was logged.
func (e *Engine) Stats(ctx context.Context, start, end time.Time) (*models.AuctionStats, error) {
	dynamic, static, err := e.logs.CountByTypeBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}
	stats := &models.AuctionStats{
		Total:   dynamic + static,
		Dynamic: dynamic,
		Static:  static,
	}
	if stats.Total > 0 {
		stats.DynamicPercentage = float64(dynamic) / float64(stats.Total) * 100
		stats.StaticPercentage = float64(static) / float64(stats.Total) * 100
	}
	return stats, nil
}
