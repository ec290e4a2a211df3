package auction

import (
	"math"

	"github.com/nitehive/backend/internal/models"
)

// Config holds the scoring tunables. They are injected rather than hard-coded
// so ranking behavior can be tuned and tested independently.
type Config struct {
	// PredictedCTR is the flat click-through estimate used to normalize CPC
	// bids into eCPM. There is no learned click model.
	PredictedCTR float64
	// QualityScore is the flat per-ad quality multiplier. Hook for a future
	// per-ad relevance signal that is not yet computed.
	QualityScore float64
	// MinScore is the threshold a top-ranked dynamic ad must clear to win.
	MinScore float64

	// Budget pacing breakpoints over spentRatio = totalSpent / totalBudget,
	// and the multipliers applied inside each band.
	PacingLowSpend  float64 // spentRatio below LowSpendRatio
	PacingMidSpend  float64 // [LowSpendRatio, MidSpendRatio)
	PacingHighSpend float64 // [MidSpendRatio, HighSpendRatio]
	PacingOverSpend float64 // above HighSpendRatio
	LowSpendRatio   float64
	MidSpendRatio   float64
	HighSpendRatio  float64
}

// DefaultConfig returns the production scoring configuration.
func DefaultConfig() Config {
	return Config{
		PredictedCTR:    0.001,
		QualityScore:    1.0,
		MinScore:        0.01,
		PacingLowSpend:  0.9,
		PacingMidSpend:  1.2,
		PacingHighSpend: 1.0,
		PacingOverSpend: 0.7,
		LowSpendRatio:   0.10,
		MidSpendRatio:   0.70,
		HighSpendRatio:  0.90,
	}
}

// Scorer turns one ad into a comparable rank. Pure and deterministic given
// identical inputs; scores are never persisted.
type Scorer struct {
	cfg Config
}

// NewScorer creates a scorer with the given configuration.
func NewScorer(cfg Config) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score computes the final rank for an ad:
// eCPM x qualityScore x budget pacing multiplier, rounded to 4 decimal places.
func (s *Scorer) Score(ad *models.DynamicAd) float64 {
	rank := s.ECPM(ad) * s.cfg.QualityScore
	final := rank * s.pacingMultiplier(ad)
	return math.Round(final*10000) / 10000
}

// ECPM converts the ad's bid into effective cost per thousand impressions.
// CPM bids already express eCPM; CPC bids are normalized through the flat
// predicted CTR. Unknown pricing models and non-positive bids score zero.
func (s *Scorer) ECPM(ad *models.DynamicAd) float64 {
	if ad == nil || ad.BidAmount <= 0 {
		return 0
	}
	switch ad.PricingModel {
	case models.PricingCPM:
		return float64(ad.BidAmount)
	case models.PricingCPC:
		return float64(ad.BidAmount) * s.cfg.PredictedCTR * 1000
	default:
		return 0
	}
}

// pacingMultiplier rewards or penalizes an ad based on how much of its
// purchased budget it has spent. Ads with an unknown or zero budget, or with
// no spend at all, pace at 1.0. Note the low-spend band below LowSpendRatio
// pays a penalty, which can make it harder for a freshly active ad to win its
// first impressions; preserved as-is pending product review.
func (s *Scorer) pacingMultiplier(ad *models.DynamicAd) float64 {
	if ad.TotalBudget <= 0 || ad.TotalSpent <= 0 {
		return 1.0
	}
	ratio := float64(ad.TotalSpent) / float64(ad.TotalBudget)
	switch {
	case ratio < s.cfg.LowSpendRatio:
		return s.cfg.PacingLowSpend
	case ratio < s.cfg.MidSpendRatio:
		return s.cfg.PacingMidSpend
	case ratio <= s.cfg.HighSpendRatio:
		return s.cfg.PacingHighSpend
	default:
		return s.cfg.PacingOverSpend
	}
}

// MinScore exposes the configured winning threshold.
func (s *Scorer) MinScore() float64 {
	return s.cfg.MinScore
}
