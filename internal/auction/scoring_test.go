package auction

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nitehive/backend/internal/models"
)

func activeAd(pricing models.PricingModel, bid, spent, budget int64) *models.DynamicAd {
	return &models.DynamicAd{
		Status:               models.AdStatusActive,
		PricingModel:         pricing,
		BidAmount:            bid,
		RemainingImpressions: 1000,
		TotalSpent:           spent,
		TotalBudget:          budget,
	}
}

func TestScoreCPMExample(t *testing.T) {
	s := NewScorer(DefaultConfig())
	// bid 50000 CPM -> eCPM 50000, quality 1.0 -> rank 50000;
	// spentRatio 0.5 -> multiplier 1.2 -> 60000.0000
	ad := activeAd(models.PricingCPM, 50000, 500, 1000)
	assert.Equal(t, 60000.0, s.Score(ad))
}

func TestScoreCPCExample(t *testing.T) {
	s := NewScorer(DefaultConfig())
	// bid 10000 CPC -> eCPM 10000*0.001*1000 = 10000; spentRatio 0.5 -> x1.2
	ad := activeAd(models.PricingCPC, 10000, 500, 1000)
	assert.Equal(t, 12000.0, s.Score(ad))
}

func TestScoreDeterministic(t *testing.T) {
	s := NewScorer(DefaultConfig())
	ad := activeAd(models.PricingCPC, 12345, 333, 1000)
	first := s.Score(ad)
	assert.Equal(t, first, s.Score(ad))
}

func TestECPM(t *testing.T) {
	s := NewScorer(DefaultConfig())
	tests := []struct {
		name    string
		pricing models.PricingModel
		bid     int64
		want    float64
	}{
		{"cpm passes bid through", models.PricingCPM, 50000, 50000},
		{"cpc normalized by flat ctr", models.PricingCPC, 10000, 10000},
		{"unknown pricing model", models.PricingModel("CPA"), 50000, 0},
		{"zero bid", models.PricingCPM, 0, 0},
		{"negative bid", models.PricingCPM, -5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ad := activeAd(tt.pricing, tt.bid, 0, 0)
			assert.Equal(t, tt.want, s.ECPM(ad))
		})
	}
}

func TestPacingMultiplierBands(t *testing.T) {
	s := NewScorer(DefaultConfig())
	tests := []struct {
		name   string
		spent  int64
		budget int64
		want   float64
	}{
		{"unknown budget", 500, 0, 1.0},
		{"nothing spent yet", 0, 1000, 1.0},
		{"under ten percent", 50, 1000, 0.9},
		{"exactly ten percent", 100, 1000, 1.2},
		{"mid band", 500, 1000, 1.2},
		{"seventy percent", 700, 1000, 1.0},
		{"ninety percent", 900, 1000, 1.0},
		{"over ninety percent", 950, 1000, 0.7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// CPM bid of 10000 isolates the multiplier: score = 10000 * m
			ad := activeAd(models.PricingCPM, 10000, tt.spent, tt.budget)
			assert.Equal(t, 10000*tt.want, s.Score(ad))
		})
	}
}

func TestScoreRoundsToFourDecimals(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PredictedCTR = 0.0000333
	s := NewScorer(cfg)
	ad := activeAd(models.PricingCPC, 7, 0, 0)
	// 7 * 0.0000333 * 1000 = 0.2331
	assert.Equal(t, 0.2331, s.Score(ad))
}
