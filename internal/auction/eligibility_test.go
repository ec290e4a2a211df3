package auction

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nitehive/backend/internal/models"
)

func TestEligible(t *testing.T) {
	tests := []struct {
		name      string
		status    models.AdStatus
		remaining int64
		bid       int64
		want      bool
	}{
		{"active with budget and bid", models.AdStatusActive, 100, 50000, true},
		{"active last impression", models.AdStatusActive, 1, 1, true},
		{"active no remaining impressions", models.AdStatusActive, 0, 50000, false},
		{"active zero bid", models.AdStatusActive, 100, 0, false},
		{"active negative bid", models.AdStatusActive, 100, -1, false},
		{"pending", models.AdStatusPending, 100, 50000, false},
		{"approved", models.AdStatusApproved, 100, 50000, false},
		{"rejected", models.AdStatusRejected, 100, 50000, false},
		{"paused", models.AdStatusPaused, 100, 50000, false},
		{"completed", models.AdStatusCompleted, 100, 50000, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ad := &models.DynamicAd{
				Status:               tt.status,
				RemainingImpressions: tt.remaining,
				BidAmount:            tt.bid,
			}
			assert.Equal(t, tt.want, Eligible(ad))
		})
	}
}

func TestEligibleNilAd(t *testing.T) {
	assert.False(t, Eligible(nil))
}
