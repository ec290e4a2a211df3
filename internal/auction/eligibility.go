package auction

import "github.com/nitehive/backend/internal/models"

// Eligible reports whether a dynamic ad may enter the auction this round:
// active status, impressions left, and a positive bid. No other signal is
// consulted. Side-effect free.
func Eligible(ad *models.DynamicAd) bool {
	if ad == nil {
		return false
	}
	return ad.Status == models.AdStatusActive &&
		ad.RemainingImpressions > 0 &&
		ad.BidAmount > 0
}
