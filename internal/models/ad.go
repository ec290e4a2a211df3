package models

import (
	"time"

	"github.com/google/uuid"
)

// AdStatus is the delivery lifecycle state of a dynamic ad.
type AdStatus string

const (
	AdStatusPending   AdStatus = "pending"
	AdStatusApproved  AdStatus = "approved"
	AdStatusRejected  AdStatus = "rejected"
	AdStatusActive    AdStatus = "active"
	AdStatusPaused    AdStatus = "paused"
	AdStatusCompleted AdStatus = "completed"
)

// legalTransitions lists the only allowed status transitions:
// pending -> approved|rejected, approved -> active, active <-> paused, active -> completed.
var legalTransitions = map[AdStatus][]AdStatus{
	AdStatusPending:  {AdStatusApproved, AdStatusRejected},
	AdStatusApproved: {AdStatusActive},
	AdStatusActive:   {AdStatusPaused, AdStatusCompleted},
	AdStatusPaused:   {AdStatusActive},
}

// CanTransitionTo reports whether moving from s to next is a legal lifecycle transition.
func (s AdStatus) CanTransitionTo(next AdStatus) bool {
	for _, t := range legalTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Valid reports whether s is one of the known lifecycle states.
func (s AdStatus) Valid() bool {
	switch s {
	case AdStatusPending, AdStatusApproved, AdStatusRejected, AdStatusActive, AdStatusPaused, AdStatusCompleted:
		return true
	}
	return false
}

// PricingModel is how a dynamic ad's bid is priced.
type PricingModel string

const (
	PricingCPM PricingModel = "CPM"
	PricingCPC PricingModel = "CPC"
)

// DynamicAd is a self-serve, budget-constrained advertisement entered into the auction.
// Counters hold the invariant used + remaining == purchased, remaining >= 0.
type DynamicAd struct {
	ID                   uuid.UUID    `json:"id"`
	VenueID              uuid.UUID    `json:"venue_id"`
	Title                string       `json:"title"`
	ImageURL             string       `json:"image_url,omitempty"`
	TargetURL            string       `json:"target_url,omitempty"`
	S3Key                string       `json:"s3_key,omitempty"`
	Status               AdStatus     `json:"status"`
	PricingModel         PricingModel `json:"pricing_model"`
	BidAmount            int64        `json:"bid_amount"`
	PurchasedImpressions int64        `json:"purchased_impressions"`
	UsedImpressions      int64        `json:"used_impressions"`
	RemainingImpressions int64        `json:"remaining_impressions"`
	TotalClicks          int64        `json:"total_clicks"`
	TotalSpent           int64        `json:"total_spent"`
	TotalBudget          int64        `json:"total_budget"`
	CreatedAt            time.Time    `json:"created_at"`
	UpdatedAt            time.Time    `json:"updated_at"`
}

// StaticAd is a house/fallback advertisement served round-robin when no dynamic ad qualifies.
type StaticAd struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	ImageURL     string    `json:"image_url,omitempty"`
	TargetURL    string    `json:"target_url,omitempty"`
	DisplayOrder int       `json:"display_order"`
	Enabled      bool      `json:"enabled"`
	CreatedAt    time.Time `json:"created_at"`
}

// RotationCursor is the per-venue pointer into the static-ad pool.
// CurrentIndex is always taken modulo the pool size at read time, so pool
// resizing never produces an out-of-range index.
type RotationCursor struct {
	VenueID      uuid.UUID `json:"venue_id"`
	CurrentIndex int       `json:"current_index"`
	DisplayCount int64     `json:"display_count"`
	UpdatedAt    time.Time `json:"updated_at"`
}
