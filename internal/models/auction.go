package models

import (
	"time"

	"github.com/google/uuid"
)

// DecisionType tags which delivery tier produced an auction result.
type DecisionType string

const (
	DecisionDynamic DecisionType = "dynamic"
	DecisionStatic  DecisionType = "static"
	DecisionNone    DecisionType = "none"
)

// AuctionContext carries per-request scoring input. It is never persisted.
type AuctionContext struct {
	VenueID   uuid.UUID  `json:"venue_id"`
	ZoneID    string     `json:"zone_id"`
	ViewerID  *uuid.UUID `json:"viewer_id,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
	SourceIP  string     `json:"source_ip,omitempty"`
	UserAgent string     `json:"user_agent,omitempty"`
}

// AuctionResult is the outcome of one auction call. Only the counter and
// status writes it triggered are durable; the result itself is discarded.
type AuctionResult struct {
	Type        DecisionType `json:"type"`
	DynamicAd   *DynamicAd   `json:"dynamic_ad,omitempty"`
	StaticAd    *StaticAd    `json:"static_ad,omitempty"`
	Score       float64      `json:"score"`
	Diagnostics Diagnostics  `json:"diagnostics"`
}

// Diagnostics is the small per-auction debug record returned alongside a decision.
type Diagnostics struct {
	CandidateCount int     `json:"candidate_count"`
	EligibleCount  int     `json:"eligible_count"`
	Threshold      float64 `json:"threshold"`
	FallbackReason string  `json:"fallback_reason,omitempty"`
}

// ImpressionReceipt reports the outcome of a ledger impression update.
type ImpressionReceipt struct {
	Success              bool     `json:"success"`
	Reason               string   `json:"reason,omitempty"`
	RemainingImpressions int64    `json:"remaining_impressions"`
	TotalImpressions     int64    `json:"total_impressions"`
	Status               AdStatus `json:"status"`
}
