package models

import (
	"time"

	"github.com/google/uuid"
)

// ImpressionLog is one delivered-impression row, tagged with the decision type
// that produced it. Written on every ad serve, dynamic or static.
type ImpressionLog struct {
	ID           uuid.UUID    `json:"id"`
	VenueID      uuid.UUID    `json:"venue_id"`
	ZoneID       string       `json:"zone_id,omitempty"`
	AdID         *uuid.UUID   `json:"ad_id,omitempty"`
	DecisionType DecisionType `json:"decision_type"`
	Score        float64      `json:"score"`
	CreatedAt    time.Time    `json:"created_at"`
}

// AuditAction classifies an ad audit log row.
const (
	AuditActionImpression = "impression"
	AuditActionClick      = "click"
	AuditActionReconcile  = "reconcile"
)

// AdAuditLog is an append-only bookkeeping row for counter mutations on a
// dynamic ad: the delta applied and the outcome, success or failure.
type AdAuditLog struct {
	ID               uuid.UUID `json:"id"`
	AdID             uuid.UUID `json:"ad_id"`
	Action           string    `json:"action"`
	ImpressionsDelta int64     `json:"impressions_delta"`
	ClicksDelta      int64     `json:"clicks_delta"`
	Success          bool      `json:"success"`
	Reason           string    `json:"reason,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// AuctionStats is the aggregate impression split over a date range.
type AuctionStats struct {
	Total             int64   `json:"total"`
	Dynamic           int64   `json:"dynamic"`
	Static            int64   `json:"static"`
	DynamicPercentage float64 `json:"dynamic_percentage"`
	StaticPercentage  float64 `json:"static_percentage"`
}
