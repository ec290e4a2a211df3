package models

import (
	"time"

	"github.com/google/uuid"
)

// Voucher is a claimable credit batch issued by an admin or venue.
type Voucher struct {
	ID         uuid.UUID `json:"id"`
	VenueID    *uuid.UUID `json:"venue_id,omitempty"`
	Code       string    `json:"code"`
	Value      int64     `json:"value"`
	MaxClaims  int       `json:"max_claims"`
	ClaimCount int       `json:"claim_count"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// VoucherClaim records one user's claim of a voucher.
type VoucherClaim struct {
	ID        uuid.UUID `json:"id"`
	VoucherID uuid.UUID `json:"voucher_id"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
