package models

import (
	"time"

	"github.com/google/uuid"
)

// BookingStatus is the lifecycle state of a table/guest-list booking.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// CanTransitionTo reports whether moving from s to next is legal:
// pending -> confirmed|cancelled, confirmed -> cancelled.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	switch s {
	case BookingStatusPending:
		return next == BookingStatusConfirmed || next == BookingStatusCancelled
	case BookingStatusConfirmed:
		return next == BookingStatusCancelled
	}
	return false
}

// Booking is a table or guest-list reservation at a venue.
type Booking struct {
	ID         uuid.UUID     `json:"id"`
	VenueID    uuid.UUID     `json:"venue_id"`
	UserID     uuid.UUID     `json:"user_id"`
	PartySize  int           `json:"party_size"`
	BookedFor  time.Time     `json:"booked_for"`
	Status     BookingStatus `json:"status"`
	Note       string        `json:"note,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}
