package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification kinds used across the platform.
const (
	NotificationAdApproved       = "ad_approved"
	NotificationAdRejected       = "ad_rejected"
	NotificationAdCompleted      = "ad_completed"
	NotificationBookingConfirmed = "booking_confirmed"
	NotificationBookingCancelled = "booking_cancelled"
	NotificationVoucherClaimed   = "voucher_claimed"
)

// Notification is one in-app notification row for a user.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Body      string    `json:"body,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
