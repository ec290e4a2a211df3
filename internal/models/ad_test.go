package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdStatusTransitions(t *testing.T) {
	allowed := []struct{ from, to AdStatus }{
		{AdStatusPending, AdStatusApproved},
		{AdStatusPending, AdStatusRejected},
		{AdStatusApproved, AdStatusActive},
		{AdStatusActive, AdStatusPaused},
		{AdStatusActive, AdStatusCompleted},
		{AdStatusPaused, AdStatusActive},
	}
	all := []AdStatus{AdStatusPending, AdStatusApproved, AdStatusRejected, AdStatusActive, AdStatusPaused, AdStatusCompleted}

	isAllowed := func(from, to AdStatus) bool {
		for _, a := range allowed {
			if a.from == from && a.to == to {
				return true
			}
		}
		return false
	}
	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, isAllowed(from, to), from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestAdStatusValid(t *testing.T) {
	assert.True(t, AdStatusActive.Valid())
	assert.False(t, AdStatus("archived").Valid())
}

func TestBookingStatusTransitions(t *testing.T) {
	assert.True(t, BookingStatusPending.CanTransitionTo(BookingStatusConfirmed))
	assert.True(t, BookingStatusPending.CanTransitionTo(BookingStatusCancelled))
	assert.True(t, BookingStatusConfirmed.CanTransitionTo(BookingStatusCancelled))
	assert.False(t, BookingStatusCancelled.CanTransitionTo(BookingStatusConfirmed))
	assert.False(t, BookingStatusConfirmed.CanTransitionTo(BookingStatusPending))
}
