package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestReservationActiveAt(t *testing.T) {
	now := time.Now()

	t.Run("reserved and unexpired is active", func(t *testing.T) {
		r := CompanyReservation{
			ReservationStatus:    ReservationStatusReserved,
			ReservationExpiresAt: now.Add(time.Hour),
		}
		assert.True(t, r.ActiveAt(now))
	})

	t.Run("expired timestamp is inactive", func(t *testing.T) {
		r := CompanyReservation{
			ReservationStatus:    ReservationStatusReserved,
			ReservationExpiresAt: now.Add(-time.Minute),
		}
		assert.False(t, r.ActiveAt(now))
	})

	t.Run("released status is inactive even before expiry", func(t *testing.T) {
		r := CompanyReservation{
			ReservationStatus:    ReservationStatusReleased,
			ReservationExpiresAt: now.Add(time.Hour),
		}
		assert.False(t, r.ActiveAt(now))
	})
}

func TestReservationHeldBy(t *testing.T) {
	r := CompanyReservation{ReservedBy: strPtr("alice")}
	assert.True(t, r.HeldBy("alice"))
	assert.False(t, r.HeldBy("bob"))

	unowned := CompanyReservation{}
	assert.False(t, unowned.HeldBy("alice"))
}

func TestAccessFor(t *testing.T) {
	now := time.Now()

	t.Run("granted for the active holder", func(t *testing.T) {
		r := CompanyReservation{
			ReservedBy:           strPtr("alice"),
			ReservationStatus:    ReservationStatusReserved,
			ReservationExpiresAt: now.Add(time.Hour),
		}
		assert.Equal(t, AccessGranted, r.AccessFor("alice", now))
	})

	t.Run("another holder wins over everything", func(t *testing.T) {
		r := CompanyReservation{
			ReservedBy:           strPtr("bob"),
			ReservationStatus:    ReservationStatusExpired,
			ReservationExpiresAt: now.Add(-time.Hour),
		}
		assert.Equal(t, AccessTakenByOther, r.AccessFor("alice", now))
	})

	t.Run("own inactive reservation reports not active", func(t *testing.T) {
		r := CompanyReservation{
			ReservedBy:           strPtr("alice"),
			ReservationStatus:    ReservationStatusReleased,
			ReservationExpiresAt: now.Add(time.Hour),
		}
		assert.Equal(t, AccessNotActive, r.AccessFor("alice", now))
	})

	t.Run("own lapsed reservation reports expired", func(t *testing.T) {
		r := CompanyReservation{
			ReservedBy:           strPtr("alice"),
			ReservationStatus:    ReservationStatusReserved,
			ReservationExpiresAt: now.Add(-time.Minute),
		}
		assert.Equal(t, AccessExpired, r.AccessFor("alice", now))
	})
}
