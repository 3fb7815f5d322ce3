package model

import "time"

// CompanyReservation is a row in the company registry: one company, at
// most one active claim.
type CompanyReservation struct {
	CompanyKey            string            `db:"company_key" json:"company_key"`
	CompanyName           string            `db:"company_name" json:"company_name"`
	CompanyNameNormalized string            `db:"company_name_normalized" json:"company_name_normalized"`
	ReservedBy            *string           `db:"reserved_by" json:"reserved_by,omitempty"`
	ReservationStatus     ReservationStatus `db:"reservation_status" json:"reservation_status"`
	ReservedAt            time.Time         `db:"reserved_at" json:"reserved_at"`
	LastActivityAt        time.Time         `db:"last_activity_at" json:"last_activity_at"`
	ReservationExpiresAt  time.Time         `db:"reservation_expires_at" json:"reservation_expires_at"`
}

// ActiveAt reports whether the reservation currently blocks other
// researchers: status is reserved and the expiry has not passed.
func (c *CompanyReservation) ActiveAt(now time.Time) bool {
	return c.ReservationStatus == ReservationStatusReserved && c.ReservationExpiresAt.After(now)
}

// HeldBy reports whether researcherID owns this reservation row.
func (c *CompanyReservation) HeldBy(researcherID string) bool {
	return c.ReservedBy != nil && *c.ReservedBy == researcherID
}

// AccessFor evaluates the research-flow validity predicate for one
// researcher. The reason ordering matters for error messages: another
// active holder wins over staleness of our own claim.
func (c *CompanyReservation) AccessFor(researcherID string, now time.Time) AccessReason {
	if !c.HeldBy(researcherID) {
		return AccessTakenByOther
	}
	if c.ReservationStatus != ReservationStatusReserved {
		return AccessNotActive
	}
	if !c.ReservationExpiresAt.After(now) {
		return AccessExpired
	}
	return AccessGranted
}

type CreateReservationParams struct {
	CompanyKey            string
	CompanyName           string
	CompanyNameNormalized string
	ReservedBy            string
	ExpiresAt             time.Time
}
