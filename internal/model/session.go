package model

import "time"

type Session struct {
	ID           string    `db:"id" json:"id"`
	ResearcherID string    `db:"researcher_id" json:"researcherId"`
	TokenHash    string    `db:"token_hash" json:"-"`
	ExpiresAt    time.Time `db:"expires_at" json:"expiresAt"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

type CreateSessionParams struct {
	ResearcherID string
	TokenHash    string
	ExpiresAt    time.Time
}

// LoginToken is a single-use magic-link credential. Only its hash is
// stored; the raw token travels in the emailed link.
type LoginToken struct {
	ID        string     `db:"id" json:"id"`
	Email     string     `db:"email" json:"email"`
	TokenHash string     `db:"token_hash" json:"-"`
	ExpiresAt time.Time  `db:"expires_at" json:"expiresAt"`
	UsedAt    *time.Time `db:"used_at" json:"usedAt,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
}

type CreateLoginTokenParams struct {
	Email     string
	TokenHash string
	ExpiresAt time.Time
}
