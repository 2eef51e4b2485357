package models

import "time"

// WaitlistStatus represents the lifecycle state of a waitlist entry.
type WaitlistStatus string

const (
	StatusPending WaitlistStatus = "pending"
	StatusInvited WaitlistStatus = "invited"
	StatusJoined  WaitlistStatus = "joined"
	StatusRevoked WaitlistStatus = "revoked"
)

// XCFrequency buckets how often a pilot flies cross-country.
type XCFrequency string

const (
	XCLessThanOne  XCFrequency = "less_than_1"
	XCOneToTwo     XCFrequency = "1_to_2"
	XCThreeToFive  XCFrequency = "3_to_5"
	XCMoreThanFive XCFrequency = "more_than_5"
)

// ValidXCFrequency reports whether the value is one of the enumerated
// buckets.
func ValidXCFrequency(v XCFrequency) bool {
	switch v {
	case XCLessThanOne, XCOneToTwo, XCThreeToFive, XCMoreThanFive:
		return true
	}
	return false
}

// WaitlistEntry represents a prospective user's signup record stored in the
// waitlist table.
type WaitlistEntry struct {
	ID                     string         `db:"id" json:"id"`
	Email                  string         `db:"email" json:"email"`
	HomeAirport            *string        `db:"home_airport" json:"home_airport,omitempty"`
	XCFlightsPerWeek       *XCFrequency   `db:"xc_flights_per_week" json:"xc_flights_per_week,omitempty"`
	Status                 WaitlistStatus `db:"status" json:"status"`
	CreatedAt              time.Time      `db:"created_at" json:"created_at"`
	InvitedAt              *time.Time     `db:"invited_at" json:"invited_at,omitempty"`
	SignedUpAt             *time.Time     `db:"signed_up_at" json:"signed_up_at,omitempty"`
	ApprovalToken          *string        `db:"approval_token" json:"approval_token,omitempty"`
	ApprovalTokenExpiresAt *time.Time     `db:"approval_token_expires_at" json:"approval_token_expires_at,omitempty"`
	ReferralCode           *string        `db:"referral_code" json:"referral_code,omitempty"`

	// Referrer is resolved at read time from the profiles table; it is never
	// stored on the entry itself.
	Referrer *Referrer `db:"-" json:"referrer,omitempty"`
}

// DeriveStatus normalises the stored status into the canonical enumeration.
// Legacy-shaped rows may carry no status at all, and a populated
// signed_up_at always wins over whatever the status column says.
func DeriveStatus(raw WaitlistStatus, signedUpAt *time.Time) WaitlistStatus {
	if signedUpAt != nil {
		return StatusJoined
	}
	if raw == "" {
		return StatusPending
	}
	return raw
}

// Normalize rewrites the entry's status through DeriveStatus. Repositories
// call it once per record on load so the rest of the core only ever sees
// canonical statuses.
func (e *WaitlistEntry) Normalize() {
	e.Status = DeriveStatus(e.Status, e.SignedUpAt)
}

// Referrer is a read-only profile record keyed by its referral code.
type Referrer struct {
	ReferralCode string  `db:"referral_code" json:"referral_code"`
	FullName     string  `db:"full_name" json:"full_name"`
	AvatarURL    *string `db:"avatar_url" json:"avatar_url,omitempty"`
}
