package domain

import (
	"time"

	"github.com/google/uuid"
)

type VerificationStatus string

const (
	VerificationStatusPending  VerificationStatus = "pending"
	VerificationStatusVerified VerificationStatus = "verified"
	VerificationStatusExpired  VerificationStatus = "expired"
)

// Verification is the single-use credential that converts an approved
// application into a member.
type Verification struct {
	ID              uuid.UUID
	ApplicationID   uuid.UUID
	Token           string
	InvitationCode  string
	Status          VerificationStatus
	ExpiresAt       time.Time
	EmailVerifiedAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsExpired reports whether the verification is past its expiry at now.
// The timestamp is authoritative; rows are never swept to the expired status.
func (v *Verification) IsExpired(now time.Time) bool {
	return v.Status == VerificationStatusExpired || now.After(v.ExpiresAt)
}

// IsConsumed reports whether the verification has already been redeemed.
func (v *Verification) IsConsumed() bool {
	return v.Status == VerificationStatusVerified
}
