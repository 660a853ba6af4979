package domain

import (
	"time"

	"github.com/google/uuid"
)

// MemberStatus represents the state of a network membership.
type MemberStatus string

const (
	MemberStatusActive    MemberStatus = "active"
	MemberStatusSuspended MemberStatus = "suspended"
	MemberStatusCancelled MemberStatus = "cancelled"
)

// Member is created exactly once per redeemed verification.
type Member struct {
	ID               uuid.UUID
	ApplicationID    uuid.UUID
	VerificationID   uuid.UUID
	MembershipNumber string
	FirstName        string
	LastName         string
	Email            string
	Phone            string
	VehicleType      string
	Status           MemberStatus
	JoinedAt         time.Time
}

// IsActive returns true if the membership is active.
func (m *Member) IsActive() bool {
	return m.Status == MemberStatusActive
}

// Lead is a generic contact-form submission. Leads carry no review status.
type Lead struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Phone     string
	Source    string
	Message   string
	CreatedAt time.Time
}
