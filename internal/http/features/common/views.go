package common

import (
	"time"

	"github.com/google/uuid"
	"github.com/tendant/ev-access/internal/domain"
)

// ApplicationView is the JSON form of an application.
type ApplicationView struct {
	ID          uuid.UUID `json:"id"`
	Kind        string    `json:"kind"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	VehicleType string    `json:"vehicleType,omitempty"`
	City        string    `json:"city,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func NewApplicationView(a *domain.Application) ApplicationView {
	return ApplicationView{
		ID:          a.ID,
		Kind:        string(a.Kind),
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		Email:       a.Email,
		Phone:       a.Phone,
		VehicleType: a.VehicleType,
		City:        a.City,
		Notes:       a.Notes,
		Status:      string(a.Status),
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

// VerificationView is the JSON form of a verification. The token is never echoed.
type VerificationView struct {
	ID              uuid.UUID  `json:"id"`
	ApplicationID   uuid.UUID  `json:"applicationId"`
	InvitationCode  string     `json:"invitationCode"`
	Status          string     `json:"status"`
	ExpiresAt       time.Time  `json:"expiresAt"`
	EmailVerifiedAt *time.Time `json:"emailVerifiedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

func NewVerificationView(v *domain.Verification) VerificationView {
	return VerificationView{
		ID:              v.ID,
		ApplicationID:   v.ApplicationID,
		InvitationCode:  v.InvitationCode,
		Status:          string(v.Status),
		ExpiresAt:       v.ExpiresAt,
		EmailVerifiedAt: v.EmailVerifiedAt,
		CreatedAt:       v.CreatedAt,
	}
}

// MemberView is the full member record, returned to the member at redemption
// and to admins.
type MemberView struct {
	ID               uuid.UUID `json:"id"`
	ApplicationID    uuid.UUID `json:"applicationId"`
	VerificationID   uuid.UUID `json:"verificationId"`
	MembershipNumber string    `json:"membershipNumber"`
	FirstName        string    `json:"firstName"`
	LastName         string    `json:"lastName"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone,omitempty"`
	VehicleType      string    `json:"vehicleType,omitempty"`
	Status           string    `json:"status"`
	JoinedAt         time.Time `json:"joinedAt"`
}

func NewMemberView(m *domain.Member) MemberView {
	return MemberView{
		ID:               m.ID,
		ApplicationID:    m.ApplicationID,
		VerificationID:   m.VerificationID,
		MembershipNumber: m.MembershipNumber,
		FirstName:        m.FirstName,
		LastName:         m.LastName,
		Email:            m.Email,
		Phone:            m.Phone,
		VehicleType:      m.VehicleType,
		Status:           string(m.Status),
		JoinedAt:         m.JoinedAt,
	}
}

// PublicMemberView omits contact details.
type PublicMemberView struct {
	MembershipNumber string    `json:"membershipNumber"`
	FirstName        string    `json:"firstName"`
	LastName         string    `json:"lastName"`
	Status           string    `json:"status"`
	JoinedAt         time.Time `json:"joinedAt"`
}

func NewPublicMemberView(m *domain.Member) PublicMemberView {
	return PublicMemberView{
		MembershipNumber: m.MembershipNumber,
		FirstName:        m.FirstName,
		LastName:         m.LastName,
		Status:           string(m.Status),
		JoinedAt:         m.JoinedAt,
	}
}

// LeadView is the JSON form of a lead.
type LeadView struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Source    string    `json:"source,omitempty"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewLeadView(l *domain.Lead) LeadView {
	return LeadView{
		ID:        l.ID,
		Name:      l.Name,
		Email:     l.Email,
		Phone:     l.Phone,
		Source:    l.Source,
		Message:   l.Message,
		CreatedAt: l.CreatedAt,
	}
}
