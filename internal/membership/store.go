package membership

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/ev-access/internal/domain"
)

// ApplicationStore persists applications.
type ApplicationStore interface {
	CreateApplication(ctx context.Context, app *domain.Application) error
	GetApplication(ctx context.Context, id uuid.UUID) (*domain.Application, error)
	ListApplications(ctx context.Context, filter domain.ApplicationFilter) ([]*domain.Application, error)
	UpdateApplicationStatus(ctx context.Context, id uuid.UUID, status domain.ApplicationStatus, at time.Time) (*domain.Application, error)
}

// VerificationStore persists verifications and the members they produce.
type VerificationStore interface {
	GetApplication(ctx context.Context, id uuid.UUID) (*domain.Application, error)

	// CreateVerification returns domain.ErrVerificationExists when the
	// application already has a verification.
	CreateVerification(ctx context.Context, v *domain.Verification) error

	// RenewVerification overwrites the token, invitation code and expiry of an
	// unredeemed verification, provided its token is still previousToken.
	// Otherwise it returns domain.ErrVerificationRenewed.
	RenewVerification(ctx context.Context, v *domain.Verification, previousToken string) error

	GetVerificationByApplicationID(ctx context.Context, applicationID uuid.UUID) (*domain.Verification, error)
	GetVerificationByToken(ctx context.Context, token string) (*domain.Verification, error)

	// CompleteRedemption atomically moves a pending verification to verified
	// and inserts member. It returns domain.ErrVerificationAlreadyUsed if the
	// verification is no longer pending, domain.ErrVerificationExpired if it
	// expired before verifiedAt and domain.ErrDuplicateMembershipNumber
	// if the membership number is taken. Nothing is written on error.
	CompleteRedemption(ctx context.Context, verificationID uuid.UUID, member *domain.Member, verifiedAt time.Time) error

	GetMemberByNumber(ctx context.Context, number string) (*domain.Member, error)
}

// LeadStore persists leads.
type LeadStore interface {
	CreateLead(ctx context.Context, lead *domain.Lead) error
}

// Store is the full persistence surface. It is implemented by
// repository.Store (Postgres) and memstore.Store.
type Store interface {
	ApplicationStore
	VerificationStore
	LeadStore
	Ping(ctx context.Context) error
}
