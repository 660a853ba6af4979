package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/ev-access/internal/domain"
)

// Store groups the Postgres repositories behind the operations the
// membership services need.
type Store struct {
	db            *sql.DB
	applications  *ApplicationsRepository
	verifications *VerificationsRepository
	members       *MembersRepository
	leads         *LeadsRepository
}

// NewStore creates a Store backed by db.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:            db,
		applications:  NewApplicationsRepository(db),
		verifications: NewVerificationsRepository(db),
		members:       NewMembersRepository(db),
		leads:         NewLeadsRepository(db),
	}
}

func (s *Store) CreateApplication(ctx context.Context, app *domain.Application) error {
	return s.applications.Create(ctx, app)
}

func (s *Store) GetApplication(ctx context.Context, id uuid.UUID) (*domain.Application, error) {
	return s.applications.GetByID(ctx, id)
}

func (s *Store) ListApplications(ctx context.Context, filter domain.ApplicationFilter) ([]*domain.Application, error) {
	return s.applications.List(ctx, filter)
}

func (s *Store) UpdateApplicationStatus(ctx context.Context, id uuid.UUID, status domain.ApplicationStatus, at time.Time) (*domain.Application, error) {
	return s.applications.UpdateStatus(ctx, id, status, at)
}

func (s *Store) CreateVerification(ctx context.Context, v *domain.Verification) error {
	return s.verifications.Create(ctx, v)
}

func (s *Store) RenewVerification(ctx context.Context, v *domain.Verification, previousToken string) error {
	return s.verifications.Renew(ctx, v, previousToken)
}

func (s *Store) GetVerificationByApplicationID(ctx context.Context, applicationID uuid.UUID) (*domain.Verification, error) {
	return s.verifications.GetByApplicationID(ctx, applicationID)
}

func (s *Store) GetVerificationByToken(ctx context.Context, token string) (*domain.Verification, error) {
	return s.verifications.GetByToken(ctx, token)
}

// CompleteRedemption marks the verification verified and creates the member
// in one transaction. Either both writes land or neither does.
func (s *Store) CompleteRedemption(ctx context.Context, verificationID uuid.UUID, member *domain.Member, verifiedAt time.Time) error {
	return Tx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.verifications.MarkVerifiedTx(ctx, tx, verificationID, verifiedAt); err != nil {
			return err
		}
		return s.members.CreateTx(ctx, tx, member)
	})
}

func (s *Store) GetMemberByNumber(ctx context.Context, number string) (*domain.Member, error) {
	return s.members.GetByMembershipNumber(ctx, number)
}

func (s *Store) CreateLead(ctx context.Context, lead *domain.Lead) error {
	return s.leads.Create(ctx, lead)
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
