package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/ev-access/internal/domain"
)

const verificationColumns = `id, application_id, token, invitation_code, status, expires_at,
		       email_verified_at, created_at, updated_at`

// Unique constraint on verifications.application_id (see migrations).
const verificationsApplicationKey = "verifications_application_id_key"

// VerificationsRepository handles verification persistence.
type VerificationsRepository struct {
	db *sql.DB
}

// NewVerificationsRepository creates a new verifications repository.
func NewVerificationsRepository(db *sql.DB) *VerificationsRepository {
	return &VerificationsRepository{db: db}
}

// Create creates a new verification. It returns domain.ErrVerificationExists
// if the application already has one.
func (r *VerificationsRepository) Create(ctx context.Context, v *domain.Verification) error {
	return r.CreateTx(ctx, r.db, v)
}

// CreateTx creates a new verification within a transaction.
func (r *VerificationsRepository) CreateTx(ctx context.Context, q Querier, v *domain.Verification) error {
	query := `
		INSERT INTO verifications (id, application_id, token, invitation_code, status,
		                           expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := q.ExecContext(ctx, query,
		v.ID, v.ApplicationID, v.Token, v.InvitationCode, v.Status,
		v.ExpiresAt, v.CreatedAt, v.UpdatedAt,
	)
	if constraint, ok := uniqueConstraint(err); ok && constraint == verificationsApplicationKey {
		return domain.ErrVerificationExists
	}
	return err
}

// GetByApplicationID retrieves the verification issued for an application.
func (r *VerificationsRepository) GetByApplicationID(ctx context.Context, applicationID uuid.UUID) (*domain.Verification, error) {
	query := `SELECT ` + verificationColumns + ` FROM verifications WHERE application_id = $1`
	return r.getOne(ctx, query, applicationID)
}

// GetByToken retrieves a verification by its token.
func (r *VerificationsRepository) GetByToken(ctx context.Context, token string) (*domain.Verification, error) {
	query := `SELECT ` + verificationColumns + ` FROM verifications WHERE token = $1`
	return r.getOne(ctx, query, token)
}

func (r *VerificationsRepository) getOne(ctx context.Context, query string, arg any) (*domain.Verification, error) {
	v := &domain.Verification{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&v.ID, &v.ApplicationID, &v.Token, &v.InvitationCode, &v.Status, &v.ExpiresAt,
		&v.EmailVerifiedAt, &v.CreatedAt, &v.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrVerificationNotFound
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Renew rotates the token, invitation code and expiry of an unredeemed
// verification. The update only applies while the stored token is still
// previousToken, so of two concurrent renewals exactly one wins; the other
// gets domain.ErrVerificationRenewed.
func (r *VerificationsRepository) Renew(ctx context.Context, v *domain.Verification, previousToken string) error {
	query := `
		UPDATE verifications
		SET token = $2, invitation_code = $3, status = 'pending', expires_at = $4, updated_at = $5
		WHERE id = $1 AND status <> 'verified' AND token = $6
	`
	result, err := r.db.ExecContext(ctx, query,
		v.ID, v.Token, v.InvitationCode, v.ExpiresAt, v.UpdatedAt, previousToken,
	)
	if err != nil {
		return err
	}
	return expectOneRow(result, domain.ErrVerificationRenewed)
}

// MarkVerifiedTx transitions a pending, unexpired verification to verified.
// The conditional update is the redemption compare-and-set. When it affects
// zero rows the current row decides the error: domain.ErrVerificationAlreadyUsed
// if it was redeemed, domain.ErrVerificationExpired otherwise.
func (r *VerificationsRepository) MarkVerifiedTx(ctx context.Context, q Querier, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE verifications
		SET status = 'verified', email_verified_at = $2, updated_at = $2
		WHERE id = $1 AND status = 'pending' AND expires_at >= $2
	`
	result, err := q.ExecContext(ctx, query, id, at)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 1 {
		return nil
	}

	var status domain.VerificationStatus
	err = q.QueryRowContext(ctx, `SELECT status FROM verifications WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrVerificationNotFound
	}
	if err != nil {
		return err
	}
	if status == domain.VerificationStatusVerified {
		return domain.ErrVerificationAlreadyUsed
	}
	return domain.ErrVerificationExpired
}
