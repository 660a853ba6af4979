package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tendant/ev-access/internal/domain"
)

const (
	membersNumberKey       = "members_membership_number_key"
	membersVerificationKey = "members_verification_id_key"
)

// MembersRepository handles member persistence.
type MembersRepository struct {
	db *sql.DB
}

// NewMembersRepository creates a new members repository.
func NewMembersRepository(db *sql.DB) *MembersRepository {
	return &MembersRepository{db: db}
}

// CreateTx creates a new member within a transaction.
func (r *MembersRepository) CreateTx(ctx context.Context, q Querier, m *domain.Member) error {
	query := `
		INSERT INTO members (id, application_id, verification_id, membership_number,
		                     first_name, last_name, email, phone, vehicle_type, status, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := q.ExecContext(ctx, query,
		m.ID, m.ApplicationID, m.VerificationID, m.MembershipNumber,
		m.FirstName, m.LastName, m.Email, m.Phone, m.VehicleType, m.Status, m.JoinedAt,
	)
	if constraint, ok := uniqueConstraint(err); ok {
		switch constraint {
		case membersNumberKey:
			return domain.ErrDuplicateMembershipNumber
		case membersVerificationKey:
			return domain.ErrVerificationAlreadyUsed
		}
	}
	return err
}

// GetByMembershipNumber retrieves a member by membership number.
func (r *MembersRepository) GetByMembershipNumber(ctx context.Context, number string) (*domain.Member, error) {
	query := `
		SELECT id, application_id, verification_id, membership_number,
		       first_name, last_name, email, phone, vehicle_type, status, joined_at
		FROM members
		WHERE membership_number = $1
	`
	m := &domain.Member{}
	err := r.db.QueryRowContext(ctx, query, number).Scan(
		&m.ID, &m.ApplicationID, &m.VerificationID, &m.MembershipNumber,
		&m.FirstName, &m.LastName, &m.Email, &m.Phone, &m.VehicleType, &m.Status, &m.JoinedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrMemberNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}
