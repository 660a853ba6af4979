package repository

import (
	"context"
	"database/sql"

	"github.com/tendant/ev-access/internal/domain"
)

// LeadsRepository handles lead persistence.
type LeadsRepository struct {
	db *sql.DB
}

// NewLeadsRepository creates a new leads repository.
func NewLeadsRepository(db *sql.DB) *LeadsRepository {
	return &LeadsRepository{db: db}
}

// Create creates a new lead.
func (r *LeadsRepository) Create(ctx context.Context, lead *domain.Lead) error {
	query := `
		INSERT INTO leads (id, name, email, phone, source, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		lead.ID, lead.Name, lead.Email, lead.Phone, lead.Source, lead.Message, lead.CreatedAt,
	)
	return err
}
