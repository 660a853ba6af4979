package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/ev-access/internal/domain"
)

const applicationColumns = `id, kind, first_name, last_name, email, phone, vehicle_type,
		       city, notes, status, created_at, updated_at`

const defaultListLimit = 100

// ApplicationsRepository handles application persistence.
type ApplicationsRepository struct {
	db *sql.DB
}

// NewApplicationsRepository creates a new applications repository.
func NewApplicationsRepository(db *sql.DB) *ApplicationsRepository {
	return &ApplicationsRepository{db: db}
}

// Create creates a new application.
func (r *ApplicationsRepository) Create(ctx context.Context, app *domain.Application) error {
	return r.CreateTx(ctx, r.db, app)
}

// CreateTx creates a new application within a transaction.
func (r *ApplicationsRepository) CreateTx(ctx context.Context, q Querier, app *domain.Application) error {
	query := `
		INSERT INTO applications (id, kind, first_name, last_name, email, phone, vehicle_type,
		                          city, notes, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := q.ExecContext(ctx, query,
		app.ID, app.Kind, app.FirstName, app.LastName, app.Email, app.Phone, app.VehicleType,
		app.City, app.Notes, app.Status, app.CreatedAt, app.UpdatedAt,
	)
	return err
}

// GetByID retrieves an application by ID.
func (r *ApplicationsRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Application, error) {
	return r.GetByIDTx(ctx, r.db, id)
}

// GetByIDTx retrieves an application by ID within a transaction.
func (r *ApplicationsRepository) GetByIDTx(ctx context.Context, q Querier, id uuid.UUID) (*domain.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1`
	app, err := scanApplication(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrApplicationNotFound
	}
	if err != nil {
		return nil, err
	}
	return app, nil
}

// List returns applications matching the filter, newest first.
func (r *ApplicationsRepository) List(ctx context.Context, filter domain.ApplicationFilter) ([]*domain.Application, error) {
	var (
		where []string
		args  []any
	)
	if filter.Kind != "" {
		args = append(args, filter.Kind)
		where = append(where, fmt.Sprintf("kind = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	args = append(args, limit)

	query := `SELECT ` + applicationColumns + ` FROM applications`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var apps []*domain.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

// UpdateStatus sets the review status and returns the updated application.
func (r *ApplicationsRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ApplicationStatus, at time.Time) (*domain.Application, error) {
	query := `
		UPDATE applications
		SET status = $2, updated_at = $3
		WHERE id = $1
		RETURNING ` + applicationColumns
	app, err := scanApplication(r.db.QueryRowContext(ctx, query, id, status, at))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrApplicationNotFound
	}
	if err != nil {
		return nil, err
	}
	return app, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (*domain.Application, error) {
	app := &domain.Application{}
	err := row.Scan(
		&app.ID, &app.Kind, &app.FirstName, &app.LastName, &app.Email, &app.Phone, &app.VehicleType,
		&app.City, &app.Notes, &app.Status, &app.CreatedAt, &app.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return app, nil
}
