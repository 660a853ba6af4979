package membership

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/ev-access/internal/domain"
	"github.com/tendant/ev-access/internal/validate"
)

// Field length limits for intake forms.
const (
	maxNameLength    = 100
	maxVehicleLength = 100
	maxCityLength    = 100
	maxNotesLength   = 2000
)

// ApplicationConfig holds intake validation settings.
type ApplicationConfig struct {
	StrictEmailValidation bool
	BlockDisposableEmail  bool
}

// ApplicationService handles application intake and the admin status state machine.
type ApplicationService struct {
	config ApplicationConfig
	store  ApplicationStore
	now    func() time.Time
}

// NewApplicationService creates a new application service.
func NewApplicationService(config ApplicationConfig, store ApplicationStore) *ApplicationService {
	return &ApplicationService{
		config: config,
		store:  store,
		now:    time.Now,
	}
}

// SubmitApplicationInput is the public intake form.
type SubmitApplicationInput struct {
	Kind        string
	FirstName   string
	LastName    string
	Email       string
	Phone       string
	VehicleType string
	City        string
	Notes       string
}

// Submit validates the form and stores a pending application.
func (s *ApplicationService) Submit(ctx context.Context, in SubmitApplicationInput) (*domain.Application, error) {
	verr := &domain.ValidationError{}

	kind, ok := domain.ParseApplicationKind(in.Kind)
	if !ok {
		verr.Add("kind", "kind must be early_access or host")
	}

	app := &domain.Application{
		Kind:        kind,
		FirstName:   validate.CleanText(in.FirstName),
		LastName:    validate.CleanText(in.LastName),
		Email:       validate.NormalizeEmail(in.Email),
		Phone:       validate.CleanText(in.Phone),
		VehicleType: validate.CleanText(in.VehicleType),
		City:        validate.CleanText(in.City),
		Notes:       validate.CleanText(in.Notes),
	}

	checkLength(verr, "firstName", "first name", app.FirstName, 1, maxNameLength)
	checkLength(verr, "lastName", "last name", app.LastName, 1, maxNameLength)
	if kind == domain.ApplicationKindEarlyAccess {
		checkLength(verr, "vehicleType", "vehicle type", app.VehicleType, 1, maxVehicleLength)
	} else {
		checkLength(verr, "vehicleType", "vehicle type", app.VehicleType, 0, maxVehicleLength)
	}
	checkLength(verr, "city", "city", app.City, 0, maxCityLength)
	checkLength(verr, "notes", "notes", app.Notes, 0, maxNotesLength)
	if err := validate.ValidateEmail(app.Email, s.config.StrictEmailValidation, s.config.BlockDisposableEmail); err != nil {
		verr.Add("email", err.Error())
	}
	if err := validate.ValidatePhone(app.Phone); err != nil {
		verr.Add("phone", err.Error())
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	now := s.now()
	app.ID = uuid.New()
	app.Status = domain.ApplicationStatusPending
	app.CreatedAt = now
	app.UpdatedAt = now

	if err := s.store.CreateApplication(ctx, app); err != nil {
		return nil, fmt.Errorf("failed to create application: %w", err)
	}
	return app, nil
}

// Get retrieves an application by ID.
func (s *ApplicationService) Get(ctx context.Context, id uuid.UUID) (*domain.Application, error) {
	return s.store.GetApplication(ctx, id)
}

// List returns applications matching the filter.
func (s *ApplicationService) List(ctx context.Context, filter domain.ApplicationFilter) ([]*domain.Application, error) {
	return s.store.ListApplications(ctx, filter)
}

// UpdateStatus moves an application to target. Any status valid for the
// application's kind is accepted from any other status; approval enables
// verification issuance but does not trigger it.
func (s *ApplicationService) UpdateStatus(ctx context.Context, id uuid.UUID, target string) (*domain.Application, error) {
	status, ok := domain.ParseApplicationStatus(target)
	if !ok {
		return nil, domain.NewValidationError("status", fmt.Sprintf("unknown status %q", target))
	}

	app, err := s.store.GetApplication(ctx, id)
	if err != nil {
		return nil, err
	}

	if !app.Kind.AllowsStatus(status) {
		return nil, domain.NewValidationError("status",
			fmt.Sprintf("status %s is not valid for %s applications", status, app.Kind))
	}

	return s.store.UpdateApplicationStatus(ctx, id, status, s.now())
}

func checkLength(verr *domain.ValidationError, field, label, value string, min, max int) {
	if err := validate.ValidateStringLength(label, value, min, max); err != nil {
		verr.Add(field, err.Error())
	}
}
