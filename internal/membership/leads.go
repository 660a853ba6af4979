package membership

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/ev-access/internal/domain"
	"github.com/tendant/ev-access/internal/validate"
)

const (
	maxSourceLength  = 64
	maxMessageLength = 2000
)

// LeadService records generic contact-form submissions.
type LeadService struct {
	store LeadStore
	now   func() time.Time
}

// NewLeadService creates a new lead service.
func NewLeadService(store LeadStore) *LeadService {
	return &LeadService{store: store, now: time.Now}
}

// SubmitLeadInput is the public contact form.
type SubmitLeadInput struct {
	Name    string
	Email   string
	Phone   string
	Source  string
	Message string
}

// Submit validates and stores a lead.
func (s *LeadService) Submit(ctx context.Context, in SubmitLeadInput) (*domain.Lead, error) {
	lead := &domain.Lead{
		Name:    validate.CleanText(in.Name),
		Email:   validate.NormalizeEmail(in.Email),
		Phone:   validate.CleanText(in.Phone),
		Source:  validate.CleanText(in.Source),
		Message: validate.CleanText(in.Message),
	}

	verr := &domain.ValidationError{}
	checkLength(verr, "name", "name", lead.Name, 1, maxNameLength)
	checkLength(verr, "source", "source", lead.Source, 0, maxSourceLength)
	checkLength(verr, "message", "message", lead.Message, 0, maxMessageLength)
	if err := validate.ValidateEmail(lead.Email, false, false); err != nil {
		verr.Add("email", err.Error())
	}
	if err := validate.ValidatePhone(lead.Phone); err != nil {
		verr.Add("phone", err.Error())
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	lead.ID = uuid.New()
	lead.CreatedAt = s.now()
	if err := s.store.CreateLead(ctx, lead); err != nil {
		return nil, fmt.Errorf("failed to create lead: %w", err)
	}
	return lead, nil
}
