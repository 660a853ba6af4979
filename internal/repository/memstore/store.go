// Package memstore is an in-process implementation of the membership store.
// It is used for local development (STORE=memory) and in tests. Uniqueness
// rules mirror the Postgres schema.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/ev-access/internal/domain"
)

// Store keeps all records in memory behind a single mutex.
type Store struct {
	mu sync.Mutex

	applications  map[uuid.UUID]domain.Application
	verifications map[uuid.UUID]domain.Verification
	members       map[uuid.UUID]domain.Member
	leads         []domain.Lead

	verificationByApp   map[uuid.UUID]uuid.UUID
	verificationByToken map[string]uuid.UUID
	invitationCodes     map[string]struct{}
	memberByNumber      map[string]uuid.UUID
	memberByVerif       map[uuid.UUID]uuid.UUID
}

// New creates an empty store.
func New() *Store {
	return &Store{
		applications:        make(map[uuid.UUID]domain.Application),
		verifications:       make(map[uuid.UUID]domain.Verification),
		members:             make(map[uuid.UUID]domain.Member),
		verificationByApp:   make(map[uuid.UUID]uuid.UUID),
		verificationByToken: make(map[string]uuid.UUID),
		invitationCodes:     make(map[string]struct{}),
		memberByNumber:      make(map[string]uuid.UUID),
		memberByVerif:       make(map[uuid.UUID]uuid.UUID),
	}
}

func (s *Store) CreateApplication(ctx context.Context, app *domain.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applications[app.ID] = *app
	return nil
}

func (s *Store) GetApplication(ctx context.Context, id uuid.UUID) (*domain.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.applications[id]
	if !ok {
		return nil, domain.ErrApplicationNotFound
	}
	return &app, nil
}

func (s *Store) ListApplications(ctx context.Context, filter domain.ApplicationFilter) ([]*domain.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var apps []*domain.Application
	for _, app := range s.applications {
		if filter.Kind != "" && app.Kind != filter.Kind {
			continue
		}
		if filter.Status != "" && app.Status != filter.Status {
			continue
		}
		app := app
		apps = append(apps, &app)
	}
	sort.Slice(apps, func(i, j int) bool {
		return apps[i].CreatedAt.After(apps[j].CreatedAt)
	})
	if filter.Limit > 0 && len(apps) > filter.Limit {
		apps = apps[:filter.Limit]
	}
	return apps, nil
}

func (s *Store) UpdateApplicationStatus(ctx context.Context, id uuid.UUID, status domain.ApplicationStatus, at time.Time) (*domain.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.applications[id]
	if !ok {
		return nil, domain.ErrApplicationNotFound
	}
	app.Status = status
	app.UpdatedAt = at
	s.applications[id] = app
	return &app, nil
}

func (s *Store) CreateVerification(ctx context.Context, v *domain.Verification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.verificationByApp[v.ApplicationID]; ok {
		return domain.ErrVerificationExists
	}
	if _, ok := s.verificationByToken[v.Token]; ok {
		return errDuplicate("token")
	}
	if _, ok := s.invitationCodes[v.InvitationCode]; ok {
		return errDuplicate("invitation_code")
	}
	s.verifications[v.ID] = *v
	s.verificationByApp[v.ApplicationID] = v.ID
	s.verificationByToken[v.Token] = v.ID
	s.invitationCodes[v.InvitationCode] = struct{}{}
	return nil
}

func (s *Store) GetVerificationByApplicationID(ctx context.Context, applicationID uuid.UUID) (*domain.Verification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.verificationByApp[applicationID]
	if !ok {
		return nil, domain.ErrVerificationNotFound
	}
	v := s.verifications[id]
	return &v, nil
}

func (s *Store) GetVerificationByToken(ctx context.Context, token string) (*domain.Verification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.verificationByToken[token]
	if !ok {
		return nil, domain.ErrVerificationNotFound
	}
	v := s.verifications[id]
	return &v, nil
}

// RenewVerification replaces the token, invitation code and expiry of an
// unredeemed verification whose token is still previousToken.
func (s *Store) RenewVerification(ctx context.Context, v *domain.Verification, previousToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.verifications[v.ID]
	if !ok {
		return domain.ErrVerificationNotFound
	}
	if current.Status == domain.VerificationStatusVerified || current.Token != previousToken {
		return domain.ErrVerificationRenewed
	}
	if _, ok := s.verificationByToken[v.Token]; ok {
		return errDuplicate("token")
	}
	if _, ok := s.invitationCodes[v.InvitationCode]; ok {
		return errDuplicate("invitation_code")
	}

	delete(s.verificationByToken, current.Token)
	delete(s.invitationCodes, current.InvitationCode)

	current.Token = v.Token
	current.InvitationCode = v.InvitationCode
	current.Status = domain.VerificationStatusPending
	current.ExpiresAt = v.ExpiresAt
	current.UpdatedAt = v.UpdatedAt
	s.verifications[v.ID] = current
	s.verificationByToken[current.Token] = current.ID
	s.invitationCodes[current.InvitationCode] = struct{}{}
	return nil
}

// CompleteRedemption performs the pending->verified compare-and-set and the
// member insert under one lock acquisition.
func (s *Store) CompleteRedemption(ctx context.Context, verificationID uuid.UUID, member *domain.Member, verifiedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.verifications[verificationID]
	if !ok {
		return domain.ErrVerificationNotFound
	}
	if v.Status == domain.VerificationStatusVerified {
		return domain.ErrVerificationAlreadyUsed
	}
	if v.Status != domain.VerificationStatusPending || verifiedAt.After(v.ExpiresAt) {
		return domain.ErrVerificationExpired
	}
	if _, ok := s.memberByVerif[verificationID]; ok {
		return domain.ErrVerificationAlreadyUsed
	}
	if _, ok := s.memberByNumber[member.MembershipNumber]; ok {
		return domain.ErrDuplicateMembershipNumber
	}

	at := verifiedAt
	v.Status = domain.VerificationStatusVerified
	v.EmailVerifiedAt = &at
	v.UpdatedAt = verifiedAt
	s.verifications[verificationID] = v

	s.members[member.ID] = *member
	s.memberByNumber[member.MembershipNumber] = member.ID
	s.memberByVerif[verificationID] = member.ID
	return nil
}

func (s *Store) GetMemberByNumber(ctx context.Context, number string) (*domain.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.memberByNumber[number]
	if !ok {
		return nil, domain.ErrMemberNotFound
	}
	m := s.members[id]
	return &m, nil
}

func (s *Store) CreateLead(ctx context.Context, lead *domain.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leads = append(s.leads, *lead)
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	return nil
}

// Counts reports the number of stored verifications and members.
func (s *Store) Counts() (verifications, members int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.verifications), len(s.members)
}

// Leads returns a copy of the stored leads.
func (s *Store) Leads() []domain.Lead {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Lead(nil), s.leads...)
}

// ExpireVerification moves a verification's expiry to at. Test helper.
func (s *Store) ExpireVerification(id uuid.UUID, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.verifications[id]; ok {
		v.ExpiresAt = at
		s.verifications[id] = v
	}
}

type errDuplicate string

func (e errDuplicate) Error() string {
	return "duplicate " + string(e)
}
