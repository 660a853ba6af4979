package membership

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/ev-access/internal/domain"
)

const (
	// DefaultVerificationTTL is how long an issued verification link stays valid.
	DefaultVerificationTTL = 7 * 24 * time.Hour

	// maxNumberAttempts bounds retries when a membership number collides.
	maxNumberAttempts = 3
)

type VerificationConfig struct {
	TTL time.Duration
}

// VerificationService issues verifications for approved applications and
// redeems them into members.
type VerificationService struct {
	config VerificationConfig
	store  VerificationStore
	codes  *CodeGenerator
	now    func() time.Time
}

func NewVerificationService(config VerificationConfig, store VerificationStore) *VerificationService {
	if config.TTL <= 0 {
		config.TTL = DefaultVerificationTTL
	}
	return &VerificationService{
		config: config,
		store:  store,
		codes:  NewCodeGenerator(),
		now:    time.Now,
	}
}

// TTL returns the verification lifetime.
func (s *VerificationService) TTL() time.Duration {
	return s.config.TTL
}

// Issue returns the verification for an approved application, creating it on
// first use. created reports whether this call minted a token. Repeated calls
// return the same token and invitation code while it is live; a pending
// verification that has expired is renewed in place with a fresh token,
// invitation code and expiry.
func (s *VerificationService) Issue(ctx context.Context, applicationID uuid.UUID) (v *domain.Verification, created bool, err error) {
	app, err := s.store.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, false, err
	}
	if !app.IsApproved() {
		return nil, false, domain.ErrApplicationNotApproved
	}

	now := s.now()
	existing, err := s.store.GetVerificationByApplicationID(ctx, applicationID)
	if err == nil {
		if existing.IsConsumed() || !existing.IsExpired(now) {
			return existing, false, nil
		}
		return s.renew(ctx, existing, now)
	}
	if !errors.Is(err, domain.ErrVerificationNotFound) {
		return nil, false, fmt.Errorf("failed to look up verification: %w", err)
	}

	v = &domain.Verification{
		ID:            uuid.New(),
		ApplicationID: applicationID,
		Status:        domain.VerificationStatusPending,
		CreatedAt:     now,
	}
	if err := s.mint(v, now); err != nil {
		return nil, false, err
	}

	if err := s.store.CreateVerification(ctx, v); err != nil {
		if !errors.Is(err, domain.ErrVerificationExists) {
			return nil, false, fmt.Errorf("failed to create verification: %w", err)
		}
		// Lost a concurrent issuance race; hand back the winner's row.
		existing, err := s.store.GetVerificationByApplicationID(ctx, applicationID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to look up verification: %w", err)
		}
		return existing, false, nil
	}

	return v, true, nil
}

// renew rotates an expired verification. A concurrent renewal that got there
// first wins and its row is returned instead.
func (s *VerificationService) renew(ctx context.Context, expired *domain.Verification, now time.Time) (*domain.Verification, bool, error) {
	v := *expired
	v.Status = domain.VerificationStatusPending
	if err := s.mint(&v, now); err != nil {
		return nil, false, err
	}

	err := s.store.RenewVerification(ctx, &v, expired.Token)
	if errors.Is(err, domain.ErrVerificationRenewed) {
		current, err := s.store.GetVerificationByApplicationID(ctx, expired.ApplicationID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to look up verification: %w", err)
		}
		return current, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to renew verification: %w", err)
	}
	return &v, true, nil
}

// mint assigns a fresh token, invitation code and expiry to v.
func (s *VerificationService) mint(v *domain.Verification, now time.Time) error {
	token, err := GenerateToken()
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}
	code, err := s.codes.InvitationCode(now)
	if err != nil {
		return fmt.Errorf("failed to generate invitation code: %w", err)
	}
	v.Token = token
	v.InvitationCode = code
	v.ExpiresAt = now.Add(s.config.TTL)
	v.UpdatedAt = now
	return nil
}

// Redemption is the result of a successful token redemption.
type Redemption struct {
	Verification *domain.Verification
	Member       *domain.Member
	Application  *domain.Application
}

// Redeem validates token and converts its application into a member. A token
// can be redeemed at most once; later or concurrent attempts fail with
// domain.ErrVerificationAlreadyUsed. The application must still be approved.
func (s *VerificationService) Redeem(ctx context.Context, token string) (*Redemption, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.NewValidationError("token", "token is required")
	}

	v, err := s.store.GetVerificationByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if v.IsExpired(now) {
		return nil, domain.ErrVerificationExpired
	}
	if v.IsConsumed() {
		return nil, domain.ErrVerificationAlreadyUsed
	}

	app, err := s.store.GetApplication(ctx, v.ApplicationID)
	if err != nil {
		return nil, err
	}
	if !app.IsApproved() {
		return nil, domain.ErrApplicationNotApproved
	}

	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		number, err := s.codes.MembershipNumber(now)
		if err != nil {
			return nil, fmt.Errorf("failed to generate membership number: %w", err)
		}

		member := &domain.Member{
			ID:               uuid.New(),
			ApplicationID:    app.ID,
			VerificationID:   v.ID,
			MembershipNumber: number,
			FirstName:        app.FirstName,
			LastName:         app.LastName,
			Email:            app.Email,
			Phone:            app.Phone,
			VehicleType:      app.VehicleType,
			Status:           domain.MemberStatusActive,
			JoinedAt:         now,
		}

		err = s.store.CompleteRedemption(ctx, v.ID, member, now)
		if errors.Is(err, domain.ErrDuplicateMembershipNumber) {
			continue
		}
		if err != nil {
			return nil, err
		}

		verifiedAt := now
		v.Status = domain.VerificationStatusVerified
		v.EmailVerifiedAt = &verifiedAt
		v.UpdatedAt = now
		return &Redemption{Verification: v, Member: member, Application: app}, nil
	}

	return nil, fmt.Errorf("failed to allocate membership number after %d attempts: %w",
		maxNumberAttempts, domain.ErrDuplicateMembershipNumber)
}

// GetMember looks up a member by membership number.
func (s *VerificationService) GetMember(ctx context.Context, number string) (*domain.Member, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, domain.NewValidationError("membershipNumber", "membership number is required")
	}
	return s.store.GetMemberByNumber(ctx, number)
}
