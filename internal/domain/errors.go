package domain

import (
	"errors"
	"sort"
	"strings"
)

// Lookup errors
var (
	ErrApplicationNotFound  = errors.New("application not found")
	ErrVerificationNotFound = errors.New("verification not found")
	ErrMemberNotFound       = errors.New("member not found")
)

// Workflow errors
var (
	ErrApplicationNotApproved  = errors.New("application is not approved")
	ErrVerificationExpired     = errors.New("verification token expired")
	ErrVerificationAlreadyUsed = errors.New("verification token already used")
	ErrVerificationExists      = errors.New("verification already exists for application")
)

// Storage errors
var (
	ErrDuplicateMembershipNumber = errors.New("membership number already exists")
	ErrVerificationRenewed       = errors.New("verification was renewed or redeemed concurrently")
)

// Admin errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrMFARequired        = errors.New("multi-factor code required")
	ErrInvalidMFACode     = errors.New("invalid multi-factor code")
)

// ValidationError reports caller-fixable input problems keyed by field name.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, detail string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: detail}}
}

// Add records a problem with field. The first problem reported for a field wins.
func (e *ValidationError) Add(field, detail string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = detail
	}
}

// Err returns e as an error, or nil when no field failed.
func (e *ValidationError) Err() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
