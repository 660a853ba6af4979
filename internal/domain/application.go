package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ApplicationKind distinguishes the intake forms that feed the review queue.
type ApplicationKind string

const (
	ApplicationKindEarlyAccess ApplicationKind = "early_access"
	ApplicationKindHost        ApplicationKind = "host"
)

// ParseApplicationKind returns the kind for s. An empty string selects early access.
func ParseApplicationKind(s string) (ApplicationKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "early_access", "early-access":
		return ApplicationKindEarlyAccess, true
	case "host":
		return ApplicationKindHost, true
	}
	return "", false
}

// ApplicationStatus is the review state of an application.
type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "pending"
	ApplicationStatusApproved ApplicationStatus = "approved"
	ApplicationStatusRejected ApplicationStatus = "rejected"
	ApplicationStatusInReview ApplicationStatus = "in_review"
)

// ParseApplicationStatus converts an API value into a status.
// "in-review" is accepted as an alias of in_review.
func ParseApplicationStatus(s string) (ApplicationStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return ApplicationStatusPending, true
	case "approved":
		return ApplicationStatusApproved, true
	case "rejected":
		return ApplicationStatusRejected, true
	case "in_review", "in-review":
		return ApplicationStatusInReview, true
	}
	return "", false
}

// AllowsStatus reports whether applications of this kind may hold status s.
// Only host applications go through an in_review stage.
func (k ApplicationKind) AllowsStatus(s ApplicationStatus) bool {
	switch s {
	case ApplicationStatusPending, ApplicationStatusApproved, ApplicationStatusRejected:
		return true
	case ApplicationStatusInReview:
		return k == ApplicationKindHost
	}
	return false
}

// Application is a submitted early-access or host form.
type Application struct {
	ID          uuid.UUID
	Kind        ApplicationKind
	FirstName   string
	LastName    string
	Email       string
	Phone       string
	VehicleType string
	City        string
	Notes       string
	Status      ApplicationStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsApproved returns true if the application can be issued a verification.
func (a *Application) IsApproved() bool {
	return a.Status == ApplicationStatusApproved
}

// FullName joins first and last name.
func (a *Application) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// ApplicationFilter narrows application listings. Zero values match everything.
type ApplicationFilter struct {
	Kind   ApplicationKind
	Status ApplicationStatus
	Limit  int
}
