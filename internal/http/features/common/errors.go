// Package common holds response views and error mapping shared by the
// feature handlers.
package common

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/tendant/ev-access/internal/domain"
	"github.com/tendant/ev-access/internal/httputil"
)

// WriteError maps a service error to its HTTP response. Unrecognized errors
// are logged with msg and reported as 500.
func WriteError(w http.ResponseWriter, logger *slog.Logger, err error, msg string, args ...any) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		httputil.FieldErrors(w, verr.Fields)

	case errors.Is(err, domain.ErrApplicationNotFound),
		errors.Is(err, domain.ErrMemberNotFound):
		httputil.ErrorWithCode(w, http.StatusNotFound, httputil.CodeNotFound, err.Error())

	case errors.Is(err, domain.ErrApplicationNotApproved):
		httputil.ErrorWithCode(w, http.StatusBadRequest, httputil.CodePreconditionFailed, err.Error())

	case errors.Is(err, domain.ErrVerificationNotFound):
		httputil.ErrorWithCode(w, http.StatusBadRequest, httputil.CodeInvalidToken, "invalid verification token")
	case errors.Is(err, domain.ErrVerificationExpired):
		httputil.ErrorWithCode(w, http.StatusBadRequest, httputil.CodeTokenExpired, "verification token expired")
	case errors.Is(err, domain.ErrVerificationAlreadyUsed):
		httputil.ErrorWithCode(w, http.StatusBadRequest, httputil.CodeTokenAlreadyUsed, "verification token already used")

	case errors.Is(err, domain.ErrMFARequired):
		httputil.ErrorWithCode(w, http.StatusUnauthorized, httputil.CodeMFARequired, err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrInvalidMFACode),
		errors.Is(err, domain.ErrInvalidToken):
		httputil.ErrorWithCode(w, http.StatusUnauthorized, httputil.CodeUnauthorized, err.Error())

	default:
		logger.Error(msg, append([]any{"error", err}, args...)...)
		httputil.ErrorWithCode(w, http.StatusInternalServerError, httputil.CodeInternal, msg)
	}
}
