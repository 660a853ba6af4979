package verifications

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/ev-access/internal/domain"
	"github.com/tendant/ev-access/internal/http/features/common"
	"github.com/tendant/ev-access/internal/httputil"
	"github.com/tendant/ev-access/internal/membership"
	"github.com/tendant/ev-access/internal/notification"
)

// Notifier delivers the verification and welcome emails.
type Notifier interface {
	SendVerificationEmail(ctx context.Context, e notification.VerificationEmail) error
	SendWelcomeEmail(ctx context.Context, e notification.WelcomeEmail) error
}

type Handler struct {
	logger        *slog.Logger
	verifications *membership.VerificationService
	applications  *membership.ApplicationService
	notifier      Notifier
	baseURL       string
}

// NewHandler creates a verification handler. baseURL is the public site that
// serves the verify-email page.
func NewHandler(
	logger *slog.Logger,
	verifications *membership.VerificationService,
	applications *membership.ApplicationService,
	notifier Notifier,
	baseURL string,
) *Handler {
	return &Handler{
		logger:        logger,
		verifications: verifications,
		applications:  applications,
		notifier:      notifier,
		baseURL:       strings.TrimRight(baseURL, "/"),
	}
}

type SendRequest struct {
	ApplicationID string `json:"applicationId"`
}

type SendResponse struct {
	VerificationToken string    `json:"verificationToken"`
	InvitationCode    string    `json:"invitationCode"`
	VerificationURL   string    `json:"verificationUrl"`
	ExpiresAt         time.Time `json:"expiresAt"`
	EmailSent         bool      `json:"emailSent"`
	Created           bool      `json:"created"`
}

// Send issues (or re-sends) the verification for an approved application and
// emails the link to the applicant.
// POST /v1/verifications
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	var req SendRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.ApplicationID) == "" {
		httputil.FieldErrors(w, map[string]string{"applicationId": "applicationId is required"})
		return
	}
	appID, err := uuid.Parse(strings.TrimSpace(req.ApplicationID))
	if err != nil {
		httputil.FieldErrors(w, map[string]string{"applicationId": "invalid application id"})
		return
	}

	v, created, err := h.verifications.Issue(r.Context(), appID)
	if errors.Is(err, domain.ErrApplicationNotFound) {
		httputil.ErrorWithCode(w, http.StatusBadRequest, httputil.CodeNotFound, err.Error())
		return
	}
	if err != nil {
		common.WriteError(w, h.logger, err, "failed to issue verification", "application_id", appID)
		return
	}

	verifyURL := h.verificationURL(v.Token)
	emailSent := h.sendVerificationEmail(r.Context(), appID, v, verifyURL)

	h.logger.Info("verification issued",
		"application_id", appID,
		"verification_id", v.ID,
		"created", created,
		"email_sent", emailSent,
	)

	httputil.JSON(w, http.StatusOK, SendResponse{
		VerificationToken: v.Token,
		InvitationCode:    v.InvitationCode,
		VerificationURL:   verifyURL,
		ExpiresAt:         v.ExpiresAt,
		EmailSent:         emailSent,
		Created:           created,
	})
}

func (h *Handler) sendVerificationEmail(ctx context.Context, appID uuid.UUID, v *domain.Verification, verifyURL string) bool {
	app, err := h.applications.Get(ctx, appID)
	if err != nil {
		h.logger.Error("failed to load application for verification email", "error", err, "application_id", appID)
		return false
	}

	err = h.notifier.SendVerificationEmail(ctx, notification.VerificationEmail{
		To:             app.Email,
		Name:           app.FullName(),
		VerifyURL:      verifyURL,
		InvitationCode: v.InvitationCode,
		ExpiresAt:      v.ExpiresAt,
	})
	if err != nil {
		h.logger.Error("failed to send verification email", "error", err, "application_id", appID)
		return false
	}
	return true
}

func (h *Handler) verificationURL(token string) string {
	return h.baseURL + "/verify-email?token=" + url.QueryEscape(token)
}

type VerifyEmailRequest struct {
	Token string `json:"token"`
}

type VerifyEmailResponse struct {
	Member       common.MemberView       `json:"member"`
	Verification common.VerificationView `json:"verification"`
}

// VerifyEmail redeems a verification token and creates the member.
// POST /v1/verify-email
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" && r.ContentLength != 0 {
		var req VerifyEmailRequest
		if !httputil.DecodeJSON(w, r, &req) {
			return
		}
		token = req.Token
	}

	result, err := h.verifications.Redeem(r.Context(), token)
	if err != nil {
		common.WriteError(w, h.logger, err, "failed to verify email")
		return
	}

	h.logger.Info("verification redeemed",
		"verification_id", result.Verification.ID,
		"member_id", result.Member.ID,
		"membership_number", result.Member.MembershipNumber,
	)

	if err := h.notifier.SendWelcomeEmail(r.Context(), notification.WelcomeEmail{
		To:               result.Member.Email,
		Name:             result.Application.FullName(),
		MembershipNumber: result.Member.MembershipNumber,
	}); err != nil {
		h.logger.Warn("failed to send welcome email", "error", err, "member_id", result.Member.ID)
	}

	httputil.JSON(w, http.StatusOK, VerifyEmailResponse{
		Member:       common.NewMemberView(result.Member),
		Verification: common.NewVerificationView(result.Verification),
	})
}
