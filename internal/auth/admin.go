package auth

import (
	"crypto/subtle"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/tendant/ev-access/internal/domain"
)

const (
	// DefaultAdminTokenTTL is the lifetime of an admin access token.
	DefaultAdminTokenTTL = 8 * time.Hour

	// RoleAdmin is the only role the back office issues.
	RoleAdmin = "admin"

	totpPeriod = 30
	totpWindow = 1 // Allow ±30 seconds clock drift
)

// AdminConfig holds the single back-office operator account.
type AdminConfig struct {
	Email        string
	PasswordHash string // argon2id, see cmd/ev-access-hashpw
	TOTPSecret   string // optional base32 secret; empty disables the second factor
	JWTSecret    []byte
	TokenTTL     time.Duration
	Issuer       string
}

// AdminClaims represents the claims in an admin access token.
type AdminClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
}

// AdminToken is returned by a successful login.
type AdminToken struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresIn   int       `json:"expiresIn"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// AdminService authenticates the operator and validates their tokens.
type AdminService struct {
	config AdminConfig
	now    func() time.Time
}

// NewAdminService creates a new admin service.
func NewAdminService(config AdminConfig) *AdminService {
	if config.TokenTTL <= 0 {
		config.TokenTTL = DefaultAdminTokenTTL
	}
	config.Email = strings.ToLower(strings.TrimSpace(config.Email))
	return &AdminService{config: config, now: time.Now}
}

// Enabled reports whether an operator account is configured.
func (s *AdminService) Enabled() bool {
	return s.config.Email != "" && s.config.PasswordHash != "" && len(s.config.JWTSecret) > 0
}

// Login verifies the operator's credentials and issues an access token.
// When a TOTP secret is configured, code is required.
func (s *AdminService) Login(email, password, code string) (*AdminToken, error) {
	if !s.Enabled() {
		return nil, domain.ErrInvalidCredentials
	}

	email = strings.ToLower(strings.TrimSpace(email))
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(s.config.Email)) == 1
	passwordOK := VerifyPassword(password, s.config.PasswordHash)
	if !emailOK || !passwordOK {
		return nil, domain.ErrInvalidCredentials
	}

	if s.config.TOTPSecret != "" {
		code = strings.TrimSpace(code)
		if code == "" {
			return nil, domain.ErrMFARequired
		}
		valid, err := totp.ValidateCustom(code, s.config.TOTPSecret, s.now(), totp.ValidateOpts{
			Period:    totpPeriod,
			Skew:      totpWindow,
			Digits:    otp.DigitsSix,
			Algorithm: otp.AlgorithmSHA1,
		})
		if err != nil || !valid {
			return nil, domain.ErrInvalidMFACode
		}
	}

	return s.IssueToken()
}

// IssueToken signs a new admin access token.
func (s *AdminService) IssueToken() (*AdminToken, error) {
	now := s.now()
	expiresAt := now.Add(s.config.TokenTTL)

	claims := AdminClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.config.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    s.config.Issuer,
		},
		Email: s.config.Email,
		Role:  RoleAdmin,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.config.JWTSecret)
	if err != nil {
		return nil, err
	}

	return &AdminToken{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.config.TokenTTL.Seconds()),
		ExpiresAt:   expiresAt,
	}, nil
}

// ValidateToken validates an admin access token and returns the claims.
func (s *AdminService) ValidateToken(tokenString string) (*AdminClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrInvalidToken
		}
		return s.config.JWTSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	claims, ok := token.Claims.(*AdminClaims)
	if !ok || !token.Valid || claims.Role != RoleAdmin {
		return nil, domain.ErrInvalidToken
	}

	return claims, nil
}
