package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pquerna/otp/totp"
	"github.com/tendant/ev-access/internal/domain"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=1,p=4$") {
		t.Errorf("unexpected hash encoding %q", hash)
	}

	if !VerifyPassword("correct horse battery staple", hash) {
		t.Error("VerifyPassword() rejected the correct password")
	}
	if VerifyPassword("wrong", hash) {
		t.Error("VerifyPassword() accepted a wrong password")
	}

	other, _ := HashPassword("correct horse battery staple")
	if other == hash {
		t.Error("expected distinct salts for two hashes")
	}
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	for _, h := range []string{"", "plain", "$argon2i$v=19$m=1,t=1,p=1$AA$AA", "$argon2id$v=19$m=x$AA$AA"} {
		if VerifyPassword("pw", h) {
			t.Errorf("VerifyPassword() accepted malformed hash %q", h)
		}
	}
}

func newAdmin(t *testing.T, totpSecret string) *AdminService {
	t.Helper()
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	return NewAdminService(AdminConfig{
		Email:        "Ops@Example.com",
		PasswordHash: hash,
		TOTPSecret:   totpSecret,
		JWTSecret:    []byte("test-secret-test-secret-test-sec"),
		Issuer:       "ev-access",
	})
}

func TestAdminLogin(t *testing.T) {
	svc := newAdmin(t, "")

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"valid", "ops@example.com", "s3cret-pass", nil},
		{"email case ignored", " OPS@example.com ", "s3cret-pass", nil},
		{"wrong password", "ops@example.com", "nope", domain.ErrInvalidCredentials},
		{"wrong email", "other@example.com", "s3cret-pass", domain.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := svc.Login(tt.email, tt.password, "")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Login() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if token.TokenType != "Bearer" || token.ExpiresIn != int(DefaultAdminTokenTTL.Seconds()) {
				t.Errorf("unexpected token %+v", token)
			}

			claims, err := svc.ValidateToken(token.AccessToken)
			if err != nil {
				t.Fatalf("ValidateToken() error = %v", err)
			}
			if claims.Role != RoleAdmin || claims.Email != "ops@example.com" {
				t.Errorf("unexpected claims %+v", claims)
			}
		})
	}
}

func TestAdminLogin_Disabled(t *testing.T) {
	svc := NewAdminService(AdminConfig{})
	if svc.Enabled() {
		t.Fatal("expected service without credentials to be disabled")
	}
	if _, err := svc.Login("", "", ""); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("Login() error = %v, want ErrInvalidCredentials", err)
	}
}

func TestAdminLogin_TOTP(t *testing.T) {
	key, err := totp.Generate(totp.GenerateOpts{Issuer: "ev-access", AccountName: "ops@example.com"})
	if err != nil {
		t.Fatalf("totp.Generate() error = %v", err)
	}
	svc := newAdmin(t, key.Secret())

	if _, err := svc.Login("ops@example.com", "s3cret-pass", ""); !errors.Is(err, domain.ErrMFARequired) {
		t.Errorf("missing code: error = %v, want ErrMFARequired", err)
	}
	if _, err := svc.Login("ops@example.com", "s3cret-pass", "000000"); !errors.Is(err, domain.ErrInvalidMFACode) {
		t.Errorf("bad code: error = %v, want ErrInvalidMFACode", err)
	}

	code, err := totp.GenerateCode(key.Secret(), time.Now())
	if err != nil {
		t.Fatalf("totp.GenerateCode() error = %v", err)
	}
	if _, err := svc.Login("ops@example.com", "s3cret-pass", code); err != nil {
		t.Errorf("valid code: error = %v", err)
	}
}

func TestValidateToken_Rejects(t *testing.T) {
	svc := newAdmin(t, "")
	token, err := svc.IssueToken()
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	t.Run("expired", func(t *testing.T) {
		expired := newAdmin(t, "")
		expired.now = func() time.Time { return time.Now().Add(DefaultAdminTokenTTL + time.Minute) }
		if _, err := expired.ValidateToken(token.AccessToken); !errors.Is(err, domain.ErrInvalidToken) {
			t.Errorf("error = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewAdminService(AdminConfig{JWTSecret: []byte("another-secret")})
		if _, err := other.ValidateToken(token.AccessToken); !errors.Is(err, domain.ErrInvalidToken) {
			t.Errorf("error = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("missing role", func(t *testing.T) {
		claims := AdminClaims{RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}
		signed, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
			SignedString([]byte("test-secret-test-secret-test-sec"))
		if _, err := svc.ValidateToken(signed); !errors.Is(err, domain.ErrInvalidToken) {
			t.Errorf("error = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := svc.ValidateToken("not.a.jwt"); !errors.Is(err, domain.ErrInvalidToken) {
			t.Errorf("error = %v, want ErrInvalidToken", err)
		}
	})
}
