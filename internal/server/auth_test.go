package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"arena-server/internal/config"
)

func newTestAuth(t *testing.T, ttl time.Duration) *Auth {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	a, err := NewAuth(config.AdminConfig{Username: "root", PasswordHash: string(hash), JWTSecret: "s3cret", TokenTTL: ttl})
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func TestLoginAndValidate(t *testing.T) {
	a := newTestAuth(t, time.Hour)
	token, exp, err := a.Login("root", "pw", "10.0.0.1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if time.Until(exp) < 59*time.Minute {
		t.Errorf("expected expiry about an hour away, got %v", exp)
	}
	sub, err := a.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if sub != "root" {
		t.Errorf("expected subject root, got %s", sub)
	}
}

func TestLoginWrongUser(t *testing.T) {
	a := newTestAuth(t, time.Hour)
	if _, _, err := a.Login("admin", "pw", "10.0.0.1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginRateLimit(t *testing.T) {
	a := newTestAuth(t, time.Hour)
	for i := 0; i < maxLoginAttempts; i++ {
		a.Login("root", "wrong", "10.0.0.2")
	}
	if _, _, err := a.Login("root", "pw", "10.0.0.2"); !errors.Is(err, ErrLoginRateLimited) {
		t.Errorf("expected ErrLoginRateLimited, got %v", err)
	}
	// other addresses are unaffected
	if _, _, err := a.Login("root", "pw", "10.0.0.3"); err != nil {
		t.Errorf("expected login from another address, got %v", err)
	}
}

func TestValidateRejectsForeignTokens(t *testing.T) {
	a := newTestAuth(t, time.Hour)

	other, _ := NewAuth(config.AdminConfig{Username: "root", JWTSecret: "different"})
	foreign, _, _ := other.generateToken("root")
	if _, err := a.ValidateToken(foreign); err == nil {
		t.Error("expected a token signed with another secret to fail")
	}

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   "root",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	})
	signed, _ := expired.SignedString([]byte("s3cret"))
	if _, err := a.ValidateToken(signed); err == nil {
		t.Error("expected an expired token to fail")
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Issuer: tokenIssuer, Subject: "root"})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if _, err := a.ValidateToken(unsigned); err == nil {
		t.Error("expected an unsigned token to fail")
	}
}

func TestMiddleware(t *testing.T) {
	a := newTestAuth(t, time.Hour)
	h := a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin/snapshot", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}

	token, _, _ := a.Login("root", "pw", "10.0.0.4")
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTeapot {
		t.Errorf("expected the wrapped handler to run, got %d", rec.Code)
	}
}
