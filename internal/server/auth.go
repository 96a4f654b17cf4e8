package server

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"arena-server/internal/config"
)

const (
	defaultTokenTTL  = 24 * time.Hour
	loginRateWindow  = 60 * time.Second
	maxLoginAttempts = 10
	tokenIssuer      = "arena-server"
)

var (
	ErrAdminDisabled      = errors.New("admin access is not configured")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrLoginRateLimited   = errors.New("too many login attempts, try again later")
)

// Auth guards the admin endpoints with a bcrypt password and HS256 tokens
type Auth struct {
	username string
	hash     []byte
	secret   []byte
	ttl      time.Duration

	// login attempts per address
	rateMu  sync.Mutex
	rateMap map[string]*rateEntry
}

type rateEntry struct {
	Count   int
	ResetAt time.Time
}

// NewAuth builds the admin guard from cfg. Without a password hash every
// login fails with ErrAdminDisabled. A missing secret is generated, so
// tokens do not survive a restart.
func NewAuth(cfg config.AdminConfig) (*Auth, error) {
	secret := []byte(cfg.JWTSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate jwt secret: %w", err)
		}
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &Auth{
		username: cfg.Username,
		hash:     []byte(cfg.PasswordHash),
		secret:   secret,
		ttl:      ttl,
		rateMap:  make(map[string]*rateEntry),
	}, nil
}

func (a *Auth) Enabled() bool { return len(a.hash) > 0 }

// Login checks the credentials and returns a signed token
func (a *Auth) Login(username, password, ip string) (string, time.Time, error) {
	if !a.Enabled() {
		return "", time.Time{}, ErrAdminDisabled
	}
	if !a.checkRate(ip) {
		return "", time.Time{}, ErrLoginRateLimited
	}
	if subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) != 1 {
		return "", time.Time{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(a.hash, []byte(password)); err != nil {
		return "", time.Time{}, ErrInvalidCredentials
	}
	return a.generateToken(username)
}

// ValidateToken returns the subject of a valid token
func (a *Auth) ValidateToken(tokenStr string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.Subject == "" {
		return "", fmt.Errorf("invalid token")
	}
	return claims.Subject, nil
}

func (a *Auth) generateToken(username string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(a.ttl)
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

func (a *Auth) checkRate(ip string) bool {
	a.rateMu.Lock()
	defer a.rateMu.Unlock()

	now := time.Now()
	entry, ok := a.rateMap[ip]
	if !ok || now.After(entry.ResetAt) {
		a.rateMap[ip] = &rateEntry{Count: 1, ResetAt: now.Add(loginRateWindow)}
		return true
	}
	entry.Count++
	return entry.Count <= maxLoginAttempts
}

// Middleware rejects requests without a valid bearer token
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenStr == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		if _, err := a.ValidateToken(tokenStr); err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}
