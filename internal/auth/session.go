// Package auth issues and verifies the short-lived signed credentials used
// by guests and administrators, and provides the HTTP middleware that
// enforces them.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Credential kinds carried in the token's type claim.
const (
	KindSession = "session"
	KindAdmin   = "admin"
)

// ErrInvalidCredential is returned when a presented credential is missing,
// malformed, expired, or of the wrong kind.
var ErrInvalidCredential = errors.New("auth: invalid credential")

// Claims is the JWT payload for both guest sessions and admin logins.
// Subject holds the token string (sessions) or the username (admins).
type Claims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// Signer issues and verifies HMAC-signed credentials.
type Signer struct {
	secret     []byte
	sessionTTL time.Duration
	adminTTL   time.Duration
}

// NewSigner creates a Signer. TTLs of zero fall back to one hour for guest
// sessions and eight hours for admin logins.
func NewSigner(secret []byte, sessionTTL, adminTTL time.Duration) *Signer {
	if sessionTTL == 0 {
		sessionTTL = time.Hour
	}
	if adminTTL == 0 {
		adminTTL = 8 * time.Hour
	}
	return &Signer{secret: secret, sessionTTL: sessionTTL, adminTTL: adminTTL}
}

// IssueSession signs a guest session credential for a validated token
// string.
func (s *Signer) IssueSession(tokenString string) (string, error) {
	return s.issue(tokenString, KindSession, s.sessionTTL)
}

// IssueAdmin signs an admin credential for a logged-in administrator.
func (s *Signer) IssueAdmin(username string) (string, error) {
	return s.issue(username, KindAdmin, s.adminTTL)
}

func (s *Signer) issue(subject, kind string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Type: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign credential: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a credential, requiring the given kind.
// Returns the subject claim. A credential of the wrong kind is rejected
// even when its signature is good.
func (s *Signer) Verify(credential, wantKind string) (string, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(credential, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrInvalidCredential
	}
	if claims.Type != wantKind || claims.Subject == "" {
		return "", ErrInvalidCredential
	}
	return claims.Subject, nil
}
