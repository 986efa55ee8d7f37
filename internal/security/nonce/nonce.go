// Package nonce issues and verifies the anti-forgery tokens rendered into a
// feed form. A token is an HS256 JWT bound to one feed session.
package nonce

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer is the iss claim of every token.
const Issuer = "archivefeed"

// DefaultTTL is how long a token stays valid after it was issued.
const DefaultTTL = 12 * time.Hour

// ErrInvalid is returned for any token that does not verify.
var ErrInvalid = errors.New("invalid nonce")

// Manager signs and verifies tokens with a shared secret.
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// New creates a manager. The secret must not be empty.
func New(secret string, ttl time.Duration) (*Manager, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("nonce secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue returns a token for sessionID.
func (m *Manager) Issue(sessionID string) (string, error) {
	if sessionID == "" {
		return "", errors.New("session id is required")
	}
	now := m.now()
	claims := jwt.RegisteredClaims{
		Issuer:    Issuer,
		Subject:   sessionID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign nonce: %w", err)
	}
	return token, nil
}

// Verify checks that token was issued by m for sessionID and has not expired.
func (m *Manager) Verify(token, sessionID string) error {
	token = strings.TrimSpace(token)
	if token == "" || sessionID == "" {
		return ErrInvalid
	}
	_, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(Issuer),
		jwt.WithSubject(sessionID),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}
