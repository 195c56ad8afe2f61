// Package auth issues and verifies the JWTs that carry a viewer's identity
// and role between requests. The rest of the application only ever sees the
// resulting access.Viewer.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"songvault/internal/access"
)

// ErrInvalidToken covers every parse or verification failure.
var ErrInvalidToken = errors.New("invalid token")

// Manager signs and parses HS256 tokens.
type Manager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func NewManager(secret, issuer string, ttl time.Duration) *Manager {
	return &Manager{secret: []byte(secret), issuer: issuer, ttl: ttl}
}

type claims struct {
	Username string      `json:"username"`
	Role     access.Role `json:"role"`
	jwt.RegisteredClaims
}

// Issue returns a signed token for the given user.
func (m *Manager) Issue(userID uuid.UUID, username string, role access.Role) (string, error) {
	now := time.Now().UTC()
	cl := claims{
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			ID:        uuid.NewString(),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, cl).SignedString(m.secret)
}

// Parse verifies signature and expiry and returns the viewer the token
// represents.
func (m *Manager) Parse(raw string) (access.Viewer, error) {
	var cl claims
	tkn, err := jwt.ParseWithClaims(raw, &cl, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tkn.Valid {
		return access.Viewer{}, ErrInvalidToken
	}

	userID, err := uuid.Parse(cl.Subject)
	if err != nil {
		return access.Viewer{}, ErrInvalidToken
	}
	if !cl.Role.Valid() {
		return access.Viewer{}, ErrInvalidToken
	}

	return access.Viewer{ID: userID, Role: cl.Role}, nil
}
