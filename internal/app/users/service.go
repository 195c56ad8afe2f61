// Package users covers account registration and login.
package users

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/google/uuid"

	"songvault/internal/access"
	"songvault/internal/store"
)

// ErrInvalidInput marks signup failures the caller can correct. Anything
// not wrapping it is an internal failure.
var ErrInvalidInput = errors.New("invalid input")

var (
	emailRe      = regexp.MustCompile(`^\w+[\w\-.]*@\w+((-\w+)|(\w*))\.[a-z]{2,3}$`)
	whitespaceRe = regexp.MustCompile(`\s`)
)

// UserStore captures the account persistence the service needs.
type UserStore interface {
	CreateUser(ctx context.Context, username, email, password string) (uuid.UUID, error)
	ValidateCredentials(ctx context.Context, username, password string) (store.User, error)
}

// TokenIssuer mints the credential handed back after login.
type TokenIssuer interface {
	Issue(userID uuid.UUID, username string, role access.Role) (string, error)
}

// Service exposes account workflows.
type Service struct {
	store  UserStore
	tokens TokenIssuer
}

// New constructs a user Service.
func New(store UserStore, tokens TokenIssuer) *Service {
	return &Service{store: store, tokens: tokens}
}

// Signup registers a new account and returns its id.
func (s *Service) Signup(ctx context.Context, username, email, password string) (uuid.UUID, error) {
	if email == "" || !emailRe.MatchString(email) {
		return uuid.Nil, fmt.Errorf("%w: invalid e-mail address provided", ErrInvalidInput)
	}
	if username == "" || whitespaceRe.MatchString(username) {
		return uuid.Nil, fmt.Errorf("%w: username must not be empty or contain spaces", ErrInvalidInput)
	}
	if password == "" || whitespaceRe.MatchString(password) {
		return uuid.Nil, fmt.Errorf("%w: password must not be empty or contain spaces", ErrInvalidInput)
	}

	return s.store.CreateUser(ctx, username, email, password)
}

// Login validates credentials and returns a signed token.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.store.ValidateCredentials(ctx, username, password)
	if err != nil {
		return "", err
	}

	token, err := s.tokens.Issue(user.ID, user.Username, user.Role)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}
