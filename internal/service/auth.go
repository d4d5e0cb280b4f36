// Package service provides the API server's business logic for
// authentication, cart management, catalog lookups, and orders, delegating
// persistence to repository interfaces.
package service

import (
	"context"
	"errors"
	"strings"

	"github.com/evermart/storefront/internal/models"
	"github.com/evermart/storefront/internal/repository"
)

// ErrInvalidAssertion is returned when a sign-in assertion cannot be parsed.
var ErrInvalidAssertion = errors.New("invalid identity assertion")

// ErrIdentityNotAllowed is returned when the asserted identity is not on
// the allow-list.
var ErrIdentityNotAllowed = errors.New("identity not allowed")

// UserRepository defines the persistence operations required by the
// authentication service.
type UserRepository interface {
	// GetByEmail fetches a user by email; repository.ErrNotFound means
	// the identity is not allow-listed.
	GetByEmail(ctx context.Context, email string) (models.Principal, error)
	// GetByID fetches a user by ID.
	GetByID(ctx context.Context, id string) (models.Principal, error)
	// UpdateProfile applies non-empty patch fields and returns the
	// merged principal.
	UpdateProfile(ctx context.Context, id, name, phone, address string) (models.Principal, error)
}

// TokenIssuer mints bearer credentials for authenticated users.
type TokenIssuer interface {
	Create(userID string) (string, error)
}

// AuthService implements the sign-in exchange and principal operations.
type AuthService struct {
	repo   UserRepository
	tokens TokenIssuer
}

// NewAuthService constructs an AuthService using the provided repository
// and token issuer.
func NewAuthService(repo UserRepository, tokens TokenIssuer) *AuthService {
	return &AuthService{repo: repo, tokens: tokens}
}

// SignIn exchanges an identity assertion for a bearer token and principal.
// The development exchange accepts assertions of the form
// "email|Display Name" as a stand-in for a real identity-provider token;
// the email must belong to an allow-listed user.
func (s *AuthService) SignIn(ctx context.Context, assertion string) (string, models.Principal, error) {
	email, _, _ := strings.Cut(assertion, "|")
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return "", models.Principal{}, ErrInvalidAssertion
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return "", models.Principal{}, ErrIdentityNotAllowed
	}
	if err != nil {
		return "", models.Principal{}, err
	}

	signed, err := s.tokens.Create(user.ID)
	if err != nil {
		return "", models.Principal{}, err
	}
	return signed, user, nil
}

// Me fetches the principal for the authenticated user ID.
func (s *AuthService) Me(ctx context.Context, userID string) (models.Principal, error) {
	return s.repo.GetByID(ctx, userID)
}

// UpdateProfile applies a partial principal update and returns the merged
// principal.
func (s *AuthService) UpdateProfile(ctx context.Context, userID, name, phone, address string) (models.Principal, error) {
	return s.repo.UpdateProfile(ctx, userID, name, phone, address)
}
