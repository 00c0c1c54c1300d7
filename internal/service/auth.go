// Package service provides business-logic services for authentication and
// health-record management, delegating persistence to repository interfaces.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/avolkova/healthtrack/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// minPasswordLength is the shortest accepted password.
const minPasswordLength = 8

// ErrInvalidCredentials is returned when login fails because the email is
// unknown or the password does not match.
var ErrInvalidCredentials = errors.New("invalid email or password")

// UserRepository defines the persistence operations required by the
// authentication service.
type UserRepository interface {
	// CreateUser stores a new user, assigning its ID and creation timestamp.
	// Returns models.ErrEmailTaken if the email is already registered.
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	// GetUserByEmail fetches a user by email, or models.ErrNotFound.
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
}

// TokenIssuer creates bearer tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// AuthService implements user registration and credential-based login.
type AuthService struct {
	repo   UserRepository
	tokens TokenIssuer
}

// NewAuthService constructs an AuthService using the provided repository
// and token issuer.
func NewAuthService(repo UserRepository, tokens TokenIssuer) *AuthService {
	return &AuthService{repo: repo, tokens: tokens}
}

// Register validates the registration input, hashes the password, and
// stores the new user. Validation problems, including a taken email, are
// reported as a *models.ValidationError covering every invalid field.
func (s *AuthService) Register(ctx context.Context, fullName, email, password string) (models.User, error) {
	errs := make(map[string]string)

	if strings.TrimSpace(fullName) == "" {
		errs["full_name"] = "this field is required"
	}
	if strings.TrimSpace(email) == "" {
		errs["email"] = "this field is required"
	} else if _, err := mail.ParseAddress(email); err != nil {
		errs["email"] = "must be a valid email address"
	}
	if password == "" {
		errs["password"] = "this field is required"
	} else if len(password) < minPasswordLength {
		errs["password"] = fmt.Sprintf("must be at least %d characters", minPasswordLength)
	}

	if len(errs) > 0 {
		return models.User{}, &models.ValidationError{Fields: errs}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.CreateUser(ctx, models.User{
		FullName:     fullName,
		Email:        email,
		PasswordHash: hash,
	})
	if errors.Is(err, models.ErrEmailTaken) {
		return models.User{}, &models.ValidationError{
			Fields: map[string]string{"email": "already in use"},
		}
	}
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// Login verifies the credentials and issues a bearer token for the user.
// Unknown emails and wrong passwords both yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	return s.tokens.Issue(user.ID)
}
