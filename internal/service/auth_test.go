package service

import (
	"context"
	"errors"
	"testing"

	"github.com/avolkova/healthtrack/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// fakeUserRepo implements UserRepository for testing.
type fakeUserRepo struct {
	created   []models.User
	createErr error
	user      models.User
	getErr    error
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	if f.createErr != nil {
		return models.User{}, f.createErr
	}
	user.ID = "user-1"
	f.created = append(f.created, user)
	return user, nil
}

func (f *fakeUserRepo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	return f.user, f.getErr
}

// fakeIssuer implements TokenIssuer for testing.
type fakeIssuer struct {
	token string
	err   error
}

func (f *fakeIssuer) Issue(userID string) (string, error) {
	return f.token, f.err
}

func TestRegister_Success(t *testing.T) {
	repo := &fakeUserRepo{}
	svc := NewAuthService(repo, &fakeIssuer{})

	user, err := svc.Register(context.Background(), "First User", "firstuser@email.com", "password123")
	require.NoError(t, err)

	assert.Equal(t, "user-1", user.ID)
	assert.Equal(t, "First User", user.FullName)
	require.Len(t, repo.created, 1)

	// the stored hash verifies against the original password
	stored := repo.created[0]
	assert.NoError(t, bcrypt.CompareHashAndPassword(stored.PasswordHash, []byte("password123")))
}

func TestRegister_CollectsFieldErrors(t *testing.T) {
	tests := []struct {
		name       string
		fullName   string
		email      string
		password   string
		wantFields []string
	}{
		{
			name:       "all missing",
			wantFields: []string{"full_name", "email", "password"},
		},
		{
			name:       "short password",
			fullName:   "Short Pass User",
			email:      "shortpass@email.com",
			password:   "123",
			wantFields: []string{"password"},
		},
		{
			name:       "malformed email",
			fullName:   "Bad Email",
			email:      "not-an-email",
			password:   "password123",
			wantFields: []string{"email"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeUserRepo{}
			svc := NewAuthService(repo, &fakeIssuer{})

			_, err := svc.Register(context.Background(), tt.fullName, tt.email, tt.password)

			var verr *models.ValidationError
			require.ErrorAs(t, err, &verr)
			for _, field := range tt.wantFields {
				assert.Contains(t, verr.Fields, field)
			}
			assert.Empty(t, repo.created, "nothing persisted on validation failure")
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	repo := &fakeUserRepo{createErr: models.ErrEmailTaken}
	svc := NewAuthService(repo, &fakeIssuer{})

	_, err := svc.Register(context.Background(), "Second User", "duplicate@email.com", "password123")

	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "already in use", verr.Fields["email"])
}

func TestLogin_Success(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := &fakeUserRepo{user: models.User{ID: "user-1", Email: "user@email.com", PasswordHash: hash}}
	svc := NewAuthService(repo, &fakeIssuer{token: "signed-token"})

	token, err := svc.Login(context.Background(), "user@email.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "signed-token", token)
}

func TestLogin_UnknownEmail(t *testing.T) {
	repo := &fakeUserRepo{getErr: models.ErrNotFound}
	svc := NewAuthService(repo, &fakeIssuer{})

	_, err := svc.Login(context.Background(), "missing@email.com", "password123")
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
}

func TestLogin_WrongPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := &fakeUserRepo{user: models.User{ID: "user-1", PasswordHash: hash}}
	svc := NewAuthService(repo, &fakeIssuer{})

	_, err = svc.Login(context.Background(), "user@email.com", "wrong-password")
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
}
