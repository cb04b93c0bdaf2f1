package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/runease-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Create(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}

type mockIssuer struct{ mock.Mock }

func (m *mockIssuer) IssueCode(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

// --- helpers ---

var fixedNow = time.Date(2026, 4, 2, 6, 30, 0, 0, time.UTC)

func newSvc(repo *mockUserStore, codes *mockIssuer) Service {
	return NewService(ServiceDeps{
		UserRepo:   repo,
		Codes:      codes,
		Logger:     zerolog.Nop(),
		Now:        func() time.Time { return fixedNow },
		BcryptCost: bcrypt.MinCost,
	})
}

func validReq() domain.CreateUserRequest {
	return domain.CreateUserRequest{
		Username: "alice",
		Email:    "Alice@Example.com",
		Password: "correct horse",
		Gender:   "female",
		Role:     domain.RoleAthlete,
	}
}

// --- Register ---

func TestRegister_Success(t *testing.T) {
	repo := &mockUserStore{}
	codes := &mockIssuer{}
	repo.On("GetByUsername", mock.Anything, "alice").Return(nil, domain.ErrNotFound)
	repo.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, domain.ErrNotFound)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)
	codes.On("IssueCode", mock.Anything, "alice@example.com").Return(nil)

	u, err := newSvc(repo, codes).Register(context.Background(), validReq())
	require.NoError(t, err)
	assert.NotEmpty(t, u.UserID)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, domain.RoleAthlete, u.Role)
	assert.False(t, u.IsVerified)
	assert.Nil(t, u.OTPCode)
	assert.Equal(t, fixedNow, u.CreatedAt)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("correct horse")))
	repo.AssertExpectations(t)
	codes.AssertExpectations(t)
}

func TestRegister_ValidationError(t *testing.T) {
	tests := map[string]func(*domain.CreateUserRequest){
		"short password": func(r *domain.CreateUserRequest) { r.Password = "short" },
		"bad email":      func(r *domain.CreateUserRequest) { r.Email = "alice" },
		"unknown role":   func(r *domain.CreateUserRequest) { r.Role = "admin" },
		"missing gender": func(r *domain.CreateUserRequest) { r.Gender = "" },
		"short username": func(r *domain.CreateUserRequest) { r.Username = "  al " },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			repo := &mockUserStore{}
			req := validReq()
			mutate(&req)
			_, err := newSvc(repo, &mockIssuer{}).Register(context.Background(), req)
			assert.ErrorIs(t, err, domain.ErrValidation)
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestRegister_UsernameTaken(t *testing.T) {
	repo := &mockUserStore{}
	repo.On("GetByUsername", mock.Anything, "alice").Return(&domain.User{UserID: "u1"}, nil)

	_, err := newSvc(repo, &mockIssuer{}).Register(context.Background(), validReq())
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.ErrorContains(t, err, "username")
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegister_EmailTaken(t *testing.T) {
	repo := &mockUserStore{}
	repo.On("GetByUsername", mock.Anything, "alice").Return(nil, domain.ErrNotFound)
	repo.On("GetByEmail", mock.Anything, "alice@example.com").Return(&domain.User{UserID: "u1"}, nil)

	_, err := newSvc(repo, &mockIssuer{}).Register(context.Background(), validReq())
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.ErrorContains(t, err, "email")
}

func TestRegister_LookupFailureIsNotConflict(t *testing.T) {
	repo := &mockUserStore{}
	repo.On("GetByUsername", mock.Anything, "alice").Return(nil, errors.New("timeout"))

	_, err := newSvc(repo, &mockIssuer{}).Register(context.Background(), validReq())
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrConflict)
}

func TestRegister_CreateError(t *testing.T) {
	repo := &mockUserStore{}
	codes := &mockIssuer{}
	repo.On("GetByUsername", mock.Anything, "alice").Return(nil, domain.ErrNotFound)
	repo.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, domain.ErrNotFound)
	repo.On("Create", mock.Anything, mock.Anything).Return(domain.ErrConflict)

	u, err := newSvc(repo, codes).Register(context.Background(), validReq())
	assert.Nil(t, u)
	assert.ErrorIs(t, err, domain.ErrConflict)
	codes.AssertNotCalled(t, "IssueCode", mock.Anything, mock.Anything)
}

func TestRegister_DeliveryFailureStillReturnsUser(t *testing.T) {
	repo := &mockUserStore{}
	codes := &mockIssuer{}
	repo.On("GetByUsername", mock.Anything, "alice").Return(nil, domain.ErrNotFound)
	repo.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, domain.ErrNotFound)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	codes.On("IssueCode", mock.Anything, "alice@example.com").Return(domain.ErrDelivery)

	u, err := newSvc(repo, codes).Register(context.Background(), validReq())
	require.NotNil(t, u)
	assert.ErrorIs(t, err, domain.ErrDelivery)
}

// --- Get ---

func TestGet_Delegates(t *testing.T) {
	repo := &mockUserStore{}
	repo.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1"}, nil)
	repo.On("Get", mock.Anything, "missing").Return(nil, domain.ErrNotFound)

	svc := newSvc(repo, &mockIssuer{})
	u, err := svc.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.UserID)

	_, err = svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
