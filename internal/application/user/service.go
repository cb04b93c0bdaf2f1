package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/runease-api/internal/domain"
	"github.com/runease-api/internal/pkg/emailaddr"
	"github.com/runease-api/internal/pkg/id"
	"github.com/runease-api/internal/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

type Service interface {
	// Register creates an unverified account and sends its first code. A
	// delivery failure is reported alongside the created user.
	Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
}

type userStore interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
}

type codeIssuer interface {
	IssueCode(ctx context.Context, email string) error
}

type service struct {
	repo   userStore
	codes  codeIssuer
	lg     zerolog.Logger
	now    func() time.Time
	hashFn func(password []byte) ([]byte, error)
}

type ServiceDeps struct {
	UserRepo userStore
	Codes    codeIssuer
	Logger   zerolog.Logger
	Now      func() time.Time
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

func NewService(deps ServiceDeps) Service {
	cost := deps.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:  deps.UserRepo,
		codes: deps.Codes,
		lg:    deps.Logger.With().Str("component", "user").Logger(),
		now:   now,
		hashFn: func(p []byte) ([]byte, error) {
			return bcrypt.GenerateFromPassword(p, cost)
		},
	}
}

func (s *service) Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = emailaddr.Normalize(req.Email)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	if err := s.ensureFree(ctx, "username", req.Username, s.repo.GetByUsername); err != nil {
		return nil, err
	}
	if err := s.ensureFree(ctx, "email", req.Email, s.repo.GetByEmail); err != nil {
		return nil, err
	}

	hash, err := s.hashFn([]byte(req.Password))
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	u := &domain.User{
		UserID:       id.New(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Gender:       req.Gender,
		Role:         req.Role,
		IsVerified:   false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	s.lg.Info().Str("user_id", u.UserID).Str("role", u.Role).Msg("user registered")

	if err := s.codes.IssueCode(ctx, u.Email); err != nil {
		return u, err
	}
	return u, nil
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.Get(ctx, userID)
}

func (s *service) ensureFree(ctx context.Context, field, value string, lookup func(context.Context, string) (*domain.User, error)) error {
	_, err := lookup(ctx, value)
	switch {
	case err == nil:
		return fmt.Errorf("%s already taken: %w", field, domain.ErrConflict)
	case errors.Is(err, domain.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("check %s: %w", field, err)
	}
}
