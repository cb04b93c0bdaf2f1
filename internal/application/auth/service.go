package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/runease-api/internal/domain"
	"github.com/runease-api/internal/pkg/emailaddr"
	"github.com/runease-api/internal/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

// Session is what a successful login hands back to the client.
type Session struct {
	User      *domain.User `json:"user"`
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	ExpiresAt time.Time    `json:"expires_at"`
}

type Service interface {
	// Login checks the password of a verified account and issues an access token.
	Login(ctx context.Context, req domain.LoginRequest) (*Session, error)
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type tokenSigner interface {
	Sign(u *domain.User) (string, time.Time, error)
}

type service struct {
	users  userStore
	tokens tokenSigner
	lg     zerolog.Logger
	// dummyHash is compared against when the email is unknown so both paths
	// spend one bcrypt comparison.
	dummyHash []byte
}

func NewService(users userStore, tokens tokenSigner, lg zerolog.Logger) Service {
	dummy, _ := bcrypt.GenerateFromPassword([]byte("runease-unknown-account"), bcrypt.MinCost)
	return &service{
		users:     users,
		tokens:    tokens,
		lg:        lg.With().Str("component", "auth").Logger(),
		dummyHash: dummy,
	}
}

func (s *service) Login(ctx context.Context, req domain.LoginRequest) (*Session, error) {
	req.Email = emailaddr.Normalize(req.Email)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	u, err := s.users.GetByEmail(ctx, req.Email)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(req.Password))
		return nil, domain.ErrInvalidCredentials
	case err != nil:
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		s.lg.Info().Str("user_id", u.UserID).Msg("login rejected: wrong password")
		return nil, domain.ErrInvalidCredentials
	}
	if !u.IsVerified {
		return nil, fmt.Errorf("verify %s first: %w", u.Email, domain.ErrUnverified)
	}

	token, exp, err := s.tokens.Sign(u)
	if err != nil {
		return nil, err
	}
	s.lg.Info().Str("user_id", u.UserID).Msg("user logged in")
	return &Session{User: u, Token: token, TokenType: "Bearer", ExpiresAt: exp}, nil
}
