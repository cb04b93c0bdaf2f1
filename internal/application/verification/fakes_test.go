package verification

import (
	"context"
	"sync"
	"time"

	"github.com/runease-api/internal/domain"
	"github.com/runease-api/internal/infrastructure/smtp"
	"github.com/stretchr/testify/mock"
)

// memStore mirrors the row-level semantics of the real stores.
type memStore struct {
	mu    sync.Mutex
	users map[string]*domain.User // by email
	// beforeSet runs inside SetOTP ahead of the unverified guard, standing in
	// for a write that lands between the read and the update.
	beforeSet func(u *domain.User)
}

func newMemStore(users ...*domain.User) *memStore {
	s := &memStore{users: map[string]*domain.User{}}
	for _, u := range users {
		s.users[u.Email] = u
	}
	return s
}

func (s *memStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *memStore) byID(userID string) *domain.User {
	for _, u := range s.users {
		if u.UserID == userID {
			return u
		}
	}
	return nil
}

func (s *memStore) SetOTP(_ context.Context, userID, code string, expiry time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.byID(userID)
	if u == nil {
		return domain.ErrNotFound
	}
	if s.beforeSet != nil {
		s.beforeSet(u)
	}
	if u.IsVerified {
		return domain.ErrConflict
	}
	u.OTPCode = &code
	u.OTPExpiry = &expiry
	return nil
}

func (s *memStore) ConsumeOTP(_ context.Context, userID, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.byID(userID)
	if u == nil || u.OTPCode == nil || *u.OTPCode != code {
		return domain.ErrInvalidCode
	}
	u.IsVerified = true
	u.OTPCode = nil
	u.OTPExpiry = nil
	return nil
}

func (s *memStore) user(email string) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.users[email]
}

// outbox captures every email instead of sending it.
type outbox struct {
	mu   sync.Mutex
	sent []smtp.VerificationEmail
	err  error
}

func (o *outbox) SendVerificationCode(_ context.Context, e smtp.VerificationEmail) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return o.err
	}
	o.sent = append(o.sent, e)
	return nil
}

func (o *outbox) lastCode() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.sent) == 0 {
		return ""
	}
	return o.sent[len(o.sent)-1].Code
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.Set(c.Now().Add(d))
}

type mockCooldown struct{ mock.Mock }

func (m *mockCooldown) Acquire(ctx context.Context, email string, window time.Duration) (bool, error) {
	args := m.Called(ctx, email, window)
	return args.Bool(0), args.Error(1)
}

func (m *mockCooldown) Release(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *mockCooldown) Remaining(ctx context.Context, email string) (time.Duration, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(time.Duration), args.Error(1)
}

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserStore) SetOTP(ctx context.Context, userID, code string, expiry time.Time) error {
	return m.Called(ctx, userID, code, expiry).Error(0)
}

func (m *mockUserStore) ConsumeOTP(ctx context.Context, userID, code string) error {
	return m.Called(ctx, userID, code).Error(0)
}

var _ UserStore = (*memStore)(nil)
var _ smtp.Mailer = (*outbox)(nil)
