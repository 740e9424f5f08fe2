package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/closet-hub/closet-hub/internal/domain/session"
	"github.com/closet-hub/closet-hub/internal/domain/user"
)

type memUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]*user.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: map[uuid.UUID]*user.User{}}
}

func (m *memUsers) Create(_ context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.users[u.UserID] = &cp
	return nil
}

func (m *memUsers) GetByID(_ context.Context, userID uuid.UUID) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[userID]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memUsers) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users), nil
}

type memSessions struct {
	mu       sync.Mutex
	sessions map[string]*session.Session
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: map[string]*session.Session{}}
}

func (m *memSessions) Create(_ context.Context, s *session.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.sessions[s.TokenHash] = &cp
	return nil
}

func (m *memSessions) GetByTokenHash(_ context.Context, tokenHash string) (*session.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[tokenHash]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

func (m *memSessions) DeleteByTokenHash(_ context.Context, tokenHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, tokenHash)
	return nil
}

func (m *memSessions) DeleteExpired(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	now := time.Now().UTC()
	for hash, s := range m.sessions {
		if s.IsExpired(now) {
			delete(m.sessions, hash)
			n++
		}
	}
	return n, nil
}

func newTestService(t *testing.T) (*Service, *memUsers) {
	t.Helper()
	users := newMemUsers()
	return NewService(users, newMemSessions(), time.Hour, zerolog.Nop()), users
}

func TestBootstrapAndLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	u, err := svc.Bootstrap(ctx, "Admin", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, "admin", u.Username)
	assert.Equal(t, user.RoleAdmin, u.Role)

	// Second bootstrap is refused.
	_, err = svc.Bootstrap(ctx, "other", "pass-word-1")
	require.Error(t, err)

	res, err := svc.Login(ctx, "admin", "s3cret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)

	authed, err := svc.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, u.UserID, authed.UserID)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Bootstrap(ctx, "admin", "s3cret-pass")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "admin", "wrong")
	require.Error(t, err)

	_, err = svc.Login(ctx, "nobody", "s3cret-pass")
	require.Error(t, err)
}

func TestLogoutInvalidatesSession(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Bootstrap(ctx, "admin", "s3cret-pass")
	require.NoError(t, err)

	res, err := svc.Login(ctx, "admin", "s3cret-pass")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, res.Token))
	_, err = svc.Authenticate(ctx, res.Token)
	require.Error(t, err)
}

func TestAuthenticateDisabledUser(t *testing.T) {
	svc, users := newTestService(t)
	ctx := context.Background()
	u, err := svc.Bootstrap(ctx, "admin", "s3cret-pass")
	require.NoError(t, err)
	res, err := svc.Login(ctx, "admin", "s3cret-pass")
	require.NoError(t, err)

	users.mu.Lock()
	users.users[u.UserID].Status = user.StatusDisabled
	users.mu.Unlock()

	_, err = svc.Authenticate(ctx, res.Token)
	require.Error(t, err)
}
