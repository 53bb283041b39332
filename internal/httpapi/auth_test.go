package httpapi

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WilsonKusmayady/mini-POS-sub000/internal/domain"
	"github.com/WilsonKusmayady/mini-POS-sub000/internal/store"
)

type userStoreStub struct {
	mu    sync.Mutex
	users map[string]domain.UserAccount
	reads int
}

func (s *userStoreStub) GetUser(_ context.Context, username string) (*domain.UserAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	user, ok := s.users[username]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &user, nil
}

func newStubWith(t *testing.T, username, password, role string, active bool) *userStoreStub {
	t.Helper()
	hash, err := HashPassword(password)
	require.NoError(t, err)
	return &userStoreStub{users: map[string]domain.UserAccount{
		username: {Username: username, Password: hash, Role: role, Active: active, CreatedAt: time.Now().UTC()},
	}}
}

func TestLoginIssuesTokenCarryingRole(t *testing.T) {
	users := newStubWith(t, "kasir1", "rahasia123", domain.RoleCashier, true)
	manager := NewAuthManager("test-secret", time.Hour, users)

	resp, err := manager.Login(context.Background(), domain.LoginRequest{Username: "  Kasir1 ", Password: "rahasia123"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCashier, resp.Role)
	assert.NotEmpty(t, resp.AccessToken)

	actor, err := manager.ParseToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, domain.Actor{Username: "kasir1", Role: domain.RoleCashier}, actor)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	users := newStubWith(t, "admin", "admin123", domain.RoleAdmin, true)
	manager := NewAuthManager("test-secret", time.Hour, users)

	_, err := manager.Login(context.Background(), domain.LoginRequest{Username: "admin", Password: "nope"})
	assert.ErrorIs(t, err, errInvalidCredentials)

	_, err = manager.Login(context.Background(), domain.LoginRequest{Username: "ghost", Password: "admin123"})
	assert.ErrorIs(t, err, errInvalidCredentials)

	reads := users.reads
	_, err = manager.Login(context.Background(), domain.LoginRequest{Username: "admin", Password: "  "})
	assert.ErrorIs(t, err, errInvalidCredentials)
	assert.Equal(t, reads, users.reads, "blank password must not hit the store")
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	users := newStubWith(t, "lama", "pass1234", domain.RoleCashier, false)
	manager := NewAuthManager("test-secret", time.Hour, users)

	_, err := manager.Login(context.Background(), domain.LoginRequest{Username: "lama", Password: "pass1234"})
	assert.ErrorIs(t, err, errInactiveAccount)
}

func TestLoginRejectsPlainTextStoredPassword(t *testing.T) {
	users := &userStoreStub{users: map[string]domain.UserAccount{
		"admin": {Username: "admin", Password: "admin123", Role: domain.RoleAdmin, Active: true},
	}}
	manager := NewAuthManager("test-secret", time.Hour, users)

	_, err := manager.Login(context.Background(), domain.LoginRequest{Username: "admin", Password: "admin123"})
	assert.ErrorIs(t, err, errInvalidCredentials)
}

func TestParseTokenRejectsForeignAndExpiredTokens(t *testing.T) {
	users := newStubWith(t, "admin", "admin123", domain.RoleAdmin, true)
	manager := NewAuthManager("test-secret", time.Hour, users)

	other := NewAuthManager("other-secret", time.Hour, users)
	resp, err := other.Login(context.Background(), domain.LoginRequest{Username: "admin", Password: "admin123"})
	require.NoError(t, err)
	_, err = manager.ParseToken(resp.AccessToken)
	assert.Error(t, err)

	manager.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	resp, err = manager.Login(context.Background(), domain.LoginRequest{Username: "admin", Password: "admin123"})
	require.NoError(t, err)
	manager.now = time.Now
	_, err = manager.ParseToken(resp.AccessToken)
	assert.Error(t, err)

	foreign := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, posCustomClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   "admin",
			Issuer:    "someone-else",
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: domain.RoleAdmin,
	})
	signed, err := foreign.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = manager.ParseToken(signed)
	assert.Error(t, err)
}

func TestHashPasswordProducesBcrypt(t *testing.T) {
	hash, err := HashPassword("pass1234")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2"))
	assert.True(t, verifyPassword(hash, "pass1234"))
	assert.False(t, verifyPassword(hash, "pass12345"))
}
