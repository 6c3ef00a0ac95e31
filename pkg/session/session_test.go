package session

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
)

func TestStore_Login(t *testing.T) {
	s := NewStore(zaptest.NewLogger(t), "secret", "hunter2")

	cookieValue, err := s.Login("hunter2")
	require.NoError(t, err)
	assert.True(t, s.Authenticated(cookieValue))
	assert.Equal(t, 1, s.ActiveCount())
}

func TestStore_Login_WrongPassword(t *testing.T) {
	s := NewStore(zaptest.NewLogger(t), "secret", "hunter2")

	_, err := s.Login("wrong")
	require.ErrorIs(t, err, ErrInvalidCredential)
	assert.Equal(t, 0, s.ActiveCount())
}

func TestStore_Login_BcryptHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	s := NewStore(zaptest.NewLogger(t), "secret", "", WithPasswordHash(string(hash)))

	_, err = s.Login("wrong")
	require.ErrorIs(t, err, ErrInvalidCredential)

	cookieValue, err := s.Login("hunter2")
	require.NoError(t, err)
	assert.True(t, s.Authenticated(cookieValue))
}

func TestStore_Authenticated_NoSession(t *testing.T) {
	s := NewStore(zaptest.NewLogger(t), "secret", "hunter2")

	assert.False(t, s.Authenticated(""))
	assert.False(t, s.Authenticated("made-up-token.deadbeef"))
}

func TestStore_Authenticated_TamperedCookie(t *testing.T) {
	s := NewStore(zaptest.NewLogger(t), "secret", "hunter2")

	cookieValue, err := s.Login("hunter2")
	require.NoError(t, err)

	token, _, ok := strings.Cut(cookieValue, ".")
	require.True(t, ok)

	// valid token, wrong signature
	assert.False(t, s.Authenticated(token+".0000"))
	// bare token without signature
	assert.False(t, s.Authenticated(token))
}

func TestStore_Logout(t *testing.T) {
	s := NewStore(zaptest.NewLogger(t), "secret", "hunter2")

	cookieValue, err := s.Login("hunter2")
	require.NoError(t, err)
	require.True(t, s.Authenticated(cookieValue))

	require.NoError(t, s.Logout(cookieValue))
	assert.False(t, s.Authenticated(cookieValue))
	assert.Equal(t, 0, s.ActiveCount())

	// destroying an absent session is a no-op
	require.NoError(t, s.Logout(cookieValue))
}

func TestStore_Expiry_Absolute(t *testing.T) {
	now := time.Now()
	current := now
	s := NewStore(zaptest.NewLogger(t), "secret", "hunter2",
		WithTTL(time.Hour),
		WithNow(func() time.Time { return current }),
	)

	cookieValue, err := s.Login("hunter2")
	require.NoError(t, err)

	// activity does not slide the expiry: still valid just before the TTL
	current = now.Add(59 * time.Minute)
	assert.True(t, s.Authenticated(cookieValue))

	// and gone right after, measured from creation
	current = now.Add(61 * time.Minute)
	assert.False(t, s.Authenticated(cookieValue))
	assert.Equal(t, 0, s.ActiveCount())
}

func TestStore_Purge(t *testing.T) {
	now := time.Now()
	current := now
	s := NewStore(zaptest.NewLogger(t), "secret", "hunter2",
		WithTTL(time.Hour),
		WithNow(func() time.Time { return current }),
	)

	_, err := s.Login("hunter2")
	require.NoError(t, err)
	_, err = s.Login("hunter2")
	require.NoError(t, err)
	require.Equal(t, 2, s.ActiveCount())

	assert.Equal(t, 0, s.Purge())

	current = now.Add(2 * time.Hour)
	assert.Equal(t, 2, s.Purge())
	assert.Equal(t, 0, s.ActiveCount())
}

func TestStore_PurgeRoutine_StopsOnCancel(t *testing.T) {
	s := NewStore(zaptest.NewLogger(t), "secret", "hunter2")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.PurgeRoutine(ctx)
	}()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("purge routine did not stop on cancel")
	}
}
