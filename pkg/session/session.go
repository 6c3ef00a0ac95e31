// Package session implements the gate in front of the record store: a
// process-wide store of tokens issued against the single shared admin
// password, with a fixed absolute TTL per session.
package session

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lyricnext/lyricserver/pkg/metrics"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultTTL is the absolute session lifetime, measured from creation.
	// There is no sliding renewal: activity does not push the expiry out.
	DefaultTTL = 24 * time.Hour

	purgeInterval = 10 * time.Minute
)

var (
	// ErrInvalidCredential wrong password on login
	ErrInvalidCredential = errors.New("wrong password")
	// ErrUnauthorized no valid authenticated session
	ErrUnauthorized = errors.New("unauthorized")
)

type (
	// Session is the server-side state behind one opaque token.
	Session struct {
		Token         string
		Authenticated bool
		CreatedAt     time.Time
		ExpiresAt     time.Time
	}

	// Store maps tokens to sessions. Cookie values handed to clients are
	// HMAC-signed with the session secret, so a tampered or fabricated
	// token is treated as anonymous without ever touching the map.
	Store struct {
		l            *zap.Logger
		secret       []byte
		password     string
		passwordHash string
		ttl          time.Duration
		now          func() time.Time

		mu       sync.RWMutex
		sessions map[string]*Session
	}
	Option func(*Store)
)

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func WithTTL(v time.Duration) Option {
	return func(o *Store) {
		o.ttl = v
	}
}

// WithPasswordHash makes login verify against a bcrypt hash instead of
// the plaintext password.
func WithPasswordHash(v string) Option {
	return func(o *Store) {
		o.passwordHash = v
	}
}

// WithNow overrides the clock, for expiry tests.
func WithNow(v func() time.Time) Option {
	return func(o *Store) {
		o.now = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

func NewStore(l *zap.Logger, secret, password string, opts ...Option) *Store {
	inst := &Store{
		l:        l.Named("sessions"),
		secret:   []byte(secret),
		password: password,
		ttl:      DefaultTTL,
		now:      time.Now,
		sessions: map[string]*Session{},
	}

	for _, opt := range opts {
		opt(inst)
	}

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// TTL returns the configured session lifetime.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Login verifies the shared credential and, on success, creates an
// authenticated session and returns its signed cookie value.
func (s *Store) Login(password string) (string, error) {
	if !s.verifyPassword(password) {
		metrics.LoginFailedCounter.WithLabelValues().Inc()
		return "", ErrInvalidCredential
	}

	now := s.now()
	sess := &Session{
		Token:         uuid.NewString(),
		Authenticated: true,
		CreatedAt:     now,
		ExpiresAt:     now.Add(s.ttl),
	}

	s.mu.Lock()
	s.sessions[sess.Token] = sess
	s.mu.Unlock()

	metrics.SessionsActiveGauge.WithLabelValues().Inc()
	s.l.Info("session created", zap.Time("expires_at", sess.ExpiresAt))
	return s.sign(sess.Token), nil
}

// Authenticated reports whether the cookie value belongs to a live,
// authenticated session. Expired sessions are destroyed on sight.
func (s *Store) Authenticated(cookieValue string) bool {
	token, ok := s.verify(cookieValue)
	if !ok {
		return false
	}

	s.mu.RLock()
	sess, ok := s.sessions[token]
	s.mu.RUnlock()
	if !ok {
		return false
	}

	if s.now().After(sess.ExpiresAt) {
		s.destroy(token)
		return false
	}
	return sess.Authenticated
}

// Logout destroys the session behind the cookie value. Destroying an
// absent or invalid session is a no-op.
func (s *Store) Logout(cookieValue string) error {
	token, ok := s.verify(cookieValue)
	if !ok {
		return nil
	}
	s.destroy(token)
	return nil
}

// Purge removes all expired sessions and returns how many were dropped.
func (s *Store) Purge() int {
	now := s.now()

	s.mu.Lock()
	var purged int
	for token, sess := range s.sessions {
		if now.After(sess.ExpiresAt) {
			delete(s.sessions, token)
			purged++
		}
	}
	s.mu.Unlock()

	if purged > 0 {
		metrics.SessionsActiveGauge.WithLabelValues().Sub(float64(purged))
		metrics.SessionsPurgedCounter.WithLabelValues().Add(float64(purged))
	}
	return purged
}

// PurgeRoutine drops expired sessions periodically until the context ends.
func (s *Store) PurgeRoutine(ctx context.Context) error {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.l.Debug("routine canceled", zap.Error(ctx.Err()))
			return nil
		case <-ticker.C:
			if purged := s.Purge(); purged > 0 {
				s.l.Info("purged expired sessions", zap.Int("count", purged))
			}
		}
	}
}

// ActiveCount returns the number of sessions currently held.
func (s *Store) ActiveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (s *Store) verifyPassword(password string) bool {
	if s.passwordHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(s.password), []byte(password)) == 1
}

func (s *Store) destroy(token string) {
	s.mu.Lock()
	_, ok := s.sessions[token]
	delete(s.sessions, token)
	s.mu.Unlock()

	if ok {
		metrics.SessionsActiveGauge.WithLabelValues().Dec()
		s.l.Info("session destroyed")
	}
}

// sign produces the cookie value "<token>.<hex hmac>".
func (s *Store) sign(token string) string {
	return token + "." + s.mac(token)
}

// verify splits and checks a cookie value, returning the bare token.
func (s *Store) verify(cookieValue string) (string, bool) {
	token, mac, ok := strings.Cut(cookieValue, ".")
	if !ok || token == "" {
		return "", false
	}
	if !hmac.Equal([]byte(mac), []byte(s.mac(token))) {
		return "", false
	}
	return token, true
}

func (s *Store) mac(token string) string {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(token))
	return hex.EncodeToString(h.Sum(nil))
}
