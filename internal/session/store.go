package session

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/hirectl/internal/logger"
)

// Store owns the identity and the bearer token. Mutation only happens through
// Login, Logout and Restore.
type Store struct {
	backend Backend
	logger  *zap.Logger
	now     func() time.Time

	mu       sync.RWMutex
	token    string
	identity *Identity

	ready     chan struct{}
	readyOnce sync.Once
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now, used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore creates a store over backend. Call Restore before reading the identity.
func NewStore(backend Backend, logger *zap.Logger, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		logger:  logger,
		now:     time.Now,
		ready:   make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = zap.NewNop()
	}

	return s
}

// Restore loads the persisted session. Expired or undecodable sessions are wiped.
// The readiness channel is closed on every path, including errors.
func (s *Store) Restore() error {
	defer s.markReady()

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.backend.Load()
	if err != nil {
		// An unusable session leaves the client logged out.
		msg := "discarding unreadable session"
		if errors.Is(err, ErrCorrupted) {
			msg = "discarding corrupted session"
		}
		s.logger.Warn(msg, zap.Error(err))
		if err := s.clearLocked(); err != nil {
			s.logger.Warn("session left in place", zap.Error(err))
		}
		return nil
	}

	if entries.Token == "" {
		s.token, s.identity = "", nil
		if !entries.Empty() {
			s.logger.Warn("discarding session without token")
			return s.clearLocked()
		}
		return nil
	}

	identity, err := s.identityFrom(entries)
	if err != nil {
		s.logger.Info("discarding stored session", zap.Error(err))
		return s.clearLocked()
	}

	s.token = entries.Token
	s.identity = identity

	s.logger.Debug("session restored", logger.IdentityFields(identity.Subject, identity.Role.String())...)

	return nil
}

func (s *Store) identityFrom(entries Entries) (*Identity, error) {
	c, err := decodeToken(entries.Token)
	if err != nil {
		return nil, err
	}

	if c.expired(s.now()) {
		return nil, errors.New("token expired")
	}

	role, err := ParseRole(entries.Role)
	if err != nil {
		return nil, err
	}

	userID, err := strconv.Atoi(strings.TrimSpace(entries.UserID))
	if err != nil {
		return nil, fmt.Errorf("stored user id %q: %w", entries.UserID, err)
	}

	return &Identity{Subject: c.Subject, Role: role, UserID: userID}, nil
}

// Login persists all three entries and swaps the identity in one step.
// Nothing changes when the token cannot be decoded or persisting fails.
func (s *Store) Login(token string, role Role, userID int) error {
	c, err := decodeToken(token)
	if err != nil {
		return err
	}

	if _, err := ParseRole(role.String()); err != nil {
		return err
	}

	entries := Entries{
		Token:  strings.TrimSpace(token),
		Role:   role.String(),
		UserID: strconv.Itoa(userID),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Save(entries); err != nil {
		return fmt.Errorf("persisting session: %w", err)
	}

	s.token = entries.Token
	s.identity = &Identity{Subject: c.Subject, Role: role, UserID: userID}

	s.logger.Info("logged in", logger.IdentityFields(c.Subject, role.String())...)

	return nil
}

// Logout clears the persisted entries and the identity. Calling it twice is fine.
func (s *Store) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.identity != nil {
		s.logger.Info("logged out", logger.IdentityFields(s.identity.Subject, s.identity.Role.String())...)
	}

	return s.clearLocked()
}

func (s *Store) clearLocked() error {
	s.token = ""
	s.identity = nil

	if err := s.backend.Clear(); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

// IsExpired reports whether the token's exp claim has passed. Undecodable tokens count as expired.
func (s *Store) IsExpired(token string) bool {
	c, err := decodeToken(token)
	if err != nil {
		return true
	}
	return c.expired(s.now())
}

// Identity returns a copy of the current identity, or nil.
func (s *Store) Identity() *Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.identity == nil {
		return nil
	}
	identity := *s.identity
	return &identity
}

// Token returns the current bearer token, or an empty string.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Ready is closed once Restore has finished.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

func (s *Store) markReady() {
	s.readyOnce.Do(func() { close(s.ready) })
}
