package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"vision-webapi/internal/navigation"
)

// Session is a snapshot of one interactive session's state.
type Session struct {
	ID            string           `json:"id"`
	UserID        int64            `json:"user_id"`
	Username      string           `json:"username"`
	Authenticated bool             `json:"authenticated"`
	View          navigation.State `json:"view"`
	CreatedAt     time.Time        `json:"created_at"`
	ExpiresAt     time.Time        `json:"expires_at"`
}

type sessionEntry struct {
	session Session
	nav     *navigation.Navigator
}

// SessionManager owns authenticated sessions. A session is created by a successful
// Login and removed by Logout or expiry. Every Login call is audited, whatever the outcome.
type SessionManager struct {
	auth    AuthService
	auditor LoginAuditor
	logger  *zap.Logger
	ttl     time.Duration
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[string]*sessionEntry
}

// NewSessionManager creates a SessionManager whose sessions live for ttl.
func NewSessionManager(auth AuthService, auditor LoginAuditor, ttl time.Duration, logger *zap.Logger) *SessionManager {
	return &SessionManager{
		auth:     auth,
		auditor:  auditor,
		logger:   logger,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*sessionEntry),
	}
}

// Login authenticates the caller, records the attempt and opens a session on success.
// Unknown usernames and wrong passwords both come back as an *AuthFailure.
func (m *SessionManager) Login(ctx context.Context, username, password, ipAddress string) (Session, error) {
	userID, err := m.auth.Authenticate(ctx, username, password)
	if err != nil {
		var failure *AuthFailure
		if errors.As(err, &failure) {
			m.auditor.Record(ctx, failure.UserID, false, ipAddress)
		} else {
			m.auditor.Record(ctx, nil, false, ipAddress)
		}
		return Session{}, err
	}
	m.auditor.Record(ctx, &userID, true, ipAddress)

	nav := navigation.New()
	if _, err := nav.Fire(navigation.ShowLogin); err == nil {
		_, _ = nav.Fire(navigation.LoginSucceeded)
	}

	now := m.now()
	entry := &sessionEntry{
		session: Session{
			ID:            uuid.NewString(),
			UserID:        userID,
			Username:      username,
			Authenticated: true,
			CreatedAt:     now,
			ExpiresAt:     now.Add(m.ttl),
		},
		nav: nav,
	}
	entry.session.View = nav.State()

	m.mu.Lock()
	m.sessions[entry.session.ID] = entry
	m.mu.Unlock()

	m.logger.Info("Session opened", zap.String("sessionID", entry.session.ID), zap.Int64("userID", userID))
	return entry.session, nil
}

// Get returns the live session with id, or ErrSessionNotFound.
func (m *SessionManager) Get(id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, err := m.lookupLocked(id)
	if err != nil {
		return Session{}, err
	}
	return entry.session, nil
}

// Navigate fires trigger on the session's navigator and returns the resulting view.
// Logout is not accepted here; use Logout so the session is cleared.
func (m *SessionManager) Navigate(id string, trigger navigation.Trigger) (navigation.State, error) {
	if trigger == navigation.Logout {
		if err := m.Logout(id); err != nil {
			return "", err
		}
		return navigation.Home, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, err := m.lookupLocked(id)
	if err != nil {
		return "", err
	}
	state, err := entry.nav.Fire(trigger)
	entry.session.View = state
	return state, err
}

// Logout clears the session's authentication state and forgets it.
func (m *SessionManager) Logout(id string) error {
	m.mu.Lock()
	entry, err := m.lookupLocked(id)
	if err == nil {
		_, _ = entry.nav.Fire(navigation.Logout)
		entry.session.Authenticated = false
		entry.session.UserID = 0
		entry.session.View = entry.nav.State()
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if err != nil {
		return err
	}
	m.logger.Info("Session closed", zap.String("sessionID", id))
	return nil
}

// PruneExpired drops every session past its expiry and returns how many were removed.
func (m *SessionManager) PruneExpired() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, entry := range m.sessions {
		if !now.Before(entry.session.ExpiresAt) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// StartJanitor prunes expired sessions every interval until ctx is done.
func (m *SessionManager) StartJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := m.PruneExpired(); n > 0 {
					m.logger.Debug("Pruned expired sessions", zap.Int("count", n))
				}
			}
		}
	}()
}

// Count returns the number of live sessions.
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *SessionManager) lookupLocked(id string) (*sessionEntry, error) {
	entry, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if !m.now().Before(entry.session.ExpiresAt) {
		delete(m.sessions, id)
		return nil, ErrSessionNotFound
	}
	return entry, nil
}
