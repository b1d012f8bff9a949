package auth

import (
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrMerchantDenied  = errors.New("merchant not accessible for session")
)

// Session is the explicit carrier of a signed-in user's credentials. It is created on login,
// passed to whatever needs the token, and dropped on logout.
type Session struct {
	ID        string
	Subject   string
	Roles     []string
	Merchants []string
	Token     string
	ExpiresAt time.Time
}

// NewSession builds a Session from validated claims and the raw token they came from.
func NewSession(token string, claims *Claims) Session {
	s := Session{
		ID:        claims.SessionID,
		Subject:   claims.Subject,
		Roles:     append([]string(nil), claims.Roles...),
		Merchants: append([]string(nil), claims.Merchants...),
		Token:     strings.TrimSpace(token),
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s
}

// Expired reports whether the session has an expiry at or before now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !s.ExpiresAt.After(now)
}

// IsAdmin reports whether the session carries the administrator role.
func (s Session) IsAdmin() bool {
	for _, r := range s.Roles {
		if strings.EqualFold(r, RoleAdmin) {
			return true
		}
	}
	return false
}

// CanManage reports whether the session may edit merchantID's schedule. Administrators may
// manage every merchant; tokens without a merchant list are trusted and left to the backend.
func (s Session) CanManage(merchantID string) bool {
	if s.IsAdmin() || len(s.Merchants) == 0 {
		return true
	}
	merchantID = strings.TrimSpace(merchantID)
	for _, m := range s.Merchants {
		if strings.TrimSpace(m) == merchantID {
			return true
		}
	}
	return false
}

// SessionRegistry tracks open sessions by id.
type SessionRegistry struct {
	validator TokenValidator
	mu        sync.RWMutex
	sessions  map[string]Session

	// closed remembers logged-out session ids until their token expires so Resolve won't revive them.
	closed map[string]time.Time
	now    func() time.Time
}

func NewSessionRegistry(validator TokenValidator) *SessionRegistry {
	return &SessionRegistry{validator: validator, sessions: make(map[string]Session), closed: make(map[string]time.Time), now: time.Now}
}

// Open validates token and registers the resulting session, replacing any previous one with the same id.
func (r *SessionRegistry) Open(token string) (Session, error) {
	claims, err := r.validator.Validate(token)
	if err != nil {
		return Session{}, err
	}
	session := NewSession(token, claims)
	r.mu.Lock()
	r.sessions[session.ID] = session
	delete(r.closed, session.ID)
	r.mu.Unlock()
	slog.Info("session opened", slog.String("sessionId", session.ID), slog.String("subject", session.Subject), slog.Any("roles", session.Roles))
	return session, nil
}

// Get returns an open, unexpired session. Expired sessions are removed.
func (r *SessionRegistry) Get(id string) (Session, error) {
	id = strings.TrimSpace(id)
	r.mu.RLock()
	session, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	if session.Expired(r.now()) {
		r.Close(id)
		return Session{}, ErrSessionExpired
	}
	return session, nil
}

// Resolve returns the registered session for token, opening one when the token is valid but
// not yet registered. Tokens of a closed session are refused until logged in again with Open.
func (r *SessionRegistry) Resolve(token string) (Session, error) {
	claims, err := r.validator.Validate(token)
	if err != nil {
		return Session{}, err
	}
	if r.isClosed(claims.SessionID) {
		return Session{}, ErrSessionNotFound
	}
	if session, err := r.Get(claims.SessionID); err == nil && session.Token == strings.TrimSpace(token) {
		return session, nil
	}
	return r.Open(token)
}

func (r *SessionRegistry) isClosed(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	until, ok := r.closed[id]
	if !ok {
		return false
	}
	if !until.IsZero() && !until.After(r.now()) {
		delete(r.closed, id)
		return false
	}
	return true
}

// Close forgets the session; closing an unknown id is a no-op.
func (r *SessionRegistry) Close(id string) {
	id = strings.TrimSpace(id)
	r.mu.Lock()
	session, existed := r.sessions[id]
	delete(r.sessions, id)
	if existed {
		r.closed[id] = session.ExpiresAt
	}
	r.mu.Unlock()
	if existed {
		slog.Info("session closed", slog.String("sessionId", id))
	}
}

// Len returns the number of registered sessions.
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
