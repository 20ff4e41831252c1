package domain

import (
	"time"

	"github.com/google/uuid"
)

// SessionRepository defines the interface for managing signed-in sessions.
type SessionRepository interface {
	// CreateSession starts a new session for the user that expires after ttl.
	CreateSession(userID uuid.UUID, ttl time.Duration) (*Session, error)

	// GetSession retrieves a session by ID. Expired sessions are reported as ErrNotFound.
	GetSession(id uuid.UUID) (*Session, error)

	// DeleteSession ends a session. It returns ErrNotFound if no such session exists.
	DeleteSession(id uuid.UUID) error

	// DeleteExpiredSessions removes every session that expired before now and
	// returns how many were removed.
	DeleteExpiredSessions(now time.Time) (int, error)
}

// Session represents a signed-in browser session.
type Session struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session is no longer valid at t.
func (s *Session) Expired(t time.Time) bool {
	return !t.Before(s.ExpiresAt)
}
