package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tfkr-ae/fritter/domain"
)

var _ domain.SessionRepository = (*Repository)(nil)

// dbSession represents a session as stored in the database.
type dbSession struct {
	ID        uuid.UUID `db:"id"`
	UserID    uuid.UUID `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
	ExpiresAt time.Time `db:"expires_at"`
}

// toDomainSession converts a dbSession to a domain.Session.
func toDomainSession(dbSession *dbSession) *domain.Session {
	return &domain.Session{
		ID:        dbSession.ID,
		UserID:    dbSession.UserID,
		CreatedAt: dbSession.CreatedAt,
		ExpiresAt: dbSession.ExpiresAt,
	}
}

// CreateSession starts a new session for the user.
func (repo *Repository) CreateSession(userID uuid.UUID, ttl time.Duration) (*domain.Session, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("generating uuid: %w", err)
	}

	createdAt := now()
	session := &dbSession{
		ID:        id,
		UserID:    userID,
		CreatedAt: createdAt,
		ExpiresAt: createdAt.Add(ttl),
	}

	query := `INSERT INTO session(id, user_id, created_at, expires_at)
	          VALUES (:id, :user_id, :created_at, :expires_at)`

	_, err = repo.dbConn.NamedExec(query, session)
	if err != nil {
		return nil, fmt.Errorf("creating session for %s: %w", userID, err)
	}

	return toDomainSession(session), nil
}

// GetSession retrieves a live session by ID.
func (repo *Repository) GetSession(id uuid.UUID) (*domain.Session, error) {
	var session dbSession
	query := `SELECT id, user_id, created_at, expires_at FROM session WHERE id = ?`

	err := repo.dbConn.Get(&session, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("getting session %s: %w", id, err)
	}

	domainSession := toDomainSession(&session)
	if domainSession.Expired(time.Now()) {
		return nil, domain.ErrNotFound
	}
	return domainSession, nil
}

// DeleteSession ends a session.
func (repo *Repository) DeleteSession(id uuid.UUID) error {
	query := `DELETE FROM session WHERE id = ?`

	result, err := repo.dbConn.Exec(query, id)
	if err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}

	return expectAffected(result, id)
}

// DeleteExpiredSessions removes every session that expired before t.
func (repo *Repository) DeleteExpiredSessions(t time.Time) (int, error) {
	query := `DELETE FROM session WHERE expires_at <= ?`

	result, err := repo.dbConn.Exec(query, t.UTC())
	if err != nil {
		return 0, fmt.Errorf("deleting expired sessions: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("fetching rows affected: %w", err)
	}
	return int(rowsAffected), nil
}
