package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/tfkr-ae/fritter/domain"
)

var _ domain.UserRepository = (*Repository)(nil)

// dbUser represents a user account as stored in the database.
type dbUser struct {
	ID           uuid.UUID `db:"id"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	Anonymous    bool      `db:"anonymous"`
	DateJoined   time.Time `db:"date_joined"`
}

// toDomainUser converts a dbUser to a domain.User.
func toDomainUser(dbUser *dbUser) *domain.User {
	return &domain.User{
		ID:           dbUser.ID,
		Username:     dbUser.Username,
		PasswordHash: dbUser.PasswordHash,
		Anonymous:    dbUser.Anonymous,
		DateJoined:   dbUser.DateJoined,
	}
}

// CreateUser inserts a new user account.
func (repo *Repository) CreateUser(username string, passwordHash string) (*domain.User, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating uuid: %w", err)
	}

	user := &dbUser{
		ID:           id,
		Username:     username,
		PasswordHash: passwordHash,
		DateJoined:   now(),
	}

	query := `INSERT INTO user_account(id, username, password_hash, anonymous, date_joined)
	          VALUES (:id, :username, :password_hash, :anonymous, :date_joined)`

	_, err = repo.dbConn.NamedExec(query, user)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrUsernameTaken
		}
		return nil, fmt.Errorf("creating user %s: %w", username, err)
	}

	return toDomainUser(user), nil
}

// GetUserByID retrieves a user by ID.
func (repo *Repository) GetUserByID(id uuid.UUID) (*domain.User, error) {
	var user dbUser
	query := `SELECT id, username, password_hash, anonymous, date_joined FROM user_account WHERE id = ?`

	err := repo.dbConn.Get(&user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("getting user %s: %w", id, err)
	}

	return toDomainUser(&user), nil
}

// GetUserByUsername retrieves a user by username. The column collation makes the comparison case-insensitive.
func (repo *Repository) GetUserByUsername(username string) (*domain.User, error) {
	var user dbUser
	query := `SELECT id, username, password_hash, anonymous, date_joined FROM user_account WHERE username = ?`

	err := repo.dbConn.Get(&user, query, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("getting user %s: %w", username, err)
	}

	return toDomainUser(&user), nil
}

// UpdateUsername changes the username of a user.
func (repo *Repository) UpdateUsername(id uuid.UUID, username string) error {
	query := `UPDATE user_account SET username = ? WHERE id = ?`

	result, err := repo.dbConn.Exec(query, username, id)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrUsernameTaken
		}
		return fmt.Errorf("updating username of %s: %w", id, err)
	}

	return expectAffected(result, id)
}

// UpdatePassword replaces the stored password hash.
func (repo *Repository) UpdatePassword(id uuid.UUID, passwordHash string) error {
	query := `UPDATE user_account SET password_hash = ? WHERE id = ?`

	result, err := repo.dbConn.Exec(query, passwordHash, id)
	if err != nil {
		return fmt.Errorf("updating password of %s: %w", id, err)
	}

	return expectAffected(result, id)
}

// SetAnonymous toggles the anonymous posting mode.
func (repo *Repository) SetAnonymous(id uuid.UUID, anonymous bool) error {
	query := `UPDATE user_account SET anonymous = ? WHERE id = ?`

	result, err := repo.dbConn.Exec(query, anonymous, id)
	if err != nil {
		return fmt.Errorf("setting anonymous mode of %s: %w", id, err)
	}

	return expectAffected(result, id)
}

// DeleteUser removes a user and everything they own.
// Foreign keys cascade sessions, freets, comments, follows and the user's reactions;
// the reaction counters of the surviving targets and the reaction rows of the user's
// freets and comments are handled explicitly since reaction targets are not foreign keys.
func (repo *Repository) DeleteUser(id uuid.UUID) error {
	return repo.withTx(func(tx *sqlx.Tx) error {
		var exists bool
		if err := tx.Get(&exists, `SELECT EXISTS(SELECT 1 FROM user_account WHERE id = ?)`, id); err != nil {
			return fmt.Errorf("checking user %s: %w", id, err)
		}
		if !exists {
			return domain.ErrNotFound
		}

		compensate := []string{
			`UPDATE freet SET
				upvotes = upvotes - (SELECT COUNT(*) FROM reaction r WHERE r.target_kind = 'freet' AND r.target_id = freet.id AND r.user_id = ? AND r.value = 1),
				downvotes = downvotes - (SELECT COUNT(*) FROM reaction r WHERE r.target_kind = 'freet' AND r.target_id = freet.id AND r.user_id = ? AND r.value = 2)
			 WHERE id IN (SELECT target_id FROM reaction WHERE target_kind = 'freet' AND user_id = ?)`,
			`UPDATE comment SET
				upvotes = upvotes - (SELECT COUNT(*) FROM reaction r WHERE r.target_kind = 'comment' AND r.target_id = comment.id AND r.user_id = ? AND r.value = 1),
				downvotes = downvotes - (SELECT COUNT(*) FROM reaction r WHERE r.target_kind = 'comment' AND r.target_id = comment.id AND r.user_id = ? AND r.value = 2)
			 WHERE id IN (SELECT target_id FROM reaction WHERE target_kind = 'comment' AND user_id = ?)`,
		}
		for _, query := range compensate {
			if _, err := tx.Exec(query, id, id, id); err != nil {
				return fmt.Errorf("compensating reactions of %s: %w", id, err)
			}
		}

		if err := deleteFreetReactions(tx, `author_id = ?`, id); err != nil {
			return err
		}
		_, err := tx.Exec(`DELETE FROM reaction WHERE target_kind = 'comment' AND target_id IN
			(SELECT id FROM comment WHERE author_id = ?)`, id)
		if err != nil {
			return fmt.Errorf("deleting reactions on comments of %s: %w", id, err)
		}

		if _, err := tx.Exec(`DELETE FROM user_account WHERE id = ?`, id); err != nil {
			return fmt.Errorf("deleting user %s: %w", id, err)
		}
		return nil
	})
}

// deleteFreetReactions removes the reaction rows attached to the freets matching
// freetCondition and to every comment on those freets.
func deleteFreetReactions(tx *sqlx.Tx, freetCondition string, args ...any) error {
	queries := []string{
		`DELETE FROM reaction WHERE target_kind = 'comment' AND target_id IN
			(SELECT c.id FROM comment c JOIN freet f ON c.freet_id = f.id WHERE f.` + freetCondition + `)`,
		`DELETE FROM reaction WHERE target_kind = 'freet' AND target_id IN
			(SELECT id FROM freet WHERE ` + freetCondition + `)`,
	}
	for _, query := range queries {
		if _, err := tx.Exec(query, args...); err != nil {
			return fmt.Errorf("deleting freet reactions: %w", err)
		}
	}
	return nil
}

// expectAffected turns a zero row count into domain.ErrNotFound.
func expectAffected(result sql.Result, id uuid.UUID) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("fetching rows affected for %s: %w", id, err)
	}

	if rowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
