package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserRepository defines the interface for managing registered users.
type UserRepository interface {
	// CreateUser inserts a new user. It returns ErrUsernameTaken if the username
	// is already registered, compared case-insensitively.
	CreateUser(username string, passwordHash string) (*User, error)

	// GetUserByID retrieves a user by ID. It returns ErrNotFound if the user does not exist.
	GetUserByID(id uuid.UUID) (*User, error)

	// GetUserByUsername retrieves a user by username, ignoring case.
	// It returns ErrNotFound if the user does not exist.
	GetUserByUsername(username string) (*User, error)

	// UpdateUsername changes the username of a user. It returns ErrUsernameTaken
	// if another user already holds the name.
	UpdateUsername(id uuid.UUID, username string) error

	// UpdatePassword replaces the stored password hash of a user.
	UpdatePassword(id uuid.UUID, passwordHash string) error

	// SetAnonymous toggles the anonymous posting mode of a user.
	SetAnonymous(id uuid.UUID, anonymous bool) error

	// DeleteUser removes a user together with everything they own: sessions, freets,
	// comments, follows and reactions. Counters on surviving freets and comments
	// are adjusted for the removed reactions.
	DeleteUser(id uuid.UUID) error
}

// User represents a registered account.
type User struct {
	ID           uuid.UUID // Unique identifier for the user.
	Username     string    // Display name, unique ignoring case.
	PasswordHash string    // bcrypt hash of the password.
	Anonymous    bool      // When set, new freets by this user are posted anonymously.
	DateJoined   time.Time // The time the account was created.
}
