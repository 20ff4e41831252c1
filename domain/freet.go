package domain

import (
	"time"

	"github.com/google/uuid"
)

// MaxContentLength is the maximum number of characters in a freet or comment.
const MaxContentLength = 140

// MaxTags is the maximum number of tags a freet can carry.
const MaxTags = 5

// FreetRepository defines the interface for managing freets.
type FreetRepository interface {
	// CreateFreet inserts a new freet. ID and timestamps are assigned by the repository
	// and written back to the freet.
	CreateFreet(freet *Freet) error

	// GetFreet retrieves a single freet by ID. It returns ErrNotFound if it does not exist.
	GetFreet(id uuid.UUID) (*Freet, error)

	// ListFreets returns the freets matching the filter, most recently modified first.
	ListFreets(filter FreetFilter) ([]*Freet, error)

	// ListFreetsByAuthors returns the non-anonymous freets of any of the given authors,
	// most recently modified first. An empty slice of authors yields no freets.
	ListFreetsByAuthors(authorIDs []uuid.UUID) ([]*Freet, error)

	// UpdateFreetContent replaces the content of a freet and bumps its modification date.
	UpdateFreetContent(id uuid.UUID, content string) error

	// DeleteFreet removes a freet together with its comments and reactions.
	DeleteFreet(id uuid.UUID) error
}

// Freet is a short message posted by a user.
type Freet struct {
	ID             uuid.UUID
	AuthorID       uuid.UUID
	AuthorUsername string // Filled on read from the author's current username.
	Content        string
	Tags           []string
	Important      bool
	Anonymous      bool // Set when the author was in anonymous mode at posting time.
	Upvotes        int
	Downvotes      int
	DateCreated    time.Time
	DateModified   time.Time
}

// Score is the net reaction count of the freet.
func (f *Freet) Score() int {
	return f.Upvotes - f.Downvotes
}

// FreetFilter narrows the result of FreetRepository.ListFreets.
// Zero values disable the corresponding condition.
type FreetFilter struct {
	AuthorID         *uuid.UUID // Only freets written by this user.
	Tag              string     // Only freets carrying this (normalised) tag.
	ImportantOnly    bool       // Only freets flagged as important.
	ExcludeAnonymous bool       // Drop freets posted anonymously.
}
