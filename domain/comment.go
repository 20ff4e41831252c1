package domain

import (
	"time"

	"github.com/google/uuid"
)

// CommentRepository defines the interface for managing comments on freets.
type CommentRepository interface {
	// CreateComment inserts a new comment. It returns ErrNotFound if the freet does not exist.
	CreateComment(comment *Comment) error

	// GetComment retrieves a single comment by ID.
	GetComment(id uuid.UUID) (*Comment, error)

	// ListCommentsByFreet returns the comments of a freet, oldest first.
	ListCommentsByFreet(freetID uuid.UUID) ([]*Comment, error)

	// UpdateCommentContent replaces the content of a comment and bumps its modification date.
	UpdateCommentContent(id uuid.UUID, content string) error

	// DeleteComment removes a comment together with its reactions.
	DeleteComment(id uuid.UUID) error
}

// Comment is a reply attached to a freet.
type Comment struct {
	ID             uuid.UUID
	FreetID        uuid.UUID
	AuthorID       uuid.UUID
	AuthorUsername string
	Content        string
	Upvotes        int
	Downvotes      int
	DateCreated    time.Time
	DateModified   time.Time
}

// Score is the net reaction count of the comment.
func (c *Comment) Score() int {
	return c.Upvotes - c.Downvotes
}
