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

var _ domain.CommentRepository = (*Repository)(nil)

// dbComment represents a comment as stored in the database, joined with its author's username.
type dbComment struct {
	ID             uuid.UUID `db:"id"`
	FreetID        uuid.UUID `db:"freet_id"`
	AuthorID       uuid.UUID `db:"author_id"`
	AuthorUsername string    `db:"author_username"`
	Content        string    `db:"content"`
	Upvotes        int       `db:"upvotes"`
	Downvotes      int       `db:"downvotes"`
	DateCreated    time.Time `db:"date_created"`
	DateModified   time.Time `db:"date_modified"`
}

const commentColumns = `c.id, c.freet_id, c.author_id, u.username AS author_username, c.content,
	c.upvotes, c.downvotes, c.date_created, c.date_modified`

// toDomainComment converts a dbComment to a domain.Comment.
func toDomainComment(dbComment *dbComment) *domain.Comment {
	return &domain.Comment{
		ID:             dbComment.ID,
		FreetID:        dbComment.FreetID,
		AuthorID:       dbComment.AuthorID,
		AuthorUsername: dbComment.AuthorUsername,
		Content:        dbComment.Content,
		Upvotes:        dbComment.Upvotes,
		Downvotes:      dbComment.Downvotes,
		DateCreated:    dbComment.DateCreated,
		DateModified:   dbComment.DateModified,
	}
}

// CreateComment inserts a new comment on an existing freet.
func (repo *Repository) CreateComment(comment *domain.Comment) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generating uuid: %w", err)
	}
	createdAt := now()

	err = repo.withTx(func(tx *sqlx.Tx) error {
		var exists bool
		if err := tx.Get(&exists, `SELECT EXISTS(SELECT 1 FROM freet WHERE id = ?)`, comment.FreetID); err != nil {
			return fmt.Errorf("checking freet %s: %w", comment.FreetID, err)
		}
		if !exists {
			return domain.ErrNotFound
		}

		query := `INSERT INTO comment(id, freet_id, author_id, content, date_created, date_modified)
		          VALUES (?, ?, ?, ?, ?, ?)`
		_, err := tx.Exec(query, id, comment.FreetID, comment.AuthorID, comment.Content, createdAt, createdAt)
		if err != nil {
			return fmt.Errorf("creating comment on %s: %w", comment.FreetID, err)
		}

		return tx.Get(&comment.AuthorUsername, `SELECT username FROM user_account WHERE id = ?`, comment.AuthorID)
	})
	if err != nil {
		return err
	}

	comment.ID = id
	comment.Upvotes = 0
	comment.Downvotes = 0
	comment.DateCreated = createdAt
	comment.DateModified = createdAt
	return nil
}

// GetComment retrieves a single comment.
func (repo *Repository) GetComment(id uuid.UUID) (*domain.Comment, error) {
	var comment dbComment
	query := `SELECT ` + commentColumns + `
	          FROM comment c JOIN user_account u ON c.author_id = u.id
	          WHERE c.id = ?`

	err := repo.dbConn.Get(&comment, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("getting comment %s: %w", id, err)
	}

	return toDomainComment(&comment), nil
}

// ListCommentsByFreet returns the comments of a freet, oldest first.
func (repo *Repository) ListCommentsByFreet(freetID uuid.UUID) ([]*domain.Comment, error) {
	var dbComments []*dbComment
	query := `SELECT ` + commentColumns + `
	          FROM comment c JOIN user_account u ON c.author_id = u.id
	          WHERE c.freet_id = ?
	          ORDER BY c.date_created ASC, c.id ASC`

	err := repo.dbConn.Select(&dbComments, query, freetID)
	if err != nil {
		return nil, fmt.Errorf("listing comments of %s: %w", freetID, err)
	}

	comments := make([]*domain.Comment, len(dbComments))
	for i, dbComment := range dbComments {
		comments[i] = toDomainComment(dbComment)
	}
	return comments, nil
}

// UpdateCommentContent replaces the content and bumps the modification date.
func (repo *Repository) UpdateCommentContent(id uuid.UUID, content string) error {
	query := `UPDATE comment SET content = ?, date_modified = ? WHERE id = ?`

	result, err := repo.dbConn.Exec(query, content, now(), id)
	if err != nil {
		return fmt.Errorf("updating comment %s: %w", id, err)
	}

	return expectAffected(result, id)
}

// DeleteComment removes a comment and its reactions.
func (repo *Repository) DeleteComment(id uuid.UUID) error {
	return repo.withTx(func(tx *sqlx.Tx) error {
		_, err := tx.Exec(`DELETE FROM reaction WHERE target_kind = 'comment' AND target_id = ?`, id)
		if err != nil {
			return fmt.Errorf("deleting reactions of comment %s: %w", id, err)
		}

		result, err := tx.Exec(`DELETE FROM comment WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("deleting comment %s: %w", id, err)
		}
		return expectAffected(result, id)
	})
}
