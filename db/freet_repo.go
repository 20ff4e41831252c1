package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/tfkr-ae/fritter/domain"
)

var _ domain.FreetRepository = (*Repository)(nil)

// dbFreet represents a freet as stored in the database, joined with its author's username.
type dbFreet struct {
	ID             uuid.UUID `db:"id"`
	AuthorID       uuid.UUID `db:"author_id"`
	AuthorUsername string    `db:"author_username"`
	Content        string    `db:"content"`
	Important      bool      `db:"important"`
	Anonymous      bool      `db:"anonymous"`
	Upvotes        int       `db:"upvotes"`
	Downvotes      int       `db:"downvotes"`
	DateCreated    time.Time `db:"date_created"`
	DateModified   time.Time `db:"date_modified"`
}

// dbFreetTag represents a row of the freet_tag table.
type dbFreetTag struct {
	FreetID  uuid.UUID `db:"freet_id"`
	Tag      string    `db:"tag"`
	Position int       `db:"position"`
}

const freetColumns = `f.id, f.author_id, u.username AS author_username, f.content, f.important, f.anonymous,
	f.upvotes, f.downvotes, f.date_created, f.date_modified`

// toDomainFreet converts a dbFreet to a domain.Freet. Tags are attached separately.
func toDomainFreet(dbFreet *dbFreet) *domain.Freet {
	return &domain.Freet{
		ID:             dbFreet.ID,
		AuthorID:       dbFreet.AuthorID,
		AuthorUsername: dbFreet.AuthorUsername,
		Content:        dbFreet.Content,
		Tags:           []string{},
		Important:      dbFreet.Important,
		Anonymous:      dbFreet.Anonymous,
		Upvotes:        dbFreet.Upvotes,
		Downvotes:      dbFreet.Downvotes,
		DateCreated:    dbFreet.DateCreated,
		DateModified:   dbFreet.DateModified,
	}
}

// CreateFreet inserts a new freet and its tags.
func (repo *Repository) CreateFreet(freet *domain.Freet) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generating uuid: %w", err)
	}
	createdAt := now()
	tags := domain.NormalizeTags(freet.Tags)

	err = repo.withTx(func(tx *sqlx.Tx) error {
		query := `INSERT INTO freet(id, author_id, content, important, anonymous, date_created, date_modified)
		          VALUES (?, ?, ?, ?, ?, ?, ?)`
		_, err := tx.Exec(query, id, freet.AuthorID, freet.Content, freet.Important, freet.Anonymous, createdAt, createdAt)
		if err != nil {
			return fmt.Errorf("creating freet for %s: %w", freet.AuthorID, err)
		}

		for position, tag := range tags {
			_, err := tx.Exec(`INSERT INTO freet_tag(freet_id, tag, position) VALUES (?, ?, ?)`, id, tag, position)
			if err != nil {
				return fmt.Errorf("tagging freet %s with %s: %w", id, tag, err)
			}
		}

		return tx.Get(&freet.AuthorUsername, `SELECT username FROM user_account WHERE id = ?`, freet.AuthorID)
	})
	if err != nil {
		return err
	}

	freet.ID = id
	freet.Tags = tags
	freet.Upvotes = 0
	freet.Downvotes = 0
	freet.DateCreated = createdAt
	freet.DateModified = createdAt
	return nil
}

// GetFreet retrieves a single freet with its tags.
func (repo *Repository) GetFreet(id uuid.UUID) (*domain.Freet, error) {
	var freet dbFreet
	query := `SELECT ` + freetColumns + `
	          FROM freet f JOIN user_account u ON f.author_id = u.id
	          WHERE f.id = ?`

	err := repo.dbConn.Get(&freet, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("getting freet %s: %w", id, err)
	}

	freets, err := repo.attachTags([]*dbFreet{&freet})
	if err != nil {
		return nil, err
	}
	return freets[0], nil
}

// ListFreets returns the freets matching the filter, most recently modified first.
func (repo *Repository) ListFreets(filter domain.FreetFilter) ([]*domain.Freet, error) {
	var conditions []string
	var args []any

	if filter.AuthorID != nil {
		conditions = append(conditions, "f.author_id = ?")
		args = append(args, *filter.AuthorID)
	}
	if tags := domain.NormalizeTags([]string{filter.Tag}); len(tags) == 1 {
		conditions = append(conditions, "EXISTS (SELECT 1 FROM freet_tag t WHERE t.freet_id = f.id AND t.tag = ?)")
		args = append(args, tags[0])
	}
	if filter.ImportantOnly {
		conditions = append(conditions, "f.important = 1")
	}
	if filter.ExcludeAnonymous {
		conditions = append(conditions, "f.anonymous = 0")
	}

	query := `SELECT ` + freetColumns + ` FROM freet f JOIN user_account u ON f.author_id = u.id`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY f.date_modified DESC, f.id DESC"

	var dbFreets []*dbFreet
	err := repo.dbConn.Select(&dbFreets, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing freets: %w", err)
	}

	return repo.attachTags(dbFreets)
}

// ListFreetsByAuthors returns the non-anonymous freets of the given authors.
func (repo *Repository) ListFreetsByAuthors(authorIDs []uuid.UUID) ([]*domain.Freet, error) {
	if len(authorIDs) == 0 {
		return []*domain.Freet{}, nil
	}

	query, args, err := sqlx.In(`SELECT `+freetColumns+`
		FROM freet f JOIN user_account u ON f.author_id = u.id
		WHERE f.author_id IN (?) AND f.anonymous = 0
		ORDER BY f.date_modified DESC, f.id DESC`, authorIDs)
	if err != nil {
		return nil, fmt.Errorf("building authors query: %w", err)
	}

	var dbFreets []*dbFreet
	err = repo.dbConn.Select(&dbFreets, repo.dbConn.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("listing freets by authors: %w", err)
	}

	return repo.attachTags(dbFreets)
}

// UpdateFreetContent replaces the content and bumps the modification date.
func (repo *Repository) UpdateFreetContent(id uuid.UUID, content string) error {
	query := `UPDATE freet SET content = ?, date_modified = ? WHERE id = ?`

	result, err := repo.dbConn.Exec(query, content, now(), id)
	if err != nil {
		return fmt.Errorf("updating freet %s: %w", id, err)
	}

	return expectAffected(result, id)
}

// DeleteFreet removes a freet; comments and tags cascade, reactions are removed explicitly.
func (repo *Repository) DeleteFreet(id uuid.UUID) error {
	return repo.withTx(func(tx *sqlx.Tx) error {
		if err := deleteFreetReactions(tx, `id = ?`, id); err != nil {
			return err
		}

		result, err := tx.Exec(`DELETE FROM freet WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("deleting freet %s: %w", id, err)
		}
		return expectAffected(result, id)
	})
}

// attachTags converts the rows to domain freets and loads their tags in a single query.
func (repo *Repository) attachTags(dbFreets []*dbFreet) ([]*domain.Freet, error) {
	freets := make([]*domain.Freet, len(dbFreets))
	if len(dbFreets) == 0 {
		return freets, nil
	}

	byID := make(map[uuid.UUID]*domain.Freet, len(dbFreets))
	ids := make([]uuid.UUID, len(dbFreets))
	for i, dbFreet := range dbFreets {
		freets[i] = toDomainFreet(dbFreet)
		byID[dbFreet.ID] = freets[i]
		ids[i] = dbFreet.ID
	}

	query, args, err := sqlx.In(`SELECT freet_id, tag, position FROM freet_tag WHERE freet_id IN (?) ORDER BY freet_id, position`, ids)
	if err != nil {
		return nil, fmt.Errorf("building tags query: %w", err)
	}

	var tags []*dbFreetTag
	err = repo.dbConn.Select(&tags, repo.dbConn.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("getting freet tags: %w", err)
	}

	for _, tag := range tags {
		if freet, ok := byID[tag.FreetID]; ok {
			freet.Tags = append(freet.Tags, tag.Tag)
		}
	}
	return freets, nil
}
