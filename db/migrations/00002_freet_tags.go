package migrations

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

func init() {
	goose.AddMigrationContext(upSplitFreetTags, downJoinFreetTags)
}

// upSplitFreetTags moves the JSON encoded tags column of freet into the freet_tag table
// so that tag lookups can use an index.
func upSplitFreetTags(ctx context.Context, tx *sql.Tx) error {
	createQuery := `
		CREATE TABLE freet_tag (
			freet_id TEXT NOT NULL REFERENCES freet(id) ON DELETE CASCADE,
			tag      TEXT NOT NULL,
			position INTEGER NOT NULL,
			PRIMARY KEY (freet_id, tag)
		);
		CREATE INDEX idx_freet_tag_tag ON freet_tag(tag);
	`
	_, err := tx.ExecContext(ctx, createQuery)
	if err != nil {
		return fmt.Errorf("creating freet_tag table : %w", err)
	}

	rows, err := tx.QueryContext(ctx, "SELECT id, tags FROM freet")
	if err != nil {
		return fmt.Errorf("getting all freets: %w", err)
	}
	defer rows.Close()

	type freetTags struct {
		id   string
		tags []string
	}
	var pending []freetTags
	for rows.Next() {
		var id string
		var rawTags sql.NullString
		if err := rows.Scan(&id, &rawTags); err != nil {
			return fmt.Errorf("scanning row: %w", err)
		}
		if !rawTags.Valid || rawTags.String == "" {
			continue
		}
		var tags []string
		if err := json.Unmarshal([]byte(rawTags.String), &tags); err != nil {
			return fmt.Errorf("decoding tags for freet %s : %w", id, err)
		}
		pending = append(pending, freetTags{id: id, tags: tags})
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating rows: %w", err)
	}

	for _, freet := range pending {
		position := 0
		for _, tag := range freet.tags {
			tag = strings.ToLower(strings.TrimSpace(tag))
			if tag == "" {
				continue
			}
			_, err := tx.ExecContext(ctx,
				"INSERT OR IGNORE INTO freet_tag(freet_id, tag, position) VALUES (?, ?, ?)",
				freet.id, tag, position)
			if err != nil {
				return fmt.Errorf("inserting tag %s for freet %s : %w", tag, freet.id, err)
			}
			position++
		}
	}

	if _, err := tx.ExecContext(ctx, "ALTER TABLE freet DROP COLUMN tags"); err != nil {
		return fmt.Errorf("dropping tags column : %w", err)
	}
	return nil
}

func downJoinFreetTags(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, "ALTER TABLE freet ADD COLUMN tags TEXT NOT NULL DEFAULT '[]'")
	if err != nil {
		return fmt.Errorf("failed to add tags column for rollback: %w", err)
	}

	rows, err := tx.QueryContext(ctx, "SELECT freet_id, tag FROM freet_tag ORDER BY freet_id, position")
	if err != nil {
		return fmt.Errorf("failed to query tags for rollback: %w", err)
	}
	defer rows.Close()

	tagsByFreet := make(map[string][]string)
	for rows.Next() {
		var freetID, tag string
		if err := rows.Scan(&freetID, &tag); err != nil {
			return fmt.Errorf("failed to scan row for rollback: %w", err)
		}
		tagsByFreet[freetID] = append(tagsByFreet[freetID], tag)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("row iteration error during rollback: %w", err)
	}

	for freetID, tags := range tagsByFreet {
		encoded, err := json.Marshal(tags)
		if err != nil {
			return fmt.Errorf("failed to encode tags for freet %s: %w", freetID, err)
		}
		if _, err := tx.ExecContext(ctx, "UPDATE freet SET tags = ? WHERE id = ?", string(encoded), freetID); err != nil {
			return fmt.Errorf("failed to update freet %s for rollback: %w", freetID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, "DROP TABLE freet_tag"); err != nil {
		return fmt.Errorf("failed to drop freet_tag table for rollback: %w", err)
	}
	return nil
}
