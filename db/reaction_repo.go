package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/tfkr-ae/fritter/domain"
)

var _ domain.ReactionRepository = (*Repository)(nil)

// reactionTables maps a reaction target kind to the table holding its counters.
var reactionTables = map[domain.TargetKind]string{
	domain.TargetFreet:   "freet",
	domain.TargetComment: "comment",
}

// React applies the user's action to the target and updates the target's counters
// in the same transaction.
func (repo *Repository) React(kind domain.TargetKind, targetID, userID uuid.UUID, action domain.Reaction) (domain.Reaction, error) {
	table, ok := reactionTables[kind]
	if !ok {
		return domain.ReactionNone, fmt.Errorf("unknown reaction target %q", kind)
	}

	var next domain.Reaction
	err := repo.withTx(func(tx *sqlx.Tx) error {
		var exists bool
		if err := tx.Get(&exists, `SELECT EXISTS(SELECT 1 FROM `+table+` WHERE id = ?)`, targetID); err != nil {
			return fmt.Errorf("checking %s %s: %w", kind, targetID, err)
		}
		if !exists {
			return domain.ErrNotFound
		}

		current, err := getReaction(tx, kind, targetID, userID)
		if err != nil {
			return err
		}

		var upDelta, downDelta int
		next, upDelta, downDelta, err = domain.NextReaction(current, action)
		if err != nil {
			return err
		}

		if next == domain.ReactionNone {
			_, err = tx.Exec(`DELETE FROM reaction WHERE target_kind = ? AND target_id = ? AND user_id = ?`,
				kind, targetID, userID)
		} else {
			_, err = tx.Exec(`INSERT INTO reaction(target_kind, target_id, user_id, value) VALUES (?, ?, ?, ?)
			                  ON CONFLICT(target_kind, target_id, user_id) DO UPDATE SET value = excluded.value`,
				kind, targetID, userID, int(next))
		}
		if err != nil {
			return fmt.Errorf("writing reaction on %s %s: %w", kind, targetID, err)
		}

		_, err = tx.Exec(`UPDATE `+table+` SET upvotes = upvotes + ?, downvotes = downvotes + ? WHERE id = ?`,
			upDelta, downDelta, targetID)
		if err != nil {
			return fmt.Errorf("updating counters of %s %s: %w", kind, targetID, err)
		}
		return nil
	})
	if err != nil {
		return domain.ReactionNone, err
	}
	return next, nil
}

// GetReaction returns the user's current reaction on the target.
func (repo *Repository) GetReaction(kind domain.TargetKind, targetID, userID uuid.UUID) (domain.Reaction, error) {
	return getReaction(repo.dbConn, kind, targetID, userID)
}

// GetReactions returns the user's reactions on the given targets in a single query.
func (repo *Repository) GetReactions(kind domain.TargetKind, targetIDs []uuid.UUID, userID uuid.UUID) (map[uuid.UUID]domain.Reaction, error) {
	reactions := make(map[uuid.UUID]domain.Reaction, len(targetIDs))
	if len(targetIDs) == 0 {
		return reactions, nil
	}

	query, args, err := sqlx.In(`SELECT target_id, value FROM reaction
		WHERE target_kind = ? AND user_id = ? AND target_id IN (?)`, kind, userID, targetIDs)
	if err != nil {
		return nil, fmt.Errorf("building reactions query: %w", err)
	}

	var rows []struct {
		TargetID uuid.UUID `db:"target_id"`
		Value    int       `db:"value"`
	}
	err = repo.dbConn.Select(&rows, repo.dbConn.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("getting %s reactions of %s: %w", kind, userID, err)
	}

	for _, row := range rows {
		reactions[row.TargetID] = domain.Reaction(row.Value)
	}
	return reactions, nil
}

func getReaction(q sqlx.Queryer, kind domain.TargetKind, targetID, userID uuid.UUID) (domain.Reaction, error) {
	var value int
	query := `SELECT value FROM reaction WHERE target_kind = ? AND target_id = ? AND user_id = ?`

	err := sqlx.Get(q, &value, query, kind, targetID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ReactionNone, nil
		}
		return domain.ReactionNone, fmt.Errorf("getting reaction on %s %s: %w", kind, targetID, err)
	}
	return domain.Reaction(value), nil
}
