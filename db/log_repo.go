package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/tfkr-ae/fritter/domain"
)

var _ domain.LogRepository = (*Repository)(nil)

// dbLog is an audit entry as stored in the logs table.
type dbLog struct {
	ID        uuid.UUID      `db:"id"`
	Timestamp time.Time      `db:"timestamp"`
	Level     string         `db:"level"`
	Message   string         `db:"message"`
	Context   Metadata       `db:"context"`
	UserID    sql.NullString `db:"user_id"` // Not a foreign key, entries outlive deleted users.
}

const logColumns = `id, timestamp, level, message, context, user_id`

func (row *dbLog) toDomain() *domain.Log {
	entry := &domain.Log{
		ID:        row.ID,
		Timestamp: row.Timestamp,
		Level:     row.Level,
		Message:   row.Message,
		Context:   map[string]any(row.Context),
	}
	if row.UserID.Valid {
		if id, err := uuid.Parse(row.UserID.String); err == nil {
			entry.UserID = &id
		}
	}
	return entry
}

func logRow(entry *domain.Log) *dbLog {
	row := &dbLog{
		ID:        entry.ID,
		Timestamp: entry.Timestamp.UTC(),
		Level:     entry.Level,
		Message:   entry.Message,
		Context:   Metadata(entry.Context),
	}
	if entry.UserID != nil {
		row.UserID = sql.NullString{String: entry.UserID.String(), Valid: true}
	}
	return row
}

// InsertLog stores an audit entry.
func (repo *Repository) InsertLog(entry *domain.Log) error {
	query := `INSERT INTO logs (` + logColumns + `)
	          VALUES (:id, :timestamp, :level, :message, :context, :user_id)`

	if _, err := repo.dbConn.NamedExec(query, logRow(entry)); err != nil {
		return fmt.Errorf("inserting log %s: %w", entry.ID, err)
	}
	return nil
}

// GetLogs returns the whole audit trail, oldest first.
func (repo *Repository) GetLogs() ([]*domain.Log, error) {
	return repo.selectLogs(`SELECT ` + logColumns + ` FROM logs ORDER BY timestamp, id`)
}

// ListLogs returns the entries matching filter, newest first.
func (repo *Repository) ListLogs(filter domain.LogFilter) ([]*domain.Log, error) {
	levels := domain.LevelsFrom(filter.MinLevel)
	if levels == nil {
		return nil, fmt.Errorf("unknown log level %q", filter.MinLevel)
	}

	conditions := []string{"level IN (?)"}
	args := []any{levels}
	if filter.UserID != nil {
		conditions = append(conditions, "user_id = ?")
		args = append(args, filter.UserID.String())
	}
	if !filter.Since.IsZero() {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, filter.Since.UTC())
	}

	query := `SELECT ` + logColumns + ` FROM logs WHERE ` + strings.Join(conditions, " AND ") +
		` ORDER BY timestamp DESC, id DESC`
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, fmt.Errorf("building logs query: %w", err)
	}
	return repo.selectLogs(repo.dbConn.Rebind(query), args...)
}

// DeleteLogsBefore removes the entries older than cutoff.
func (repo *Repository) DeleteLogsBefore(cutoff time.Time) (int, error) {
	result, err := repo.dbConn.Exec(`DELETE FROM logs WHERE timestamp < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("pruning logs before %s: %w", cutoff.Format(time.RFC3339), err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("fetching rows affected: %w", err)
	}
	return int(removed), nil
}

func (repo *Repository) selectLogs(query string, args ...any) ([]*domain.Log, error) {
	var rows []*dbLog
	if err := repo.dbConn.Select(&rows, query, args...); err != nil {
		return nil, fmt.Errorf("fetching logs: %w", err)
	}

	entries := make([]*domain.Log, len(rows))
	for i, row := range rows {
		entries[i] = row.toDomain()
	}
	return entries, nil
}
