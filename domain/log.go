package domain

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LogLevels lists the audit log levels from least to most severe.
var LogLevels = []string{"DEBUG", "INFO", "WARN", "ERROR"}

// LogRepository defines the interface for the persistent audit log.
type LogRepository interface {
	// InsertLog saves a new log entry to the repository.
	InsertLog(log *Log) error
	// GetLogs retrieves all log entries from the repository, oldest first.
	GetLogs() ([]*Log, error)
	// ListLogs retrieves the entries matching the filter, newest first.
	ListLogs(filter LogFilter) ([]*Log, error)
	// DeleteLogsBefore removes entries older than cutoff and returns how many were removed.
	DeleteLogsBefore(cutoff time.Time) (int, error)
}

// Log represents a single audit log entry.
type Log struct {
	ID        uuid.UUID      // Unique identifier for the log entry.
	Timestamp time.Time      // The time at which the log entry was created.
	Level     string         // The severity level of the log (DEBUG, INFO, WARN, ERROR).
	Message   string         // The main content of the log message.
	Context   map[string]any // Additional key-value data from the structured record.
	UserID    *uuid.UUID     // An optional ID of the user the entry relates to.
}

// LogFilter narrows a ListLogs query. Zero values match everything.
type LogFilter struct {
	UserID   *uuid.UUID
	MinLevel string    // Lowest level to include, case-insensitive.
	Since    time.Time // Only entries at or after this instant.
	Limit    int
}

// LevelsFrom returns the levels at or above minLevel. An empty minLevel
// yields every level and an unknown one yields nil.
func LevelsFrom(minLevel string) []string {
	if minLevel == "" {
		return slices.Clone(LogLevels)
	}
	for i, level := range LogLevels {
		if strings.EqualFold(level, minLevel) {
			return slices.Clone(LogLevels[i:])
		}
	}
	return nil
}
