package db

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/tfkr-ae/fritter/domain"
)

func TestLogRepo_GetLogs(t *testing.T) {
	t.Run("should return 0 logs if there are none", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		want := 0
		got, err := repo.GetLogs()
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		if len(got) != want {
			t.Fatalf("\nwanted:\n%d\ngot:\n%d", want, len(got))
		}
	})

	t.Run("should return the inserted logs in order", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		fixedTime := time.Date(2025, 10, 20, 12, 0, 0, 0, time.UTC)
		user := testUser(t, repo, "alice")

		logs := []*domain.Log{
			{
				ID:        uuid.MustParse("00000000-0000-0000-0000-000000000001"),
				Timestamp: fixedTime,
				Level:     "INFO",
				Message:   "Log message 1",
				Context:   make(map[string]any),
			},
			{
				ID:        uuid.MustParse("00000000-0000-0000-0000-000000000002"),
				Timestamp: fixedTime.Add(time.Second),
				Level:     "ERROR",
				Message:   "Log message 2",
				Context:   map[string]any{"key": "value"},
				UserID:    &user.ID,
			},
		}

		for _, logEntry := range logs {
			if err := repo.InsertLog(logEntry); err != nil {
				t.Fatalf("inserting log: %v", err)
			}
		}

		got, err := repo.GetLogs()
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if len(got) != 2 {
			t.Fatalf("\nwanted:\n2\ngot:\n%d", len(got))
		}

		for i := range logs {
			if got[i].ID != logs[i].ID || got[i].Level != logs[i].Level || got[i].Message != logs[i].Message {
				t.Fatalf("\nwanted:\n%+v\ngot:\n%+v", logs[i], got[i])
			}
			if !got[i].Timestamp.Equal(logs[i].Timestamp) {
				t.Fatalf("\nwanted:\n%v\ngot:\n%v", logs[i].Timestamp, got[i].Timestamp)
			}
			if !reflect.DeepEqual(got[i].Context, logs[i].Context) {
				t.Fatalf("\nwanted:\n%v\ngot:\n%v", logs[i].Context, got[i].Context)
			}
		}

		if got[0].UserID != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", got[0].UserID)
		}
		if got[1].UserID == nil || *got[1].UserID != user.ID {
			t.Fatalf("\nwanted:\n%s\ngot:\n%v", user.ID, got[1].UserID)
		}
	})
}

func insertTestLogs(t *testing.T, repo *Repository, userID uuid.UUID, base time.Time) {
	t.Helper()

	entries := []struct {
		level  string
		offset time.Duration
		user   bool
	}{
		{"INFO", 0, false},
		{"WARN", time.Minute, true},
		{"ERROR", 2 * time.Minute, false},
		{"ERROR", 3 * time.Minute, true},
	}
	for i, e := range entries {
		entry := &domain.Log{
			ID:        uuid.New(),
			Timestamp: base.Add(e.offset),
			Level:     e.level,
			Message:   e.level + " entry",
			Context:   map[string]any{"n": float64(i)},
		}
		if e.user {
			entry.UserID = &userID
		}
		if err := repo.InsertLog(entry); err != nil {
			t.Fatalf("inserting log: %v", err)
		}
	}
}

func TestLogRepo_ListLogs(t *testing.T) {
	base := time.Date(2025, 10, 20, 12, 0, 0, 0, time.UTC)

	levels := func(logs []*domain.Log) []string {
		got := make([]string, len(logs))
		for i, entry := range logs {
			got[i] = entry.Level
		}
		return got
	}

	t.Run("should filter by level, user, time and limit", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		user := testUser(t, repo, "alice")
		insertTestLogs(t, repo, user.ID, base)

		tests := []struct {
			name   string
			filter domain.LogFilter
			want   []string
		}{
			{"everything newest first", domain.LogFilter{}, []string{"ERROR", "ERROR", "WARN", "INFO"}},
			{"minimum level", domain.LogFilter{MinLevel: "warn"}, []string{"ERROR", "ERROR", "WARN"}},
			{"user", domain.LogFilter{UserID: &user.ID}, []string{"ERROR", "WARN"}},
			{"since", domain.LogFilter{Since: base.Add(2 * time.Minute)}, []string{"ERROR", "ERROR"}},
			{"limit", domain.LogFilter{Limit: 1}, []string{"ERROR"}},
		}

		for _, tt := range tests {
			got, err := repo.ListLogs(tt.filter)
			if err != nil {
				t.Fatalf("%s:\nwanted:\nnil\ngot:\n%v", tt.name, err)
			}
			if !reflect.DeepEqual(tt.want, levels(got)) {
				t.Fatalf("%s:\nwanted:\n%v\ngot:\n%v", tt.name, tt.want, levels(got))
			}
		}
	})

	t.Run("should reject unknown levels", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		if _, err := repo.ListLogs(domain.LogFilter{MinLevel: "loud"}); err == nil {
			t.Fatalf("\nwanted:\nerror\ngot:\nnil")
		}
	})
}

func TestLogRepo_DeleteLogsBefore(t *testing.T) {
	repo, teardown := setupTestDB(t)
	defer teardown()

	base := time.Date(2025, 10, 20, 12, 0, 0, 0, time.UTC)
	user := testUser(t, repo, "alice")
	insertTestLogs(t, repo, user.ID, base)

	removed, err := repo.DeleteLogsBefore(base.Add(90 * time.Second))
	if err != nil {
		t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
	}
	if removed != 2 {
		t.Fatalf("\nwanted:\n2\ngot:\n%d", removed)
	}

	remaining, err := repo.GetLogs()
	if err != nil {
		t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
	}
	if len(remaining) != 2 || remaining[0].Level != "ERROR" {
		t.Fatalf("\nwanted:\n2 ERROR entries\ngot:\n%+v", remaining)
	}
}
