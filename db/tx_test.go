package db

import (
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/tfkr-ae/fritter/domain"
)

func setupMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() failed: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	return NewRepository(sqlx.NewDb(sqlDB, "sqlmock")), mock
}

func TestRepository_Transactions(t *testing.T) {
	t.Run("should roll back the reaction when the counter update fails", func(t *testing.T) {
		repo, mock := setupMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM freet WHERE id = ?)")).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT value FROM reaction")).
			WillReturnRows(sqlmock.NewRows([]string{"value"}))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reaction")).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta("UPDATE freet SET upvotes")).
			WillReturnError(errors.New("disk I/O error"))
		mock.ExpectRollback()

		got, err := repo.React(domain.TargetFreet, uuid.New(), uuid.New(), domain.ReactionUp)
		if err == nil || !strings.Contains(err.Error(), "updating counters") {
			t.Fatalf("\nwanted:\nupdating counters error\ngot:\n%v", err)
		}
		if got != domain.ReactionNone {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", domain.ReactionNone, got)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
	})

	t.Run("should keep the cause when the rollback fails too", func(t *testing.T) {
		repo, mock := setupMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM comment WHERE id = ?)")).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectRollback().WillReturnError(errors.New("connection reset"))

		_, err := repo.React(domain.TargetComment, uuid.New(), uuid.New(), domain.ReactionDown)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", domain.ErrNotFound, err)
		}
		if !strings.Contains(err.Error(), "rolling back") {
			t.Fatalf("\nwanted:\nrolling back error\ngot:\n%v", err)
		}
	})

	t.Run("should report a failed commit", func(t *testing.T) {
		repo, mock := setupMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM reaction WHERE target_kind = 'comment'")).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM comment WHERE id = ?")).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit().WillReturnError(errors.New("database is locked"))

		err := repo.DeleteComment(uuid.New())
		if err == nil || !strings.Contains(err.Error(), "committing transaction") {
			t.Fatalf("\nwanted:\ncommitting transaction error\ngot:\n%v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
	})

	t.Run("should report a failed begin", func(t *testing.T) {
		repo, mock := setupMockRepo(t)

		mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

		err := repo.DeleteFreet(uuid.New())
		if err == nil || !strings.Contains(err.Error(), "beginning transaction") {
			t.Fatalf("\nwanted:\nbeginning transaction error\ngot:\n%v", err)
		}
	})
}
