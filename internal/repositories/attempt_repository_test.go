package repositories

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

var attemptColumns = []string{
	"id", "created_at", "updated_at", "session_id", "user_id", "subtopic", "correct", "total",
	"answered", "percentage", "finish_reason", "answered_ids", "answers", "finished_at",
}

func TestAttemptRepository_ListAttemptsBySubtopic(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAttemptRepository(db)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "test_attempts" WHERE subtopic = $1`)).
		WithArgs("algebra").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery(`SELECT \* FROM "test_attempts" WHERE subtopic = \$1 ORDER BY finished_at DESC LIMIT \S+ OFFSET \S+`).
		WillReturnRows(sqlmock.NewRows(attemptColumns).AddRow(
			id.String(), 1700000000, 1700000000, "s-1", "u-1", "algebra", 3, 4,
			4, 75, "submitted", "{q1,q2,q3,q4}", `{"q1":"o1"}`, 1700000000,
		))

	attempts, total, err := repo.ListAttempts(context.Background(), "algebra", 2, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(12), total)
	require.Len(t, attempts, 1)

	got := attempts[0]
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "s-1", got.SessionID)
	assert.Equal(t, 75, got.Percentage)
	assert.Equal(t, []string{"q1", "q2", "q3", "q4"}, []string(got.AnsweredIDs))
	assert.JSONEq(t, `{"q1":"o1"}`, string(got.Answers))
	assert.Equal(t, int64(1700000000), got.FinishedAtSec)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttemptRepository_ListAttemptsAllSubtopics(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAttemptRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "test_attempts"`) + `$`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT \* FROM "test_attempts" ORDER BY finished_at DESC LIMIT \S+$`).
		WillReturnRows(sqlmock.NewRows(attemptColumns))

	attempts, total, err := repo.ListAttempts(context.Background(), "", 1, 20)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, attempts)
	assert.NoError(t, mock.ExpectationsWereMet())
}
