package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classroll/classroll-api/internal/models"
)

func newAttendanceMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAttendanceRepositoryInsertWinsTheKey(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery("INSERT INTO attendance_records").
		WithArgs(sqlmock.AnyArg(), "7", "Student 7", "Mathematics", sqlmock.AnyArg(), "09:15:00", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("rec-1"))

	inserted, err := repo.Insert(context.Background(), &models.AttendanceRecord{
		RollNumber:  "7",
		StudentName: "Student 7",
		Subject:     "Mathematics",
		Date:        time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		TimeOfDay:   "09:15:00",
		MarkedAt:    time.Now(),
	})
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryInsertLosesTheRace(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	// ON CONFLICT DO NOTHING returns no rows when the key already exists.
	mock.ExpectQuery("INSERT INTO attendance_records").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	inserted, err := repo.Insert(context.Background(), &models.AttendanceRecord{
		RollNumber: "7",
		Subject:    "Mathematics",
		Date:       time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryMarkedSubjects(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery("SELECT subject FROM attendance_records").
		WithArgs("7", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"subject"}).AddRow("Mathematics").AddRow("Science"))

	marked, err := repo.MarkedSubjects(context.Background(), "7", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, marked["Mathematics"])
	assert.True(t, marked["Science"])
	assert.False(t, marked["English"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryList(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	rows := sqlmock.NewRows([]string{"id", "roll_number", "student_name", "subject", "date", "time_of_day", "marked_at"}).
		AddRow("rec-1", "7", "Student 7", "Mathematics", time.Now(), "09:15:00", time.Now())
	mock.ExpectQuery("SELECT id, roll_number, student_name, subject, date, time_of_day, marked_at").
		WithArgs("Mathematics").
		WillReturnRows(rows)
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("Mathematics").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	records, total, err := repo.List(context.Background(), models.AttendanceFilter{Subject: "Mathematics"})
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositorySnapshot(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	rows := sqlmock.NewRows([]string{"id", "roll_number", "student_name", "subject", "date", "time_of_day", "marked_at"}).
		AddRow("rec-2", "8", "Student 8", "Science", time.Now(), "10:45:00", time.Now()).
		AddRow("rec-1", "7", "Student 7", "Mathematics", time.Now().AddDate(0, 0, -1), "09:15:00", time.Now().AddDate(0, 0, -1))
	mock.ExpectQuery("SELECT id, roll_number, student_name, subject, date, time_of_day, marked_at").
		WillReturnRows(rows)

	records, err := repo.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Science", records[0].Subject)
	assert.NoError(t, mock.ExpectationsWereMet())
}
