package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classroll/classroll-api/internal/models"
)

func newStudentMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestStudentRepositoryFindByRoll(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := sqlmock.NewRows([]string{"roll_number", "full_name", "class_name", "role", "password_hash", "active", "created_at", "updated_at"}).
		AddRow("7", "Student 7", "10", "STUDENT", "hash", true, time.Now(), time.Now())
	mock.ExpectQuery("SELECT roll_number, full_name, class_name, role").
		WithArgs("7").
		WillReturnRows(rows)

	student, err := repo.FindByRoll(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, "Student 7", student.FullName)
	assert.Equal(t, models.RoleStudent, student.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryFindByRollMissing(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("SELECT roll_number, full_name, class_name, role").
		WithArgs("404").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByRoll(context.Background(), "404")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestStudentRepositoryBulkInsert(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO students").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO students").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	now := time.Now()
	err := repo.BulkInsert(context.Background(), []models.Student{
		{RollNumber: "1", FullName: "Student 1", ClassName: "10", Role: models.RoleStudent, Active: true, CreatedAt: now, UpdatedAt: now},
		{RollNumber: "2", FullName: "Student 2", ClassName: "10", Role: models.RoleStudent, Active: true, CreatedAt: now, UpdatedAt: now},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCount(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(41))

	total, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 41, total)
}
