package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/classroll/classroll-api/internal/models"
)

// AttendanceRepository is the durable ledger of attendance marks. The table
// carries a unique index on (roll_number, subject, date); every write goes
// through the conditional insert below, so a key can never hold two records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Insert writes the record if and only if its key is still absent. The
// returned bool reports whether the row was inserted; false means another
// write won the race and the existing record stands untouched.
func (r *AttendanceRepository) Insert(ctx context.Context, record *models.AttendanceRecord) (bool, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	query := `INSERT INTO attendance_records (id, roll_number, student_name, subject, date, time_of_day, marked_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (roll_number, subject, date) DO NOTHING
RETURNING id`
	var insertedID string
	err := r.db.QueryRowxContext(ctx, query, record.ID, record.RollNumber, record.StudentName, record.Subject, record.Date, record.TimeOfDay, record.MarkedAt).Scan(&insertedID)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("insert attendance record: %w", err)
	}
	return true, nil
}

// Find returns the record at the composite key, or sql.ErrNoRows.
func (r *AttendanceRepository) Find(ctx context.Context, rollNumber, subject string, date time.Time) (*models.AttendanceRecord, error) {
	query := `SELECT id, roll_number, student_name, subject, date, time_of_day, marked_at
FROM attendance_records
WHERE roll_number = $1 AND subject = $2 AND date = $3`
	var record models.AttendanceRecord
	if err := r.db.GetContext(ctx, &record, query, rollNumber, subject, date); err != nil {
		return nil, err
	}
	return &record, nil
}

// MarkedSubjects returns the set of subjects a student has marked on a date.
func (r *AttendanceRepository) MarkedSubjects(ctx context.Context, rollNumber string, date time.Time) (map[string]bool, error) {
	query := `SELECT subject FROM attendance_records WHERE roll_number = $1 AND date = $2`
	var subjects []string
	if err := r.db.SelectContext(ctx, &subjects, query, rollNumber, date); err != nil {
		return nil, fmt.Errorf("marked subjects: %w", err)
	}
	marked := make(map[string]bool, len(subjects))
	for _, subject := range subjects {
		marked[subject] = true
	}
	return marked, nil
}

// List returns attendance rows matching the provided filter.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.Subject != "" {
		where = append(where, fmt.Sprintf("subject = $%d", len(args)+1))
		args = append(args, filter.Subject)
	}
	if filter.RollNumber != "" {
		where = append(where, fmt.Sprintf("roll_number = $%d", len(args)+1))
		args = append(args, filter.RollNumber)
	}
	if filter.DateFrom != nil {
		where = append(where, fmt.Sprintf("date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		where = append(where, fmt.Sprintf("date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	whereClause := strings.Join(where, " AND ")

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT id, roll_number, student_name, subject, date, time_of_day, marked_at
FROM attendance_records WHERE %s
ORDER BY date %s, marked_at ASC
LIMIT %d OFFSET %d`, whereClause, order, size, offset)

	var rows []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list attendance records: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM attendance_records WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count attendance records: %w", err)
	}
	return rows, total, nil
}

// Snapshot returns every record, ordered for aggregation: newest day first,
// marks within a day in the order they were committed.
func (r *AttendanceRepository) Snapshot(ctx context.Context) ([]models.AttendanceRecord, error) {
	query := `SELECT id, roll_number, student_name, subject, date, time_of_day, marked_at
FROM attendance_records
ORDER BY date DESC, subject ASC, marked_at ASC`
	var rows []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("snapshot attendance records: %w", err)
	}
	return rows, nil
}
