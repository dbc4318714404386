package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/classroll/classroll-api/internal/models"
)

// StudentRepository persists the student roster, admins included.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// Count returns the number of roster rows. Used to decide whether the
// first-run seed should run.
func (r *StudentRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM students"); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return total, nil
}

// FindByRoll returns the student with the given roll number, or sql.ErrNoRows.
func (r *StudentRepository) FindByRoll(ctx context.Context, rollNumber string) (*models.Student, error) {
	query := `SELECT roll_number, full_name, class_name, role, password_hash, active, created_at, updated_at
FROM students WHERE roll_number = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, rollNumber); err != nil {
		return nil, err
	}
	return &student, nil
}

// BulkInsert writes the roster in one transaction. Existing roll numbers are
// left untouched so a re-run of the seed is harmless.
func (r *StudentRepository) BulkInsert(ctx context.Context, students []models.Student) error {
	if len(students) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin student bulk insert: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO students (roll_number, full_name, class_name, role, password_hash, active, created_at, updated_at)
VALUES (:roll_number, :full_name, :class_name, :role, :password_hash, :active, :created_at, :updated_at)
ON CONFLICT (roll_number) DO NOTHING`
	for i := range students {
		if _, err := tx.NamedExecContext(ctx, query, &students[i]); err != nil {
			return fmt.Errorf("insert student %s: %w", students[i].RollNumber, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit student bulk insert: %w", err)
	}
	return nil
}

// List returns roster rows matching the filter, ordered by roll number.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.ClassName != "" {
		where = append(where, fmt.Sprintf("class_name = $%d", len(args)+1))
		args = append(args, filter.ClassName)
	}
	if filter.Role != nil {
		where = append(where, fmt.Sprintf("role = $%d", len(args)+1))
		args = append(args, *filter.Role)
	}
	if filter.Active != nil {
		where = append(where, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		where = append(where, fmt.Sprintf("(full_name ILIKE $%d OR roll_number ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT roll_number, full_name, class_name, role, password_hash, active, created_at, updated_at
FROM students WHERE %s
ORDER BY LENGTH(roll_number), roll_number
LIMIT %d OFFSET %d`, whereClause, size, offset)

	var rows []models.Student
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM students WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return rows, total, nil
}
