package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/classroll/classroll-api/internal/models"
)

// ReportRepository persists asynchronous export jobs.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create inserts a new job row.
func (r *ReportRepository) Create(ctx context.Context, job *models.ReportJob) error {
	query := `INSERT INTO report_jobs (id, format, date_from, date_to, status, progress, result_url, error_message, created_by, created_at, updated_at, finished_at)
VALUES (:id, :format, :date_from, :date_to, :status, :progress, :result_url, :error_message, :created_by, :created_at, :updated_at, :finished_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create report job: %w", err)
	}
	return nil
}

// GetByID returns the job, or sql.ErrNoRows.
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*models.ReportJob, error) {
	query := `SELECT id, format, date_from, date_to, status, progress, result_url, error_message, created_by, created_at, updated_at, finished_at
FROM report_jobs WHERE id = $1`
	var job models.ReportJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, err
	}
	return &job, nil
}

// UpdateStatusParams carries the mutable fields of a job.
type UpdateStatusParams struct {
	Status       models.ReportStatus
	Progress     int
	ResultURL    *string
	ErrorMessage *string
	FinishedAt   *time.Time
}

// UpdateStatus advances a job through its lifecycle.
func (r *ReportRepository) UpdateStatus(ctx context.Context, id string, params UpdateStatusParams) error {
	query := `UPDATE report_jobs
SET status = $2, progress = $3, result_url = $4, error_message = $5, finished_at = $6, updated_at = $7
WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, params.Status, params.Progress, params.ResultURL, params.ErrorMessage, params.FinishedAt, time.Now())
	if err != nil {
		return fmt.Errorf("update report job %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update report job %s: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("report job %s not found", id)
	}
	return nil
}

// ListByCreator returns the most recent jobs requested by one admin.
func (r *ReportRepository) ListByCreator(ctx context.Context, createdBy string, limit int) ([]models.ReportJob, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := `SELECT id, format, date_from, date_to, status, progress, result_url, error_message, created_by, created_at, updated_at, finished_at
FROM report_jobs WHERE created_by = $1
ORDER BY created_at DESC
LIMIT $2`
	var jobs []models.ReportJob
	if err := r.db.SelectContext(ctx, &jobs, query, createdBy, limit); err != nil {
		return nil, fmt.Errorf("list report jobs: %w", err)
	}
	return jobs, nil
}
