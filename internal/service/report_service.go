package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/classroll/classroll-api/internal/dto"
	"github.com/classroll/classroll-api/internal/models"
	"github.com/classroll/classroll-api/internal/repository"
	appErrors "github.com/classroll/classroll-api/pkg/errors"
	"github.com/classroll/classroll-api/pkg/jobs"
	"github.com/classroll/classroll-api/pkg/storage"
)

const jobTypeReport = "attendance_report"

type reportJobStore interface {
	Create(ctx context.Context, job *models.ReportJob) error
	GetByID(ctx context.Context, id string) (*models.ReportJob, error)
	UpdateStatus(ctx context.Context, id string, params repository.UpdateStatusParams) error
	ListByCreator(ctx context.Context, createdBy string, limit int) ([]models.ReportJob, error)
}

// ReportService owns the asynchronous export pipeline: enqueue, render,
// store, sign. Generation happens on the queue workers, never in the
// request path.
type ReportService struct {
	store    reportJobStore
	exporter *ExportService
	signer   *storage.SignedURLSigner
	queue    *jobs.Queue
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewReportService constructs the report service. Call StartWorkers before
// accepting requests.
func NewReportService(store reportJobStore, exporter *ExportService, signer *storage.SignedURLSigner, metrics *MetricsService, logger *zap.Logger, queueCfg jobs.QueueConfig) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ReportService{
		store:    store,
		exporter: exporter,
		signer:   signer,
		metrics:  metrics,
		logger:   logger,
	}
	queueCfg.Logger = logger
	s.queue = jobs.NewQueue("reports", s.process, queueCfg)
	return s
}

// StartWorkers begins queue consumption.
func (s *ReportService) StartWorkers(ctx context.Context) {
	s.queue.Start(ctx)
}

// StopWorkers drains the queue workers.
func (s *ReportService) StopWorkers() {
	s.queue.Stop()
}

// Enqueue records a new job and hands it to the workers.
func (s *ReportService) Enqueue(ctx context.Context, req dto.CreateReportRequest, createdBy string) (*dto.ReportJobResponse, error) {
	now := time.Now().UTC()
	job := &models.ReportJob{
		ID:        uuid.NewString(),
		Format:    models.ReportFormat(req.Format),
		Status:    models.ReportStatusQueued,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.DateFrom != "" {
		from, err := time.Parse("2006-01-02", req.DateFrom)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "dateFrom must be YYYY-MM-DD")
		}
		job.DateFrom = &from
	}
	if req.DateTo != "" {
		to, err := time.Parse("2006-01-02", req.DateTo)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "dateTo must be YYYY-MM-DD")
		}
		job.DateTo = &to
	}
	if job.DateFrom != nil && job.DateTo != nil && job.DateTo.Before(*job.DateFrom) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "dateTo precedes dateFrom")
	}

	if err := s.store.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record report job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: jobTypeReport}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue report job")
	}

	resp := dto.NewReportJobResponse(job)
	return &resp, nil
}

// Get returns a job's current state, with a fresh signed URL once finished.
func (s *ReportService) Get(ctx context.Context, id, requestedBy string) (*dto.ReportJobResponse, error) {
	job, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report job")
	}
	if job.CreatedBy != requestedBy {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "report job belongs to another admin")
	}

	resp := dto.NewReportJobResponse(job)
	if job.Status == models.ReportStatusFinished && job.ResultURL != nil {
		token, _, err := s.signer.Generate(job.ID, *job.ResultURL)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download url")
		}
		signed := "/export/" + token
		resp.ResultURL = &signed
	}
	return &resp, nil
}

// ListRecent returns the caller's most recent jobs, newest first.
func (s *ReportService) ListRecent(ctx context.Context, createdBy string, limit int) ([]dto.ReportJobResponse, error) {
	items, err := s.store.ListByCreator(ctx, createdBy, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list report jobs")
	}
	out := make([]dto.ReportJobResponse, 0, len(items))
	for i := range items {
		out = append(out, dto.NewReportJobResponse(&items[i]))
	}
	return out, nil
}

// ResolveDownload validates a signed token and returns the artifact path.
func (s *ReportService) ResolveDownload(token string) (string, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "download link is invalid or expired")
	}
	return relPath, nil
}

// process runs on a queue worker and drives one job to a terminal state.
func (s *ReportService) process(ctx context.Context, queued jobs.Job) error {
	job, err := s.store.GetByID(ctx, queued.ID)
	if err != nil {
		return fmt.Errorf("load report job %s: %w", queued.ID, err)
	}
	if job.Status == models.ReportStatusFinished || job.Status == models.ReportStatusFailed {
		return nil
	}

	if err := s.store.UpdateStatus(ctx, job.ID, repository.UpdateStatusParams{
		Status:   models.ReportStatusProcessing,
		Progress: 10,
	}); err != nil {
		return err
	}

	dataset, err := s.exporter.BuildDataset(ctx, job.DateFrom, job.DateTo)
	if err != nil {
		return s.fail(ctx, job.ID, err)
	}
	artifact, err := s.exporter.Render(dataset, job.Format)
	if err != nil {
		return s.fail(ctx, job.ID, err)
	}
	path, err := s.exporter.Store(job.ID, job.Format, artifact)
	if err != nil {
		return s.fail(ctx, job.ID, err)
	}

	finished := time.Now().UTC()
	if err := s.store.UpdateStatus(ctx, job.ID, repository.UpdateStatusParams{
		Status:     models.ReportStatusFinished,
		Progress:   100,
		ResultURL:  &path,
		FinishedAt: &finished,
	}); err != nil {
		return err
	}
	s.metrics.ObserveReport(string(models.ReportStatusFinished))
	s.logger.Info("report job finished",
		zap.String("job_id", job.ID),
		zap.String("format", string(job.Format)),
		zap.Int("rows", len(dataset.Rows)))
	return nil
}

func (s *ReportService) fail(ctx context.Context, id string, cause error) error {
	message := cause.Error()
	finished := time.Now().UTC()
	if err := s.store.UpdateStatus(ctx, id, repository.UpdateStatusParams{
		Status:       models.ReportStatusFailed,
		Progress:     100,
		ErrorMessage: &message,
		FinishedAt:   &finished,
	}); err != nil {
		s.logger.Error("failed to mark report job as failed", zap.String("job_id", id), zap.Error(err))
	}
	s.metrics.ObserveReport(string(models.ReportStatusFailed))
	return cause
}
