package dto

import (
	"time"

	"github.com/classroll/classroll-api/internal/models"
)

// CreateReportRequest is the body of POST /admin/reports.
type CreateReportRequest struct {
	Format   string `json:"format" binding:"required,oneof=csv pdf"`
	DateFrom string `json:"dateFrom" binding:"omitempty,datetime=2006-01-02"`
	DateTo   string `json:"dateTo" binding:"omitempty,datetime=2006-01-02"`
}

// ReportJobResponse is the wire form of an export job.
type ReportJobResponse struct {
	ID           string  `json:"id"`
	Format       string  `json:"format"`
	Status       string  `json:"status"`
	Progress     int     `json:"progress"`
	DateFrom     *string `json:"dateFrom,omitempty"`
	DateTo       *string `json:"dateTo,omitempty"`
	ResultURL    *string `json:"resultUrl,omitempty"`
	ErrorMessage *string `json:"errorMessage,omitempty"`
	CreatedAt    string  `json:"createdAt"`
	FinishedAt   *string `json:"finishedAt,omitempty"`
}

// NewReportJobResponse maps a job into its wire form.
func NewReportJobResponse(job *models.ReportJob) ReportJobResponse {
	resp := ReportJobResponse{
		ID:           job.ID,
		Format:       string(job.Format),
		Status:       string(job.Status),
		Progress:     job.Progress,
		ResultURL:    job.ResultURL,
		ErrorMessage: job.ErrorMessage,
		CreatedAt:    job.CreatedAt.Format(time.RFC3339),
	}
	if job.DateFrom != nil {
		from := job.DateFrom.Format("2006-01-02")
		resp.DateFrom = &from
	}
	if job.DateTo != nil {
		to := job.DateTo.Format("2006-01-02")
		resp.DateTo = &to
	}
	if job.FinishedAt != nil {
		finished := job.FinishedAt.Format(time.RFC3339)
		resp.FinishedAt = &finished
	}
	return resp
}
