package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/classroll/classroll-api/internal/models"
	"github.com/classroll/classroll-api/pkg/export"
)

var exportHeaders = []string{"Date", "Subject", "Roll Number", "Student Name", "Time"}

type exportStorage interface {
	Save(filename string, data []byte) (string, error)
}

// ExportService renders attendance data into downloadable artifacts.
type ExportService struct {
	ledger  attendanceLedger
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	storage exportStorage
	logger  *zap.Logger
}

// NewExportService constructs the export service.
func NewExportService(ledger attendanceLedger, storage exportStorage, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		ledger:  ledger,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		storage: storage,
		logger:  logger,
	}
}

// BuildDataset flattens ledger rows in the requested range into a table,
// newest day first.
func (s *ExportService) BuildDataset(ctx context.Context, dateFrom, dateTo *time.Time) (export.Dataset, error) {
	records, err := s.ledger.Snapshot(ctx)
	if err != nil {
		return export.Dataset{}, fmt.Errorf("load ledger: %w", err)
	}

	dataset := export.Dataset{Headers: exportHeaders}
	for i := range records {
		record := &records[i]
		if dateFrom != nil && record.Date.Before(*dateFrom) {
			continue
		}
		if dateTo != nil && record.Date.After(*dateTo) {
			continue
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Date":         record.DateKey(),
			"Subject":      record.Subject,
			"Roll Number":  record.RollNumber,
			"Student Name": record.StudentName,
			"Time":         record.TimeOfDay,
		})
	}
	return dataset, nil
}

// Render produces the artifact bytes for the requested format.
func (s *ExportService) Render(dataset export.Dataset, format models.ReportFormat) ([]byte, error) {
	switch format {
	case models.ReportFormatCSV:
		return s.csv.Render(dataset)
	case models.ReportFormatPDF:
		return s.pdf.Render(dataset, "Attendance Report")
	default:
		return nil, fmt.Errorf("unsupported report format %q", format)
	}
}

// Store writes the artifact for a job and returns its relative path.
func (s *ExportService) Store(jobID string, format models.ReportFormat, data []byte) (string, error) {
	filename := fmt.Sprintf("attendance/%s.%s", jobID, format)
	path, err := s.storage.Save(filename, data)
	if err != nil {
		return "", fmt.Errorf("store export artifact: %w", err)
	}
	s.logger.Info("export artifact stored",
		zap.String("job_id", jobID),
		zap.String("path", path),
		zap.Int("bytes", len(data)))
	return path, nil
}
