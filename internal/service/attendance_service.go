package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/classroll/classroll-api/internal/clock"
	"github.com/classroll/classroll-api/internal/dto"
	"github.com/classroll/classroll-api/internal/models"
	"github.com/classroll/classroll-api/internal/schedule"
	appErrors "github.com/classroll/classroll-api/pkg/errors"
)

const summaryCacheKey = "attendance:summary"

type attendanceLedger interface {
	Insert(ctx context.Context, record *models.AttendanceRecord) (bool, error)
	Find(ctx context.Context, rollNumber, subject string, date time.Time) (*models.AttendanceRecord, error)
	MarkedSubjects(ctx context.Context, rollNumber string, date time.Time) (map[string]bool, error)
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, int, error)
	Snapshot(ctx context.Context) ([]models.AttendanceRecord, error)
}

type summaryCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// AttendanceService owns eligibility evaluation, the marking transaction and
// the admin roll-up. All decisions about "now" go through the injected clock;
// nothing else in the service reads the wall clock.
type AttendanceService struct {
	ledger   attendanceLedger
	cache    summaryCache
	registry *schedule.Registry
	clock    clock.Clock
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(ledger attendanceLedger, cache summaryCache, registry *schedule.Registry, clk clock.Clock, cacheTTL time.Duration, logger *zap.Logger) *AttendanceService {
	if clk == nil {
		clk = clock.System{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{
		ledger:   ledger,
		cache:    cache,
		registry: registry,
		clock:    clk,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// dateOf truncates an instant to its calendar day. The day component of the
// uniqueness key is always derived here, never supplied by callers.
func dateOf(at time.Time) time.Time {
	return time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)
}

// Evaluate reports whether the student may mark the subject right now. It is
// read-only: calling it any number of times changes nothing.
func (s *AttendanceService) Evaluate(ctx context.Context, student *models.Student, subject string) (*dto.EligibilityResponse, error) {
	now := s.clock.Now()
	resp := &dto.EligibilityResponse{
		Subject:   subject,
		CheckedAt: now.Format(time.RFC3339),
	}

	window, known := s.registry.Lookup(subject)
	if !known {
		resp.Status = models.EligibilityUnknown
		return resp, nil
	}
	detail := dto.NewWindowDetail(window)
	resp.Window = &detail

	if !window.Contains(models.ClockTimeOf(now)) {
		resp.Status = models.EligibilityOutsideWindow
		return resp, nil
	}

	existing, err := s.ledger.Find(ctx, student.RollNumber, subject, dateOf(now))
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, appErrors.ErrStorageUnavailable.Message)
	}
	if existing != nil {
		record := dto.NewAttendanceRecordResponse(existing)
		resp.Status = models.EligibilityAlreadyMarked
		resp.Record = &record
		return resp, nil
	}

	resp.Status = models.EligibilityEligible
	resp.Eligible = true
	return resp, nil
}

// Mark attempts to record attendance for the student in the subject. The
// full evaluation re-runs here against the clock at commit time; a stale
// ELIGIBLE answer from an earlier Evaluate call grants nothing.
func (s *AttendanceService) Mark(ctx context.Context, student *models.Student, subject string) (*dto.MarkResponse, error) {
	now := s.clock.Now()
	day := dateOf(now)

	window, known := s.registry.Lookup(subject)
	if !known {
		return nil, appErrors.ErrUnknownSubject
	}
	if !window.Contains(models.ClockTimeOf(now)) {
		return nil, appErrors.Clone(appErrors.ErrOutsideWindow, fmt.Sprintf(
			"attendance for %s is only open between %s and %s",
			subject, window.Start.Format12(), window.End.Format12(),
		))
	}

	record := &models.AttendanceRecord{
		RollNumber:  student.RollNumber,
		StudentName: student.FullName,
		Subject:     subject,
		Date:        day,
		TimeOfDay:   models.ClockTimeOf(now).String(),
		MarkedAt:    now,
	}

	inserted, err := s.ledger.Insert(ctx, record)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, appErrors.ErrStorageUnavailable.Message)
	}
	if !inserted {
		// Lost the key, either to an earlier request or to a concurrent
		// one. The surviving record is returned untouched.
		existing, err := s.ledger.Find(ctx, student.RollNumber, subject, day)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, appErrors.ErrStorageUnavailable.Message)
		}
		return &dto.MarkResponse{AlreadyMarked: true, Record: dto.NewAttendanceRecordResponse(existing)}, appErrors.ErrAlreadyMarked
	}

	s.invalidateSummary(ctx)
	s.logger.Info("attendance marked",
		zap.String("roll_number", student.RollNumber),
		zap.String("subject", subject),
		zap.String("date", record.DateKey()),
		zap.String("time", record.TimeOfDay))

	return &dto.MarkResponse{Record: dto.NewAttendanceRecordResponse(record)}, nil
}

// Today returns every subject with the caller's standing, all judged at one
// instant so the dashboard cannot show a torn view of the day.
func (s *AttendanceService) Today(ctx context.Context, student *models.Student) (*dto.TodayResponse, error) {
	now := s.clock.Now()
	at := models.ClockTimeOf(now)

	marked, err := s.ledger.MarkedSubjects(ctx, student.RollNumber, dateOf(now))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, appErrors.ErrStorageUnavailable.Message)
	}

	resp := &dto.TodayResponse{
		Date:        dateOf(now).Format("2006-01-02"),
		CurrentTime: at.String(),
		Subjects:    make([]dto.SubjectAvailability, 0, len(s.registry.Subjects())),
	}
	for _, entry := range s.registry.Entries() {
		status := models.EligibilityOutsideWindow
		switch {
		case marked[entry.Subject]:
			status = models.EligibilityAlreadyMarked
		case entry.Window.Contains(at):
			status = models.EligibilityEligible
		}
		resp.Subjects = append(resp.Subjects, dto.SubjectAvailability{
			Subject: entry.Subject,
			Window:  dto.NewWindowDetail(entry.Window),
			Status:  status,
		})
	}
	return resp, nil
}

// Schedule returns the timetable in declaration order with the caller's
// standing toward each subject.
func (s *AttendanceService) Schedule(ctx context.Context, student *models.Student) (*dto.ScheduleResponse, error) {
	today, err := s.Today(ctx, student)
	if err != nil {
		return nil, err
	}
	return &dto.ScheduleResponse{Subjects: today.Subjects}, nil
}

// Summary builds the admin roll-up: days newest first, records grouped by
// subject within each day in commit order. Served from cache when fresh.
func (s *AttendanceService) Summary(ctx context.Context) (*dto.SummaryResponse, error) {
	if s.cache != nil {
		var cached dto.SummaryResponse
		if err := s.cache.Get(ctx, summaryCacheKey, &cached); err == nil {
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("summary cache read failed", zap.Error(err))
		}
	}

	records, err := s.ledger.Snapshot(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, appErrors.ErrStorageUnavailable.Message)
	}

	resp := BuildSummary(records, s.clock.Now())

	if s.cache != nil {
		if err := s.cache.Set(ctx, summaryCacheKey, resp, s.cacheTTL); err != nil {
			s.logger.Warn("summary cache write failed", zap.Error(err))
		}
	}
	return resp, nil
}

// BuildSummary groups ledger rows into date → subject → records with dates
// sorted newest first. Pure; exercised directly by tests and the exporter.
func BuildSummary(records []models.AttendanceRecord, generatedAt time.Time) *dto.SummaryResponse {
	resp := &dto.SummaryResponse{
		Dates:        []string{},
		Days:         map[string]map[string][]dto.AttendanceRecordResponse{},
		TotalRecords: len(records),
		GeneratedAt:  generatedAt.Format(time.RFC3339),
	}
	for i := range records {
		record := &records[i]
		day := record.DateKey()
		if _, seen := resp.Days[day]; !seen {
			resp.Dates = append(resp.Dates, day)
			resp.Days[day] = map[string][]dto.AttendanceRecordResponse{}
		}
		resp.Days[day][record.Subject] = append(resp.Days[day][record.Subject], dto.NewAttendanceRecordResponse(record))
	}
	// ISO dates compare correctly as strings.
	sort.Sort(sort.Reverse(sort.StringSlice(resp.Dates)))
	return resp
}

// ListRecords returns raw ledger rows for the admin browser.
func (s *AttendanceService) ListRecords(ctx context.Context, req dto.RecordsRequest) ([]dto.AttendanceRecordResponse, int, error) {
	records, total, err := s.ledger.List(ctx, models.AttendanceFilter{
		Subject:    req.Subject,
		RollNumber: req.RollNumber,
		DateFrom:   req.DateFrom,
		DateTo:     req.DateTo,
		Page:       req.Page,
		PageSize:   req.PageSize,
		SortOrder:  req.SortOrder,
	})
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, appErrors.ErrStorageUnavailable.Message)
	}
	out := make([]dto.AttendanceRecordResponse, 0, len(records))
	for i := range records {
		out = append(out, dto.NewAttendanceRecordResponse(&records[i]))
	}
	return out, total, nil
}

// DebugTime reports the engine's current clock reading.
func (s *AttendanceService) DebugTime() *dto.DebugTimeResponse {
	now := s.clock.Now()
	_, frozen := s.clock.(clock.Fixed)
	return &dto.DebugTimeResponse{
		Now:    now.Format(time.RFC3339),
		Date:   dateOf(now).Format("2006-01-02"),
		Time:   models.ClockTimeOf(now).String(),
		Frozen: frozen,
	}
}

func (s *AttendanceService) invalidateSummary(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, summaryCacheKey+"*"); err != nil {
		s.logger.Warn("summary cache invalidation failed", zap.Error(err))
	}
}
