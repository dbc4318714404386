package dto

import (
	"time"

	"github.com/classroll/classroll-api/internal/models"
)

// WindowDetail describes a subject's marking window in both wire and
// display form.
type WindowDetail struct {
	Start        string `json:"start"`
	End          string `json:"end"`
	StartDisplay string `json:"startDisplay"`
	EndDisplay   string `json:"endDisplay"`
}

// NewWindowDetail renders a window for API responses.
func NewWindowDetail(w models.TimeWindow) WindowDetail {
	return WindowDetail{
		Start:        w.Start.String(),
		End:          w.End.String(),
		StartDisplay: w.Start.Format12(),
		EndDisplay:   w.End.Format12(),
	}
}

// AttendanceRecordResponse is a single ledger row as returned to clients.
type AttendanceRecordResponse struct {
	RollNumber  string `json:"rollNumber"`
	StudentName string `json:"studentName"`
	Subject     string `json:"subject"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	MarkedAt    string `json:"markedAt"`
}

// NewAttendanceRecordResponse maps a ledger record into its wire form.
func NewAttendanceRecordResponse(record *models.AttendanceRecord) AttendanceRecordResponse {
	return AttendanceRecordResponse{
		RollNumber:  record.RollNumber,
		StudentName: record.StudentName,
		Subject:     record.Subject,
		Date:        record.DateKey(),
		Time:        record.TimeOfDay,
		MarkedAt:    record.MarkedAt.Format(time.RFC3339),
	}
}

// EligibilityResponse reports whether a student may mark a subject right now.
type EligibilityResponse struct {
	Subject   string                    `json:"subject"`
	Status    models.EligibilityStatus  `json:"status"`
	Eligible  bool                      `json:"eligible"`
	Window    *WindowDetail             `json:"window,omitempty"`
	CheckedAt string                    `json:"checkedAt"`
	Record    *AttendanceRecordResponse `json:"record,omitempty"`
}

// MarkRequest is the body of POST /attendance/mark.
type MarkRequest struct {
	Subject string `json:"subject" binding:"required"`
}

// MarkResponse reports the outcome of a mark attempt. AlreadyMarked is true
// when the record predates this request, including a lost race.
type MarkResponse struct {
	AlreadyMarked bool                     `json:"alreadyMarked"`
	Record        AttendanceRecordResponse `json:"record"`
}

// SubjectAvailability pairs a subject with its window and the caller's
// current standing toward it.
type SubjectAvailability struct {
	Subject string                   `json:"subject"`
	Window  WindowDetail             `json:"window"`
	Status  models.EligibilityStatus `json:"status"`
}

// TodayResponse is the student dashboard payload: every subject in timetable
// order with the caller's standing, all evaluated at the same instant.
type TodayResponse struct {
	Date        string                `json:"date"`
	CurrentTime string                `json:"currentTime"`
	Subjects    []SubjectAvailability `json:"subjects"`
}

// ScheduleResponse lists the timetable with the caller's standing toward
// each subject, the way the class selection screen shows it.
type ScheduleResponse struct {
	Subjects []SubjectAvailability `json:"subjects"`
}

// SummaryResponse is the admin roll-up: days newest first, records grouped
// by subject within each day.
type SummaryResponse struct {
	Dates        []string                                         `json:"dates"`
	Days         map[string]map[string][]AttendanceRecordResponse `json:"days"`
	TotalRecords int                                              `json:"totalRecords"`
	GeneratedAt  string                                           `json:"generatedAt"`
}

// RecordsRequest captures query filters for GET /admin/records.
type RecordsRequest struct {
	Subject    string
	RollNumber string
	DateFrom   *time.Time
	DateTo     *time.Time
	Page       int
	PageSize   int
	SortOrder  string
}

// DebugTimeResponse exposes the engine's clock for sandbox verification.
type DebugTimeResponse struct {
	Now    string `json:"now"`
	Date   string `json:"date"`
	Time   string `json:"time"`
	Frozen bool   `json:"frozen"`
}
