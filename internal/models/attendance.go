package models

import "time"

// EligibilityStatus is the outcome of a read-only eligibility evaluation.
type EligibilityStatus string

const (
	EligibilityEligible      EligibilityStatus = "ELIGIBLE"
	EligibilityOutsideWindow EligibilityStatus = "OUTSIDE_WINDOW"
	EligibilityAlreadyMarked EligibilityStatus = "ALREADY_MARKED"
	EligibilityUnknown       EligibilityStatus = "UNKNOWN_SUBJECT"
)

// AttendanceRecord is one self-reported mark. At most one record ever exists
// per (roll_number, subject, date); records are never updated or deleted.
type AttendanceRecord struct {
	ID          string    `db:"id" json:"id"`
	RollNumber  string    `db:"roll_number" json:"roll_number"`
	StudentName string    `db:"student_name" json:"student_name"`
	Subject     string    `db:"subject" json:"subject"`
	Date        time.Time `db:"date" json:"date"`
	TimeOfDay   string    `db:"time_of_day" json:"time_of_day"`
	MarkedAt    time.Time `db:"marked_at" json:"marked_at"`
}

// DateKey is the calendar-day component of the composite key, "YYYY-MM-DD".
func (r AttendanceRecord) DateKey() string {
	return r.Date.Format("2006-01-02")
}

// AttendanceFilter scopes admin record listings.
type AttendanceFilter struct {
	Subject    string
	RollNumber string
	DateFrom   *time.Time
	DateTo     *time.Time
	Page       int
	PageSize   int
	SortOrder  string
}
