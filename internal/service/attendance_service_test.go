package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classroll/classroll-api/internal/clock"
	"github.com/classroll/classroll-api/internal/models"
	"github.com/classroll/classroll-api/internal/schedule"
	appErrors "github.com/classroll/classroll-api/pkg/errors"
)

type fakeLedger struct {
	mu      sync.Mutex
	records map[string]*models.AttendanceRecord
	inserts []models.AttendanceRecord
	findErr error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{records: map[string]*models.AttendanceRecord{}}
}

func ledgerKey(roll, subject string, date time.Time) string {
	return roll + "|" + subject + "|" + date.Format("2006-01-02")
}

func (f *fakeLedger) Insert(_ context.Context, record *models.AttendanceRecord) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := ledgerKey(record.RollNumber, record.Subject, record.Date)
	if _, exists := f.records[key]; exists {
		return false, nil
	}
	stored := *record
	if stored.ID == "" {
		stored.ID = fmt.Sprintf("rec-%d", len(f.inserts)+1)
	}
	f.records[key] = &stored
	f.inserts = append(f.inserts, stored)
	return true, nil
}

func (f *fakeLedger) Find(_ context.Context, roll, subject string, date time.Time) (*models.AttendanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	record, ok := f.records[ledgerKey(roll, subject, date)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *record
	return &clone, nil
}

func (f *fakeLedger) MarkedSubjects(_ context.Context, roll string, date time.Time) (map[string]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	marked := map[string]bool{}
	for _, record := range f.records {
		if record.RollNumber == roll && record.Date.Format("2006-01-02") == date.Format("2006-01-02") {
			marked[record.Subject] = true
		}
	}
	return marked, nil
}

func (f *fakeLedger) List(_ context.Context, _ models.AttendanceFilter) ([]models.AttendanceRecord, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]models.AttendanceRecord{}, f.inserts...)
	return out, len(out), nil
}

func (f *fakeLedger) Snapshot(_ context.Context) ([]models.AttendanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.AttendanceRecord{}, f.inserts...), nil
}

func testRegistry(t *testing.T) *schedule.Registry {
	t.Helper()
	reg, err := schedule.Parse([]string{
		"Mathematics=09:00-10:00",
		"Science=10:30-11:30",
		"English=12:00-13:00",
	})
	require.NoError(t, err)
	return reg
}

func at(t *testing.T, raw string) clock.Clock {
	t.Helper()
	instant, err := time.ParseInLocation("2006-01-02 15:04:05", raw, time.Local)
	require.NoError(t, err)
	return clock.NewFixed(instant)
}

var alice = &models.Student{RollNumber: "7", FullName: "Student 7", ClassName: "10", Role: models.RoleStudent, Active: true}

func TestEvaluateUnknownSubject(t *testing.T) {
	svc := NewAttendanceService(newFakeLedger(), nil, testRegistry(t), at(t, "2024-01-15 09:30:00"), 0, nil)

	resp, err := svc.Evaluate(context.Background(), alice, "Chemistry")
	require.NoError(t, err)
	assert.Equal(t, models.EligibilityUnknown, resp.Status)
	assert.False(t, resp.Eligible)
	assert.Nil(t, resp.Window)
}

func TestEvaluateWindowBoundsAreInclusive(t *testing.T) {
	cases := []struct {
		now  string
		want models.EligibilityStatus
	}{
		{"2024-01-15 08:59:59", models.EligibilityOutsideWindow},
		{"2024-01-15 09:00:00", models.EligibilityEligible},
		{"2024-01-15 09:30:00", models.EligibilityEligible},
		{"2024-01-15 10:00:00", models.EligibilityEligible},
		{"2024-01-15 10:00:01", models.EligibilityOutsideWindow},
	}
	for _, tc := range cases {
		svc := NewAttendanceService(newFakeLedger(), nil, testRegistry(t), at(t, tc.now), 0, nil)
		resp, err := svc.Evaluate(context.Background(), alice, "Mathematics")
		require.NoError(t, err)
		assert.Equal(t, tc.want, resp.Status, tc.now)
	}
}

func TestEvaluateIsReadOnly(t *testing.T) {
	ledger := newFakeLedger()
	svc := NewAttendanceService(ledger, nil, testRegistry(t), at(t, "2024-01-15 09:30:00"), 0, nil)

	for i := 0; i < 5; i++ {
		resp, err := svc.Evaluate(context.Background(), alice, "Mathematics")
		require.NoError(t, err)
		assert.Equal(t, models.EligibilityEligible, resp.Status)
	}
	assert.Empty(t, ledger.inserts)
}

func TestEvaluateReportsExistingRecord(t *testing.T) {
	ledger := newFakeLedger()
	svc := NewAttendanceService(ledger, nil, testRegistry(t), at(t, "2024-01-15 09:30:00"), 0, nil)

	_, err := svc.Mark(context.Background(), alice, "Mathematics")
	require.NoError(t, err)

	resp, err := svc.Evaluate(context.Background(), alice, "Mathematics")
	require.NoError(t, err)
	assert.Equal(t, models.EligibilityAlreadyMarked, resp.Status)
	require.NotNil(t, resp.Record)
	assert.Equal(t, "09:30:00", resp.Record.Time)
}

func TestMarkDerivesDateAndTimeFromClock(t *testing.T) {
	ledger := newFakeLedger()
	svc := NewAttendanceService(ledger, nil, testRegistry(t), at(t, "2024-01-15 09:15:42"), 0, nil)

	resp, err := svc.Mark(context.Background(), alice, "Mathematics")
	require.NoError(t, err)
	assert.False(t, resp.AlreadyMarked)
	assert.Equal(t, "2024-01-15", resp.Record.Date)
	assert.Equal(t, "09:15:42", resp.Record.Time)
	assert.Equal(t, "Student 7", resp.Record.StudentName)
}

func TestMarkRejectsUnknownSubject(t *testing.T) {
	svc := NewAttendanceService(newFakeLedger(), nil, testRegistry(t), at(t, "2024-01-15 09:30:00"), 0, nil)

	_, err := svc.Mark(context.Background(), alice, "Chemistry")
	assert.ErrorIs(t, err, appErrors.ErrUnknownSubject)
}

func TestMarkRejectsOutsideWindow(t *testing.T) {
	ledger := newFakeLedger()
	svc := NewAttendanceService(ledger, nil, testRegistry(t), at(t, "2024-01-15 10:00:01"), 0, nil)

	_, err := svc.Mark(context.Background(), alice, "Mathematics")
	assert.ErrorIs(t, err, appErrors.ErrOutsideWindow)
	assert.Empty(t, ledger.inserts)
}

func TestMarkTwiceKeepsTheFirstRecord(t *testing.T) {
	ledger := newFakeLedger()
	first := NewAttendanceService(ledger, nil, testRegistry(t), at(t, "2024-01-15 09:05:00"), 0, nil)
	second := NewAttendanceService(ledger, nil, testRegistry(t), at(t, "2024-01-15 09:45:00"), 0, nil)

	_, err := first.Mark(context.Background(), alice, "Mathematics")
	require.NoError(t, err)

	resp, err := second.Mark(context.Background(), alice, "Mathematics")
	assert.ErrorIs(t, err, appErrors.ErrAlreadyMarked)
	require.NotNil(t, resp)
	assert.True(t, resp.AlreadyMarked)
	assert.Equal(t, "09:05:00", resp.Record.Time, "original record must survive")
	require.Len(t, ledger.inserts, 1)
}

func TestConcurrentMarksProduceOneRecord(t *testing.T) {
	ledger := newFakeLedger()
	svc := NewAttendanceService(ledger, nil, testRegistry(t), at(t, "2024-01-15 09:30:00"), 0, nil)

	const attempts = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Mark(context.Background(), alice, "Mathematics"); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Len(t, ledger.inserts, 1)
}

func TestMarksForDifferentSubjectsCoexist(t *testing.T) {
	ledger := newFakeLedger()
	morning := NewAttendanceService(ledger, nil, testRegistry(t), at(t, "2024-01-15 09:15:00"), 0, nil)
	midday := NewAttendanceService(ledger, nil, testRegistry(t), at(t, "2024-01-15 10:45:00"), 0, nil)

	_, err := morning.Mark(context.Background(), alice, "Mathematics")
	require.NoError(t, err)
	_, err = midday.Mark(context.Background(), alice, "Science")
	require.NoError(t, err)

	assert.Len(t, ledger.inserts, 2)
}

func TestTodayJudgesEverySubjectAtOneInstant(t *testing.T) {
	ledger := newFakeLedger()
	svc := NewAttendanceService(ledger, nil, testRegistry(t), at(t, "2024-01-15 09:30:00"), 0, nil)

	_, err := svc.Mark(context.Background(), alice, "Mathematics")
	require.NoError(t, err)

	resp, err := svc.Today(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15", resp.Date)
	require.Len(t, resp.Subjects, 3)
	assert.Equal(t, models.EligibilityAlreadyMarked, resp.Subjects[0].Status)
	assert.Equal(t, models.EligibilityOutsideWindow, resp.Subjects[1].Status)
	assert.Equal(t, models.EligibilityOutsideWindow, resp.Subjects[2].Status)
}

func TestScheduleCarriesCallerStanding(t *testing.T) {
	ledger := newFakeLedger()
	svc := NewAttendanceService(ledger, nil, testRegistry(t), at(t, "2024-01-15 09:30:00"), 0, nil)

	_, err := svc.Mark(context.Background(), alice, "Mathematics")
	require.NoError(t, err)

	resp, err := svc.Schedule(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, resp.Subjects, 3)
	assert.Equal(t, "Mathematics", resp.Subjects[0].Subject)
	assert.Equal(t, models.EligibilityAlreadyMarked, resp.Subjects[0].Status)
	assert.Equal(t, "09:00 AM", resp.Subjects[0].Window.StartDisplay)
}

func TestBuildSummaryGroupsByDayAndSubject(t *testing.T) {
	day := func(raw string) time.Time {
		d, err := time.Parse("2006-01-02", raw)
		require.NoError(t, err)
		return d
	}
	records := []models.AttendanceRecord{
		{RollNumber: "1", StudentName: "Student 1", Subject: "Mathematics", Date: day("2024-01-14"), TimeOfDay: "09:10:00"},
		{RollNumber: "2", StudentName: "Student 2", Subject: "Mathematics", Date: day("2024-01-15"), TimeOfDay: "09:20:00"},
		{RollNumber: "1", StudentName: "Student 1", Subject: "Science", Date: day("2024-01-15"), TimeOfDay: "10:40:00"},
	}

	summary := BuildSummary(records, time.Now())
	assert.Equal(t, []string{"2024-01-15", "2024-01-14"}, summary.Dates)
	assert.Equal(t, 3, summary.TotalRecords)
	assert.Len(t, summary.Days["2024-01-15"]["Mathematics"], 1)
	assert.Len(t, summary.Days["2024-01-15"]["Science"], 1)
	assert.Len(t, summary.Days["2024-01-14"]["Mathematics"], 1)
}

func TestBuildSummaryEmptyLedger(t *testing.T) {
	summary := BuildSummary(nil, time.Now())
	assert.Empty(t, summary.Dates)
	assert.Empty(t, summary.Days)
	assert.Zero(t, summary.TotalRecords)
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	sets    int
	deletes int
}

func newFakeCache() *fakeCache { return &fakeCache{entries: map[string][]byte{}} }

func (c *fakeCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *fakeCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	c.sets++
	return nil
}

func (c *fakeCache) DeleteByPattern(_ context.Context, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string][]byte{}
	c.deletes++
	return nil
}

func TestSummaryUsesCacheUntilInvalidated(t *testing.T) {
	ledger := newFakeLedger()
	cache := newFakeCache()
	svc := NewAttendanceService(ledger, cache, testRegistry(t), at(t, "2024-01-15 09:30:00"), time.Minute, nil)

	_, err := svc.Mark(context.Background(), alice, "Mathematics")
	require.NoError(t, err)

	first, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.TotalRecords)
	assert.Equal(t, 1, cache.sets)

	// Second read is served from cache.
	_, err = svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)

	// A new mark drops the cached payload.
	bob := &models.Student{RollNumber: "8", FullName: "Student 8", Role: models.RoleStudent, Active: true}
	_, err = svc.Mark(context.Background(), bob, "Mathematics")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, cache.deletes, 2)

	refreshed, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, refreshed.TotalRecords)
}

func TestDebugTimeReportsFrozenClock(t *testing.T) {
	svc := NewAttendanceService(newFakeLedger(), nil, testRegistry(t), at(t, "2024-01-15 09:30:00"), 0, nil)

	resp := svc.DebugTime()
	assert.True(t, resp.Frozen)
	assert.Equal(t, "2024-01-15", resp.Date)
	assert.Equal(t, "09:30:00", resp.Time)
}
