package models

import (
	"fmt"
	"time"
)

// ClockTime is a time of day expressed as seconds since midnight. It keeps
// window comparisons free of date and zone arithmetic.
type ClockTime int

// ParseClockTime accepts "HH:MM" or "HH:MM:SS" in 24-hour notation.
func ParseClockTime(raw string) (ClockTime, error) {
	var h, m, s int
	switch n, _ := fmt.Sscanf(raw, "%d:%d:%d", &h, &m, &s); n {
	case 2, 3:
	default:
		return 0, fmt.Errorf("invalid clock time %q", raw)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 || s < 0 || s > 59 {
		return 0, fmt.Errorf("clock time %q out of range", raw)
	}
	return ClockTime(h*3600 + m*60 + s), nil
}

// ClockTimeOf extracts the time of day from an instant, in its location.
func ClockTimeOf(t time.Time) ClockTime {
	return ClockTime(t.Hour()*3600 + t.Minute()*60 + t.Second())
}

// String renders 24-hour "HH:MM:SS".
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", int(c)/3600, int(c)/60%60, int(c)%60)
}

// Format12 renders the 12-hour "HH:MM AM/PM" form shown to students.
func (c ClockTime) Format12() string {
	h := int(c) / 3600
	m := int(c) / 60 % 60
	suffix := "AM"
	if h >= 12 {
		suffix = "PM"
	}
	h12 := h % 12
	if h12 == 0 {
		h12 = 12
	}
	return fmt.Sprintf("%02d:%02d %s", h12, m, suffix)
}

// TimeWindow is the range of the day during which a subject accepts marks.
// Both bounds are inclusive: a mark at exactly Start or exactly End is legal.
type TimeWindow struct {
	Start ClockTime
	End   ClockTime
}

// Contains reports whether t falls inside the window, bounds included.
func (w TimeWindow) Contains(t ClockTime) bool {
	return w.Start <= t && t <= w.End
}

// String renders "HH:MM:SS-HH:MM:SS" for logs and debug output.
func (w TimeWindow) String() string {
	return w.Start.String() + "-" + w.End.String()
}
