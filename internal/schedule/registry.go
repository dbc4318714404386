// Package schedule holds the immutable subject timetable loaded at startup.
package schedule

import (
	"fmt"
	"strings"

	"github.com/classroll/classroll-api/internal/models"
)

// Entry pairs a subject with its marking window.
type Entry struct {
	Subject string
	Window  models.TimeWindow
}

// Registry maps subjects to their marking windows. It is built once from
// configuration and never mutated afterwards, so it is safe for concurrent
// reads without locking.
type Registry struct {
	order   []string
	windows map[string]models.TimeWindow
}

// Parse builds a Registry from "Subject=HH:MM-HH:MM" declarations.
func Parse(entries []string) (*Registry, error) {
	r := &Registry{windows: make(map[string]models.TimeWindow, len(entries))}
	for _, raw := range entries {
		subject, window, err := parseEntry(raw)
		if err != nil {
			return nil, err
		}
		if _, exists := r.windows[subject]; exists {
			return nil, fmt.Errorf("duplicate schedule entry for %q", subject)
		}
		r.order = append(r.order, subject)
		r.windows[subject] = window
	}
	if len(r.order) == 0 {
		return nil, fmt.Errorf("schedule requires at least one subject")
	}
	return r, nil
}

// Lookup returns the window for a subject. A miss is an expected outcome,
// not an error.
func (r *Registry) Lookup(subject string) (models.TimeWindow, bool) {
	window, ok := r.windows[subject]
	return window, ok
}

// Subjects returns the subject names in declaration order.
func (r *Registry) Subjects() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Entries returns subject/window pairs in declaration order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, 0, len(r.order))
	for _, subject := range r.order {
		out = append(out, Entry{Subject: subject, Window: r.windows[subject]})
	}
	return out
}

func parseEntry(raw string) (string, models.TimeWindow, error) {
	name, span, found := strings.Cut(raw, "=")
	if !found {
		return "", models.TimeWindow{}, fmt.Errorf("invalid schedule entry %q, expected Subject=HH:MM-HH:MM", raw)
	}
	subject := strings.TrimSpace(name)
	if subject == "" {
		return "", models.TimeWindow{}, fmt.Errorf("schedule entry %q has an empty subject", raw)
	}
	startRaw, endRaw, found := strings.Cut(strings.TrimSpace(span), "-")
	if !found {
		return "", models.TimeWindow{}, fmt.Errorf("schedule entry %q has no window range", raw)
	}
	start, err := models.ParseClockTime(strings.TrimSpace(startRaw))
	if err != nil {
		return "", models.TimeWindow{}, fmt.Errorf("schedule entry %q: %w", raw, err)
	}
	end, err := models.ParseClockTime(strings.TrimSpace(endRaw))
	if err != nil {
		return "", models.TimeWindow{}, fmt.Errorf("schedule entry %q: %w", raw, err)
	}
	if end < start {
		return "", models.TimeWindow{}, fmt.Errorf("schedule entry %q ends before it starts", raw)
	}
	return subject, models.TimeWindow{Start: start, End: end}, nil
}
