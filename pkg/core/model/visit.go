package model

import (
	"time"

	"github.com/oakfield-care/rosterkit/pkg/core/timeutil"
)

// Visit is one historical care visit for a client. It is built once from a
// source record and never mutated afterwards.
type Visit struct {
	VisitID  string
	ClientID string
	CarerID  string
	Area     string

	// Tasks holds the task codes performed during the visit, sorted and
	// de-duplicated at construction.
	Tasks []string

	PlannedStart    time.Time
	PlannedEnd      time.Time
	PlannedDuration time.Duration

	RealStart    time.Time
	RealEnd      time.Time
	RealDuration time.Duration

	// CheckInProcessed is true once the electronic check-in/check-out pair
	// has been matched, making RealStart/RealEnd/RealDuration trustworthy.
	CheckInProcessed bool
}

// PlannedDate returns the calendar date of the planned start.
func (v Visit) PlannedDate() time.Time {
	return timeutil.DateOnly(v.PlannedStart)
}

// ObservedDuration returns the best available duration for the visit: the
// check-in derived duration once processed, the planned duration otherwise.
func (v Visit) ObservedDuration() time.Duration {
	if v.CheckInProcessed {
		return v.RealDuration
	}
	return v.PlannedDuration
}

// PlannedOverlaps reports whether the planned intervals of two visits overlap.
func (v Visit) PlannedOverlaps(other Visit) bool {
	return v.PlannedStart.Before(other.PlannedEnd) && other.PlannedStart.Before(v.PlannedEnd)
}
