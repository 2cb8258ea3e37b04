package shiftpattern

import (
	"time"

	"github.com/oakfield-care/rosterkit/pkg/core/timeutil"
)

// ShiftType distinguishes how a diary came to exist.
type ShiftType string

const (
	// ShiftTypeStandard marks diaries projected from a carer's regular pattern.
	ShiftTypeStandard ShiftType = "standard"
	// ShiftTypeExtraDay marks one-off extra shifts added on top of the pattern.
	ShiftTypeExtraDay ShiftType = "extra-day"
	// ShiftTypeExternal marks diaries imported from an outside system.
	ShiftTypeExternal ShiftType = "external"
)

// Diary is one carer's concrete working intervals for a single calendar date.
type Diary struct {
	Date       time.Time
	Events     []AbsoluteEvent
	PatternKey string
	ShiftType  ShiftType
}

// Duration sums the diary's event durations.
func (d Diary) Duration() time.Duration {
	var total time.Duration
	for _, event := range d.Events {
		total += event.Duration()
	}
	return total
}

// Diaries projects the pattern over [beginDate, endDate) and groups the
// resulting events by date, one standard diary per date that has any events.
func (p *ExecutableShiftPattern) Diaries(beginDate, endDate time.Time) []Diary {
	var diaries []Diary

	for event := range p.Interval(beginDate, endDate) {
		date := timeutil.DateOnly(event.Begin)
		if len(diaries) == 0 || !diaries[len(diaries)-1].Date.Equal(date) {
			diaries = append(diaries, Diary{
				Date:       date,
				PatternKey: p.Key(),
				ShiftType:  ShiftTypeStandard,
			})
		}
		last := &diaries[len(diaries)-1]
		last.Events = append(last.Events, event)
	}

	return diaries
}
