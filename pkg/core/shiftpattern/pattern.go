package shiftpattern

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/oakfield-care/rosterkit/pkg/core/timeutil"
)

// ErrCrossDaySpan is returned by IsAvailable when the queried span would cross
// into the next calendar date. Shifts are defined as intra-day only, so a
// cross-day query signals a caller bug rather than unavailability.
var ErrCrossDaySpan = errors.New("availability span crosses midnight")

// ShiftPattern is a recurring template of working intervals, independent of
// any concrete calendar date. Events are sorted by (week, day, begin, end) at
// construction and never mutated afterwards.
type ShiftPattern struct {
	key    string
	events []RelativeEvent
}

// Key returns the pattern's identifier.
func (p *ShiftPattern) Key() string { return p.key }

// Events returns the sorted events. Callers must not modify the slice.
func (p *ShiftPattern) Events() []RelativeEvent { return p.events }

// ExecutableShiftPattern binds a ShiftPattern to the calendar: ReferenceWeek
// is a concrete date known to fall in cycle week ReferenceShiftWeek, which
// anchors every other date's position in the cycle.
type ExecutableShiftPattern struct {
	ShiftPattern
	referenceWeek      time.Time
	referenceShiftWeek int
	weekSpan           int
	logger             *zap.Logger
}

// NewExecutableShiftPattern builds an executable pattern. The week span is
// derived from the largest event week; construction fails when there are no
// events or the span would be below 1.
func NewExecutableShiftPattern(key string, events []RelativeEvent, referenceWeek time.Time, referenceShiftWeek int, logger *zap.Logger) (*ExecutableShiftPattern, error) {
	if len(events) == 0 {
		return nil, fmt.Errorf("shift pattern %s has no events", key)
	}

	weekSpan := 0
	for _, event := range events {
		if event.Week > weekSpan {
			weekSpan = event.Week
		}
	}
	if weekSpan < 1 {
		return nil, fmt.Errorf("shift pattern %s has invalid week span %d", key, weekSpan)
	}

	// Projection relies on the events being ordered, so the interval
	// output within one date follows the slot order.
	sorted := slices.Clone(events)
	slices.SortFunc(sorted, RelativeEvent.Compare)

	return &ExecutableShiftPattern{
		ShiftPattern:       ShiftPattern{key: key, events: sorted},
		referenceWeek:      timeutil.DateOnly(referenceWeek),
		referenceShiftWeek: referenceShiftWeek,
		weekSpan:           weekSpan,
		logger:             logger,
	}, nil
}

// WeekSpan returns the length of the pattern's cycle in weeks.
func (p *ExecutableShiftPattern) WeekSpan() int { return p.weekSpan }

// ReferenceWeek returns the date anchoring the cycle.
func (p *ExecutableShiftPattern) ReferenceWeek() time.Time { return p.referenceWeek }

// EffectiveShiftWeek returns which cycle week (1..WeekSpan) the given date
// falls in. Dates before the reference week are unusual but valid: the cycle
// is extended backwards, which needs floor division and a Euclidean modulo to
// stay correct for negative offsets.
func (p *ExecutableShiftPattern) EffectiveShiftWeek(date time.Time) int {
	if p.weekSpan <= 1 {
		return 1
	}

	daysDelta := timeutil.DaysBetween(p.referenceWeek, date)
	if daysDelta < 0 {
		p.logger.Warn("Date precedes shift pattern reference week",
			zap.String("pattern", p.key),
			zap.Time("date", date),
			zap.Time("reference_week", p.referenceWeek))
	}

	weeksDelta := timeutil.FloorDiv(daysDelta, 7)
	return timeutil.EuclidMod(p.referenceShiftWeek-1+weeksDelta, p.weekSpan) + 1
}

// IsAvailable reports whether the carer is free for the given duration
// starting at the given clock time on the given date. The whole span must fit
// within one calendar date; a span crossing midnight returns ErrCrossDaySpan.
func (p *ExecutableShiftPattern) IsAvailable(date time.Time, at timeutil.TimeOfDay, duration time.Duration) (bool, error) {
	begin := at.At(date)
	end := begin.Add(duration)
	if !timeutil.DateOnly(end).Equal(timeutil.DateOnly(begin)) {
		return false, fmt.Errorf("%w: %s + %s on %s", ErrCrossDaySpan, at, duration, date.Format("2006-01-02"))
	}

	effectiveWeek := p.EffectiveShiftWeek(date)
	effectiveDay := timeutil.DayOf(date)
	endOfDaySpan := timeutil.TimeOfDayFrom(end)

	for _, event := range p.events {
		if event.Week != effectiveWeek || event.Day != effectiveDay {
			continue
		}
		if event.Begin <= at && endOfDaySpan <= event.End {
			return true, nil
		}
	}
	return false, nil
}

// Interval projects the pattern over the half-open date range
// [beginDate, endDate), yielding one AbsoluteEvent per matching slot in date
// order. Within one date the output follows the pattern's sorted event order.
func (p *ExecutableShiftPattern) Interval(beginDate, endDate time.Time) iter.Seq[AbsoluteEvent] {
	begin := timeutil.DateOnly(beginDate)
	end := timeutil.DateOnly(endDate)

	return func(yield func(AbsoluteEvent) bool) {
		for date := begin; date.Before(end); date = date.AddDate(0, 0, 1) {
			effectiveWeek := p.EffectiveShiftWeek(date)
			effectiveDay := timeutil.DayOf(date)

			for _, event := range p.events {
				if event.Week != effectiveWeek || event.Day != effectiveDay {
					continue
				}
				absolute := AbsoluteEvent{
					Begin: event.Begin.At(date),
					End:   event.End.At(date),
				}
				if !yield(absolute) {
					return
				}
			}
		}
	}
}

// IsAvailablePartially reports whether the pattern yields any working
// interval inside [beginDate, endDate). Used as a cheap carer-inclusion
// filter before full diary construction.
func (p *ExecutableShiftPattern) IsAvailablePartially(beginDate, endDate time.Time) bool {
	for range p.Interval(beginDate, endDate) {
		return true
	}
	return false
}
