package shiftpattern

import (
	"fmt"
	"time"

	"github.com/oakfield-care/rosterkit/pkg/core/timeutil"
)

// RelativeEvent is one recurring availability slot within a cyclic shift
// pattern. Week counts from 1 within the pattern's cycle; Begin and End are
// clock times on the same day (overnight spans are not representable).
type RelativeEvent struct {
	Week  int
	Day   timeutil.Day
	Begin timeutil.TimeOfDay
	End   timeutil.TimeOfDay
}

// Compare orders events lexicographically by (week, day, begin, end).
func (e RelativeEvent) Compare(other RelativeEvent) int {
	if e.Week != other.Week {
		return e.Week - other.Week
	}
	if e.Day != other.Day {
		return int(e.Day) - int(other.Day)
	}
	if e.Begin != other.Begin {
		return int(e.Begin) - int(other.Begin)
	}
	return int(e.End) - int(other.End)
}

func (e RelativeEvent) String() string {
	return fmt.Sprintf("week %d %s %s-%s", e.Week, e.Day, e.Begin, e.End)
}

// AbsoluteEvent is a concrete, calendar-anchored working interval produced by
// projecting a RelativeEvent onto a date.
type AbsoluteEvent struct {
	Begin time.Time
	End   time.Time
}

// Duration returns the length of the interval.
func (e AbsoluteEvent) Duration() time.Duration {
	return e.End.Sub(e.Begin)
}

func (e AbsoluteEvent) String() string {
	return fmt.Sprintf("%s - %s", e.Begin.Format("2006-01-02 15:04"), e.End.Format("15:04"))
}
