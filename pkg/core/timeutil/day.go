package timeutil

import (
	"fmt"
	"time"
)

// Day is an ISO weekday ordinal (1=Monday .. 7=Sunday).
// Values are totally ordered and safe to use as map keys.
type Day int

const (
	Monday Day = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var dayNames = [...]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// DayOf returns the ISO weekday for the given date.
// Go's time.Weekday puts Sunday at 0, so it needs remapping.
func DayOf(t time.Time) Day {
	wd := int(t.Weekday())
	if wd == 0 {
		return Sunday
	}
	return Day(wd)
}

// Valid reports whether d is within the ISO range.
func (d Day) Valid() bool {
	return d >= Monday && d <= Sunday
}

func (d Day) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Day(%d)", int(d))
	}
	return dayNames[d-1]
}
