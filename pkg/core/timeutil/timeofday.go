package timeutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is a clock time within a single day, stored as seconds since
// midnight. It carries no date or timezone of its own; At anchors it to a date.
type TimeOfDay int

// NewTimeOfDay builds a TimeOfDay from clock components.
func NewTimeOfDay(hour, minute, second int) TimeOfDay {
	return TimeOfDay(hour*3600 + minute*60 + second)
}

// TimeOfDayFrom extracts the clock time from a full timestamp.
func TimeOfDayFrom(t time.Time) TimeOfDay {
	return NewTimeOfDay(t.Hour(), t.Minute(), t.Second())
}

// ParseTimeOfDay parses "15:04" or "15:04:05" clock strings.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid time of day %q: expected H:M or H:M:S", s)
	}

	nums := make([]int, 3)
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
		}
		nums[i] = n
	}

	if nums[0] < 0 || nums[0] > 23 || nums[1] < 0 || nums[1] > 59 || nums[2] < 0 || nums[2] > 59 {
		return 0, fmt.Errorf("invalid time of day %q: component out of range", s)
	}

	return NewTimeOfDay(nums[0], nums[1], nums[2]), nil
}

// Hour returns the hour component.
func (t TimeOfDay) Hour() int { return int(t) / 3600 }

// Minute returns the minute component.
func (t TimeOfDay) Minute() int { return (int(t) % 3600) / 60 }

// Second returns the second component.
func (t TimeOfDay) Second() int { return int(t) % 60 }

// Seconds returns the total seconds since midnight.
func (t TimeOfDay) Seconds() int { return int(t) }

// At anchors the clock time to a concrete date, preserving the date's location.
func (t TimeOfDay) At(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), t.Second(), 0, date.Location())
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour(), t.Minute(), t.Second())
}
