package timeutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseDuration parses upstream duration strings, which arrive either as
// "H:M:S" or as a bare integer number of seconds.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}

	if !strings.Contains(s, ":") {
		seconds, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", s, err)
		}
		if seconds < 0 {
			return 0, fmt.Errorf("invalid duration %q: negative", s)
		}
		return time.Duration(seconds) * time.Second, nil
	}

	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid duration %q: expected H:M:S", s)
	}

	nums := make([]int, 3)
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", s, err)
		}
		if n < 0 {
			return 0, fmt.Errorf("invalid duration %q: negative component", s)
		}
		nums[i] = n
	}

	return time.Duration(nums[0])*time.Hour +
		time.Duration(nums[1])*time.Minute +
		time.Duration(nums[2])*time.Second, nil
}

// DateOnly truncates a timestamp to midnight in its own location.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DaysBetween returns the whole number of days from a to b (b - a),
// comparing calendar dates only.
func DaysBetween(a, b time.Time) int {
	return int(DateOnly(b).Sub(DateOnly(a)).Hours() / 24)
}

// FloorDiv divides a by b rounding toward negative infinity.
// Go's integer division truncates toward zero, which gives the wrong
// answer for negative dividends.
func FloorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// EuclidMod returns a mod b with a non-negative result for positive b.
func EuclidMod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
