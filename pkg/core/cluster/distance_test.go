package cluster

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakfield-care/rosterkit/pkg/core/model"
)

// visitAt builds a minimal visit with the given planned start and duration.
func visitAt(start time.Time, duration time.Duration) model.Visit {
	return model.Visit{
		PlannedStart:    start,
		PlannedEnd:      start.Add(duration),
		PlannedDuration: duration,
		RealStart:       start,
		RealEnd:         start.Add(duration),
		RealDuration:    duration,
	}
}

func TestStartTimeDistance_SquaredSeconds(t *testing.T) {
	a := visitAt(time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC), 30*time.Minute)
	b := visitAt(time.Date(2025, 1, 7, 9, 1, 0, 0, time.UTC), 30*time.Minute)

	// 60 seconds apart in clock time -> 3600; the calendar date is ignored
	assert.Equal(t, 3600.0, startTimeDistance(a, b))
	assert.Equal(t, startTimeDistance(b, a), startTimeDistance(a, b))
	assert.Equal(t, 0.0, startTimeDistance(a, a))
}

func TestActualDurationDistance_UnobservedContributesNothing(t *testing.T) {
	a := visitAt(time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC), 30*time.Minute)
	b := visitAt(time.Date(2025, 1, 7, 9, 0, 0, 0, time.UTC), 30*time.Minute)
	b.RealDuration = 45 * time.Minute

	// a's real duration still equals its planned duration, so the pair is
	// treated as unobserved
	assert.Equal(t, 0.0, actualDurationDistance(a, b))

	a.RealDuration = 20 * time.Minute
	// (45-20)^2 = 625
	assert.Equal(t, 625.0, actualDurationDistance(a, b))
}

func TestTaskDistance_SymmetricDifference(t *testing.T) {
	a := model.Visit{Tasks: []string{"medication", "meal"}}
	b := model.Visit{Tasks: []string{"meal", "mobility", "hygiene"}}

	// Symmetric difference {medication, mobility, hygiene} has size 3 -> 9
	assert.Equal(t, 9.0, taskDistance(a, b))
	assert.Equal(t, taskDistance(b, a), taskDistance(a, b))
	assert.Equal(t, 0.0, taskDistance(a, a))
}

func TestSameDayNoOverlapDistance(t *testing.T) {
	morning := visitAt(time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC), 30*time.Minute)
	evening := visitAt(time.Date(2025, 1, 6, 18, 0, 0, 0, time.UTC), 30*time.Minute)
	nextDay := visitAt(time.Date(2025, 1, 7, 9, 0, 0, 0, time.UTC), 30*time.Minute)
	overlapping := visitAt(time.Date(2025, 1, 6, 9, 15, 0, 0, time.UTC), 30*time.Minute)

	assert.Equal(t, 1.0, sameDayNoOverlapDistance(morning, evening))
	assert.Equal(t, 0.0, sameDayNoOverlapDistance(morning, nextDay))
	assert.Equal(t, 0.0, sameDayNoOverlapDistance(morning, overlapping))

	// Identical inputs on the same day "overlap" with themselves, so the
	// diagonal of this feature is zero for normal visits but 1 for
	// zero-length ones; CalculateMetric computes it explicitly either way.
	assert.Equal(t, 0.0, sameDayNoOverlapDistance(morning, morning))
}

func TestCalculateMetric_SymmetricWithExplicitDiagonal(t *testing.T) {
	// A zero-duration visit does not overlap itself, so the same-day feature
	// puts a non-zero value on its own diagonal cell.
	zeroLength := visitAt(time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC), 0)
	normal := visitAt(time.Date(2025, 1, 6, 12, 0, 0, 0, time.UTC), 30*time.Minute)

	matrix := CalculateMetric([]model.Visit{zeroLength, normal}, sameDayNoOverlapDistance)

	require.Len(t, matrix, 2)
	assert.Equal(t, matrix[0][1], matrix[1][0])
	assert.Equal(t, 1.0, matrix[0][0])
	assert.Equal(t, 0.0, matrix[1][1])
}

func TestNewMetric_UnknownStrategy(t *testing.T) {
	_, err := NewMetric(Strategy("bogus"))
	assert.Error(t, err)
}

func TestFixedMetric_PlannedStart(t *testing.T) {
	metric, err := NewMetric(StrategyPlannedStart)
	require.NoError(t, err)
	require.NoError(t, metric.Fit(nil))

	a := visitAt(time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC), 30*time.Minute)
	b := visitAt(time.Date(2025, 1, 6, 10, 30, 0, 0, time.UTC), 30*time.Minute)

	// 90 minutes between planned starts
	assert.Equal(t, 90.0, metric.Distance(a, b))
}

func TestFixedMetric_SameDayPenaltyDominates(t *testing.T) {
	metric, err := NewMetric(StrategyNoSameDayPlannedStart)
	require.NoError(t, err)

	morning := visitAt(time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC), 30*time.Minute)
	evening := visitAt(time.Date(2025, 1, 6, 18, 0, 0, 0, time.UTC), 30*time.Minute)

	// 540 minutes apart plus the day-sized separation penalty
	assert.Equal(t, 1440.0+540.0, metric.Distance(morning, evening))
}

func TestFixedMetric_LongDurationExcess(t *testing.T) {
	metric, err := NewMetric(StrategyNoSameDayPlannedStartDuration)
	require.NoError(t, err)

	a := visitAt(time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC), 30*time.Minute)
	b := visitAt(time.Date(2025, 1, 7, 9, 0, 0, 0, time.UTC), 3*time.Hour)

	// Duration difference is 150 minutes, 30 past the two-hour threshold:
	// 12 * 30 = 360. Start times match and the days differ, so nothing else
	// contributes.
	assert.Equal(t, 360.0, metric.Distance(a, b))

	c := visitAt(time.Date(2025, 1, 7, 9, 0, 0, 0, time.UTC), 2*time.Hour)
	assert.Equal(t, 0.0, metric.Distance(a, c))
}

func TestAdaptiveMetric_NormalisesByMaximum(t *testing.T) {
	metric := newAdaptiveMetric()

	a := visitAt(time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC), 30*time.Minute)
	b := visitAt(time.Date(2025, 1, 7, 10, 0, 0, 0, time.UTC), 30*time.Minute)
	require.NoError(t, metric.Fit([]model.Visit{a, b}))

	// Start-time is the only feature with spread: raw max is 3600^2, so the
	// normalised distance of the extreme pair is exactly the scale constant.
	assert.InDelta(t, 1000.0, metric.Distance(a, b), 1e-9)
	assert.Equal(t, 0.0, metric.Distance(a, a))
}

func TestAdaptiveMetric_FlatFeatureGetsFlatWeight(t *testing.T) {
	metric := newAdaptiveMetric()

	// Identical clock times on different days: every feature matrix is all
	// zeros, so every weight falls back to the flat constant.
	a := visitAt(time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC), 30*time.Minute)
	b := visitAt(time.Date(2025, 1, 7, 9, 0, 0, 0, time.UTC), 30*time.Minute)
	require.NoError(t, metric.Fit([]model.Visit{a, b}))

	require.Len(t, metric.weights, 4)
	for _, w := range metric.weights {
		assert.Equal(t, 1000.0, w)
	}
	assert.Equal(t, 0.0, metric.Distance(a, b))
}

func TestAdaptiveMetric_FitEmpty(t *testing.T) {
	metric := newAdaptiveMetric()
	assert.Error(t, metric.Fit(nil))
}
