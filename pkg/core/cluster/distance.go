package cluster

import (
	"fmt"

	"github.com/oakfield-care/rosterkit/pkg/core/model"
)

// featureFunc is one pairwise visit feature distance: symmetric and
// non-negative, but not necessarily zero on the diagonal.
type featureFunc func(left, right model.Visit) float64

// startTimeDistance is the squared difference in seconds-of-day between the
// planned start times.
func startTimeDistance(left, right model.Visit) float64 {
	diff := float64(secondsOfDay(left) - secondsOfDay(right))
	return diff * diff
}

func secondsOfDay(v model.Visit) int {
	return v.PlannedStart.Hour()*3600 + v.PlannedStart.Minute()*60 + v.PlannedStart.Second()
}

// plannedDurationDistance is the squared difference in minutes between the
// planned durations.
func plannedDurationDistance(left, right model.Visit) float64 {
	diff := left.PlannedDuration.Minutes() - right.PlannedDuration.Minutes()
	return diff * diff
}

// actualDurationDistance is the squared difference in minutes between the
// observed durations. A visit whose actual duration still equals its planned
// duration has not really been observed yet, so the pair contributes nothing.
func actualDurationDistance(left, right model.Visit) float64 {
	if left.RealDuration == left.PlannedDuration || right.RealDuration == right.PlannedDuration {
		return 0
	}
	diff := left.RealDuration.Minutes() - right.RealDuration.Minutes()
	return diff * diff
}

// taskDistance is the squared size of the symmetric difference between the
// two visits' task-code sets.
func taskDistance(left, right model.Visit) float64 {
	seen := make(map[string]int, len(left.Tasks)+len(right.Tasks))
	for _, task := range left.Tasks {
		seen[task] |= 1
	}
	for _, task := range right.Tasks {
		seen[task] |= 2
	}

	diff := 0
	for _, mask := range seen {
		if mask != 3 {
			diff++
		}
	}
	return float64(diff * diff)
}

// sameDayNoOverlapDistance separates genuinely distinct same-day visits from
// duplicate records: 1 iff both visits fall on the same date and their
// planned intervals do not overlap, 0 otherwise.
func sameDayNoOverlapDistance(left, right model.Visit) float64 {
	if !left.PlannedDate().Equal(right.PlannedDate()) {
		return 0
	}
	if left.PlannedOverlaps(right) {
		return 0
	}
	return 1
}

// CalculateMetric builds the full pairwise matrix for one feature. The upper
// triangle is computed and mirrored; the diagonal is computed explicitly via
// f(x, x) because not every feature is zero on identical inputs.
func CalculateMetric(visits []model.Visit, f featureFunc) [][]float64 {
	n := len(visits)
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := f(visits[i], visits[j])
			out[i][j] = d
			out[j][i] = d
		}
	}
	for i := 0; i < n; i++ {
		out[i][i] = f(visits[i], visits[i])
	}

	return out
}

// Strategy selects one member of the closed distance-metric family.
type Strategy string

const (
	// StrategyAdaptive combines start-time, observed-duration, task and
	// same-day features with per-client normalised weights.
	StrategyAdaptive Strategy = "adaptive"
	// StrategyPlannedStart uses only the planned start-time difference.
	StrategyPlannedStart Strategy = "planned-start"
	// StrategyNoSameDayPlannedStart adds a heavy penalty for distinct
	// same-day visits on top of the start-time difference.
	StrategyNoSameDayPlannedStart Strategy = "no-same-day-planned-start"
	// StrategyNoSameDayPlannedStartDuration additionally penalises large
	// planned-duration differences.
	StrategyNoSameDayPlannedStartDuration Strategy = "no-same-day-planned-start-duration"
)

// Metric is a fitted pairwise visit distance. Fit must be called with the
// full visit population for one client before Distance is used; fitted state
// is frozen afterwards so a metric instance can classify unseen visits
// against clusters built under the same fit.
type Metric interface {
	Fit(visits []model.Visit) error
	Distance(left, right model.Visit) float64
}

// NewMetric returns the metric for a strategy.
func NewMetric(strategy Strategy) (Metric, error) {
	switch strategy {
	case StrategyAdaptive:
		return newAdaptiveMetric(), nil
	case StrategyPlannedStart:
		return fixedMetric{features: []weightedFeature{
			{startTimeMinutesDistance, 1},
		}}, nil
	case StrategyNoSameDayPlannedStart:
		return fixedMetric{features: []weightedFeature{
			{sameDayNoOverlapDistance, minutesPerDay},
			{startTimeMinutesDistance, 1},
		}}, nil
	case StrategyNoSameDayPlannedStartDuration:
		return fixedMetric{features: []weightedFeature{
			{sameDayNoOverlapDistance, minutesPerDay},
			{startTimeMinutesDistance, 1},
			{longDurationExcessDistance, 1},
		}}, nil
	default:
		return nil, fmt.Errorf("unknown distance strategy %q", strategy)
	}
}

const (
	minutesPerDay = 1440

	// adaptiveScale is the numerator for the per-feature normalisation
	// weight. Empirical, carried over from the tuned batch configuration.
	adaptiveScale = 1000

	// flatWeightEpsilon guards the normalisation against a degenerate
	// feature whose values are all (near) zero.
	flatWeightEpsilon = 1e-7

	// durationPenaltyThresholdMinutes and durationPenaltyRate penalise
	// planned-duration differences only once they exceed two hours.
	durationPenaltyThresholdMinutes = 120
	durationPenaltyRate             = 12
)

// startTimeMinutesDistance is the absolute planned start difference in minutes.
func startTimeMinutesDistance(left, right model.Visit) float64 {
	diff := float64(secondsOfDay(left)-secondsOfDay(right)) / 60
	if diff < 0 {
		diff = -diff
	}
	return diff
}

// longDurationExcessDistance penalises planned-duration differences beyond
// the two-hour threshold, at a fixed rate per excess minute.
func longDurationExcessDistance(left, right model.Visit) float64 {
	diff := left.PlannedDuration.Minutes() - right.PlannedDuration.Minutes()
	if diff < 0 {
		diff = -diff
	}
	if diff <= durationPenaltyThresholdMinutes {
		return 0
	}
	return durationPenaltyRate * (diff - durationPenaltyThresholdMinutes)
}

// weightedFeature pairs a feature with a fixed scaling constant.
type weightedFeature struct {
	f      featureFunc
	weight float64
}

// fixedMetric combines features under constant weights; Fit is a no-op.
type fixedMetric struct {
	features []weightedFeature
}

func (m fixedMetric) Fit([]model.Visit) error { return nil }

func (m fixedMetric) Distance(left, right model.Visit) float64 {
	total := 0.0
	for _, wf := range m.features {
		total += wf.weight * wf.f(left, right)
	}
	return total
}

// adaptiveMetric is the default visit distance: each feature is normalised by
// the maximum raw value it takes over the fitted population, so no single
// feature's unit range dominates. The normalisation differs per client and
// must be refitted for each client's visit set.
type adaptiveMetric struct {
	features []featureFunc
	weights  []float64
}

func newAdaptiveMetric() *adaptiveMetric {
	return &adaptiveMetric{
		features: []featureFunc{
			startTimeDistance,
			actualDurationDistance,
			taskDistance,
			sameDayNoOverlapDistance,
		},
	}
}

// Fit computes one weight per feature from the feature's raw pairwise matrix
// maximum: adaptiveScale/max, or a flat adaptiveScale when the maximum is
// effectively zero.
func (m *adaptiveMetric) Fit(visits []model.Visit) error {
	if len(visits) == 0 {
		return fmt.Errorf("cannot fit distance weights on an empty visit set")
	}

	m.weights = make([]float64, len(m.features))
	for fi, f := range m.features {
		matrix := CalculateMetric(visits, f)

		maxValue := 0.0
		for _, row := range matrix {
			for _, v := range row {
				if v > maxValue {
					maxValue = v
				}
			}
		}

		if maxValue < flatWeightEpsilon {
			m.weights[fi] = adaptiveScale
		} else {
			m.weights[fi] = adaptiveScale / maxValue
		}
	}
	return nil
}

func (m *adaptiveMetric) Distance(left, right model.Visit) float64 {
	if m.weights == nil {
		// Unweighted sum; callers are expected to Fit first.
		total := 0.0
		for _, f := range m.features {
			total += f(left, right)
		}
		return total
	}

	total := 0.0
	for fi, f := range m.features {
		total += m.weights[fi] * f(left, right)
	}
	return total
}
