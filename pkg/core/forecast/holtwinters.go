package forecast

import (
	"errors"
	"fmt"
)

// ErrNoPeriods is returned when a forecast is requested for a non-positive
// horizon. The horizon is derived from the caller's window arithmetic, so
// this is a precondition failure rather than a recoverable condition.
var ErrNoPeriods = errors.New("forecast horizon must be positive")

// Smoothing coefficients for the trend/seasonality model. Fixed rather than
// optimised: visit durations move slowly and the batch refits daily.
const (
	hwAlpha = 0.25
	hwBeta  = 0.05
	hwGamma = 0.3
)

// holtWinters fits additive trend + additive seasonality exponential
// smoothing on the series and forecasts horizon further values. The series
// must cover at least two full seasons.
func holtWinters(series []float64, period, horizon int) ([]float64, error) {
	if horizon <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrNoPeriods, horizon)
	}
	if period < 2 {
		return nil, fmt.Errorf("seasonal period must be at least 2, got %d", period)
	}
	if len(series) < 2*period {
		return nil, fmt.Errorf("need at least %d observations for period %d, got %d", 2*period, period, len(series))
	}

	level, trend, seasonals := hwInitial(series, period)

	for i := period; i < len(series); i++ {
		seasonIdx := i % period

		lastLevel := level
		level = hwAlpha*(series[i]-seasonals[seasonIdx]) + (1-hwAlpha)*(level+trend)
		trend = hwBeta*(level-lastLevel) + (1-hwBeta)*trend
		seasonals[seasonIdx] = hwGamma*(series[i]-level) + (1-hwGamma)*seasonals[seasonIdx]
	}

	out := make([]float64, horizon)
	for h := 0; h < horizon; h++ {
		seasonIdx := (len(series) + h) % period
		out[h] = level + float64(h+1)*trend + seasonals[seasonIdx]
	}
	return out, nil
}

// hwInitial derives the starting level, trend and seasonal components from
// the first two seasons of the series.
func hwInitial(series []float64, period int) (level, trend float64, seasonals []float64) {
	firstSeason := series[:period]
	level = mean(firstSeason)

	// Average per-step change between the first and second season.
	trend = 0
	for i := 0; i < period; i++ {
		trend += (series[period+i] - series[i]) / float64(period)
	}
	trend /= float64(period)

	// Seasonal components are average deviations from season means.
	seasonCount := len(series) / period
	seasonMeans := make([]float64, seasonCount)
	for s := 0; s < seasonCount; s++ {
		seasonMeans[s] = mean(series[s*period : (s+1)*period])
	}

	seasonals = make([]float64, period)
	for i := 0; i < period; i++ {
		total := 0.0
		for s := 0; s < seasonCount; s++ {
			total += series[s*period+i] - seasonMeans[s]
		}
		seasonals[i] = total / float64(seasonCount)
	}
	return level, trend, seasonals
}
