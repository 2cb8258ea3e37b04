package forecast

import (
	"time"

	"go.uber.org/zap"

	"github.com/oakfield-care/rosterkit/pkg/core/timeutil"
)

// Observation is one historical duration sample, in minutes, for one date.
type Observation struct {
	Date    time.Time
	Minutes float64
}

// Point is one forecast output: the predicted duration for a date.
type Point struct {
	Date    time.Time
	Minutes float64
}

// Params control the forecast method selection and pre-filtering.
type Params struct {
	// LookbackDays is the window before the cutoff inspected for history
	// density when choosing the forecast method.
	LookbackDays int
	// DensityRatio is the fraction of lookback days that must carry at
	// least one observation before the trend/seasonality model is trusted.
	DensityRatio float64
	// WinsorizeTail is the quantile clipped at both ends before fitting.
	WinsorizeTail float64
	// MinDurationMinutes filters out near-zero durations as check-in noise.
	MinDurationMinutes float64
}

// DefaultParams returns the shipped batch configuration.
func DefaultParams() Params {
	return Params{
		LookbackDays:       60,
		DensityRatio:       0.75,
		WinsorizeTail:      0.05,
		MinDurationMinutes: 5,
	}
}

const seasonalPeriod = 7

// MakeCombinedForecast produces per-day duration predictions for horizon days
// starting at the cutoff. The method is chosen from recent history density:
// when at least DensityRatio of the lookback days before the cutoff carry an
// observation, an additive seasonal (weekly) trend model is fitted; sparser
// histories fall back to a day-of-week median baseline. Only observations
// strictly before the cutoff are used.
func MakeCombinedForecast(obs []Observation, cutoff time.Time, horizon int, params Params, logger *zap.Logger) ([]Point, error) {
	if horizon <= 0 {
		return nil, ErrNoPeriods
	}

	cutoffDate := timeutil.DateOnly(cutoff)
	history := make([]Observation, 0, len(obs))
	for _, o := range obs {
		if timeutil.DateOnly(o.Date).Before(cutoffDate) {
			history = append(history, o)
		}
	}

	lookbackStart := cutoffDate.AddDate(0, 0, -params.LookbackDays)
	denseDays := make(map[string]bool)
	for _, o := range history {
		date := timeutil.DateOnly(o.Date)
		if !date.Before(lookbackStart) {
			denseDays[date.Format(time.DateOnly)] = true
		}
	}

	required := int(params.DensityRatio * float64(params.LookbackDays))
	if len(denseDays) >= required {
		points, err := trendSeasonalForecast(history, lookbackStart, cutoffDate, horizon)
		if err == nil {
			return points, nil
		}
		// Density said the seasonal model should fit; if it cannot, the
		// baseline is still better than failing the unit.
		logger.Warn("Trend/seasonality model failed, using day-of-week median",
			zap.Int("dense_days", len(denseDays)),
			zap.Error(err))
	}

	return dayMedianForecast(history, cutoffDate, horizon, logger), nil
}

// trendSeasonalForecast resamples the lookback window into a continuous daily
// series (per-day means, gaps filled with the window mean) and extrapolates
// with weekly-seasonal exponential smoothing.
func trendSeasonalForecast(history []Observation, lookbackStart, cutoff time.Time, horizon int) ([]Point, error) {
	perDay := make(map[string][]float64)
	var window []float64
	for _, o := range history {
		date := timeutil.DateOnly(o.Date)
		if date.Before(lookbackStart) {
			continue
		}
		key := date.Format(time.DateOnly)
		perDay[key] = append(perDay[key], o.Minutes)
		window = append(window, o.Minutes)
	}

	fill := mean(window)
	days := timeutil.DaysBetween(lookbackStart, cutoff)
	series := make([]float64, days)
	for i := 0; i < days; i++ {
		key := lookbackStart.AddDate(0, 0, i).Format(time.DateOnly)
		if values, ok := perDay[key]; ok {
			series[i] = mean(values)
		} else {
			series[i] = fill
		}
	}

	values, err := holtWinters(series, seasonalPeriod, horizon)
	if err != nil {
		return nil, err
	}

	points := make([]Point, horizon)
	for i, v := range values {
		points[i] = Point{Date: cutoff.AddDate(0, 0, i), Minutes: v}
	}
	return points, nil
}

// dayMedianForecast predicts each date from the median of historical
// observations on the same weekday. An empty weekday bucket falls back to the
// median over all observations, so a single missing weekday never fails a
// forecast.
func dayMedianForecast(history []Observation, cutoff time.Time, horizon int, logger *zap.Logger) []Point {
	buckets := make(map[timeutil.Day][]float64)
	var all []float64
	for _, o := range history {
		day := timeutil.DayOf(o.Date)
		buckets[day] = append(buckets[day], o.Minutes)
		all = append(all, o.Minutes)
	}
	globalMedian := median(all)

	points := make([]Point, horizon)
	for i := range points {
		date := cutoff.AddDate(0, 0, i)
		day := timeutil.DayOf(date)

		value := globalMedian
		if bucket := buckets[day]; len(bucket) > 0 {
			value = median(bucket)
		} else {
			logger.Warn("No historical observations for weekday, using global median",
				zap.String("weekday", day.String()),
				zap.Time("date", date))
		}
		points[i] = Point{Date: date, Minutes: value}
	}
	return points
}
