package forecast

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/oakfield-care/rosterkit/pkg/core/model"
	"github.com/oakfield-care/rosterkit/pkg/core/timeutil"
)

var (
	// ErrEmptyTraining is returned when no usable training visits remain.
	ErrEmptyTraining = errors.New("no usable training visits")
	// ErrMixedClients is returned when the training visits span more than
	// one client; the caller must partition by client (and cluster) first.
	ErrMixedClients = errors.New("training visits belong to more than one client")
	// ErrOutsideWindow is returned by Forecast for dates the model was not
	// trained to cover.
	ErrOutsideWindow = errors.New("date outside the trained forecast window")
)

// ForecastModel holds one trained date-indexed duration forecast. Train it
// once per client/cluster, then query Forecast repeatedly.
type ForecastModel struct {
	params Params
	table  map[string]time.Duration
	start  time.Time
	end    time.Time
}

// NewForecastModel builds an untrained model with the given parameters.
func NewForecastModel(params Params) *ForecastModel {
	return &ForecastModel{params: params}
}

// Train fits the model on one client's visits and fills the forecast table
// for every date in [startTime, endTime]. Preconditions: visits non-empty and
// single-client, startTime <= endTime, and every visit planned strictly
// before startTime — training data leaking into the forecast window is a
// caller bug, not something to silently trim.
func (m *ForecastModel) Train(visits []model.Visit, startTime, endTime time.Time, logger *zap.Logger) error {
	if len(visits) == 0 {
		return ErrEmptyTraining
	}
	if startTime.After(endTime) {
		return fmt.Errorf("invalid forecast window: start %s after end %s",
			startTime.Format(time.DateOnly), endTime.Format(time.DateOnly))
	}

	clientID := visits[0].ClientID
	start := timeutil.DateOnly(startTime)
	for _, v := range visits {
		if v.ClientID != clientID {
			return fmt.Errorf("%w: %s and %s", ErrMixedClients, clientID, v.ClientID)
		}
		if !v.PlannedDate().Before(start) {
			return fmt.Errorf("visit %s planned on %s is not strictly before the forecast window starting %s",
				v.VisitID, v.PlannedDate().Format(time.DateOnly), start.Format(time.DateOnly))
		}
	}

	// Near-zero durations are unprocessed or botched check-ins, not real
	// visit lengths.
	obs := make([]Observation, 0, len(visits))
	for _, v := range visits {
		minutes := v.ObservedDuration().Minutes()
		if minutes < m.params.MinDurationMinutes {
			continue
		}
		obs = append(obs, Observation{Date: v.PlannedDate(), Minutes: minutes})
	}
	if len(obs) == 0 {
		return fmt.Errorf("%w: all %d durations below %.0f minutes", ErrEmptyTraining, len(visits), m.params.MinDurationMinutes)
	}

	values := make([]float64, len(obs))
	for i, o := range obs {
		values[i] = o.Minutes
	}
	for i, v := range Winsorize(values, m.params.WinsorizeTail) {
		obs[i].Minutes = v
	}

	horizon := timeutil.DaysBetween(startTime, endTime) + 1
	points, err := MakeCombinedForecast(obs, start, horizon, m.params, logger)
	if err != nil {
		return err
	}

	table := make(map[string]time.Duration, len(points))
	for _, p := range points {
		table[p.Date.Format(time.DateOnly)] = time.Duration(p.Minutes * float64(time.Minute))
	}

	m.table = table
	m.start = start
	m.end = timeutil.DateOnly(endTime)
	return nil
}

// Forecast returns the predicted duration for a date inside the trained
// window.
func (m *ForecastModel) Forecast(date time.Time) (time.Duration, error) {
	if m.table == nil {
		return 0, fmt.Errorf("%w: model is not trained", ErrOutsideWindow)
	}
	value, ok := m.table[timeutil.DateOnly(date).Format(time.DateOnly)]
	if !ok {
		return 0, fmt.Errorf("%w: %s not in [%s, %s]", ErrOutsideWindow,
			date.Format(time.DateOnly), m.start.Format(time.DateOnly), m.end.Format(time.DateOnly))
	}
	return value, nil
}

// Window returns the trained forecast window (inclusive ends). The zero
// times mean the model is untrained.
func (m *ForecastModel) Window() (start, end time.Time) {
	return m.start, m.end
}
