package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oakfield-care/rosterkit/internal/config"
	"github.com/oakfield-care/rosterkit/pkg/core/cluster"
	"github.com/oakfield-care/rosterkit/pkg/core/forecast"
	"github.com/oakfield-care/rosterkit/pkg/core/timeutil"
	"github.com/oakfield-care/rosterkit/pkg/db"
	"github.com/oakfield-care/rosterkit/pkg/metrics"
)

// ForecastOutcome summarises one forecasting batch run.
type ForecastOutcome struct {
	RunID        string
	TrainedUnits int
	FailedUnits  int
	Records      []db.ForecastRecord
}

// ForecastDurations trains one duration forecast per client/cluster and
// persists the date-indexed forecast tables for [start, end]. Units run in a
// bounded worker pool; a unit that fails training is logged, counted and
// excluded, and writes nothing.
func ForecastDurations(ctx context.Context, database db.Database, cfg *config.Config, logger *zap.Logger, start, end time.Time) (*ForecastOutcome, error) {
	batchStart := time.Now()
	defer func() {
		metrics.StageDuration.WithLabelValues("forecast_durations").Observe(time.Since(batchStart).Seconds())
	}()

	clusterOutcome, err := ClusterVisits(ctx, database, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("clustering before forecasting failed: %w", err)
	}

	return forecastClusters(ctx, database, cfg, logger, clusterOutcome, start, end)
}

// forecastClusters runs the forecasting stage over already-built clusters.
func forecastClusters(ctx context.Context, database db.ForecastStore, cfg *config.Config, logger *zap.Logger, clusterOutcome *ClusterOutcome, start, end time.Time) (*ForecastOutcome, error) {
	outcome := &ForecastOutcome{RunID: uuid.New().String()}

	params := forecast.Params{
		LookbackDays:       cfg.ForecastLookbackDays,
		DensityRatio:       cfg.ForecastDensityRatio,
		WinsorizeTail:      cfg.WinsorizeTail,
		MinDurationMinutes: cfg.MinVisitDurationMinutes,
	}

	type unit struct {
		clientID string
		label    int
		cluster  *cluster.Cluster
	}
	type unitResult struct {
		clientID string
		label    int
		records  []db.ForecastRecord
		err      error
	}

	var units []unit
	for clientID, clusters := range clusterOutcome.Clusters {
		for label, c := range clusters {
			if len(c.Visits) == 0 {
				continue
			}
			units = append(units, unit{clientID: clientID, label: label, cluster: c})
		}
	}

	logger.Debug("Forecasting durations",
		zap.String("run_id", outcome.RunID),
		zap.Int("unit_count", len(units)),
		zap.Time("start", start),
		zap.Time("end", end))

	resultChan := make(chan unitResult, len(units))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, cfg.MaxConcurrentWorkers)

	for _, u := range units {
		wg.Add(1)
		go func(u unit) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			model := forecast.NewForecastModel(params)
			if err := model.Train(u.cluster.Visits, start, end, logger); err != nil {
				resultChan <- unitResult{clientID: u.clientID, label: u.label, err: err}
				return
			}

			days := timeutil.DaysBetween(start, end) + 1
			records := make([]db.ForecastRecord, 0, days)
			for i := 0; i < days; i++ {
				date := timeutil.DateOnly(start).AddDate(0, 0, i)
				predicted, err := model.Forecast(date)
				if err != nil {
					resultChan <- unitResult{clientID: u.clientID, label: u.label, err: err}
					return
				}
				records = append(records, db.ForecastRecord{
					ID:               uuid.New().String(),
					ClientID:         u.clientID,
					ClusterLabel:     u.label,
					Date:             date.Format(time.DateOnly),
					PredictedSeconds: int(predicted.Seconds()),
					RunID:            outcome.RunID,
				})
			}
			resultChan <- unitResult{clientID: u.clientID, label: u.label, records: records}
		}(u)
	}

	wg.Wait()
	close(resultChan)

	// Aggregate only after the join; failed units contribute nothing.
	var records []db.ForecastRecord
	for result := range resultChan {
		if result.err != nil {
			outcome.FailedUnits++
			metrics.ForecastUnitsFailed.Inc()
			logger.Warn("Forecast unit failed",
				zap.String("client_id", result.clientID),
				zap.Int("cluster_label", result.label),
				zap.Error(result.err))
			continue
		}
		outcome.TrainedUnits++
		metrics.ForecastUnitsTrained.Inc()
		records = append(records, result.records...)
	}
	outcome.Records = records

	if err := database.InsertForecasts(ctx, records); err != nil {
		return nil, fmt.Errorf("failed to persist forecasts: %w", err)
	}

	logger.Info("Forecast batch complete",
		zap.String("run_id", outcome.RunID),
		zap.Int("trained_units", outcome.TrainedUnits),
		zap.Int("failed_units", outcome.FailedUnits),
		zap.Int("records", len(records)))

	return outcome, nil
}
