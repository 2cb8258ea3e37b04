package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oakfield-care/rosterkit/internal/config"
	"github.com/oakfield-care/rosterkit/pkg/core/cluster"
	"github.com/oakfield-care/rosterkit/pkg/core/model"
	"github.com/oakfield-care/rosterkit/pkg/db"
)

func forecastTestConfig() *config.Config {
	return &config.Config{
		MaxConcurrentWorkers:     4,
		ClusterDistanceThreshold: 120.5,
		WinsorizeTail:            0.05,
		ForecastLookbackDays:     60,
		ForecastDensityRatio:     0.75,
		MinVisitDurationMinutes:  5,
	}
}

// trainingVisit builds one processed visit daysBefore the given window start.
func trainingVisit(clientID string, windowStart time.Time, daysBefore int, duration time.Duration) model.Visit {
	start := windowStart.AddDate(0, 0, -daysBefore).Add(9 * time.Hour)
	return model.Visit{
		VisitID:          clientID + "-" + start.Format(time.DateOnly),
		ClientID:         clientID,
		PlannedStart:     start,
		PlannedEnd:       start.Add(30 * time.Minute),
		PlannedDuration:  30 * time.Minute,
		RealStart:        start,
		RealEnd:          start.Add(duration),
		RealDuration:     duration,
		CheckInProcessed: true,
	}
}

func denseCluster(clientID string, windowStart time.Time, days int, duration time.Duration) *cluster.Cluster {
	c := &cluster.Cluster{ClientID: clientID}
	for i := days; i >= 1; i-- {
		c.Visits = append(c.Visits, trainingVisit(clientID, windowStart, i, duration))
	}
	return c
}

func TestForecastClusters_TrainsPerUnit(t *testing.T) {
	start := time.Date(2025, 8, 4, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 6)

	outcome := &ClusterOutcome{
		RunID: "run-1",
		Clusters: map[string][]*cluster.Cluster{
			"c1": {denseCluster("c1", start, 90, 30*time.Minute)},
			"c2": {denseCluster("c2", start, 90, time.Hour)},
		},
	}

	mock := &mockDatabase{}
	result, err := forecastClusters(context.Background(), mock, forecastTestConfig(), zap.NewNop(), outcome, start, end)
	require.NoError(t, err)

	assert.Equal(t, 2, result.TrainedUnits)
	assert.Equal(t, 0, result.FailedUnits)

	// One row per unit per date across the inclusive 7-day window
	require.Len(t, result.Records, 14)
	require.Len(t, mock.insertedForecasts, 14)

	byClient := make(map[string][]db.ForecastRecord)
	for _, record := range result.Records {
		byClient[record.ClientID] = append(byClient[record.ClientID], record)
		assert.Equal(t, result.RunID, record.RunID)
		assert.NotEmpty(t, record.ID)
	}
	require.Len(t, byClient["c1"], 7)
	require.Len(t, byClient["c2"], 7)
	for _, record := range byClient["c1"] {
		assert.Equal(t, 1800, record.PredictedSeconds)
	}
	for _, record := range byClient["c2"] {
		assert.Equal(t, 3600, record.PredictedSeconds)
	}
}

func TestForecastClusters_FailedUnitIsIsolated(t *testing.T) {
	start := time.Date(2025, 8, 4, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 6)

	// c2's history leaks into the forecast window, which fails its training
	// precondition; c1 must be unaffected.
	leaky := &cluster.Cluster{ClientID: "c2", Visits: []model.Visit{
		trainingVisit("c2", start, 10, 30*time.Minute),
		trainingVisit("c2", start, -1, 30*time.Minute),
	}}

	outcome := &ClusterOutcome{
		RunID: "run-2",
		Clusters: map[string][]*cluster.Cluster{
			"c1": {denseCluster("c1", start, 90, 30*time.Minute)},
			"c2": {leaky},
		},
	}

	mock := &mockDatabase{}
	result, err := forecastClusters(context.Background(), mock, forecastTestConfig(), zap.NewNop(), outcome, start, end)
	require.NoError(t, err)

	assert.Equal(t, 1, result.TrainedUnits)
	assert.Equal(t, 1, result.FailedUnits)
	require.Len(t, result.Records, 7)
	for _, record := range result.Records {
		assert.Equal(t, "c1", record.ClientID)
	}
}

func TestForecastClusters_EmptyClustersSkipped(t *testing.T) {
	start := time.Date(2025, 8, 4, 0, 0, 0, 0, time.UTC)

	outcome := &ClusterOutcome{
		RunID: "run-3",
		Clusters: map[string][]*cluster.Cluster{
			"c1": {{ClientID: "c1"}},
		},
	}

	mock := &mockDatabase{}
	result, err := forecastClusters(context.Background(), mock, forecastTestConfig(), zap.NewNop(), outcome, start, start)
	require.NoError(t, err)
	assert.Equal(t, 0, result.TrainedUnits)
	assert.Equal(t, 0, result.FailedUnits)
	assert.Empty(t, result.Records)
}

func TestForecastClusters_InsertError(t *testing.T) {
	start := time.Date(2025, 8, 4, 0, 0, 0, 0, time.UTC)

	outcome := &ClusterOutcome{
		RunID: "run-4",
		Clusters: map[string][]*cluster.Cluster{
			"c1": {denseCluster("c1", start, 90, 30*time.Minute)},
		},
	}

	mock := &mockDatabase{insertForecastsErr: errors.New("constraint violation")}
	_, err := forecastClusters(context.Background(), mock, forecastTestConfig(), zap.NewNop(), outcome, start, start)
	assert.Error(t, err)
}

func TestForecastDurations_EndToEnd(t *testing.T) {
	start := time.Date(2025, 8, 4, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 6)

	// 90 days of identical 30-minute visits: one cluster, dense history
	mock := &mockDatabase{}
	for i := 90; i >= 1; i-- {
		date := start.AddDate(0, 0, -i).Add(9 * time.Hour)
		visitEnd := date.Add(30 * time.Minute)
		mock.visits = append(mock.visits, db.VisitRecord{
			ID:               date.Format(time.DateOnly),
			ClientID:         "c1",
			CarerID:          "carer-1",
			PlannedStart:     date,
			PlannedEnd:       visitEnd,
			PlannedDuration:  "0:30:00",
			RealStart:        &date,
			RealEnd:          &visitEnd,
			RealDuration:     "0:30:00",
			CheckInProcessed: true,
		})
	}

	result, err := ForecastDurations(context.Background(), mock, forecastTestConfig(), zap.NewNop(), start, end)
	require.NoError(t, err)

	assert.Equal(t, 1, result.TrainedUnits)
	assert.Equal(t, 0, result.FailedUnits)
	require.Len(t, result.Records, 7)

	// Cluster assignments from the prerequisite clustering stage persisted too
	assert.Len(t, mock.insertedAssignments, 90)

	for i, record := range result.Records {
		assert.Equal(t, start.AddDate(0, 0, i).Format(time.DateOnly), record.Date)
		assert.Equal(t, 1800, record.PredictedSeconds)
	}
}
