package services

import (
	"context"

	"github.com/oakfield-care/rosterkit/pkg/db"
)

// mockDatabase implements a test double for db.Database
type mockDatabase struct {
	visits   []db.VisitRecord
	patterns []db.ShiftPatternRecord
	events   []db.RelativeEventRecord

	insertedDiaryEvents []db.DiaryEventRecord
	insertedAssignments []db.ClusterAssignment
	insertedForecasts   []db.ForecastRecord

	getVisitsErr       error
	getPatternsErr     error
	insertDiaryErr     error
	insertClustersErr  error
	insertForecastsErr error
}

func (m *mockDatabase) GetVisits(ctx context.Context) ([]db.VisitRecord, error) {
	if m.getVisitsErr != nil {
		return nil, m.getVisitsErr
	}
	return m.visits, nil
}

func (m *mockDatabase) GetShiftPatterns(ctx context.Context) ([]db.ShiftPatternRecord, error) {
	if m.getPatternsErr != nil {
		return nil, m.getPatternsErr
	}
	return m.patterns, nil
}

func (m *mockDatabase) GetRelativeEvents(ctx context.Context) ([]db.RelativeEventRecord, error) {
	return m.events, nil
}

func (m *mockDatabase) InsertDiaryEvents(ctx context.Context, events []db.DiaryEventRecord) error {
	if m.insertDiaryErr != nil {
		return m.insertDiaryErr
	}
	m.insertedDiaryEvents = append(m.insertedDiaryEvents, events...)
	return nil
}

func (m *mockDatabase) InsertClusterAssignments(ctx context.Context, assignments []db.ClusterAssignment) error {
	if m.insertClustersErr != nil {
		return m.insertClustersErr
	}
	m.insertedAssignments = append(m.insertedAssignments, assignments...)
	return nil
}

func (m *mockDatabase) InsertForecasts(ctx context.Context, forecasts []db.ForecastRecord) error {
	if m.insertForecastsErr != nil {
		return m.insertForecastsErr
	}
	m.insertedForecasts = append(m.insertedForecasts, forecasts...)
	return nil
}
