package db

import "context"

// VisitStore defines read access to historical visit records.
type VisitStore interface {
	GetVisits(ctx context.Context) ([]VisitRecord, error)
}

// PatternStore defines read access to shift pattern data.
type PatternStore interface {
	GetShiftPatterns(ctx context.Context) ([]ShiftPatternRecord, error)
	GetRelativeEvents(ctx context.Context) ([]RelativeEventRecord, error)
}

// DiaryStore defines write access for projected diaries.
type DiaryStore interface {
	InsertDiaryEvents(ctx context.Context, events []DiaryEventRecord) error
}

// AssignmentStore defines write access for cluster label assignments.
type AssignmentStore interface {
	InsertClusterAssignments(ctx context.Context, assignments []ClusterAssignment) error
}

// ForecastStore defines write access for forecast tables.
type ForecastStore interface {
	InsertForecasts(ctx context.Context, forecasts []ForecastRecord) error
}

// Database is the full store interface implemented by postgres.DB.
type Database interface {
	VisitStore
	PatternStore
	DiaryStore
	AssignmentStore
	ForecastStore
}
