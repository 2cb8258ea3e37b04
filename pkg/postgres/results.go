package postgres

import (
	"context"
	"fmt"

	"github.com/oakfield-care/rosterkit/pkg/db"
)

// InsertDiaryEvents inserts projected diary events in one transaction, so a
// failed batch writes nothing.
func (d *DB) InsertDiaryEvents(ctx context.Context, events []db.DiaryEventRecord) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range events {
		_, err := tx.Exec(ctx, `
			INSERT INTO diary_event (carer_id, date, pattern_key, shift_type, begin_time, end_time)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, e.CarerID, e.Date, e.PatternKey, e.ShiftType, e.Begin, e.End)
		if err != nil {
			return fmt.Errorf("failed to insert diary event for carer %s on %s: %w", e.CarerID, e.Date, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit diary events: %w", err)
	}
	return nil
}

// InsertClusterAssignments inserts visit cluster labels in one transaction.
func (d *DB) InsertClusterAssignments(ctx context.Context, assignments []db.ClusterAssignment) error {
	if len(assignments) == 0 {
		return nil
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, a := range assignments {
		_, err := tx.Exec(ctx, `
			INSERT INTO cluster_assignment (visit_id, client_id, cluster_label, run_id)
			VALUES ($1, $2, $3, $4)
		`, a.VisitID, a.ClientID, a.ClusterLabel, a.RunID)
		if err != nil {
			return fmt.Errorf("failed to insert cluster assignment for visit %s: %w", a.VisitID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit cluster assignments: %w", err)
	}
	return nil
}

// InsertForecasts inserts forecast rows in one transaction.
func (d *DB) InsertForecasts(ctx context.Context, forecasts []db.ForecastRecord) error {
	if len(forecasts) == 0 {
		return nil
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, f := range forecasts {
		_, err := tx.Exec(ctx, `
			INSERT INTO forecast (id, client_id, cluster_label, date, predicted_seconds, run_id)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, f.ID, f.ClientID, f.ClusterLabel, f.Date, f.PredictedSeconds, f.RunID)
		if err != nil {
			return fmt.Errorf("failed to insert forecast for client %s on %s: %w", f.ClientID, f.Date, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit forecasts: %w", err)
	}
	return nil
}
