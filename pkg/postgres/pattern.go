package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/oakfield-care/rosterkit/pkg/db"
)

// GetShiftPatterns retrieves all shift pattern header records.
func (d *DB) GetShiftPatterns(ctx context.Context) ([]db.ShiftPatternRecord, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT key, carer_id, reference_week, reference_shift_week
		FROM shift_pattern
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query shift patterns: %w", err)
	}
	defer rows.Close()

	var patterns []db.ShiftPatternRecord
	for rows.Next() {
		var p db.ShiftPatternRecord
		var referenceWeek time.Time
		if err := rows.Scan(&p.Key, &p.CarerID, &referenceWeek, &p.ReferenceShiftWeek); err != nil {
			return nil, fmt.Errorf("failed to scan shift pattern: %w", err)
		}
		p.ReferenceWeek = referenceWeek.Format("2006-01-02")
		patterns = append(patterns, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shift patterns: %w", err)
	}

	return patterns, nil
}

// GetRelativeEvents retrieves all recurring slots, ordered by pattern then
// (week, day, begin, end) so loaders can group them without re-sorting.
func (d *DB) GetRelativeEvents(ctx context.Context) ([]db.RelativeEventRecord, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT pattern_key, week, day, begin_time, end_time
		FROM relative_event
		ORDER BY pattern_key, week, day, begin_time, end_time
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query relative events: %w", err)
	}
	defer rows.Close()

	var events []db.RelativeEventRecord
	for rows.Next() {
		var e db.RelativeEventRecord
		if err := rows.Scan(&e.PatternKey, &e.Week, &e.Day, &e.Begin, &e.End); err != nil {
			return nil, fmt.Errorf("failed to scan relative event: %w", err)
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating relative events: %w", err)
	}

	return events, nil
}
