package postgres

import (
	"context"
	"fmt"

	"github.com/oakfield-care/rosterkit/pkg/db"
)

// GetVisits retrieves all historical visit records.
func (d *DB) GetVisits(ctx context.Context) ([]db.VisitRecord, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, client_id, carer_id, area, tasks,
		       planned_start, planned_end, planned_duration,
		       real_start, real_end, real_duration, check_in_processed
		FROM visit
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query visits: %w", err)
	}
	defer rows.Close()

	var visits []db.VisitRecord
	for rows.Next() {
		var v db.VisitRecord
		if err := rows.Scan(
			&v.ID, &v.ClientID, &v.CarerID, &v.Area, &v.Tasks,
			&v.PlannedStart, &v.PlannedEnd, &v.PlannedDuration,
			&v.RealStart, &v.RealEnd, &v.RealDuration, &v.CheckInProcessed,
		); err != nil {
			return nil, fmt.Errorf("failed to scan visit: %w", err)
		}
		visits = append(visits, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating visits: %w", err)
	}

	return visits, nil
}
