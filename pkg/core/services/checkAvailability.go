package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/oakfield-care/rosterkit/pkg/core/timeutil"
	"github.com/oakfield-care/rosterkit/pkg/db"
)

// AvailabilityResult is the answer to one point-in-time availability check.
type AvailabilityResult struct {
	CarerID    string
	PatternKey string
	Date       time.Time
	Available  bool
}

// CheckAvailability loads the carer's active shift pattern and answers
// whether the carer is free for the given duration starting at the given
// clock time on the given date.
func CheckAvailability(ctx context.Context, database db.PatternStore, logger *zap.Logger, carerID string, date time.Time, at timeutil.TimeOfDay, duration time.Duration) (*AvailabilityResult, error) {
	patternRecords, err := database.GetShiftPatterns(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shift patterns: %w", err)
	}
	eventRecords, err := database.GetRelativeEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch relative events: %w", err)
	}

	carerPatterns, err := BuildCarerPatterns(patternRecords, eventRecords, logger)
	if err != nil {
		return nil, err
	}

	for _, cp := range carerPatterns {
		if cp.CarerID != carerID {
			continue
		}

		available, err := cp.Pattern.IsAvailable(date, at, duration)
		if err != nil {
			return nil, err
		}

		logger.Debug("Availability checked",
			zap.String("carer_id", carerID),
			zap.String("pattern_key", cp.Pattern.Key()),
			zap.Time("date", date),
			zap.Bool("available", available))

		return &AvailabilityResult{
			CarerID:    carerID,
			PatternKey: cp.Pattern.Key(),
			Date:       date,
			Available:  available,
		}, nil
	}

	return nil, fmt.Errorf("no shift pattern found for carer %s", carerID)
}
