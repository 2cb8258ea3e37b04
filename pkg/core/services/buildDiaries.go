package services

import (
	"context"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/oakfield-care/rosterkit/internal/config"
	"github.com/oakfield-care/rosterkit/pkg/core/shiftpattern"
	"github.com/oakfield-care/rosterkit/pkg/core/timeutil"
	"github.com/oakfield-care/rosterkit/pkg/db"
	"github.com/oakfield-care/rosterkit/pkg/metrics"
)

// DiaryResult summarises one diary construction run.
type DiaryResult struct {
	Diaries       map[string][]shiftpattern.Diary
	EventCount    int
	CarersSkipped int
}

// BuildDiaries projects every carer's shift pattern over [from, to), adds
// extra-day diaries from the configured recurrence overrides, and persists
// the result. Carers whose pattern yields nothing in the window are filtered
// out before full projection.
func BuildDiaries(ctx context.Context, database db.Database, cfg *config.Config, logger *zap.Logger, from, to time.Time) (*DiaryResult, error) {
	start := time.Now()
	defer func() {
		metrics.StageDuration.WithLabelValues("build_diaries").Observe(time.Since(start).Seconds())
	}()

	if !from.Before(to) {
		return nil, fmt.Errorf("diary window [%s, %s) is empty",
			from.Format(time.DateOnly), to.Format(time.DateOnly))
	}

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

	logger.Debug("Projecting diaries",
		zap.Int("carer_count", len(carerPatterns)),
		zap.Time("from", from),
		zap.Time("to", to))

	result := &DiaryResult{Diaries: make(map[string][]shiftpattern.Diary)}
	for _, cp := range carerPatterns {
		// Cheap inclusion filter before full projection.
		if !cp.Pattern.IsAvailablePartially(from, to) {
			result.CarersSkipped++
			continue
		}
		result.Diaries[cp.CarerID] = cp.Pattern.Diaries(from, to)
	}

	if err := addExtraShiftDiaries(result.Diaries, cfg.ExtraShiftOverrides, from, to, logger); err != nil {
		return nil, err
	}

	var records []db.DiaryEventRecord
	for carerID, diaries := range result.Diaries {
		for _, diary := range diaries {
			for _, event := range diary.Events {
				result.EventCount++
				records = append(records, db.DiaryEventRecord{
					CarerID:    carerID,
					Date:       diary.Date.Format(time.DateOnly),
					PatternKey: diary.PatternKey,
					ShiftType:  string(diary.ShiftType),
					Begin:      event.Begin,
					End:        event.End,
				})
			}
		}
	}

	if err := database.InsertDiaryEvents(ctx, records); err != nil {
		return nil, fmt.Errorf("failed to persist diary events: %w", err)
	}

	metrics.DiariesBuilt.Set(float64(result.EventCount))
	metrics.CarersSkipped.Set(float64(result.CarersSkipped))

	logger.Info("Diaries built",
		zap.Int("carers", len(result.Diaries)),
		zap.Int("events", result.EventCount),
		zap.Int("carers_skipped", result.CarersSkipped))

	return result, nil
}

// addExtraShiftDiaries expands each configured recurrence override into
// extra-day diaries inside the window.
func addExtraShiftDiaries(diaries map[string][]shiftpattern.Diary, overrides []config.ExtraShiftOverride, from, to time.Time, logger *zap.Logger) error {
	for i, override := range overrides {
		rule, err := rrule.StrToRRule(override.RRule)
		if err != nil {
			return fmt.Errorf("failed to parse rrule for override %d: %w", i, err)
		}

		begin, err := timeutil.ParseTimeOfDay(override.Begin)
		if err != nil {
			return fmt.Errorf("override %d: begin: %w", i, err)
		}
		end, err := timeutil.ParseTimeOfDay(override.End)
		if err != nil {
			return fmt.Errorf("override %d: end: %w", i, err)
		}

		rule.DTStart(timeutil.DateOnly(from))
		occurrences := rule.Between(timeutil.DateOnly(from), timeutil.DateOnly(to).AddDate(0, 0, -1), true)

		for _, occurrence := range occurrences {
			date := timeutil.DateOnly(occurrence)
			diaries[override.CarerID] = append(diaries[override.CarerID], shiftpattern.Diary{
				Date:      date,
				ShiftType: shiftpattern.ShiftTypeExtraDay,
				Events: []shiftpattern.AbsoluteEvent{
					{Begin: begin.At(date), End: end.At(date)},
				},
			})
		}

		logger.Debug("Expanded extra-shift override",
			zap.String("carer_id", override.CarerID),
			zap.String("rrule", override.RRule),
			zap.Int("occurrences", len(occurrences)))
	}

	return nil
}
