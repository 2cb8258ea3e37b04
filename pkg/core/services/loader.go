package services

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/oakfield-care/rosterkit/pkg/core/model"
	"github.com/oakfield-care/rosterkit/pkg/core/shiftpattern"
	"github.com/oakfield-care/rosterkit/pkg/core/timeutil"
	"github.com/oakfield-care/rosterkit/pkg/db"
)

// BuildVisit parses one raw visit record into a core visit value.
func BuildVisit(record db.VisitRecord) (model.Visit, error) {
	plannedDuration, err := timeutil.ParseDuration(record.PlannedDuration)
	if err != nil {
		return model.Visit{}, fmt.Errorf("visit %s: planned duration: %w", record.ID, err)
	}

	visit := model.Visit{
		VisitID:          record.ID,
		ClientID:         record.ClientID,
		CarerID:          record.CarerID,
		Area:             record.Area,
		Tasks:            parseTasks(record.Tasks),
		PlannedStart:     record.PlannedStart,
		PlannedEnd:       record.PlannedEnd,
		PlannedDuration:  plannedDuration,
		CheckInProcessed: record.CheckInProcessed,
	}

	if record.RealStart != nil {
		visit.RealStart = *record.RealStart
	}
	if record.RealEnd != nil {
		visit.RealEnd = *record.RealEnd
	}
	if record.RealDuration != "" {
		realDuration, err := timeutil.ParseDuration(record.RealDuration)
		if err != nil {
			return model.Visit{}, fmt.Errorf("visit %s: real duration: %w", record.ID, err)
		}
		visit.RealDuration = realDuration
	}

	return visit, nil
}

// parseTasks splits a semicolon-separated task-code list into a sorted,
// de-duplicated slice.
func parseTasks(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	seen := make(map[string]bool)
	var tasks []string
	for _, part := range strings.Split(raw, ";") {
		task := strings.TrimSpace(part)
		if task == "" || seen[task] {
			continue
		}
		seen[task] = true
		tasks = append(tasks, task)
	}
	slices.Sort(tasks)
	return tasks
}

// GroupVisitsByClient partitions visits into per-client slices.
func GroupVisitsByClient(visits []model.Visit) map[string][]model.Visit {
	groups := make(map[string][]model.Visit)
	for _, visit := range visits {
		groups[visit.ClientID] = append(groups[visit.ClientID], visit)
	}
	return groups
}

// CarerPattern pairs a carer with their executable shift pattern. Each carer
// carries at most one active pattern.
type CarerPattern struct {
	CarerID string
	Pattern *shiftpattern.ExecutableShiftPattern
}

// BuildCarerPatterns assembles executable shift patterns from raw pattern and
// event records. Records with unparseable events or no events at all are
// skipped with a warning rather than failing the whole load.
func BuildCarerPatterns(patterns []db.ShiftPatternRecord, events []db.RelativeEventRecord, logger *zap.Logger) ([]CarerPattern, error) {
	eventsByPattern := make(map[string][]shiftpattern.RelativeEvent)
	for _, record := range events {
		event, err := buildRelativeEvent(record)
		if err != nil {
			logger.Warn("Skipping malformed relative event",
				zap.String("pattern_key", record.PatternKey),
				zap.Error(err))
			continue
		}
		eventsByPattern[record.PatternKey] = append(eventsByPattern[record.PatternKey], event)
	}

	var out []CarerPattern
	for _, record := range patterns {
		referenceWeek, err := time.Parse("2006-01-02", record.ReferenceWeek)
		if err != nil {
			return nil, fmt.Errorf("pattern %s: reference week: %w", record.Key, err)
		}

		patternEvents := eventsByPattern[record.Key]
		if len(patternEvents) == 0 {
			logger.Warn("Shift pattern has no events, skipping",
				zap.String("pattern_key", record.Key),
				zap.String("carer_id", record.CarerID))
			continue
		}

		pattern, err := shiftpattern.NewExecutableShiftPattern(
			record.Key, patternEvents, referenceWeek, record.ReferenceShiftWeek, logger)
		if err != nil {
			return nil, fmt.Errorf("pattern %s: %w", record.Key, err)
		}

		out = append(out, CarerPattern{CarerID: record.CarerID, Pattern: pattern})
	}

	return out, nil
}

func buildRelativeEvent(record db.RelativeEventRecord) (shiftpattern.RelativeEvent, error) {
	if record.Week < 1 {
		return shiftpattern.RelativeEvent{}, fmt.Errorf("week %d below 1", record.Week)
	}
	day := timeutil.Day(record.Day)
	if !day.Valid() {
		return shiftpattern.RelativeEvent{}, fmt.Errorf("invalid day %d", record.Day)
	}

	begin, err := timeutil.ParseTimeOfDay(record.Begin)
	if err != nil {
		return shiftpattern.RelativeEvent{}, fmt.Errorf("begin: %w", err)
	}
	end, err := timeutil.ParseTimeOfDay(record.End)
	if err != nil {
		return shiftpattern.RelativeEvent{}, fmt.Errorf("end: %w", err)
	}
	if end < begin {
		return shiftpattern.RelativeEvent{}, fmt.Errorf("end %s before begin %s", record.End, record.Begin)
	}

	return shiftpattern.RelativeEvent{Week: record.Week, Day: day, Begin: begin, End: end}, nil
}
