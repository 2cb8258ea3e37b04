package db

import "time"

// VisitRecord is one historical visit row as stored upstream. Durations
// arrive as "H:M:S" strings (or bare seconds) and task codes as a
// semicolon-separated list; services parse records into core visit values.
type VisitRecord struct {
	ID               string
	ClientID         string
	CarerID          string
	Area             string
	Tasks            string
	PlannedStart     time.Time
	PlannedEnd       time.Time
	PlannedDuration  string
	RealStart        *time.Time
	RealEnd          *time.Time
	RealDuration     string
	CheckInProcessed bool
}

// ShiftPatternRecord is the header row of one carer's active shift pattern.
// ReferenceWeek is an ISO date string ("2006-01-02").
type ShiftPatternRecord struct {
	Key                string
	CarerID            string
	ReferenceWeek      string
	ReferenceShiftWeek int
}

// RelativeEventRecord is one recurring slot belonging to a pattern. Day is an
// ISO weekday ordinal (1=Monday..7=Sunday); Begin/End are "H:M:S" clock
// strings.
type RelativeEventRecord struct {
	PatternKey string
	Week       int
	Day        int
	Begin      string
	End        string
}

// DiaryEventRecord is one concrete working interval of a carer's diary, one
// row per projected event. Date is an ISO date string.
type DiaryEventRecord struct {
	CarerID    string
	Date       string
	PatternKey string
	ShiftType  string
	Begin      time.Time
	End        time.Time
}

// ClusterAssignment labels one visit with the cluster it was grouped into.
// Label -1 is reserved for outlier/unclustered visits.
type ClusterAssignment struct {
	VisitID      string
	ClientID     string
	ClusterLabel int
	RunID        string
}

// ForecastRecord is one predicted duration for one client/cluster/date.
type ForecastRecord struct {
	ID               string
	ClientID         string
	ClusterLabel     int
	Date             string
	PredictedSeconds int
	RunID            string
}
