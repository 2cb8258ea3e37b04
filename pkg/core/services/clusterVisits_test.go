package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oakfield-care/rosterkit/pkg/db"
)

// visitRecord builds a parseable visit record at a clock time on a day offset
// from a fixed Monday.
func visitRecord(id, clientID string, dayOffset, hour, minute int) db.VisitRecord {
	start := time.Date(2025, 5, 5+dayOffset, hour, minute, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)
	return db.VisitRecord{
		ID:               id,
		ClientID:         clientID,
		CarerID:          "carer-1",
		PlannedStart:     start,
		PlannedEnd:       end,
		PlannedDuration:  "0:30:00",
		RealStart:        &start,
		RealEnd:          &end,
		RealDuration:     "0:30:00",
		CheckInProcessed: true,
	}
}

func TestClusterVisits_GroupsPerClient(t *testing.T) {
	mock := &mockDatabase{
		visits: []db.VisitRecord{
			visitRecord("v1", "c1", 0, 9, 0),
			visitRecord("v2", "c1", 1, 9, 0),
			visitRecord("v3", "c2", 0, 18, 0),
		},
	}

	outcome, err := ClusterVisits(context.Background(), mock, diaryTestConfig(), zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 2, outcome.ClientCount)
	assert.Equal(t, 0, outcome.Fallbacks)
	assert.Equal(t, 0, outcome.SkippedVisits)
	assert.NotEmpty(t, outcome.RunID)

	// Identical daily visits collapse into one cluster per client
	require.Len(t, outcome.Clusters["c1"], 1)
	assert.Len(t, outcome.Clusters["c1"][0].Visits, 2)
	require.Len(t, outcome.Clusters["c2"], 1)

	require.Len(t, mock.insertedAssignments, 3)
	for _, a := range mock.insertedAssignments {
		assert.Equal(t, outcome.RunID, a.RunID)
		assert.Equal(t, 0, a.ClusterLabel)
	}
}

func TestClusterVisits_SeparatesDistinctSlots(t *testing.T) {
	mock := &mockDatabase{
		visits: []db.VisitRecord{
			visitRecord("v1", "c1", 0, 9, 0),
			visitRecord("v2", "c1", 1, 9, 5),
			visitRecord("v3", "c1", 2, 18, 0),
			visitRecord("v4", "c1", 3, 18, 5),
		},
	}

	outcome, err := ClusterVisits(context.Background(), mock, diaryTestConfig(), zap.NewNop())
	require.NoError(t, err)
	assert.Len(t, outcome.Clusters["c1"], 2)
	assert.Len(t, mock.insertedAssignments, 4)
}

func TestClusterVisits_SkipsUnparseableRecords(t *testing.T) {
	bad := visitRecord("v-bad", "c1", 2, 9, 0)
	bad.PlannedDuration = "thirty minutes"

	mock := &mockDatabase{
		visits: []db.VisitRecord{
			visitRecord("v1", "c1", 0, 9, 0),
			visitRecord("v2", "c1", 1, 9, 0),
			bad,
		},
	}

	outcome, err := ClusterVisits(context.Background(), mock, diaryTestConfig(), zap.NewNop())
	require.NoError(t, err)

	// The malformed record is excluded, the rest of the client still clusters
	assert.Equal(t, 1, outcome.SkippedVisits)
	assert.Equal(t, 1, outcome.ClientCount)
	assert.Len(t, mock.insertedAssignments, 2)
}

func TestClusterVisits_ManyClientsThroughWorkerPool(t *testing.T) {
	// More clients than workers: the pool must still process every unit
	// exactly once.
	mock := &mockDatabase{}
	for i := 0; i < 20; i++ {
		clientID := fmt.Sprintf("c%02d", i)
		mock.visits = append(mock.visits,
			visitRecord(clientID+"-v1", clientID, 0, 9, 0),
			visitRecord(clientID+"-v2", clientID, 1, 9, 0),
		)
	}

	cfg := diaryTestConfig()
	cfg.MaxConcurrentWorkers = 3

	outcome, err := ClusterVisits(context.Background(), mock, cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 20, outcome.ClientCount)
	assert.Len(t, mock.insertedAssignments, 40)
}

func TestClusterVisits_FetchError(t *testing.T) {
	mock := &mockDatabase{getVisitsErr: errors.New("timeout")}
	_, err := ClusterVisits(context.Background(), mock, diaryTestConfig(), zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch visits")
}

func TestClusterVisits_InsertError(t *testing.T) {
	mock := &mockDatabase{
		visits:            []db.VisitRecord{visitRecord("v1", "c1", 0, 9, 0)},
		insertClustersErr: errors.New("constraint violation"),
	}
	_, err := ClusterVisits(context.Background(), mock, diaryTestConfig(), zap.NewNop())
	assert.Error(t, err)
}
