package cluster

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oakfield-care/rosterkit/pkg/core/model"
)

const testThreshold = 120.5

// dailyVisit builds a visit for the given client at a clock time offset in
// days from a fixed Monday.
func dailyVisit(clientID string, dayOffset, hour, minute int) model.Visit {
	start := time.Date(2025, 1, 6+dayOffset, hour, minute, 0, 0, time.UTC)
	return model.Visit{
		ClientID:        clientID,
		PlannedStart:    start,
		PlannedEnd:      start.Add(30 * time.Minute),
		PlannedDuration: 30 * time.Minute,
		RealStart:       start,
		RealEnd:         start.Add(30 * time.Minute),
		RealDuration:    30 * time.Minute,
	}
}

func TestCluster_SeparatesMorningAndEveningVisits(t *testing.T) {
	clusterer := NewAgglomerativeModel(StrategyAdaptive, testThreshold)

	visits := []model.Visit{
		dailyVisit("c1", 0, 9, 0),
		dailyVisit("c1", 1, 9, 5),
		dailyVisit("c1", 2, 18, 0),
		dailyVisit("c1", 3, 18, 5),
	}

	clusters, fellBack := clusterer.ClusterDetailed("c1", visits, zap.NewNop())
	assert.False(t, fellBack)
	require.Len(t, clusters, 2)

	// Every cluster holds visits from one side of the day only
	for _, c := range clusters {
		require.NotEmpty(t, c.Visits)
		assert.Equal(t, "c1", c.ClientID)
		morning := c.Visits[0].PlannedStart.Hour() < 12
		for _, v := range c.Visits {
			assert.Equal(t, morning, v.PlannedStart.Hour() < 12)
		}
	}
}

func TestCluster_UniformScheduleStaysTogether(t *testing.T) {
	clusterer := NewAgglomerativeModel(StrategyAdaptive, testThreshold)

	// The same slot every day: every feature is flat, so every pairwise
	// distance is zero and everything merges
	visits := []model.Visit{
		dailyVisit("c1", 0, 9, 0),
		dailyVisit("c1", 1, 9, 0),
		dailyVisit("c1", 2, 9, 0),
		dailyVisit("c1", 3, 9, 0),
	}

	clusters := clusterer.Cluster("c1", visits, zap.NewNop())
	require.Len(t, clusters, 1)
	assert.Len(t, clusters[0].Visits, 4)
}

func TestCluster_SingleVisitIsTrivial(t *testing.T) {
	clusterer := NewAgglomerativeModel(StrategyAdaptive, testThreshold)

	visits := []model.Visit{dailyVisit("c1", 0, 9, 0)}
	clusters, fellBack := clusterer.ClusterDetailed("c1", visits, zap.NewNop())

	assert.False(t, fellBack)
	require.Len(t, clusters, 1)
	assert.Len(t, clusters[0].Visits, 1)
}

func TestCluster_FailureFallsBackToSingleCluster(t *testing.T) {
	// An unknown strategy makes the internal clustering fail; the model must
	// swallow the failure and return everything as one cluster.
	clusterer := NewAgglomerativeModel(Strategy("bogus"), testThreshold)

	visits := []model.Visit{
		dailyVisit("c1", 0, 9, 0),
		dailyVisit("c1", 1, 18, 0),
	}

	clusters, fellBack := clusterer.ClusterDetailed("c1", visits, zap.NewNop())
	assert.True(t, fellBack)
	require.Len(t, clusters, 1)
	assert.Len(t, clusters[0].Visits, 2)
}

func TestCompleteLinkage_UsesMaximumPairwiseDistance(t *testing.T) {
	// Chain: 0-1 close, 1-2 close, but 0-2 far. Single linkage would merge
	// all three; complete linkage must keep 2 out once max distance matters.
	matrix := [][]float64{
		{0, 1, 10},
		{1, 0, 1},
		{10, 1, 0},
	}

	groups := completeLinkage(matrix, 5)
	require.Len(t, groups, 2)
}

func TestClusterDistance_MeanToMembers(t *testing.T) {
	metric, err := NewMetric(StrategyPlannedStart)
	require.NoError(t, err)

	c := &Cluster{ClientID: "c1", Visits: []model.Visit{
		dailyVisit("c1", 0, 9, 0),
		dailyVisit("c1", 1, 9, 30),
	}}

	// Candidate at 10:00: 60 and 30 minutes from the members -> mean 45
	candidate := dailyVisit("c1", 2, 10, 0)
	assert.Equal(t, 45.0, c.Distance(candidate, metric))

	empty := &Cluster{ClientID: "c1"}
	assert.Equal(t, 0.0, empty.Distance(candidate, metric))
}
