package cluster

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/oakfield-care/rosterkit/pkg/core/model"
)

// AgglomerativeModel partitions one client's visits into clusters of the same
// recurring kind of visit, using complete-linkage agglomeration under a
// fitted distance metric with a fixed merge threshold.
type AgglomerativeModel struct {
	strategy  Strategy
	threshold float64
}

// NewAgglomerativeModel builds a clustering model for the given strategy and
// distance threshold.
func NewAgglomerativeModel(strategy Strategy, threshold float64) *AgglomerativeModel {
	return &AgglomerativeModel{strategy: strategy, threshold: threshold}
}

// Cluster partitions the visits, which must all belong to the given client
// (the caller groups by client first). Any failure inside the clustering is
// logged with the client id and replaced by a single cluster containing every
// visit: one client's degenerate data must never abort a batch run.
func (m *AgglomerativeModel) Cluster(clientID string, visits []model.Visit, logger *zap.Logger) []*Cluster {
	clusters, _ := m.ClusterDetailed(clientID, visits, logger)
	return clusters
}

// ClusterDetailed behaves like Cluster and additionally reports whether the
// result is the single-cluster failure fallback.
func (m *AgglomerativeModel) ClusterDetailed(clientID string, visits []model.Visit, logger *zap.Logger) ([]*Cluster, bool) {
	if len(visits) <= 1 {
		return []*Cluster{{ClientID: clientID, Visits: visits}}, false
	}

	clusters, err := m.cluster(clientID, visits)
	if err != nil {
		logger.Warn("Clustering failed, falling back to a single cluster",
			zap.String("client_id", clientID),
			zap.Int("visit_count", len(visits)),
			zap.Error(err))
		return []*Cluster{{ClientID: clientID, Visits: visits}}, true
	}

	return clusters, false
}

// cluster runs the agglomeration and surfaces failures as errors; Cluster
// resolves them to the fallback at the boundary.
func (m *AgglomerativeModel) cluster(clientID string, visits []model.Visit) ([]*Cluster, error) {
	metric, err := NewMetric(m.strategy)
	if err != nil {
		return nil, err
	}
	if err := metric.Fit(visits); err != nil {
		return nil, fmt.Errorf("fitting distance metric: %w", err)
	}

	matrix := CalculateMetric(visits, metric.Distance)
	for i, row := range matrix {
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("degenerate distance matrix at (%d, %d): %v", i, j, v)
			}
		}
	}

	groups := completeLinkage(matrix, m.threshold)

	clusters := make([]*Cluster, 0, len(groups))
	for _, members := range groups {
		c := &Cluster{ClientID: clientID}
		for _, idx := range members {
			c.Visits = append(c.Visits, visits[idx])
		}
		clusters = append(clusters, c)
	}
	return clusters, nil
}

// completeLinkage merges index groups while the smallest complete-linkage
// distance (the maximum pairwise distance across two groups) stays below the
// threshold.
func completeLinkage(matrix [][]float64, threshold float64) [][]int {
	groups := make([][]int, len(matrix))
	for i := range groups {
		groups[i] = []int{i}
	}

	for len(groups) > 1 {
		bestLeft, bestRight := -1, -1
		bestDistance := math.Inf(1)

		for i := 0; i < len(groups); i++ {
			for j := i + 1; j < len(groups); j++ {
				d := linkageDistance(matrix, groups[i], groups[j])
				if d < bestDistance {
					bestDistance = d
					bestLeft, bestRight = i, j
				}
			}
		}

		if bestDistance >= threshold {
			break
		}

		groups[bestLeft] = append(groups[bestLeft], groups[bestRight]...)
		groups = append(groups[:bestRight], groups[bestRight+1:]...)
	}

	return groups
}

// linkageDistance is the complete-linkage distance between two index groups.
func linkageDistance(matrix [][]float64, left, right []int) float64 {
	maxDistance := 0.0
	for _, i := range left {
		for _, j := range right {
			if matrix[i][j] > maxDistance {
				maxDistance = matrix[i][j]
			}
		}
	}
	return maxDistance
}
