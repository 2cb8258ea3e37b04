package cluster

import "github.com/oakfield-care/rosterkit/pkg/core/model"

// Cluster is a non-empty group of one client's visits believed to represent
// the same recurring kind of visit.
type Cluster struct {
	ClientID string
	Visits   []model.Visit
}

// Distance returns the mean distance from a candidate visit to every member
// of the cluster under the given metric. The metric must be the instance the
// cluster was built with, so its fitted weights match.
func (c *Cluster) Distance(visit model.Visit, metric Metric) float64 {
	if len(c.Visits) == 0 {
		return 0
	}

	total := 0.0
	for _, member := range c.Visits {
		total += metric.Distance(visit, member)
	}
	return total / float64(len(c.Visits))
}
