package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oakfield-care/rosterkit/internal/config"
	"github.com/oakfield-care/rosterkit/pkg/core/cluster"
	"github.com/oakfield-care/rosterkit/pkg/core/model"
	"github.com/oakfield-care/rosterkit/pkg/db"
	"github.com/oakfield-care/rosterkit/pkg/metrics"
)

// ClusterOutcome summarises one clustering batch run.
type ClusterOutcome struct {
	RunID         string
	Clusters      map[string][]*cluster.Cluster
	ClientCount   int
	Fallbacks     int
	SkippedVisits int
}

// clusterUnitResult is what one worker returns for one client. Workers own
// their input slice and return a self-contained result; nothing is shared.
type clusterUnitResult struct {
	clientID string
	clusters []*cluster.Cluster
	fellBack bool
}

// ClusterVisits partitions every client's visit history into recurring-visit
// clusters. Clients are processed by a bounded worker pool; each unit is
// independent and a failing unit only excludes that client from the outcome.
func ClusterVisits(ctx context.Context, database db.Database, cfg *config.Config, logger *zap.Logger) (*ClusterOutcome, error) {
	start := time.Now()
	defer func() {
		metrics.StageDuration.WithLabelValues("cluster_visits").Observe(time.Since(start).Seconds())
	}()

	records, err := database.GetVisits(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch visits: %w", err)
	}

	outcome := &ClusterOutcome{
		RunID:    uuid.New().String(),
		Clusters: make(map[string][]*cluster.Cluster),
	}

	visits := make([]model.Visit, 0, len(records))
	for _, record := range records {
		visit, err := BuildVisit(record)
		if err != nil {
			logger.Warn("Skipping unparseable visit record", zap.String("visit_id", record.ID), zap.Error(err))
			outcome.SkippedVisits++
			continue
		}
		visits = append(visits, visit)
	}

	groups := GroupVisitsByClient(visits)
	clusterer := cluster.NewAgglomerativeModel(cluster.StrategyAdaptive, cfg.ClusterDistanceThreshold)

	logger.Debug("Clustering visits",
		zap.String("run_id", outcome.RunID),
		zap.Int("client_count", len(groups)),
		zap.Int("visit_count", len(visits)))

	resultChan := make(chan clusterUnitResult, len(groups))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, cfg.MaxConcurrentWorkers)

	for clientID, clientVisits := range groups {
		wg.Add(1)
		go func(clientID string, clientVisits []model.Visit) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			clusters, fellBack := clusterer.ClusterDetailed(clientID, clientVisits, logger)
			resultChan <- clusterUnitResult{
				clientID: clientID,
				clusters: clusters,
				fellBack: fellBack,
			}
		}(clientID, clientVisits)
	}

	wg.Wait()
	close(resultChan)

	// Aggregate strictly after all workers have finished, using only
	// their returned results.
	var assignments []db.ClusterAssignment
	for result := range resultChan {
		outcome.Clusters[result.clientID] = result.clusters
		outcome.ClientCount++
		metrics.ClientsClustered.Inc()
		if result.fellBack {
			outcome.Fallbacks++
			metrics.ClusterFallbacks.Inc()
		}

		for label, c := range result.clusters {
			for _, visit := range c.Visits {
				assignments = append(assignments, db.ClusterAssignment{
					VisitID:      visit.VisitID,
					ClientID:     result.clientID,
					ClusterLabel: label,
					RunID:        outcome.RunID,
				})
			}
		}
	}

	if err := database.InsertClusterAssignments(ctx, assignments); err != nil {
		return nil, fmt.Errorf("failed to persist cluster assignments: %w", err)
	}

	logger.Info("Clustering batch complete",
		zap.String("run_id", outcome.RunID),
		zap.Int("clients", outcome.ClientCount),
		zap.Int("assignments", len(assignments)),
		zap.Int("skipped_visits", outcome.SkippedVisits))

	return outcome, nil
}
