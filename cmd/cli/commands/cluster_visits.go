package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/oakfield-care/rosterkit/pkg/clients/sheetsclient"
	"github.com/oakfield-care/rosterkit/pkg/core/services"
)

// ClusterVisitsCmd creates the clusterVisits command
func ClusterVisitsCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clusterVisits",
		Short: "Partition each client's visit history into recurring-visit clusters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			publish, _ := cmd.Flags().GetBool("publish")

			outcome, err := services.ClusterVisits(app.Ctx, app.Database, app.Cfg, app.Logger)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Clustering complete\n\n")
			fmt.Printf("Run ID:         %s\n", outcome.RunID)
			fmt.Printf("Clients:        %d\n", outcome.ClientCount)
			fmt.Printf("Fallbacks:      %d\n", outcome.Fallbacks)
			fmt.Printf("Skipped visits: %d\n\n", outcome.SkippedVisits)

			if publish {
				if err := publishClusterReport(app, outcome); err != nil {
					return err
				}
				fmt.Println("Cluster report published")
			}

			return nil
		},
	}

	cmd.Flags().Bool("publish", false, "Publish the cluster assignment table to the report spreadsheet")
	return cmd
}

func publishClusterReport(app *AppContext, outcome *services.ClusterOutcome) error {
	if app.Cfg.ReportSheetID == "" {
		return fmt.Errorf("reportSheetID is not configured")
	}

	client, err := app.SheetsClient()
	if err != nil {
		return err
	}

	var rows []sheetsclient.ClusterReportRow
	for clientID, clusters := range outcome.Clusters {
		for label, c := range clusters {
			for _, visit := range c.Visits {
				rows = append(rows, sheetsclient.ClusterReportRow{
					ClientID:     clientID,
					VisitID:      visit.VisitID,
					ClusterLabel: label,
					PlannedStart: visit.PlannedStart.Format(time.RFC3339),
				})
			}
		}
	}

	return client.PublishClusterReport(app.Cfg.ReportSheetID, outcome.RunID, rows)
}
