package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/oakfield-care/rosterkit/pkg/clients/sheetsclient"
	"github.com/oakfield-care/rosterkit/pkg/core/services"
)

// ForecastDurationsCmd creates the forecastDurations command
func ForecastDurationsCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forecastDurations <start> <end>",
		Short: "Train per-cluster duration forecasts covering [start, end]",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := time.Parse("2006-01-02", args[0])
			if err != nil {
				return fmt.Errorf("start must be a YYYY-MM-DD date: %w", err)
			}
			end, err := time.Parse("2006-01-02", args[1])
			if err != nil {
				return fmt.Errorf("end must be a YYYY-MM-DD date: %w", err)
			}

			publish, _ := cmd.Flags().GetBool("publish")
			email, _ := cmd.Flags().GetString("email")

			outcome, err := services.ForecastDurations(app.Ctx, app.Database, app.Cfg, app.Logger, start, end)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Forecast batch complete\n\n")
			fmt.Printf("Run ID:        %s\n", outcome.RunID)
			fmt.Printf("Trained units: %d\n", outcome.TrainedUnits)
			fmt.Printf("Failed units:  %d\n", outcome.FailedUnits)
			fmt.Printf("Forecast rows: %d\n\n", len(outcome.Records))

			if publish {
				if err := publishForecastReport(app, outcome); err != nil {
					return err
				}
				fmt.Println("Forecast report published")
			}

			if email != "" {
				if err := emailForecastSummary(app, outcome, email); err != nil {
					return err
				}
				fmt.Printf("Summary emailed to %s\n", email)
			}

			return nil
		},
	}

	cmd.Flags().Bool("publish", false, "Publish the forecast table to the report spreadsheet")
	cmd.Flags().String("email", "", "Email the batch summary to this address")
	return cmd
}

func publishForecastReport(app *AppContext, outcome *services.ForecastOutcome) error {
	if app.Cfg.ReportSheetID == "" {
		return fmt.Errorf("reportSheetID is not configured")
	}

	client, err := app.SheetsClient()
	if err != nil {
		return err
	}

	rows := make([]sheetsclient.ForecastReportRow, 0, len(outcome.Records))
	for _, record := range outcome.Records {
		rows = append(rows, sheetsclient.ForecastReportRow{
			ClientID:         record.ClientID,
			ClusterLabel:     record.ClusterLabel,
			Date:             record.Date,
			PredictedMinutes: float64(record.PredictedSeconds) / 60,
		})
	}

	return client.PublishForecastReport(app.Cfg.ReportSheetID, outcome.RunID, rows)
}

func emailForecastSummary(app *AppContext, outcome *services.ForecastOutcome, to string) error {
	client, err := app.GmailClient()
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("Forecast batch %s", outcome.RunID)
	body := fmt.Sprintf(
		"Forecast batch %s finished.\n\nTrained units: %d\nFailed units: %d\nForecast rows: %d\n",
		outcome.RunID, outcome.TrainedUnits, outcome.FailedUnits, len(outcome.Records))

	return client.SendEmail(to, subject, body)
}
