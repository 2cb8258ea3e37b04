package sheetsclient

import (
	"fmt"

	"google.golang.org/api/sheets/v4"
)

// ForecastReportRow is one row of the published forecast table.
type ForecastReportRow struct {
	ClientID         string
	ClusterLabel     int
	Date             string
	PredictedMinutes float64
}

// ClusterReportRow is one row of the published cluster assignment table.
type ClusterReportRow struct {
	ClientID     string
	VisitID      string
	ClusterLabel int
	PlannedStart string
}

// PublishForecastReport writes the forecast table to a tab named after the
// run id, creating the tab if needed and replacing its contents otherwise.
func (c *Client) PublishForecastReport(spreadsheetID, runID string, rows []ForecastReportRow) error {
	values := [][]interface{}{
		{"Client", "Cluster", "Date", "Predicted minutes"},
	}
	for _, row := range rows {
		values = append(values, []interface{}{
			row.ClientID, row.ClusterLabel, row.Date, row.PredictedMinutes,
		})
	}

	return c.writeTab(spreadsheetID, "forecast "+runID, values)
}

// PublishClusterReport writes the cluster assignment table to a tab named
// after the run id.
func (c *Client) PublishClusterReport(spreadsheetID, runID string, rows []ClusterReportRow) error {
	values := [][]interface{}{
		{"Client", "Visit", "Cluster", "Planned start"},
	}
	for _, row := range rows {
		values = append(values, []interface{}{
			row.ClientID, row.VisitID, row.ClusterLabel, row.PlannedStart,
		})
	}

	return c.writeTab(spreadsheetID, "clusters "+runID, values)
}

// writeTab ensures the tab exists and overwrites it from A1.
func (c *Client) writeTab(spreadsheetID, tabTitle string, values [][]interface{}) error {
	spreadsheet, err := c.service.Spreadsheets.Get(spreadsheetID).Do()
	if err != nil {
		return fmt.Errorf("failed to get spreadsheet metadata: %w", err)
	}

	tabExists := false
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties.Title == tabTitle {
			tabExists = true
			break
		}
	}

	if !tabExists {
		_, err := c.service.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{
				{
					AddSheet: &sheets.AddSheetRequest{
						Properties: &sheets.SheetProperties{Title: tabTitle},
					},
				},
			},
		}).Do()
		if err != nil {
			return fmt.Errorf("failed to create tab %q: %w", tabTitle, err)
		}
	}

	valueRange := &sheets.ValueRange{Values: values}
	_, err = c.service.Spreadsheets.Values.Update(
		spreadsheetID,
		fmt.Sprintf("'%s'!A1", tabTitle),
		valueRange,
	).ValueInputOption("RAW").Do()
	if err != nil {
		return fmt.Errorf("failed to write tab %q: %w", tabTitle, err)
	}

	return nil
}
