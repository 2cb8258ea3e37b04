package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/oakfield-care/rosterkit/pkg/core/services"
	"github.com/oakfield-care/rosterkit/pkg/core/timeutil"
)

// CheckAvailabilityCmd creates the checkAvailability command
func CheckAvailabilityCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "checkAvailability <carer_id> <date> <time> <duration>",
		Short: "Check whether a carer is free for a duration starting at a time on a date",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			carerID := args[0]

			date, err := time.Parse("2006-01-02", args[1])
			if err != nil {
				return fmt.Errorf("date must be YYYY-MM-DD: %w", err)
			}
			at, err := timeutil.ParseTimeOfDay(args[2])
			if err != nil {
				return fmt.Errorf("time must be H:M or H:M:S: %w", err)
			}
			duration, err := timeutil.ParseDuration(args[3])
			if err != nil {
				return fmt.Errorf("duration must be H:M:S or seconds: %w", err)
			}

			result, err := services.CheckAvailability(app.Ctx, app.Database, app.Logger, carerID, date, at, duration)
			if err != nil {
				return err
			}

			if result.Available {
				fmt.Printf("\n✓ Carer %s is available on %s at %s for %s (pattern %s)\n\n",
					carerID, args[1], at, duration, result.PatternKey)
			} else {
				fmt.Printf("\n✗ Carer %s is NOT available on %s at %s for %s (pattern %s)\n\n",
					carerID, args[1], at, duration, result.PatternKey)
			}

			return nil
		},
	}
}
