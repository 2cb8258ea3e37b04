package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/oakfield-care/rosterkit/pkg/core/services"
)

// BuildDiariesCmd creates the buildDiaries command
func BuildDiariesCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "buildDiaries <from> <to>",
		Short: "Project carer shift patterns into concrete diaries for [from, to)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := time.Parse("2006-01-02", args[0])
			if err != nil {
				return fmt.Errorf("from must be a YYYY-MM-DD date: %w", err)
			}
			to, err := time.Parse("2006-01-02", args[1])
			if err != nil {
				return fmt.Errorf("to must be a YYYY-MM-DD date: %w", err)
			}

			result, err := services.BuildDiaries(app.Ctx, app.Database, app.Cfg, app.Logger, from, to)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Diaries built\n\n")
			fmt.Printf("Carers:         %d\n", len(result.Diaries))
			fmt.Printf("Diary events:   %d\n", result.EventCount)
			fmt.Printf("Carers skipped: %d\n\n", result.CarersSkipped)

			return nil
		},
	}
}
