package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/northstarhq/northstar/internal/database"
	"github.com/northstarhq/northstar/internal/workers"
	"github.com/spf13/cobra"
)

// NewDueCmd creates the due command
func NewDueCmd() *cobra.Command {
	var dateFlag string

	cmd := &cobra.Command{
		Use:   "due",
		Short: "List goals due for a reminder",
		Long:  "List personal and team goals that would be notified on the given date (default today)",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, closeDB, err := openDatabase()
			if err != nil {
				return err
			}
			defer closeDB()

			today := workers.DateUTC(time.Now())
			if dateFlag != "" {
				if today, err = time.Parse("2006-01-02", dateFlag); err != nil {
					return fmt.Errorf("invalid --date %q, want YYYY-MM-DD", dateFlag)
				}
			}

			filter := database.DueFilter{Today: today, Frequencies: workers.DueFrequencies(today)}
			ctx := context.Background()

			personal, err := database.NewPersonalGoalRepository(db).ListDueForReminder(ctx, filter)
			if err != nil {
				return fmt.Errorf("failed to list personal goals: %w", err)
			}
			team, err := database.NewTeamGoalRepository(db).ListDueForReminder(ctx, filter)
			if err != nil {
				return fmt.Errorf("failed to list team goals: %w", err)
			}

			total := 0
			for _, g := range personal {
				if g.Aligned || !g.ReminderActive {
					continue
				}
				if kind, ok := workers.Classify(g.EndDateUTC, g.Frequency, today); ok {
					fmt.Printf("personal  %-36s  %-12s  owner=%s  %q\n", g.ID, kind, g.UserID, g.Name)
					total++
				}
			}
			for _, g := range team {
				if kind, ok := workers.Classify(g.EndDateUTC, g.Frequency, today); ok {
					fmt.Printf("team      %-36s  %-12s  team=%s  %q\n", g.ID, kind, g.TeamID, g.Name)
					total++
				}
			}

			if total == 0 {
				fmt.Printf("No goals due on %s\n", today.Format("2006-01-02"))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dateFlag, "date", "", "Classify against this date (YYYY-MM-DD) instead of today")
	return cmd
}
