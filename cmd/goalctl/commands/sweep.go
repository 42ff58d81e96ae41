package commands

import (
	"context"
	"fmt"

	"github.com/northstarhq/northstar/internal/database"
	"github.com/northstarhq/northstar/internal/workers"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewSweepCmd creates the sweep command
func NewSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Purge soft-deleted goals and notes once",
		Long:  "Run a single deletion sweep over every table and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, closeDB, err := openDatabase()
			if err != nil {
				return err
			}
			defer closeDB()

			sweeper := workers.NewDeletionSweeper(
				database.NewPersonalGoalRepository(db),
				database.NewGoalNoteRepository(db),
				database.NewTeamGoalRepository(db),
				cfg.SweepInterval,
				zap.NewNop(),
			)

			if err := sweeper.Sweep(context.Background()); err != nil {
				return fmt.Errorf("sweep finished with errors: %w", err)
			}
			fmt.Println("Sweep completed")
			return nil
		},
	}
}
