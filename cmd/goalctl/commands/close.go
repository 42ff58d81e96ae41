package commands

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/northstarhq/northstar/internal/database"
	"github.com/northstarhq/northstar/internal/notify"
	"github.com/northstarhq/northstar/internal/templates"
	"github.com/northstarhq/northstar/internal/workers"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewCloseCmd creates the close command
func NewCloseCmd() *cobra.Command {
	var (
		idFlag    string
		ownerFlag string
		teamFlag  bool
	)

	cmd := &cobra.Command{
		Use:   "close",
		Short: "Close a goal cycle by hand",
		Long:  "Deactivate a goal and its notes, cascade to members for team goals, and send the wrap-up notice",
		RunE: func(cmd *cobra.Command, args []string) error {
			goalID, err := uuid.Parse(idFlag)
			if err != nil {
				return fmt.Errorf("invalid --id %q: %w", idFlag, err)
			}
			if ownerFlag == "" {
				return fmt.Errorf("--owner is required (user id, or team id with --team)")
			}

			cfg, db, closeDB, err := openDatabase()
			if err != nil {
				return err
			}
			defer closeDB()

			catalog, err := templates.Load()
			if err != nil {
				return fmt.Errorf("failed to load message catalog: %w", err)
			}

			personalRepo := database.NewPersonalGoalRepository(db)
			noteRepo := database.NewGoalNoteRepository(db)
			teamRepo := database.NewTeamGoalRepository(db)
			installRepo := database.NewTeamInstallationRepository(db)

			connector := notify.NewConnector(cfg.ConnectorBotID, cfg.ConnectorToken)
			dispatcher := notify.NewDispatcher(connector, connector, personalRepo, installRepo, catalog, nil, nil, zap.NewNop())
			closer := workers.NewCycleCloser(personalRepo, noteRepo, teamRepo, installRepo, connector, dispatcher, zap.NewNop())

			ctx := context.Background()
			if teamFlag {
				goal, err := teamRepo.GetByID(ctx, ownerFlag, goalID)
				if err != nil {
					return fmt.Errorf("failed to load team goal: %w", err)
				}
				if goal == nil {
					return fmt.Errorf("team goal %s not found for team %s", goalID, ownerFlag)
				}
				if err := closer.CloseTeamGoal(ctx, goal); err != nil {
					return err
				}
				fmt.Printf("Closed team goal %s (%q)\n", goal.ID, goal.Name)
				return nil
			}

			goal, err := personalRepo.GetByID(ctx, ownerFlag, goalID)
			if err != nil {
				return fmt.Errorf("failed to load personal goal: %w", err)
			}
			if goal == nil {
				return fmt.Errorf("personal goal %s not found for user %s", goalID, ownerFlag)
			}
			if err := closer.ClosePersonalGoal(ctx, goal); err != nil {
				return err
			}
			fmt.Printf("Closed personal goal %s (%q)\n", goal.ID, goal.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&idFlag, "id", "", "Goal ID (UUID)")
	cmd.Flags().StringVar(&ownerFlag, "owner", "", "Owning user ID, or team ID with --team")
	cmd.Flags().BoolVar(&teamFlag, "team", false, "Close a team goal instead of a personal goal")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}
