package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/northstarhq/northstar/internal/database"
	"github.com/northstarhq/northstar/internal/models"
	"github.com/northstarhq/northstar/internal/notify"
	"go.uber.org/zap"
)

// CycleCloser retires expired goal cycles. Closure is idempotent: re-applying
// it to an already-inactive goal is a no-op write, so every failure path is
// safe to retry on the next scheduler tick.
type CycleCloser struct {
	personalRepo database.PersonalGoalRepositoryInterface
	noteRepo     database.GoalNoteRepositoryInterface
	teamRepo     database.TeamGoalRepositoryInterface
	installRepo  database.TeamInstallationRepositoryInterface
	roster       notify.RosterProvider
	dispatcher   ReminderDispatcher
	logger       *zap.Logger

	now func() time.Time
}

// NewCycleCloser creates a new cycle closer.
func NewCycleCloser(
	personalRepo database.PersonalGoalRepositoryInterface,
	noteRepo database.GoalNoteRepositoryInterface,
	teamRepo database.TeamGoalRepositoryInterface,
	installRepo database.TeamInstallationRepositoryInterface,
	roster notify.RosterProvider,
	dispatcher ReminderDispatcher,
	logger *zap.Logger,
) *CycleCloser {
	return &CycleCloser{
		personalRepo: personalRepo,
		noteRepo:     noteRepo,
		teamRepo:     teamRepo,
		installRepo:  installRepo,
		roster:       roster,
		dispatcher:   dispatcher,
		logger:       logger,
		now:          time.Now,
	}
}

// ClosePersonalGoal deactivates the goal and all its notes, then sends the
// final cycle-ended notice. Storage failures propagate so the goal stays
// eligible for the same classification next tick; a failed notice after a
// committed closure is logged only.
func (c *CycleCloser) ClosePersonalGoal(ctx context.Context, goal *models.PersonalGoal) error {
	if goal == nil {
		return fmt.Errorf("goal is required")
	}

	if err := c.deactivatePersonalGoal(ctx, goal); err != nil {
		return err
	}

	if err := c.dispatcher.NotifyPersonal(ctx, goal, models.ReminderKindExpired); err != nil {
		c.logger.Warn("cycle_closed_notice_failed",
			zap.String("goal_id", goal.ID.String()),
			zap.String("user_id", goal.UserID),
			zap.Error(err),
		)
	}
	return nil
}

// deactivatePersonalGoal writes the closed state: notes first, then the
// goal. The goal's closure is only committed once every note is deactivated,
// so a goal can never appear closed while notes remain active and orphaned.
func (c *CycleCloser) deactivatePersonalGoal(ctx context.Context, goal *models.PersonalGoal) error {
	now := c.now()

	notes, err := c.noteRepo.ListByGoal(ctx, goal.UserID, goal.ID)
	if err != nil {
		return fmt.Errorf("failed to load notes for goal %s: %w", goal.ID, err)
	}
	for _, note := range notes {
		note.Deactivate(now)
	}
	if err := c.noteRepo.UpsertBatch(ctx, notes); err != nil {
		return fmt.Errorf("failed to deactivate notes for goal %s: %w", goal.ID, err)
	}

	goal.Deactivate(now)
	if err := c.personalRepo.Upsert(ctx, goal); err != nil {
		return fmt.Errorf("failed to close personal goal %s: %w", goal.ID, err)
	}

	c.logger.Info("personal_goal_cycle_closed",
		zap.String("goal_id", goal.ID.String()),
		zap.String("user_id", goal.UserID),
		zap.Int("notes_deactivated", len(notes)),
	)
	return nil
}

// CloseTeamGoal cascades closure to every member's aligned goals and then
// retires the team goal itself. Each member's closure is independent; a
// failure for one member is logged, the rest proceed, and the team goal
// stays active so the whole operation is retried next tick.
func (c *CycleCloser) CloseTeamGoal(ctx context.Context, goal *models.TeamGoal) error {
	if goal == nil {
		return fmt.Errorf("goal is required")
	}

	inst, err := c.installRepo.Get(ctx, goal.TeamID)
	if err != nil {
		return fmt.Errorf("failed to resolve team installation: %w", err)
	}

	var failures []error
	if inst != nil {
		members, err := c.roster.ListMembers(ctx, inst.ServiceURL, goal.TeamID)
		if err != nil {
			return fmt.Errorf("failed to list members of team %s: %w", goal.TeamID, err)
		}

		for _, member := range members {
			if err := c.closeMemberGoals(ctx, member.ID, goal); err != nil {
				c.logger.Error("member_cascade_failed",
					zap.String("goal_id", goal.ID.String()),
					zap.String("team_id", goal.TeamID),
					zap.String("member_id", member.ID),
					zap.Error(err),
				)
				failures = append(failures, fmt.Errorf("member %s: %w", member.ID, err))
			}
		}
	} else {
		// Bot removed from the team: nothing to cascade or deliver, but the
		// goal itself still gets retired.
		c.logger.Warn("team_cascade_skipped_no_installation",
			zap.String("goal_id", goal.ID.String()),
			zap.String("team_id", goal.TeamID),
		)
	}

	if len(failures) > 0 {
		// Leave the team goal active so the next pass retries the cascade;
		// already-closed member goals tolerate the re-run.
		return fmt.Errorf("team goal %s cascade incomplete: %w", goal.ID, errors.Join(failures...))
	}

	goal.Deactivate(c.now())
	if err := c.teamRepo.Upsert(ctx, goal); err != nil {
		return fmt.Errorf("failed to close team goal %s: %w", goal.ID, err)
	}

	c.logger.Info("team_goal_cycle_closed",
		zap.String("goal_id", goal.ID.String()),
		zap.String("team_id", goal.TeamID),
	)

	if inst != nil {
		if err := c.dispatcher.NotifyTeam(ctx, goal, models.ReminderKindExpired); err != nil {
			c.logger.Warn("cycle_closed_notice_failed",
				zap.String("goal_id", goal.ID.String()),
				zap.String("team_id", goal.TeamID),
				zap.Error(err),
			)
		}
	}
	return nil
}

// closeMemberGoals deactivates one member's goals aligned to the closing
// team goal, including their notes. The final notice is delivered through
// the team path, so no per-goal personal notice is sent here.
func (c *CycleCloser) closeMemberGoals(ctx context.Context, memberID string, teamGoal *models.TeamGoal) error {
	goals, err := c.personalRepo.ListAlignedToTeam(ctx, memberID, teamGoal.TeamID)
	if err != nil {
		return fmt.Errorf("failed to load aligned goals: %w", err)
	}

	for _, g := range goals {
		// TeamGoalID may hold compound comma-joined values; match per id or
		// goals with multi-alignment would be silently skipped.
		if !g.IsAlignedTo(teamGoal.ID) {
			continue
		}
		if err := c.deactivatePersonalGoal(ctx, g); err != nil {
			return err
		}
	}
	return nil
}
