package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/northstarhq/northstar/internal/database"
	"github.com/northstarhq/northstar/internal/models"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

// DeletionSweeper permanently purges entities the user already soft-deleted.
// It runs on its own slower timer, independent of the reminder cycle, and
// exists purely to bound storage growth. Finding nothing to purge is the
// normal case, not an error.
type DeletionSweeper struct {
	personalRepo database.PersonalGoalRepositoryInterface
	noteRepo     database.GoalNoteRepositoryInterface
	teamRepo     database.TeamGoalRepositoryInterface
	interval     time.Duration
	logger       *zap.Logger
}

// NewDeletionSweeper creates a new deletion sweeper.
func NewDeletionSweeper(
	personalRepo database.PersonalGoalRepositoryInterface,
	noteRepo database.GoalNoteRepositoryInterface,
	teamRepo database.TeamGoalRepositoryInterface,
	interval time.Duration,
	logger *zap.Logger,
) *DeletionSweeper {
	return &DeletionSweeper{
		personalRepo: personalRepo,
		noteRepo:     noteRepo,
		teamRepo:     teamRepo,
		interval:     interval,
		logger:       logger,
	}
}

// Run executes one sweep immediately and then one per interval until ctx is
// cancelled. Without the immediate sweep, a process that restarts more often
// than the interval would never purge anything.
func (s *DeletionSweeper) Run(ctx context.Context) error {
	s.logger.Info("deletion_sweeper_started", zap.Duration("interval", s.interval))

	if err := s.Sweep(ctx); err != nil {
		s.logger.Error("deletion_sweep_failed", zap.Error(err))
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("deletion_sweeper_stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.logger.Error("deletion_sweep_failed", zap.Error(err))
			}
		}
	}
}

// Sweep purges all soft-deleted notes, personal goals, and team goals.
// Deletes are batched per owner partition. A failure in one table does not
// stop the others.
func (s *DeletionSweeper) Sweep(ctx context.Context) error {
	ctx, span := otel.Tracer("northstar/workers").Start(ctx, "sweeper.sweep")
	defer span.End()

	var failures []error
	purged := 0

	notes, err := s.noteRepo.ListDeleted(ctx)
	if err != nil {
		failures = append(failures, fmt.Errorf("failed to list deleted notes: %w", err))
	} else {
		for _, batch := range groupNotesByOwner(notes) {
			if err := s.noteRepo.DeleteBatch(ctx, batch); err != nil {
				failures = append(failures, fmt.Errorf("failed to purge notes: %w", err))
				continue
			}
			purged += len(batch)
		}
	}

	goals, err := s.personalRepo.ListDeleted(ctx)
	if err != nil {
		failures = append(failures, fmt.Errorf("failed to list deleted personal goals: %w", err))
	} else {
		for _, batch := range groupGoalsByOwner(goals) {
			if err := s.personalRepo.DeleteBatch(ctx, batch); err != nil {
				failures = append(failures, fmt.Errorf("failed to purge personal goals: %w", err))
				continue
			}
			purged += len(batch)
		}
	}

	teamGoals, err := s.teamRepo.ListDeleted(ctx)
	if err != nil {
		failures = append(failures, fmt.Errorf("failed to list deleted team goals: %w", err))
	} else {
		for _, batch := range groupTeamGoalsByOwner(teamGoals) {
			if err := s.teamRepo.DeleteBatch(ctx, batch); err != nil {
				failures = append(failures, fmt.Errorf("failed to purge team goals: %w", err))
				continue
			}
			purged += len(batch)
		}
	}

	if purged > 0 || len(failures) > 0 {
		s.logger.Info("deletion_sweep_completed",
			zap.Int("purged", purged),
			zap.Int("failures", len(failures)),
		)
	}
	return errors.Join(failures...)
}

func groupNotesByOwner(notes []*models.GoalNote) map[string][]*models.GoalNote {
	groups := make(map[string][]*models.GoalNote)
	for _, n := range notes {
		groups[n.UserID] = append(groups[n.UserID], n)
	}
	return groups
}

func groupGoalsByOwner(goals []*models.PersonalGoal) map[string][]*models.PersonalGoal {
	groups := make(map[string][]*models.PersonalGoal)
	for _, g := range goals {
		groups[g.UserID] = append(groups[g.UserID], g)
	}
	return groups
}

func groupTeamGoalsByOwner(goals []*models.TeamGoal) map[string][]*models.TeamGoal {
	groups := make(map[string][]*models.TeamGoal)
	for _, g := range goals {
		groups[g.TeamID] = append(groups[g.TeamID], g)
	}
	return groups
}
