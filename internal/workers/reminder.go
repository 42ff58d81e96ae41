package workers

import (
	"context"
	"time"

	"github.com/northstarhq/northstar/internal/database"
	"github.com/northstarhq/northstar/internal/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ReminderWorker is the periodic scheduler: every tick it classifies all
// active goals against today's UTC date and routes each to the dispatcher
// (reminders) or the cycle closer (expired cycles). One bad goal never
// aborts a pass.
type ReminderWorker struct {
	personalRepo database.PersonalGoalRepositoryInterface
	teamRepo     database.TeamGoalRepositoryInterface
	closer       *CycleCloser
	dispatcher   ReminderDispatcher
	lock         PassLock
	interval     time.Duration
	logger       *zap.Logger

	now func() time.Time
}

// NewReminderWorker creates a new reminder worker. lock may be nil when the
// scheduler runs as a single replica.
func NewReminderWorker(
	personalRepo database.PersonalGoalRepositoryInterface,
	teamRepo database.TeamGoalRepositoryInterface,
	closer *CycleCloser,
	dispatcher ReminderDispatcher,
	lock PassLock,
	interval time.Duration,
	logger *zap.Logger,
) *ReminderWorker {
	return &ReminderWorker{
		personalRepo: personalRepo,
		teamRepo:     teamRepo,
		closer:       closer,
		dispatcher:   dispatcher,
		lock:         lock,
		interval:     interval,
		logger:       logger,
		now:          time.Now,
	}
}

// Run executes one pass immediately and then one per interval until ctx is
// cancelled. Passes never overlap: each runs to completion before the next
// tick is consumed.
func (w *ReminderWorker) Run(ctx context.Context) error {
	w.logger.Info("reminder_worker_started", zap.Duration("interval", w.interval))

	if err := w.RunPass(ctx); err != nil {
		w.logger.Error("reminder_pass_failed", zap.Error(err))
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("reminder_worker_stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := w.RunPass(ctx); err != nil {
				w.logger.Error("reminder_pass_failed", zap.Error(err))
			}
		}
	}
}

// RunPass runs one full scheduler pass: fetch due goals, classify, dispatch.
func (w *ReminderWorker) RunPass(ctx context.Context) error {
	if w.lock != nil {
		acquired, err := w.lock.Acquire(ctx)
		if err != nil {
			return err
		}
		if !acquired {
			w.logger.Info("reminder_pass_skipped_lock_held")
			return nil
		}
		defer func() {
			if err := w.lock.Release(context.WithoutCancel(ctx)); err != nil {
				w.logger.Warn("failed_to_release_pass_lock", zap.Error(err))
			}
		}()
	}

	tracer := otel.Tracer("northstar/workers")
	ctx, span := tracer.Start(ctx, "reminder.pass")
	defer span.End()

	today := DateUTC(w.now())
	filter := database.DueFilter{Today: today, Frequencies: DueFrequencies(today)}
	span.SetAttributes(attribute.String("pass.date", today.Format("2006-01-02")))

	w.logger.Info("reminder_pass_started",
		zap.Time("today", today),
		zap.Int("due_frequency_buckets", len(filter.Frequencies)),
	)

	personal := w.processPersonalGoals(ctx, filter)
	team := w.processTeamGoals(ctx, filter)

	w.logger.Info("reminder_pass_completed",
		zap.Int("personal_processed", personal),
		zap.Int("team_processed", team),
	)
	return nil
}

func (w *ReminderWorker) processPersonalGoals(ctx context.Context, filter database.DueFilter) int {
	goals, err := w.personalRepo.ListDueForReminder(ctx, filter)
	if err != nil {
		w.logger.Error("failed_to_query_due_personal_goals", zap.Error(err))
		return 0
	}

	processed := 0
	for _, goal := range goals {
		if ctx.Err() != nil {
			w.logger.Info("reminder_pass_cancelled", zap.Int("personal_remaining", len(goals)-processed))
			return processed
		}
		// The query already excludes aligned and muted goals; keep the
		// invariant even if a stale row slips through.
		if goal.Aligned || !goal.ReminderActive {
			continue
		}

		kind, due := Classify(goal.EndDateUTC, goal.Frequency, filter.Today)
		if !due {
			continue
		}

		var opErr error
		if kind == models.ReminderKindExpired {
			opErr = w.closer.ClosePersonalGoal(ctx, goal)
		} else {
			opErr = w.dispatcher.NotifyPersonal(ctx, goal, kind)
		}
		if opErr != nil {
			// Isolate the failure; the goal stays eligible next tick.
			w.logger.Error("personal_goal_processing_failed",
				zap.String("goal_id", goal.ID.String()),
				zap.String("user_id", goal.UserID),
				zap.String("kind", string(kind)),
				zap.Error(opErr),
			)
			continue
		}
		processed++
	}
	return processed
}

func (w *ReminderWorker) processTeamGoals(ctx context.Context, filter database.DueFilter) int {
	goals, err := w.teamRepo.ListDueForReminder(ctx, filter)
	if err != nil {
		w.logger.Error("failed_to_query_due_team_goals", zap.Error(err))
		return 0
	}

	processed := 0
	for _, goal := range goals {
		if ctx.Err() != nil {
			w.logger.Info("reminder_pass_cancelled", zap.Int("team_remaining", len(goals)-processed))
			return processed
		}

		kind, due := Classify(goal.EndDateUTC, goal.Frequency, filter.Today)
		if !due {
			continue
		}

		var opErr error
		if kind == models.ReminderKindExpired {
			opErr = w.closer.CloseTeamGoal(ctx, goal)
		} else {
			opErr = w.dispatcher.NotifyTeam(ctx, goal, kind)
		}
		if opErr != nil {
			w.logger.Error("team_goal_processing_failed",
				zap.String("goal_id", goal.ID.String()),
				zap.String("team_id", goal.TeamID),
				zap.String("kind", string(kind)),
				zap.Error(opErr),
			)
			continue
		}
		processed++
	}
	return processed
}
