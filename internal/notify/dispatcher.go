package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/northstarhq/northstar/internal/database"
	"github.com/northstarhq/northstar/internal/models"
	"github.com/northstarhq/northstar/internal/templates"
	"go.uber.org/zap"
)

const (
	// maxSendRetries bounds retries per delivery: 1 initial attempt + 2 retries.
	maxSendRetries = 2
	// initialRetryInterval is the starting point for the jittered backoff.
	initialRetryInterval = time.Second
)

// Copywriter optionally rewrites a templated reminder line into friendlier
// copy. Implementations must be best-effort; the dispatcher falls back to the
// template on any error.
type Copywriter interface {
	Rewrite(ctx context.Context, base, goalName string, kind models.ReminderKind) (string, error)
}

// Dispatcher delivers reminder notifications to personal and team
// conversations. Team delivery fans out to every member with at least one
// goal aligned to the team goal, in addition to the team channel itself.
type Dispatcher struct {
	notifier    Notifier
	roster      RosterProvider
	goalRepo    database.PersonalGoalRepositoryInterface
	installRepo database.TeamInstallationRepositoryInterface
	catalog     *templates.Catalog
	copywriter  Copywriter
	isTransient func(error) bool
	logger      *zap.Logger

	// retryInterval is the initial backoff interval; tests shrink it.
	retryInterval time.Duration
}

// NewDispatcher creates a new dispatcher. copywriter may be nil. transient
// overrides the default transience predicate when non-nil; notifiers with
// their own error taxonomy supply it.
func NewDispatcher(
	notifier Notifier,
	roster RosterProvider,
	goalRepo database.PersonalGoalRepositoryInterface,
	installRepo database.TeamInstallationRepositoryInterface,
	catalog *templates.Catalog,
	copywriter Copywriter,
	transient func(error) bool,
	logger *zap.Logger,
) *Dispatcher {
	if transient == nil {
		transient = IsTransient
	}
	return &Dispatcher{
		notifier:      notifier,
		roster:        roster,
		goalRepo:      goalRepo,
		installRepo:   installRepo,
		catalog:       catalog,
		copywriter:    copywriter,
		isTransient:   transient,
		logger:        logger,
		retryInterval: initialRetryInterval,
	}
}

// NotifyPersonal sends one reminder to the goal owner's stored conversation.
func (d *Dispatcher) NotifyPersonal(ctx context.Context, goal *models.PersonalGoal, kind models.ReminderKind) error {
	if goal == nil {
		return fmt.Errorf("goal is required")
	}
	if goal.Conversation.IsZero() {
		return fmt.Errorf("personal goal %s has no conversation reference", goal.ID)
	}

	msg := Message{Text: d.personalText(ctx, goal, kind)}
	if err := d.sendWithRetry(ctx, goal.Conversation, msg); err != nil {
		d.logger.Error("personal_reminder_delivery_failed",
			zap.String("goal_id", goal.ID.String()),
			zap.String("user_id", goal.UserID),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		return err
	}

	d.logger.Info("personal_reminder_sent",
		zap.String("goal_id", goal.ID.String()),
		zap.String("user_id", goal.UserID),
		zap.String("kind", string(kind)),
	)
	return nil
}

// NotifyTeam sends the reminder to the team channel and then to every team
// member with at least one personal goal aligned to this team goal. A
// failure for one member is logged and does not block the remaining members;
// all failures are joined into the returned error.
func (d *Dispatcher) NotifyTeam(ctx context.Context, goal *models.TeamGoal, kind models.ReminderKind) error {
	if goal == nil {
		return fmt.Errorf("goal is required")
	}

	inst, err := d.installRepo.Get(ctx, goal.TeamID)
	if err != nil {
		return fmt.Errorf("failed to resolve team installation: %w", err)
	}
	if inst == nil {
		// Bot was removed from the team; nowhere to deliver.
		d.logger.Warn("team_reminder_skipped_no_installation",
			zap.String("goal_id", goal.ID.String()),
			zap.String("team_id", goal.TeamID),
		)
		return nil
	}

	msg := Message{Text: d.catalog.TeamText(kind, goal.Name)}
	var failures []error

	channelRef := models.ConversationRef{ConversationID: goal.ChannelID, ServiceURL: inst.ServiceURL}
	if err := d.sendWithRetry(ctx, channelRef, msg); err != nil {
		d.logger.Error("team_channel_delivery_failed",
			zap.String("goal_id", goal.ID.String()),
			zap.String("team_id", goal.TeamID),
			zap.Error(err),
		)
		failures = append(failures, fmt.Errorf("channel delivery: %w", err))
	}

	members, err := d.roster.ListMembers(ctx, inst.ServiceURL, goal.TeamID)
	if err != nil {
		return errors.Join(append(failures, fmt.Errorf("failed to list team members: %w", err))...)
	}

	for _, member := range members {
		if err := d.notifyMember(ctx, inst.ServiceURL, member, goal, msg); err != nil {
			d.logger.Error("member_delivery_failed",
				zap.String("goal_id", goal.ID.String()),
				zap.String("team_id", goal.TeamID),
				zap.String("member_id", member.ID),
				zap.Error(err),
			)
			failures = append(failures, fmt.Errorf("member %s: %w", member.ID, err))
		}
	}

	d.logger.Info("team_reminder_sent",
		zap.String("goal_id", goal.ID.String()),
		zap.String("team_id", goal.TeamID),
		zap.String("kind", string(kind)),
		zap.Int("member_count", len(members)),
		zap.Int("failures", len(failures)),
	)
	return errors.Join(failures...)
}

// notifyMember delivers the team message to one member's 1:1 conversation,
// but only if the member has at least one goal aligned to this team goal.
func (d *Dispatcher) notifyMember(ctx context.Context, serviceURL string, member Member, goal *models.TeamGoal, msg Message) error {
	aligned, err := d.goalRepo.ListAlignedToTeam(ctx, member.ID, goal.TeamID)
	if err != nil {
		return fmt.Errorf("failed to load aligned goals: %w", err)
	}

	hasAligned := false
	for _, g := range aligned {
		if g.IsAlignedTo(goal.ID) {
			hasAligned = true
			break
		}
	}
	if !hasAligned {
		// Not an error: the member simply has nothing aligned to this goal.
		return nil
	}

	ref, err := d.notifier.CreateConversation(ctx, serviceURL, member.ID)
	if err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}

	return d.sendWithRetry(ctx, ref, msg)
}

// sendWithRetry wraps one proactive send in the bounded retry policy:
// transient failures get up to maxSendRetries retries with jittered
// exponential backoff, everything else propagates immediately.
func (d *Dispatcher) sendWithRetry(ctx context.Context, ref models.ConversationRef, msg Message) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = d.retryInterval

	attempt := 0
	op := func() error {
		attempt++
		err := d.notifier.SendProactive(ctx, ref, msg)
		if err == nil {
			return nil
		}
		if !d.isTransient(err) {
			return backoff.Permanent(err)
		}
		d.logger.Warn("transient_delivery_error",
			zap.String("conversation_id", ref.ConversationID),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		return err
	}

	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, maxSendRetries), ctx))
}

func (d *Dispatcher) personalText(ctx context.Context, goal *models.PersonalGoal, kind models.ReminderKind) string {
	base := d.catalog.PersonalText(kind, goal.Name)
	if d.copywriter == nil {
		return base
	}
	text, err := d.copywriter.Rewrite(ctx, base, goal.Name, kind)
	if err != nil || text == "" {
		d.logger.Debug("copywriter_fallback", zap.String("goal_id", goal.ID.String()), zap.Error(err))
		return base
	}
	return text
}
