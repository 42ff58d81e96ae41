package workers

import (
	"context"

	"github.com/northstarhq/northstar/internal/models"
)

// ReminderDispatcher is the outbound side of the engine: it delivers one
// reminder to a personal conversation, or a team reminder with member
// fan-out. Implemented by notify.Dispatcher.
type ReminderDispatcher interface {
	NotifyPersonal(ctx context.Context, goal *models.PersonalGoal, kind models.ReminderKind) error
	NotifyTeam(ctx context.Context, goal *models.TeamGoal, kind models.ReminderKind) error
}

// PassLock serializes scheduler passes across replicas. Acquire returns
// false when another holder owns the lease; losing the lease mid-pass is
// tolerated because every pass operation is idempotent.
type PassLock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}
