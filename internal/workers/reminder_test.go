package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/northstarhq/northstar/internal/database"
	"github.com/northstarhq/northstar/internal/models"
	"go.uber.org/zap"
)

type workerFixture struct {
	personal   *mockPersonalRepo
	team       *mockTeamRepo
	dispatcher *mockDispatcher
	worker     *ReminderWorker
}

func newWorkerFixture(lock PassLock) *workerFixture {
	f := &workerFixture{
		personal:   &mockPersonalRepo{},
		team:       &mockTeamRepo{},
		dispatcher: &mockDispatcher{},
	}
	closer := NewCycleCloser(f.personal, &mockNoteRepo{}, f.team, &mockInstallRepo{}, &mockRoster{}, f.dispatcher, zap.NewNop())
	f.worker = NewReminderWorker(f.personal, f.team, closer, f.dispatcher, lock, time.Hour, zap.NewNop())

	today := date(2024, time.March, 1)
	closer.now = func() time.Time { return today }
	f.worker.now = func() time.Time { return today }
	return f
}

func duePersonalGoal(frequency models.ReminderFrequency, end time.Time) *models.PersonalGoal {
	return &models.PersonalGoal{
		ID:             uuid.New(),
		UserID:         "user-1",
		Name:           "write the runbook",
		Frequency:      frequency,
		EndDateUTC:     end,
		ReminderActive: true,
		Active:         true,
		Conversation:   models.ConversationRef{ConversationID: "conv-1", ServiceURL: "https://connector.example.com"},
	}
}

func TestRunPassRoutesFrequencyReminderToDispatcher(t *testing.T) {
	t.Parallel()

	f := newWorkerFixture(nil)
	goal := duePersonalGoal(models.FrequencyMonthly, date(2024, time.June, 30))
	f.personal.listDueFunc = func(ctx context.Context, filter database.DueFilter) ([]*models.PersonalGoal, error) {
		return []*models.PersonalGoal{goal}, nil
	}

	var gotKind models.ReminderKind
	f.dispatcher.personalFunc = func(ctx context.Context, g *models.PersonalGoal, kind models.ReminderKind) error {
		gotKind = kind
		return nil
	}

	if err := f.worker.RunPass(context.Background()); err != nil {
		t.Fatalf("RunPass() error = %v", err)
	}
	if gotKind != models.ReminderKindFrequency {
		t.Errorf("dispatched kind = %s, want %s", gotKind, models.ReminderKindFrequency)
	}
	if !goal.Active {
		t.Error("a routine reminder must not close the goal")
	}
}

func TestRunPassRoutesExpiredGoalToCloser(t *testing.T) {
	t.Parallel()

	f := newWorkerFixture(nil)
	goal := duePersonalGoal(models.FrequencyWeekly, date(2024, time.February, 29))
	f.personal.listDueFunc = func(ctx context.Context, filter database.DueFilter) ([]*models.PersonalGoal, error) {
		return []*models.PersonalGoal{goal}, nil
	}

	var gotKind models.ReminderKind
	f.dispatcher.personalFunc = func(ctx context.Context, g *models.PersonalGoal, kind models.ReminderKind) error {
		gotKind = kind
		return nil
	}

	if err := f.worker.RunPass(context.Background()); err != nil {
		t.Fatalf("RunPass() error = %v", err)
	}
	if goal.Active {
		t.Error("expired goal should be closed during the pass")
	}
	if gotKind != models.ReminderKindExpired {
		t.Errorf("final notice kind = %s, want %s", gotKind, models.ReminderKindExpired)
	}
}

func TestRunPassSkipsAlignedAndMutedRows(t *testing.T) {
	t.Parallel()

	f := newWorkerFixture(nil)
	aligned := duePersonalGoal(models.FrequencyMonthly, date(2024, time.June, 30))
	aligned.Aligned = true
	muted := duePersonalGoal(models.FrequencyMonthly, date(2024, time.June, 30))
	muted.ReminderActive = false

	f.personal.listDueFunc = func(ctx context.Context, filter database.DueFilter) ([]*models.PersonalGoal, error) {
		return []*models.PersonalGoal{aligned, muted}, nil
	}
	f.dispatcher.personalFunc = func(ctx context.Context, g *models.PersonalGoal, kind models.ReminderKind) error {
		t.Errorf("goal %s must not be dispatched", g.ID)
		return nil
	}

	if err := f.worker.RunPass(context.Background()); err != nil {
		t.Fatalf("RunPass() error = %v", err)
	}
}

func TestRunPassIsolatesPerGoalFailures(t *testing.T) {
	t.Parallel()

	f := newWorkerFixture(nil)
	first := duePersonalGoal(models.FrequencyMonthly, date(2024, time.June, 30))
	second := duePersonalGoal(models.FrequencyMonthly, date(2024, time.June, 30))

	f.personal.listDueFunc = func(ctx context.Context, filter database.DueFilter) ([]*models.PersonalGoal, error) {
		return []*models.PersonalGoal{first, second}, nil
	}

	dispatched := []uuid.UUID{}
	f.dispatcher.personalFunc = func(ctx context.Context, g *models.PersonalGoal, kind models.ReminderKind) error {
		dispatched = append(dispatched, g.ID)
		if g.ID == first.ID {
			return errors.New("connector down")
		}
		return nil
	}

	if err := f.worker.RunPass(context.Background()); err != nil {
		t.Fatalf("RunPass() error = %v", err)
	}
	if len(dispatched) != 2 {
		t.Fatalf("dispatched %d goals, want 2", len(dispatched))
	}
	if dispatched[1] != second.ID {
		t.Error("second goal should still be processed after the first fails")
	}
}

func TestRunPassProcessesTeamGoals(t *testing.T) {
	t.Parallel()

	f := newWorkerFixture(nil)
	teamGoal := &models.TeamGoal{
		ID:             uuid.New(),
		TeamID:         "team-9",
		Frequency:      models.FrequencyWeekly,
		EndDateUTC:     date(2024, time.March, 4),
		ReminderActive: true,
		Active:         true,
	}
	f.team.listDueFunc = func(ctx context.Context, filter database.DueFilter) ([]*models.TeamGoal, error) {
		return []*models.TeamGoal{teamGoal}, nil
	}

	var gotKind models.ReminderKind
	f.dispatcher.teamFunc = func(ctx context.Context, g *models.TeamGoal, kind models.ReminderKind) error {
		gotKind = kind
		return nil
	}

	if err := f.worker.RunPass(context.Background()); err != nil {
		t.Fatalf("RunPass() error = %v", err)
	}
	if gotKind != models.ReminderKindNearExpiry {
		t.Errorf("team reminder kind = %s, want %s", gotKind, models.ReminderKindNearExpiry)
	}
}

func TestRunPassBuildsFilterFromCalendar(t *testing.T) {
	t.Parallel()

	f := newWorkerFixture(nil)
	var gotFilter database.DueFilter
	f.personal.listDueFunc = func(ctx context.Context, filter database.DueFilter) ([]*models.PersonalGoal, error) {
		gotFilter = filter
		return nil, nil
	}

	if err := f.worker.RunPass(context.Background()); err != nil {
		t.Fatalf("RunPass() error = %v", err)
	}
	if !gotFilter.Today.Equal(date(2024, time.March, 1)) {
		t.Errorf("filter date = %s, want 2024-03-01", gotFilter.Today.Format("2006-01-02"))
	}
	if len(gotFilter.Frequencies) != 2 {
		t.Errorf("filter buckets = %v, want biweekly and monthly", gotFilter.Frequencies)
	}
}

func TestRunPassSkipsWhenLockHeldElsewhere(t *testing.T) {
	t.Parallel()

	lock := &mockLock{acquireFunc: func(ctx context.Context) (bool, error) { return false, nil }}
	f := newWorkerFixture(lock)
	f.personal.listDueFunc = func(ctx context.Context, filter database.DueFilter) ([]*models.PersonalGoal, error) {
		t.Error("pass must not query storage without holding the lock")
		return nil, nil
	}

	if err := f.worker.RunPass(context.Background()); err != nil {
		t.Fatalf("RunPass() error = %v", err)
	}
	if lock.released != 0 {
		t.Error("an unacquired lock must not be released")
	}
}

func TestRunPassReleasesLockAfterPass(t *testing.T) {
	t.Parallel()

	lock := &mockLock{}
	f := newWorkerFixture(lock)

	if err := f.worker.RunPass(context.Background()); err != nil {
		t.Fatalf("RunPass() error = %v", err)
	}
	if lock.released != 1 {
		t.Errorf("lock released %d times, want 1", lock.released)
	}
}
