package workers

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/northstarhq/northstar/internal/database"
	"github.com/northstarhq/northstar/internal/models"
	"github.com/northstarhq/northstar/internal/notify"
)

// mockPersonalRepo is a mock implementation of PersonalGoalRepositoryInterface for worker tests
type mockPersonalRepo struct {
	upsertFunc      func(ctx context.Context, goal *models.PersonalGoal) error
	listDueFunc     func(ctx context.Context, filter database.DueFilter) ([]*models.PersonalGoal, error)
	listAlignedFunc func(ctx context.Context, userID, teamID string) ([]*models.PersonalGoal, error)
	listDeletedFunc func(ctx context.Context) ([]*models.PersonalGoal, error)
	deleteBatchFunc func(ctx context.Context, goals []*models.PersonalGoal) error
}

func (m *mockPersonalRepo) Upsert(ctx context.Context, goal *models.PersonalGoal) error {
	if m.upsertFunc != nil {
		return m.upsertFunc(ctx, goal)
	}
	return nil
}

func (m *mockPersonalRepo) UpsertBatch(ctx context.Context, goals []*models.PersonalGoal) error {
	return errors.New("not implemented")
}

func (m *mockPersonalRepo) GetByID(ctx context.Context, userID string, id uuid.UUID) (*models.PersonalGoal, error) {
	return nil, errors.New("not implemented")
}

func (m *mockPersonalRepo) ListDueForReminder(ctx context.Context, filter database.DueFilter) ([]*models.PersonalGoal, error) {
	if m.listDueFunc != nil {
		return m.listDueFunc(ctx, filter)
	}
	return nil, nil
}

func (m *mockPersonalRepo) ListAlignedToTeam(ctx context.Context, userID, teamID string) ([]*models.PersonalGoal, error) {
	if m.listAlignedFunc != nil {
		return m.listAlignedFunc(ctx, userID, teamID)
	}
	return nil, nil
}

func (m *mockPersonalRepo) ListDeleted(ctx context.Context) ([]*models.PersonalGoal, error) {
	if m.listDeletedFunc != nil {
		return m.listDeletedFunc(ctx)
	}
	return nil, nil
}

func (m *mockPersonalRepo) DeleteBatch(ctx context.Context, goals []*models.PersonalGoal) error {
	if m.deleteBatchFunc != nil {
		return m.deleteBatchFunc(ctx, goals)
	}
	return nil
}

var _ database.PersonalGoalRepositoryInterface = (*mockPersonalRepo)(nil)

// mockNoteRepo is a mock implementation of GoalNoteRepositoryInterface for worker tests
type mockNoteRepo struct {
	listByGoalFunc  func(ctx context.Context, userID string, goalID uuid.UUID) ([]*models.GoalNote, error)
	upsertBatchFunc func(ctx context.Context, notes []*models.GoalNote) error
	listDeletedFunc func(ctx context.Context) ([]*models.GoalNote, error)
	deleteBatchFunc func(ctx context.Context, notes []*models.GoalNote) error
}

func (m *mockNoteRepo) ListByGoal(ctx context.Context, userID string, goalID uuid.UUID) ([]*models.GoalNote, error) {
	if m.listByGoalFunc != nil {
		return m.listByGoalFunc(ctx, userID, goalID)
	}
	return nil, nil
}

func (m *mockNoteRepo) UpsertBatch(ctx context.Context, notes []*models.GoalNote) error {
	if m.upsertBatchFunc != nil {
		return m.upsertBatchFunc(ctx, notes)
	}
	return nil
}

func (m *mockNoteRepo) ListDeleted(ctx context.Context) ([]*models.GoalNote, error) {
	if m.listDeletedFunc != nil {
		return m.listDeletedFunc(ctx)
	}
	return nil, nil
}

func (m *mockNoteRepo) DeleteBatch(ctx context.Context, notes []*models.GoalNote) error {
	if m.deleteBatchFunc != nil {
		return m.deleteBatchFunc(ctx, notes)
	}
	return nil
}

var _ database.GoalNoteRepositoryInterface = (*mockNoteRepo)(nil)

// mockTeamRepo is a mock implementation of TeamGoalRepositoryInterface for worker tests
type mockTeamRepo struct {
	upsertFunc      func(ctx context.Context, goal *models.TeamGoal) error
	listDueFunc     func(ctx context.Context, filter database.DueFilter) ([]*models.TeamGoal, error)
	listDeletedFunc func(ctx context.Context) ([]*models.TeamGoal, error)
	deleteBatchFunc func(ctx context.Context, goals []*models.TeamGoal) error
}

func (m *mockTeamRepo) Upsert(ctx context.Context, goal *models.TeamGoal) error {
	if m.upsertFunc != nil {
		return m.upsertFunc(ctx, goal)
	}
	return nil
}

func (m *mockTeamRepo) GetByID(ctx context.Context, teamID string, id uuid.UUID) (*models.TeamGoal, error) {
	return nil, errors.New("not implemented")
}

func (m *mockTeamRepo) ListDueForReminder(ctx context.Context, filter database.DueFilter) ([]*models.TeamGoal, error) {
	if m.listDueFunc != nil {
		return m.listDueFunc(ctx, filter)
	}
	return nil, nil
}

func (m *mockTeamRepo) ListDeleted(ctx context.Context) ([]*models.TeamGoal, error) {
	if m.listDeletedFunc != nil {
		return m.listDeletedFunc(ctx)
	}
	return nil, nil
}

func (m *mockTeamRepo) DeleteBatch(ctx context.Context, goals []*models.TeamGoal) error {
	if m.deleteBatchFunc != nil {
		return m.deleteBatchFunc(ctx, goals)
	}
	return nil
}

var _ database.TeamGoalRepositoryInterface = (*mockTeamRepo)(nil)

// mockInstallRepo is a mock implementation of TeamInstallationRepositoryInterface for worker tests
type mockInstallRepo struct {
	getFunc func(ctx context.Context, teamID string) (*models.TeamInstallation, error)
}

func (m *mockInstallRepo) Upsert(ctx context.Context, inst *models.TeamInstallation) error {
	return errors.New("not implemented")
}

func (m *mockInstallRepo) Get(ctx context.Context, teamID string) (*models.TeamInstallation, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, teamID)
	}
	return &models.TeamInstallation{TeamID: teamID, ServiceURL: "https://connector.example.com"}, nil
}

func (m *mockInstallRepo) Delete(ctx context.Context, teamID string) error {
	return errors.New("not implemented")
}

var _ database.TeamInstallationRepositoryInterface = (*mockInstallRepo)(nil)

// mockDispatcher is a mock implementation of ReminderDispatcher for worker tests
type mockDispatcher struct {
	personalFunc func(ctx context.Context, goal *models.PersonalGoal, kind models.ReminderKind) error
	teamFunc     func(ctx context.Context, goal *models.TeamGoal, kind models.ReminderKind) error
}

func (m *mockDispatcher) NotifyPersonal(ctx context.Context, goal *models.PersonalGoal, kind models.ReminderKind) error {
	if m.personalFunc != nil {
		return m.personalFunc(ctx, goal, kind)
	}
	return nil
}

func (m *mockDispatcher) NotifyTeam(ctx context.Context, goal *models.TeamGoal, kind models.ReminderKind) error {
	if m.teamFunc != nil {
		return m.teamFunc(ctx, goal, kind)
	}
	return nil
}

var _ ReminderDispatcher = (*mockDispatcher)(nil)

// mockRoster is a mock implementation of notify.RosterProvider for worker tests
type mockRoster struct {
	listFunc func(ctx context.Context, serviceURL, teamID string) ([]notify.Member, error)
}

func (m *mockRoster) ListMembers(ctx context.Context, serviceURL, teamID string) ([]notify.Member, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, serviceURL, teamID)
	}
	return nil, nil
}

var _ notify.RosterProvider = (*mockRoster)(nil)

// mockLock is a mock implementation of PassLock for worker tests
type mockLock struct {
	acquireFunc func(ctx context.Context) (bool, error)
	released    int
}

func (m *mockLock) Acquire(ctx context.Context) (bool, error) {
	if m.acquireFunc != nil {
		return m.acquireFunc(ctx)
	}
	return true, nil
}

func (m *mockLock) Release(ctx context.Context) error {
	m.released++
	return nil
}

var _ PassLock = (*mockLock)(nil)
