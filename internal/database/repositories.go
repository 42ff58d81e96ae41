package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/northstarhq/northstar/internal/models"
)

// PersonalGoalRepositoryInterface defines the interface for personal goal repository operations
// This interface enables better testability by allowing mock implementations
type PersonalGoalRepositoryInterface interface {
	Upsert(ctx context.Context, goal *models.PersonalGoal) error
	UpsertBatch(ctx context.Context, goals []*models.PersonalGoal) error
	GetByID(ctx context.Context, userID string, id uuid.UUID) (*models.PersonalGoal, error)
	ListDueForReminder(ctx context.Context, filter DueFilter) ([]*models.PersonalGoal, error)
	ListAlignedToTeam(ctx context.Context, userID, teamID string) ([]*models.PersonalGoal, error)
	ListDeleted(ctx context.Context) ([]*models.PersonalGoal, error)
	DeleteBatch(ctx context.Context, goals []*models.PersonalGoal) error
}

// GoalNoteRepositoryInterface defines the interface for goal note repository operations
type GoalNoteRepositoryInterface interface {
	ListByGoal(ctx context.Context, userID string, goalID uuid.UUID) ([]*models.GoalNote, error)
	UpsertBatch(ctx context.Context, notes []*models.GoalNote) error
	ListDeleted(ctx context.Context) ([]*models.GoalNote, error)
	DeleteBatch(ctx context.Context, notes []*models.GoalNote) error
}

// TeamGoalRepositoryInterface defines the interface for team goal repository operations
type TeamGoalRepositoryInterface interface {
	Upsert(ctx context.Context, goal *models.TeamGoal) error
	GetByID(ctx context.Context, teamID string, id uuid.UUID) (*models.TeamGoal, error)
	ListDueForReminder(ctx context.Context, filter DueFilter) ([]*models.TeamGoal, error)
	ListDeleted(ctx context.Context) ([]*models.TeamGoal, error)
	DeleteBatch(ctx context.Context, goals []*models.TeamGoal) error
}

// TeamInstallationRepositoryInterface defines the interface for team installation repository operations
type TeamInstallationRepositoryInterface interface {
	Upsert(ctx context.Context, inst *models.TeamInstallation) error
	Get(ctx context.Context, teamID string) (*models.TeamInstallation, error)
	Delete(ctx context.Context, teamID string) error
}

// Ensure concrete types implement the interfaces
var (
	_ PersonalGoalRepositoryInterface     = (*PersonalGoalRepository)(nil)
	_ GoalNoteRepositoryInterface         = (*GoalNoteRepository)(nil)
	_ TeamGoalRepositoryInterface         = (*TeamGoalRepository)(nil)
	_ TeamInstallationRepositoryInterface = (*TeamInstallationRepository)(nil)
)
