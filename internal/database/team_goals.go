package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/northstarhq/northstar/internal/models"
)

const teamGoalColumns = `id, team_id, name, start_date, end_date, start_date_utc, end_date_utc,
	frequency, reminder_active, active, deleted, creator_conversation_id, creator_service_url,
	channel_id, cycle_id, created_by, modified_by, created_at, updated_at`

// TeamGoalRepository handles team goal database operations
type TeamGoalRepository struct {
	db *DB
}

// NewTeamGoalRepository creates a new team goal repository
func NewTeamGoalRepository(db *DB) *TeamGoalRepository {
	return &TeamGoalRepository{db: db}
}

// Upsert inserts the team goal or replaces the stored row with the same id.
func (r *TeamGoalRepository) Upsert(ctx context.Context, goal *models.TeamGoal) error {
	query := `
		INSERT INTO team_goals (` + teamGoalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			start_date_utc = EXCLUDED.start_date_utc,
			end_date_utc = EXCLUDED.end_date_utc,
			frequency = EXCLUDED.frequency,
			reminder_active = EXCLUDED.reminder_active,
			active = EXCLUDED.active,
			deleted = EXCLUDED.deleted,
			channel_id = EXCLUDED.channel_id,
			modified_by = EXCLUDED.modified_by,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		goal.ID, goal.TeamID, goal.Name, goal.StartDate, goal.EndDate, goal.StartDateUTC, goal.EndDateUTC,
		goal.Frequency, goal.ReminderActive, goal.Active, goal.Deleted,
		goal.CreatorConversation.ConversationID, goal.CreatorConversation.ServiceURL,
		goal.ChannelID, goal.CycleID, goal.CreatedBy, goal.ModifiedBy, goal.CreatedAt, goal.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert team goal: %w", err)
	}
	return nil
}

// GetByID retrieves a team goal from its owner partition
func (r *TeamGoalRepository) GetByID(ctx context.Context, teamID string, id uuid.UUID) (*models.TeamGoal, error) {
	query := `SELECT ` + teamGoalColumns + ` FROM team_goals WHERE team_id = $1 AND id = $2`

	goal, err := scanTeamGoal(r.db.QueryRowContext(ctx, query, teamID, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team goal: %w", err)
	}
	return goal, nil
}

// ListDueForReminder returns the team goals that need attention today, using
// the same classification predicate as the personal query minus the
// alignment exclusion.
func (r *TeamGoalRepository) ListDueForReminder(ctx context.Context, filter DueFilter) ([]*models.TeamGoal, error) {
	expired := filter.Today.AddDate(0, 0, -1)
	nearExpiry := filter.Today.AddDate(0, 0, 3)

	query := `
		SELECT ` + teamGoalColumns + `
		FROM team_goals
		WHERE active = TRUE AND deleted = FALSE AND reminder_active = TRUE
		  AND (frequency = ANY($1) OR end_date_utc::date = $2::date OR end_date_utc::date = $3::date)
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(frequencyStrings(filter.Frequencies)), expired, nearExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to query due team goals: %w", err)
	}
	defer rows.Close()

	return collectTeamGoals(rows)
}

// ListDeleted returns all soft-deleted team goals, for the deletion sweeper.
func (r *TeamGoalRepository) ListDeleted(ctx context.Context) ([]*models.TeamGoal, error) {
	query := `SELECT ` + teamGoalColumns + ` FROM team_goals WHERE deleted = TRUE`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query deleted team goals: %w", err)
	}
	defer rows.Close()

	return collectTeamGoals(rows)
}

// DeleteBatch permanently removes the given team goals.
func (r *TeamGoalRepository) DeleteBatch(ctx context.Context, goals []*models.TeamGoal) error {
	if len(goals) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(goals))
	for _, g := range goals {
		ids = append(ids, g.ID)
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM team_goals WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return fmt.Errorf("failed to delete team goals: %w", err)
	}
	return nil
}

func scanTeamGoal(row rowScanner) (*models.TeamGoal, error) {
	g := &models.TeamGoal{}
	err := row.Scan(
		&g.ID, &g.TeamID, &g.Name, &g.StartDate, &g.EndDate, &g.StartDateUTC, &g.EndDateUTC,
		&g.Frequency, &g.ReminderActive, &g.Active, &g.Deleted,
		&g.CreatorConversation.ConversationID, &g.CreatorConversation.ServiceURL,
		&g.ChannelID, &g.CycleID, &g.CreatedBy, &g.ModifiedBy, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return g, nil
}

func collectTeamGoals(rows *sql.Rows) ([]*models.TeamGoal, error) {
	var goals []*models.TeamGoal
	for rows.Next() {
		goal, err := scanTeamGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan team goal: %w", err)
		}
		goals = append(goals, goal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating team goals: %w", err)
	}
	return goals, nil
}
