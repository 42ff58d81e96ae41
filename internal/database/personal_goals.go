package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/northstarhq/northstar/internal/models"
)

const personalGoalColumns = `id, user_id, name, start_date, end_date, start_date_utc, end_date_utc,
	status, frequency, reminder_active, active, deleted, aligned, team_id, team_goal_id,
	conversation_id, service_url, cycle_id, created_by, modified_by, created_at, updated_at`

// PersonalGoalRepository handles personal goal database operations
type PersonalGoalRepository struct {
	db *DB
}

// NewPersonalGoalRepository creates a new personal goal repository
func NewPersonalGoalRepository(db *DB) *PersonalGoalRepository {
	return &PersonalGoalRepository{db: db}
}

// Upsert inserts the goal or replaces the stored row with the same id.
func (r *PersonalGoalRepository) Upsert(ctx context.Context, goal *models.PersonalGoal) error {
	query := `
		INSERT INTO personal_goals (` + personalGoalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			start_date_utc = EXCLUDED.start_date_utc,
			end_date_utc = EXCLUDED.end_date_utc,
			status = EXCLUDED.status,
			frequency = EXCLUDED.frequency,
			reminder_active = EXCLUDED.reminder_active,
			active = EXCLUDED.active,
			deleted = EXCLUDED.deleted,
			aligned = EXCLUDED.aligned,
			team_id = EXCLUDED.team_id,
			team_goal_id = EXCLUDED.team_goal_id,
			conversation_id = EXCLUDED.conversation_id,
			service_url = EXCLUDED.service_url,
			modified_by = EXCLUDED.modified_by,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query, personalGoalArgs(goal)...)
	if err != nil {
		return fmt.Errorf("failed to upsert personal goal: %w", err)
	}
	return nil
}

// UpsertBatch upserts a set of goals belonging to one owner partition in a
// single transaction.
func (r *PersonalGoalRepository) UpsertBatch(ctx context.Context, goals []*models.PersonalGoal) error {
	if len(goals) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, goal := range goals {
		query := `
			INSERT INTO personal_goals (` + personalGoalColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				status = EXCLUDED.status,
				frequency = EXCLUDED.frequency,
				reminder_active = EXCLUDED.reminder_active,
				active = EXCLUDED.active,
				deleted = EXCLUDED.deleted,
				aligned = EXCLUDED.aligned,
				team_id = EXCLUDED.team_id,
				team_goal_id = EXCLUDED.team_goal_id,
				modified_by = EXCLUDED.modified_by,
				updated_at = EXCLUDED.updated_at
		`
		if _, err := tx.ExecContext(ctx, query, personalGoalArgs(goal)...); err != nil {
			return fmt.Errorf("failed to upsert personal goal %s: %w", goal.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit personal goal batch: %w", err)
	}
	return nil
}

// GetByID retrieves a goal from its owner partition
func (r *PersonalGoalRepository) GetByID(ctx context.Context, userID string, id uuid.UUID) (*models.PersonalGoal, error) {
	query := `SELECT ` + personalGoalColumns + ` FROM personal_goals WHERE user_id = $1 AND id = $2`

	goal, err := scanPersonalGoal(r.db.QueryRowContext(ctx, query, userID, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get personal goal: %w", err)
	}
	return goal, nil
}

// ListDueForReminder returns the personal goals that need attention today:
// a matching frequency bucket, a cycle that expired yesterday, or a cycle
// ending in three days. Aligned goals are excluded since they are reminded
// through the team path, as are goals whose
// reminders the user muted.
func (r *PersonalGoalRepository) ListDueForReminder(ctx context.Context, filter DueFilter) ([]*models.PersonalGoal, error) {
	expired := filter.Today.AddDate(0, 0, -1)
	nearExpiry := filter.Today.AddDate(0, 0, 3)

	query := `
		SELECT ` + personalGoalColumns + `
		FROM personal_goals
		WHERE active = TRUE AND deleted = FALSE AND reminder_active = TRUE AND aligned = FALSE
		  AND (frequency = ANY($1) OR end_date_utc::date = $2::date OR end_date_utc::date = $3::date)
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(frequencyStrings(filter.Frequencies)), expired, nearExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to query due personal goals: %w", err)
	}
	defer rows.Close()

	return collectPersonalGoals(rows)
}

// ListAlignedToTeam returns a user's active goals aligned to the given team.
// Matching against a specific team goal id happens in the caller, which must
// tolerate compound comma-joined TeamGoalID values.
func (r *PersonalGoalRepository) ListAlignedToTeam(ctx context.Context, userID, teamID string) ([]*models.PersonalGoal, error) {
	query := `
		SELECT ` + personalGoalColumns + `
		FROM personal_goals
		WHERE user_id = $1 AND team_id = $2 AND aligned = TRUE AND active = TRUE AND deleted = FALSE
	`

	rows, err := r.db.QueryContext(ctx, query, userID, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to query aligned personal goals: %w", err)
	}
	defer rows.Close()

	return collectPersonalGoals(rows)
}

// ListDeleted returns all soft-deleted goals, for the deletion sweeper.
func (r *PersonalGoalRepository) ListDeleted(ctx context.Context) ([]*models.PersonalGoal, error) {
	query := `SELECT ` + personalGoalColumns + ` FROM personal_goals WHERE deleted = TRUE`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query deleted personal goals: %w", err)
	}
	defer rows.Close()

	return collectPersonalGoals(rows)
}

// DeleteBatch permanently removes the given goals.
func (r *PersonalGoalRepository) DeleteBatch(ctx context.Context, goals []*models.PersonalGoal) error {
	if len(goals) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(goals))
	for _, g := range goals {
		ids = append(ids, g.ID)
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM personal_goals WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return fmt.Errorf("failed to delete personal goals: %w", err)
	}
	return nil
}

func personalGoalArgs(g *models.PersonalGoal) []any {
	return []any{
		g.ID, g.UserID, g.Name, g.StartDate, g.EndDate, g.StartDateUTC, g.EndDateUTC,
		g.Status, g.Frequency, g.ReminderActive, g.Active, g.Deleted, g.Aligned,
		g.TeamID, g.TeamGoalID, g.Conversation.ConversationID, g.Conversation.ServiceURL,
		g.CycleID, g.CreatedBy, g.ModifiedBy, g.CreatedAt, g.UpdatedAt,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPersonalGoal(row rowScanner) (*models.PersonalGoal, error) {
	g := &models.PersonalGoal{}
	err := row.Scan(
		&g.ID, &g.UserID, &g.Name, &g.StartDate, &g.EndDate, &g.StartDateUTC, &g.EndDateUTC,
		&g.Status, &g.Frequency, &g.ReminderActive, &g.Active, &g.Deleted, &g.Aligned,
		&g.TeamID, &g.TeamGoalID, &g.Conversation.ConversationID, &g.Conversation.ServiceURL,
		&g.CycleID, &g.CreatedBy, &g.ModifiedBy, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return g, nil
}

func collectPersonalGoals(rows *sql.Rows) ([]*models.PersonalGoal, error) {
	var goals []*models.PersonalGoal
	for rows.Next() {
		goal, err := scanPersonalGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan personal goal: %w", err)
		}
		goals = append(goals, goal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating personal goals: %w", err)
	}
	return goals, nil
}

func frequencyStrings(freqs []models.ReminderFrequency) []string {
	out := make([]string, 0, len(freqs))
	for _, f := range freqs {
		out = append(out, string(f))
	}
	return out
}

// DueFilter carries the scheduler's classification predicate down to SQL.
type DueFilter struct {
	// Today is the UTC date of the pass, time-truncated.
	Today time.Time
	// Frequencies are the buckets whose trigger day matches Today.
	Frequencies []models.ReminderFrequency
}
