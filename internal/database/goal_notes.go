package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/northstarhq/northstar/internal/models"
)

const goalNoteColumns = `id, user_id, goal_id, text, source, active, deleted,
	conversation_id, service_url, activity_id, created_by, modified_by, created_at, updated_at`

// GoalNoteRepository handles goal note database operations
type GoalNoteRepository struct {
	db *DB
}

// NewGoalNoteRepository creates a new goal note repository
func NewGoalNoteRepository(db *DB) *GoalNoteRepository {
	return &GoalNoteRepository{db: db}
}

// ListByGoal returns all active notes of one goal in its owner partition.
func (r *GoalNoteRepository) ListByGoal(ctx context.Context, userID string, goalID uuid.UUID) ([]*models.GoalNote, error) {
	query := `
		SELECT ` + goalNoteColumns + `
		FROM goal_notes
		WHERE user_id = $1 AND goal_id = $2 AND active = TRUE AND deleted = FALSE
	`

	rows, err := r.db.QueryContext(ctx, query, userID, goalID)
	if err != nil {
		return nil, fmt.Errorf("failed to query goal notes: %w", err)
	}
	defer rows.Close()

	return collectGoalNotes(rows)
}

// UpsertBatch upserts a set of notes belonging to one owner partition in a
// single transaction.
func (r *GoalNoteRepository) UpsertBatch(ctx context.Context, notes []*models.GoalNote) error {
	if len(notes) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO goal_notes (` + goalNoteColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			text = EXCLUDED.text,
			active = EXCLUDED.active,
			deleted = EXCLUDED.deleted,
			activity_id = EXCLUDED.activity_id,
			modified_by = EXCLUDED.modified_by,
			updated_at = EXCLUDED.updated_at
	`
	for _, n := range notes {
		_, err := tx.ExecContext(ctx, query,
			n.ID, n.UserID, n.GoalID, n.Text, n.Source, n.Active, n.Deleted,
			n.Conversation.ConversationID, n.Conversation.ServiceURL, n.ActivityID,
			n.CreatedBy, n.ModifiedBy, n.CreatedAt, n.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert goal note %s: %w", n.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit goal note batch: %w", err)
	}
	return nil
}

// ListDeleted returns all soft-deleted notes, for the deletion sweeper.
func (r *GoalNoteRepository) ListDeleted(ctx context.Context) ([]*models.GoalNote, error) {
	query := `SELECT ` + goalNoteColumns + ` FROM goal_notes WHERE deleted = TRUE`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query deleted goal notes: %w", err)
	}
	defer rows.Close()

	return collectGoalNotes(rows)
}

// DeleteBatch permanently removes the given notes.
func (r *GoalNoteRepository) DeleteBatch(ctx context.Context, notes []*models.GoalNote) error {
	if len(notes) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(notes))
	for _, n := range notes {
		ids = append(ids, n.ID)
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM goal_notes WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return fmt.Errorf("failed to delete goal notes: %w", err)
	}
	return nil
}

func collectGoalNotes(rows *sql.Rows) ([]*models.GoalNote, error) {
	var notes []*models.GoalNote
	for rows.Next() {
		n := &models.GoalNote{}
		err := rows.Scan(
			&n.ID, &n.UserID, &n.GoalID, &n.Text, &n.Source, &n.Active, &n.Deleted,
			&n.Conversation.ConversationID, &n.Conversation.ServiceURL, &n.ActivityID,
			&n.CreatedBy, &n.ModifiedBy, &n.CreatedAt, &n.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan goal note: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating goal notes: %w", err)
	}
	return notes, nil
}
