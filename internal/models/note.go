package models

import (
	"time"

	"github.com/google/uuid"
)

// GoalNote is a free-text note attached to a personal goal. Its lifecycle is
// tied to the parent: closing the goal's cycle deactivates its notes in the
// same logical operation.
type GoalNote struct {
	ID           uuid.UUID       `json:"id"`
	UserID       string          `json:"user_id"`
	GoalID       uuid.UUID       `json:"goal_id"`
	Text         string          `json:"text"`
	Source       string          `json:"source,omitempty"`
	Active       bool            `json:"active"`
	Deleted      bool            `json:"deleted"`
	Conversation ConversationRef `json:"conversation"`
	ActivityID   string          `json:"activity_id,omitempty"`
	CreatedBy    string          `json:"created_by"`
	ModifiedBy   string          `json:"modified_by"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Deactivate closes the note together with its parent goal's cycle.
func (n *GoalNote) Deactivate(now time.Time) {
	n.Active = false
	n.UpdatedAt = now
}
