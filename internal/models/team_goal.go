package models

import (
	"time"

	"github.com/google/uuid"
)

// TeamGoal represents a shared goal owned by a team. Many personal goals may
// be aligned to one team goal.
type TeamGoal struct {
	ID                  uuid.UUID         `json:"id"`
	TeamID              string            `json:"team_id"`
	Name                string            `json:"name"`
	StartDate           time.Time         `json:"start_date"`
	EndDate             time.Time         `json:"end_date"`
	StartDateUTC        time.Time         `json:"start_date_utc"`
	EndDateUTC          time.Time         `json:"end_date_utc"`
	Frequency           ReminderFrequency `json:"frequency"`
	ReminderActive      bool              `json:"reminder_active"`
	Active              bool              `json:"active"`
	Deleted             bool              `json:"deleted"`
	CreatorConversation ConversationRef   `json:"creator_conversation"`
	ChannelID           string            `json:"channel_id"`
	CycleID             uuid.UUID         `json:"cycle_id"`
	CreatedBy           string            `json:"created_by"`
	ModifiedBy          string            `json:"modified_by"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

// Deactivate marks the team goal's cycle as closed. Idempotent.
func (g *TeamGoal) Deactivate(now time.Time) {
	g.Active = false
	g.ReminderActive = false
	g.UpdatedAt = now
}
