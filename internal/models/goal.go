package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// GoalStatus represents the progress of a goal within its cycle
type GoalStatus string

const (
	GoalStatusNotStarted GoalStatus = "not_started"
	GoalStatusInProgress GoalStatus = "in_progress"
	GoalStatusCompleted  GoalStatus = "completed"
)

// ReminderFrequency controls how often non-expiry reminders fire
type ReminderFrequency string

const (
	FrequencyWeekly    ReminderFrequency = "weekly"
	FrequencyBiweekly  ReminderFrequency = "biweekly"
	FrequencyMonthly   ReminderFrequency = "monthly"
	FrequencyQuarterly ReminderFrequency = "quarterly"
)

// PersonalGoal represents a goal owned by a single user
type PersonalGoal struct {
	ID             uuid.UUID         `json:"id"`
	UserID         string            `json:"user_id"`
	Name           string            `json:"name"`
	StartDate      time.Time         `json:"start_date"`
	EndDate        time.Time         `json:"end_date"`
	StartDateUTC   time.Time         `json:"start_date_utc"`
	EndDateUTC     time.Time         `json:"end_date_utc"`
	Status         GoalStatus        `json:"status"`
	Frequency      ReminderFrequency `json:"frequency"`
	ReminderActive bool              `json:"reminder_active"`
	Active         bool              `json:"active"`
	Deleted        bool              `json:"deleted"`
	Aligned        bool              `json:"aligned"`
	TeamID         string            `json:"team_id,omitempty"`
	TeamGoalID     string            `json:"team_goal_id,omitempty"`
	Conversation   ConversationRef   `json:"conversation"`
	CycleID        uuid.UUID         `json:"cycle_id"`
	CreatedBy      string            `json:"created_by"`
	ModifiedBy     string            `json:"modified_by"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// Deactivate marks the goal's cycle as closed. Calling it on an already
// inactive goal leaves the goal unchanged apart from the modified timestamp,
// so closure is safe to retry.
func (g *PersonalGoal) Deactivate(now time.Time) {
	g.Active = false
	g.ReminderActive = false
	g.UpdatedAt = now
}

// AlignedTeamGoalIDs returns the team goal ids this goal is aligned to.
// The write path stores a single id, but status aggregation in the source
// data can leave comma-joined compound values, so reads split on the
// delimiter rather than compare whole strings.
func (g *PersonalGoal) AlignedTeamGoalIDs() []string {
	if g.TeamGoalID == "" {
		return nil
	}
	parts := strings.Split(g.TeamGoalID, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}

// IsAlignedTo reports whether the goal is aligned to the given team goal,
// tolerating compound TeamGoalID values.
func (g *PersonalGoal) IsAlignedTo(teamGoalID uuid.UUID) bool {
	want := teamGoalID.String()
	for _, id := range g.AlignedTeamGoalIDs() {
		if id == want {
			return true
		}
	}
	return false
}
