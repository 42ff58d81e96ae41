package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/northstarhq/northstar/internal/database"
	"github.com/northstarhq/northstar/internal/models"
	"github.com/northstarhq/northstar/internal/queue"
	"github.com/northstarhq/northstar/internal/validation"
	"github.com/northstarhq/northstar/internal/workers"
	"go.uber.org/zap"
)

// PassRunner runs one scheduler pass on demand. Implemented by
// workers.ReminderWorker.
type PassRunner interface {
	RunPass(ctx context.Context) error
}

// Sweeper runs one deletion sweep on demand. Implemented by
// workers.DeletionSweeper.
type Sweeper interface {
	Sweep(ctx context.Context) error
}

// GoalsHandler exposes the operator surface: due-goal inspection, manual run
// triggers, and goal backfill.
type GoalsHandler struct {
	personalRepo database.PersonalGoalRepositoryInterface
	teamRepo     database.TeamGoalRepositoryInterface
	tasks        queue.TaskQueue
	passRunner   PassRunner
	sweeper      Sweeper
	logger       *zap.Logger

	now func() time.Time
}

// NewGoalsHandler creates a new goals handler.
func NewGoalsHandler(
	personalRepo database.PersonalGoalRepositoryInterface,
	teamRepo database.TeamGoalRepositoryInterface,
	tasks queue.TaskQueue,
	passRunner PassRunner,
	sweeper Sweeper,
	logger *zap.Logger,
) *GoalsHandler {
	return &GoalsHandler{
		personalRepo: personalRepo,
		teamRepo:     teamRepo,
		tasks:        tasks,
		passRunner:   passRunner,
		sweeper:      sweeper,
		logger:       logger,
		now:          time.Now,
	}
}

// DueGoal is one classified goal in a due listing.
type DueGoal struct {
	ID      string `json:"id"`
	Owner   string `json:"owner"`
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	IsTeam  bool   `json:"is_team"`
	EndDate string `json:"end_date_utc"`
}

// ListDue handles GET /api/v1/goals/due. An optional date=YYYY-MM-DD query
// parameter classifies against that day instead of today, which lets
// operators preview an upcoming pass.
func (h *GoalsHandler) ListDue(w http.ResponseWriter, r *http.Request) {
	today := workers.DateUTC(h.now())
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "date must be formatted YYYY-MM-DD")
			return
		}
		today = parsed
	}

	filter := database.DueFilter{Today: today, Frequencies: workers.DueFrequencies(today)}

	personal, err := h.personalRepo.ListDueForReminder(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed_to_list_due_personal_goals", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "failed to list due goals")
		return
	}
	team, err := h.teamRepo.ListDueForReminder(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed_to_list_due_team_goals", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "failed to list due goals")
		return
	}

	due := make([]DueGoal, 0, len(personal)+len(team))
	for _, g := range personal {
		if g.Aligned || !g.ReminderActive {
			continue
		}
		if kind, ok := workers.Classify(g.EndDateUTC, g.Frequency, today); ok {
			due = append(due, DueGoal{
				ID:      g.ID.String(),
				Owner:   g.UserID,
				Name:    g.Name,
				Kind:    string(kind),
				EndDate: g.EndDateUTC.Format("2006-01-02"),
			})
		}
	}
	for _, g := range team {
		if kind, ok := workers.Classify(g.EndDateUTC, g.Frequency, today); ok {
			due = append(due, DueGoal{
				ID:      g.ID.String(),
				Owner:   g.TeamID,
				Name:    g.Name,
				Kind:    string(kind),
				IsTeam:  true,
				EndDate: g.EndDateUTC.Format("2006-01-02"),
			})
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"date":  today.Format("2006-01-02"),
		"goals": due,
	})
}

// TriggerReminderRun handles POST /api/v1/runs/reminders by queueing a
// scheduler pass.
func (h *GoalsHandler) TriggerReminderRun(w http.ResponseWriter, r *http.Request) {
	task := queue.NewTask("manual_reminder_pass", h.passRunner.RunPass)
	if err := h.tasks.Enqueue(task); err != nil {
		h.logger.Error("failed_to_enqueue_reminder_pass", zap.Error(err))
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "task queue rejected the run")
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"task_id": task.ID.String()})
}

// TriggerSweep handles POST /api/v1/runs/sweep by queueing a deletion sweep.
func (h *GoalsHandler) TriggerSweep(w http.ResponseWriter, r *http.Request) {
	task := queue.NewTask("manual_deletion_sweep", h.sweeper.Sweep)
	if err := h.tasks.Enqueue(task); err != nil {
		h.logger.Error("failed_to_enqueue_sweep", zap.Error(err))
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "task queue rejected the run")
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"task_id": task.ID.String()})
}

// upsertGoalRequest is the backfill payload for a personal goal.
type upsertGoalRequest struct {
	ID             string `json:"id" validate:"omitempty,uuid4"`
	UserID         string `json:"user_id" validate:"required"`
	Name           string `json:"name" validate:"required,max=512"`
	StartDate      string `json:"start_date_utc" validate:"required"`
	EndDate        string `json:"end_date_utc" validate:"required"`
	Status         string `json:"status" validate:"required,goal_status"`
	Frequency      string `json:"frequency" validate:"required,reminder_frequency"`
	ReminderActive bool   `json:"reminder_active"`
	TeamID         string `json:"team_id"`
	TeamGoalID     string `json:"team_goal_id"`
	ConversationID string `json:"conversation_id"`
	ServiceURL     string `json:"service_url"`
}

// UpsertGoal handles PUT /api/v1/goals, the operator backfill path for
// personal goals.
func (h *GoalsHandler) UpsertGoal(w http.ResponseWriter, r *http.Request) {
	var req upsertGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "start_date_utc must be formatted YYYY-MM-DD")
		return
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "end_date_utc must be formatted YYYY-MM-DD")
		return
	}
	if end.Before(start) {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "end_date_utc precedes start_date_utc")
		return
	}

	id := uuid.New()
	if req.ID != "" {
		if id, err = uuid.Parse(req.ID); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "id is not a valid UUID")
			return
		}
	}

	now := h.now().UTC()
	goal := &models.PersonalGoal{
		ID:             id,
		UserID:         req.UserID,
		Name:           validation.SanitizeText(req.Name),
		StartDate:      start,
		EndDate:        end,
		StartDateUTC:   start,
		EndDateUTC:     end,
		Status:         models.GoalStatus(req.Status),
		Frequency:      models.ReminderFrequency(req.Frequency),
		ReminderActive: req.ReminderActive,
		Active:         true,
		Aligned:        req.TeamGoalID != "",
		TeamID:         req.TeamID,
		TeamGoalID:     req.TeamGoalID,
		Conversation: models.ConversationRef{
			ConversationID: req.ConversationID,
			ServiceURL:     req.ServiceURL,
		},
		CycleID:    uuid.New(),
		CreatedBy:  req.UserID,
		ModifiedBy: req.UserID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := h.personalRepo.Upsert(r.Context(), goal); err != nil {
		h.logger.Error("failed_to_upsert_goal",
			zap.String("goal_id", goal.ID.String()),
			zap.Error(err),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "failed to store goal")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"id": goal.ID.String()})
}
