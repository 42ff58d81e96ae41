package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/northstarhq/northstar/internal/models"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Register custom validators for enums
	if err := Validate.RegisterValidation("reminder_frequency", validateFrequency); err != nil {
		panic(fmt.Sprintf("failed to register reminder_frequency validator: %v", err))
	}
	if err := Validate.RegisterValidation("goal_status", validateGoalStatus); err != nil {
		panic(fmt.Sprintf("failed to register goal_status validator: %v", err))
	}
}

// validateFrequency validates that a string is a valid ReminderFrequency enum value
func validateFrequency(fl validator.FieldLevel) bool {
	switch models.ReminderFrequency(fl.Field().String()) {
	case models.FrequencyWeekly, models.FrequencyBiweekly, models.FrequencyMonthly, models.FrequencyQuarterly:
		return true
	default:
		return false
	}
}

// validateGoalStatus validates that a string is a valid GoalStatus enum value
func validateGoalStatus(fl validator.FieldLevel) bool {
	switch models.GoalStatus(fl.Field().String()) {
	case models.GoalStatusNotStarted, models.GoalStatusInProgress, models.GoalStatusCompleted:
		return true
	default:
		return false
	}
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateFrequency validates a ReminderFrequency string value
func ValidateFrequency(value string) error {
	switch models.ReminderFrequency(value) {
	case models.FrequencyWeekly, models.FrequencyBiweekly, models.FrequencyMonthly, models.FrequencyQuarterly:
		return nil
	default:
		return fmt.Errorf("invalid frequency: %s (must be 'weekly', 'biweekly', 'monthly', or 'quarterly')", value)
	}
}

// ValidateGoalStatus validates a GoalStatus string value
func ValidateGoalStatus(value string) error {
	switch models.GoalStatus(value) {
	case models.GoalStatusNotStarted, models.GoalStatusInProgress, models.GoalStatusCompleted:
		return nil
	default:
		return fmt.Errorf("invalid status: %s (must be 'not_started', 'in_progress', or 'completed')", value)
	}
}
