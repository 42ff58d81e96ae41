package models

// ReminderKind classifies why a goal is being notified on a given day.
type ReminderKind string

const (
	// ReminderKindFrequency is the routine reminder for the goal's frequency bucket
	ReminderKindFrequency ReminderKind = "frequency"
	// ReminderKindNearExpiry fires exactly three days before cycle end
	ReminderKindNearExpiry ReminderKind = "near_expiry"
	// ReminderKindExpired means the cycle ended yesterday and the goal must be closed
	ReminderKindExpired ReminderKind = "expired"
)
