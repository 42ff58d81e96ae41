package workers

import (
	"time"

	"github.com/northstarhq/northstar/internal/models"
)

// Classification rules, re-derived every pass from the calendar. There is
// no stored "next fire" state. Weekly reminders go out on the first day of
// the business week (Monday). Expired takes precedence over near-expiry,
// which takes precedence over the frequency bucket.

// DateUTC truncates t to its UTC calendar date.
func DateUTC(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DueFrequencies returns the frequency buckets whose trigger day matches
// today (a UTC date).
func DueFrequencies(today time.Time) []models.ReminderFrequency {
	today = DateUTC(today)

	var due []models.ReminderFrequency
	if today.Weekday() == time.Monday {
		due = append(due, models.FrequencyWeekly)
	}
	switch today.Day() {
	case 1:
		due = append(due, models.FrequencyBiweekly, models.FrequencyMonthly)
		switch today.Month() {
		case time.January, time.April, time.July, time.October:
			due = append(due, models.FrequencyQuarterly)
		}
	case 16:
		due = append(due, models.FrequencyBiweekly)
	}
	return due
}

// Classify determines which reminder kind, if any, applies to a goal today.
// A cycle that ended yesterday is Expired regardless of frequency; a cycle
// ending in exactly three days is NearExpiry even when the frequency bucket
// also matches.
func Classify(endDateUTC time.Time, frequency models.ReminderFrequency, today time.Time) (models.ReminderKind, bool) {
	today = DateUTC(today)
	end := DateUTC(endDateUTC)

	switch {
	case end.Equal(today.AddDate(0, 0, -1)):
		return models.ReminderKindExpired, true
	case end.Equal(today.AddDate(0, 0, 3)):
		return models.ReminderKindNearExpiry, true
	case frequencyDue(frequency, today):
		return models.ReminderKindFrequency, true
	}
	return "", false
}

func frequencyDue(frequency models.ReminderFrequency, today time.Time) bool {
	for _, f := range DueFrequencies(today) {
		if f == frequency {
			return true
		}
	}
	return false
}
