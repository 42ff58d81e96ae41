package workers

import (
	"testing"
	"time"

	"github.com/northstarhq/northstar/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDueFrequencies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		today time.Time
		want  []models.ReminderFrequency
	}{
		{
			name:  "plain weekday",
			today: date(2024, time.March, 5),
			want:  nil,
		},
		{
			name:  "monday triggers weekly",
			today: date(2024, time.March, 4),
			want:  []models.ReminderFrequency{models.FrequencyWeekly},
		},
		{
			name:  "first of a non-quarter month",
			today: date(2024, time.March, 1),
			want:  []models.ReminderFrequency{models.FrequencyBiweekly, models.FrequencyMonthly},
		},
		{
			name:  "sixteenth triggers biweekly only",
			today: date(2024, time.March, 16),
			want:  []models.ReminderFrequency{models.FrequencyBiweekly},
		},
		{
			name:  "quarter start on a monday triggers everything",
			today: date(2024, time.April, 1),
			want: []models.ReminderFrequency{
				models.FrequencyWeekly,
				models.FrequencyBiweekly,
				models.FrequencyMonthly,
				models.FrequencyQuarterly,
			},
		},
		{
			name:  "october first is a quarter start",
			today: date(2024, time.October, 1),
			want: []models.ReminderFrequency{
				models.FrequencyBiweekly,
				models.FrequencyMonthly,
				models.FrequencyQuarterly,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := DueFrequencies(tt.today)
			if len(got) != len(tt.want) {
				t.Fatalf("DueFrequencies(%s) = %v, want %v", tt.today.Format("2006-01-02"), got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("DueFrequencies(%s)[%d] = %s, want %s", tt.today.Format("2006-01-02"), i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	today := date(2024, time.March, 1)

	tests := []struct {
		name      string
		end       time.Time
		frequency models.ReminderFrequency
		wantKind  models.ReminderKind
		wantDue   bool
	}{
		{
			name:      "monthly due on the first",
			end:       date(2024, time.June, 30),
			frequency: models.FrequencyMonthly,
			wantKind:  models.ReminderKindFrequency,
			wantDue:   true,
		},
		{
			name:      "biweekly due on the first",
			end:       date(2024, time.June, 30),
			frequency: models.FrequencyBiweekly,
			wantKind:  models.ReminderKindFrequency,
			wantDue:   true,
		},
		{
			name:      "weekly not due off its trigger day",
			end:       date(2024, time.June, 30),
			frequency: models.FrequencyWeekly,
			wantDue:   false,
		},
		{
			name:      "quarterly not due outside quarter start",
			end:       date(2024, time.June, 30),
			frequency: models.FrequencyQuarterly,
			wantDue:   false,
		},
		{
			name:      "cycle ended yesterday is expired",
			end:       date(2024, time.February, 29),
			frequency: models.FrequencyWeekly,
			wantKind:  models.ReminderKindExpired,
			wantDue:   true,
		},
		{
			name:      "expired wins over a matching frequency bucket",
			end:       date(2024, time.February, 29),
			frequency: models.FrequencyMonthly,
			wantKind:  models.ReminderKindExpired,
			wantDue:   true,
		},
		{
			name:      "cycle ending in three days is near expiry",
			end:       date(2024, time.March, 4),
			frequency: models.FrequencyWeekly,
			wantKind:  models.ReminderKindNearExpiry,
			wantDue:   true,
		},
		{
			name:      "near expiry wins over a matching frequency bucket",
			end:       date(2024, time.March, 4),
			frequency: models.FrequencyMonthly,
			wantKind:  models.ReminderKindNearExpiry,
			wantDue:   true,
		},
		{
			name:      "end date two days out is not a trigger",
			end:       date(2024, time.March, 3),
			frequency: models.FrequencyWeekly,
			wantDue:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			kind, due := Classify(tt.end, tt.frequency, today)
			if due != tt.wantDue {
				t.Fatalf("Classify() due = %v, want %v", due, tt.wantDue)
			}
			if due && kind != tt.wantKind {
				t.Errorf("Classify() kind = %s, want %s", kind, tt.wantKind)
			}
		})
	}
}

func TestClassifyIgnoresTimeOfDay(t *testing.T) {
	t.Parallel()

	end := time.Date(2024, time.February, 29, 23, 45, 0, 0, time.UTC)
	now := time.Date(2024, time.March, 1, 6, 30, 0, 0, time.UTC)

	kind, due := Classify(end, models.FrequencyWeekly, now)
	if !due || kind != models.ReminderKindExpired {
		t.Fatalf("Classify() = (%s, %v), want (%s, true)", kind, due, models.ReminderKindExpired)
	}
}
