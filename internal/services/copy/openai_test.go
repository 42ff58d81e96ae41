package copy

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/northstarhq/northstar/internal/models"
)

func TestTruncateKeepsRuneBoundaries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		max  int
		want string
	}{
		{
			name: "under the cap",
			text: "short",
			max:  10,
			want: "short",
		},
		{
			name: "ascii at the cap",
			text: "exactly",
			max:  7,
			want: "exactly",
		},
		{
			name: "ascii over the cap",
			text: "truncated here",
			max:  9,
			want: "truncated",
		},
		{
			name: "cap inside a multi-byte rune",
			text: "goal: 目標",
			max:  7, // one byte into the first three-byte rune
			want: "goal: ",
		},
		{
			name: "emoji at the cap",
			text: "🎯🎯",
			max:  6, // halfway through the second four-byte emoji
			want: "🎯",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := truncate(tt.text, tt.max)
			if got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.text, tt.max, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("truncate(%q, %d) produced invalid UTF-8", tt.text, tt.max)
			}
		})
	}
}

func TestUserPromptIncludesGoalAndTemplate(t *testing.T) {
	t.Parallel()

	prompt := userPrompt("Check in on \"ship v2\".", "ship v2", models.ReminderKindFrequency)
	if !strings.Contains(prompt, "ship v2") {
		t.Error("prompt should contain the goal name")
	}
	if !strings.Contains(prompt, "Check in on") {
		t.Error("prompt should contain the templated line")
	}
}

func TestUserPromptTonePerKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind models.ReminderKind
		want string
	}{
		{models.ReminderKindFrequency, "routine"},
		{models.ReminderKindNearExpiry, "urgency"},
		{models.ReminderKindExpired, "wrap-up"},
	}

	for _, tt := range tests {
		prompt := userPrompt("base", "goal", tt.kind)
		if !strings.Contains(prompt, tt.want) {
			t.Errorf("prompt for %s should mention %q, got %q", tt.kind, tt.want, prompt)
		}
	}
}
