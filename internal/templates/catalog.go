// Package templates holds the reminder message catalog. Texts live in an
// embedded YAML file so wording changes never touch dispatch logic.
package templates

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"github.com/northstarhq/northstar/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed messages.yaml
var messagesYAML []byte

// NearExpiryDays is how many days before cycle end the near-expiry warning fires.
const NearExpiryDays = 3

// Catalog resolves reminder texts by audience and reminder kind.
type Catalog struct {
	Personal map[string]string `yaml:"personal"`
	Team     map[string]string `yaml:"team"`
}

// Load parses the embedded message catalog.
func Load() (*Catalog, error) {
	c := &Catalog{}
	if err := yaml.Unmarshal(messagesYAML, c); err != nil {
		return nil, fmt.Errorf("failed to parse message catalog: %w", err)
	}
	for _, kind := range []models.ReminderKind{models.ReminderKindFrequency, models.ReminderKindNearExpiry, models.ReminderKindExpired} {
		if c.Personal[string(kind)] == "" {
			return nil, fmt.Errorf("message catalog missing personal text for kind %q", kind)
		}
		if c.Team[string(kind)] == "" {
			return nil, fmt.Errorf("message catalog missing team text for kind %q", kind)
		}
	}
	return c, nil
}

// PersonalText returns the reminder line for a personal goal.
func (c *Catalog) PersonalText(kind models.ReminderKind, goalName string) string {
	return render(c.Personal[string(kind)], goalName)
}

// TeamText returns the reminder line for a team goal.
func (c *Catalog) TeamText(kind models.ReminderKind, goalName string) string {
	return render(c.Team[string(kind)], goalName)
}

func render(tmpl, goalName string) string {
	s := strings.ReplaceAll(tmpl, "{goal}", goalName)
	s = strings.ReplaceAll(s, "{days}", strconv.Itoa(NearExpiryDays))
	return s
}
