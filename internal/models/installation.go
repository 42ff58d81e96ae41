package models

import "time"

// TeamInstallation records where the bot was added to a team conversation.
// It is created on install, deleted on uninstall, and used to resolve the
// service URL for team reminder delivery.
type TeamInstallation struct {
	TeamID      string    `json:"team_id"`
	ServiceURL  string    `json:"service_url"`
	InstalledAt time.Time `json:"installed_at"`
}
