package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/northstarhq/northstar/internal/models"
)

// TeamInstallationRepository handles team installation database operations
type TeamInstallationRepository struct {
	db *DB
}

// NewTeamInstallationRepository creates a new team installation repository
func NewTeamInstallationRepository(db *DB) *TeamInstallationRepository {
	return &TeamInstallationRepository{db: db}
}

// Upsert records (or refreshes) the bot's installation in a team.
func (r *TeamInstallationRepository) Upsert(ctx context.Context, inst *models.TeamInstallation) error {
	query := `
		INSERT INTO team_installations (team_id, service_url, installed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (team_id) DO UPDATE SET
			service_url = EXCLUDED.service_url,
			installed_at = EXCLUDED.installed_at
	`

	if _, err := r.db.ExecContext(ctx, query, inst.TeamID, inst.ServiceURL, inst.InstalledAt); err != nil {
		return fmt.Errorf("failed to upsert team installation: %w", err)
	}
	return nil
}

// Get returns the installation record for a team, or nil when the bot is not
// installed there.
func (r *TeamInstallationRepository) Get(ctx context.Context, teamID string) (*models.TeamInstallation, error) {
	inst := &models.TeamInstallation{}
	query := `SELECT team_id, service_url, installed_at FROM team_installations WHERE team_id = $1`

	err := r.db.QueryRowContext(ctx, query, teamID).Scan(&inst.TeamID, &inst.ServiceURL, &inst.InstalledAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team installation: %w", err)
	}
	return inst, nil
}

// Delete removes the installation record when the bot leaves a team.
func (r *TeamInstallationRepository) Delete(ctx context.Context, teamID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM team_installations WHERE team_id = $1`, teamID); err != nil {
		return fmt.Errorf("failed to delete team installation: %w", err)
	}
	return nil
}
