package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/solidoro/bmw-admin/internal/models"
)

// PreferenceRepository persists per-user dashboard preferences.
type PreferenceRepository struct {
	db *sqlx.DB
}

// NewPreferenceRepository creates a new PreferenceRepository.
func NewPreferenceRepository(db *sqlx.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// Get returns the preferences of subject, or sql.ErrNoRows when none were saved.
func (r *PreferenceRepository) Get(ctx context.Context, subject string) (*models.AdminPreference, error) {
	const q = `SELECT subject, active_tab, created_at, updated_at
		FROM admin_preferences WHERE subject = $1`

	var p models.AdminPreference
	if err := r.db.GetContext(ctx, &p, q, subject); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, err
	}
	return &p, nil
}

// SaveTab upserts the active tab of subject.
func (r *PreferenceRepository) SaveTab(ctx context.Context, subject, tab string) error {
	const q = `INSERT INTO admin_preferences (subject, active_tab)
		VALUES ($1, $2)
		ON CONFLICT (subject) DO UPDATE
		SET active_tab = EXCLUDED.active_tab, updated_at = NOW()`

	_, err := r.db.ExecContext(ctx, q, subject, tab)
	return err
}

// Ping checks that the preferences store is reachable.
func (r *PreferenceRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
