package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/solidoro/bmw-admin/internal/models"
)

// PreferenceStore reads and writes the persisted tab of a user.
type PreferenceStore interface {
	Get(ctx context.Context, subject string) (*models.AdminPreference, error)
	SaveTab(ctx context.Context, subject, tab string) error
}

// ShellService remembers which section each user last had open.
type ShellService struct {
	store PreferenceStore
}

// NewShellService constructs a ShellService.
func NewShellService(store PreferenceStore) *ShellService {
	return &ShellService{store: store}
}

// ActiveTab returns the stored tab of subject. Missing, unreadable or
// unknown values resolve to the default tab.
func (s *ShellService) ActiveTab(ctx context.Context, subject string) models.Tab {
	p, err := s.store.Get(ctx, subject)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Warn().Err(err).Str("subject", subject).Msg("Failed to load tab preference")
		}
		return models.DefaultTab
	}
	return models.ParseTab(p.ActiveTab)
}

// Activate persists tab for subject. Unknown tabs are rejected.
func (s *ShellService) Activate(ctx context.Context, subject string, tab models.Tab) error {
	if !tab.Valid() {
		return invalid("tab", "Unknown tab")
	}
	return s.store.SaveTab(ctx, subject, string(tab))
}
