package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/solidoro/bmw-admin/internal/models"
)

type memPrefs struct {
	tabs map[string]string
	err  error
}

func (m *memPrefs) Get(ctx context.Context, subject string) (*models.AdminPreference, error) {
	if m.err != nil {
		return nil, m.err
	}
	tab, ok := m.tabs[subject]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.AdminPreference{Subject: subject, ActiveTab: tab}, nil
}

func (m *memPrefs) SaveTab(ctx context.Context, subject, tab string) error {
	if m.err != nil {
		return m.err
	}
	m.tabs[subject] = tab
	return nil
}

func TestActiveTabDefaults(t *testing.T) {
	store := &memPrefs{tabs: map[string]string{"u2": "settings"}}
	svc := NewShellService(store)

	if got := svc.ActiveTab(context.Background(), "u1"); got != models.TabMaterials {
		t.Errorf("Expected default tab, got %s", got)
	}
	if got := svc.ActiveTab(context.Background(), "u2"); got != models.TabMaterials {
		t.Errorf("Expected unknown stored tab to fall back, got %s", got)
	}

	store.err = errors.New("db down")
	if got := svc.ActiveTab(context.Background(), "u1"); got != models.TabMaterials {
		t.Errorf("Expected default on store failure, got %s", got)
	}
}

func TestActivatePersists(t *testing.T) {
	store := &memPrefs{tabs: map[string]string{}}
	svc := NewShellService(store)

	if err := svc.Activate(context.Background(), "u1", models.TabMessages); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got := svc.ActiveTab(context.Background(), "u1"); got != models.TabMessages {
		t.Errorf("Expected messages, got %s", got)
	}
	if _, ok := IsValidation(svc.Activate(context.Background(), "u1", "reports")); !ok {
		t.Error("Expected unknown tab to be rejected")
	}
}
