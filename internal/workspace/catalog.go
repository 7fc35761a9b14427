package workspace

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/solidoro/bmw-admin/internal/service"
	"github.com/solidoro/bmw-admin/pkg/catalogapi"
)

// CategoriesView is a rendered snapshot of the category board.
type CategoriesView struct {
	Items []catalogapi.Category `json:"items"`
	Stamp int64                 `json:"stamp"`
	Stale bool                  `json:"stale"`
	Error string                `json:"error,omitempty"`
}

// CategoryBoard holds one session's category list.
type CategoryBoard struct {
	svc    *service.CategoryService
	stamp  *Stamp
	upload *UploadForm

	mu      sync.Mutex
	items   []catalogapi.Category
	lastErr string
}

func newCategoryBoard(svc *service.CategoryService, stamp *Stamp, upload *UploadForm) *CategoryBoard {
	return &CategoryBoard{svc: svc, stamp: stamp, upload: upload}
}

// Refresh refetches the list, keeping the previous one on failure.
func (b *CategoryBoard) Refresh(ctx context.Context) error {
	items, err := b.svc.List(ctx)
	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch categories")
		b.lastErr = err.Error()
		return err
	}
	b.items, b.lastErr = items, ""
	return nil
}

// Create saves a new category, then refetches and bumps the stamp.
func (b *CategoryBoard) Create(ctx context.Context, d *service.CategoryDraft) error {
	if err := b.svc.Create(ctx, d); err != nil {
		return err
	}
	b.afterWrite(ctx)
	return nil
}

// Update edits category id, then refetches and bumps the stamp.
func (b *CategoryBoard) Update(ctx context.Context, id int, d *service.CategoryDraft) error {
	if err := b.svc.Update(ctx, id, d); err != nil {
		return err
	}
	b.afterWrite(ctx)
	return nil
}

// Delete removes category id upstream and from the local list.
func (b *CategoryBoard) Delete(ctx context.Context, id int) error {
	if err := b.svc.Delete(ctx, id); err != nil {
		return err
	}
	b.upload.Invalidate()
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.items {
		if b.items[i].ID == id {
			b.items = append(b.items[:i:i], b.items[i+1:]...)
			break
		}
	}
	return nil
}

// View renders the list with cache-busted image URLs.
func (b *CategoryBoard) View() CategoriesView {
	b.mu.Lock()
	defer b.mu.Unlock()
	stamp := b.stamp.Value()
	items := make([]catalogapi.Category, len(b.items))
	for i, c := range b.items {
		c.Image = Bust(c.Image, stamp)
		items[i] = c
	}
	return CategoriesView{Items: items, Stamp: stamp, Stale: b.lastErr != "", Error: b.lastErr}
}

func (b *CategoryBoard) afterWrite(ctx context.Context) {
	if err := b.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("Refresh after category write failed")
	}
	b.stamp.Bump()
	// Prefixes may have changed under the upload form's code proposals.
	b.upload.Invalidate()
}

// SeriesView is a rendered snapshot of the series board.
type SeriesView struct {
	Items []catalogapi.Series `json:"items"`
	Stamp int64               `json:"stamp"`
	Stale bool                `json:"stale"`
	Error string              `json:"error,omitempty"`
}

// SeriesBoard holds one session's series list.
type SeriesBoard struct {
	svc    *service.SeriesService
	stamp  *Stamp
	upload *UploadForm

	mu      sync.Mutex
	items   []catalogapi.Series
	lastErr string
}

func newSeriesBoard(svc *service.SeriesService, stamp *Stamp, upload *UploadForm) *SeriesBoard {
	return &SeriesBoard{svc: svc, stamp: stamp, upload: upload}
}

// Refresh refetches the list, keeping the previous one on failure.
func (b *SeriesBoard) Refresh(ctx context.Context) error {
	items, err := b.svc.List(ctx)
	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch series")
		b.lastErr = err.Error()
		return err
	}
	b.items, b.lastErr = items, ""
	return nil
}

// Create saves a new series and refetches.
func (b *SeriesBoard) Create(ctx context.Context, d *service.SeriesDraft) error {
	if err := b.svc.Create(ctx, d); err != nil {
		return err
	}
	b.afterWrite(ctx)
	return nil
}

// Update edits series id and refetches.
func (b *SeriesBoard) Update(ctx context.Context, id int, d *service.SeriesDraft) error {
	if err := b.svc.Update(ctx, id, d); err != nil {
		return err
	}
	b.afterWrite(ctx)
	return nil
}

// Delete removes series id upstream and from the local list.
func (b *SeriesBoard) Delete(ctx context.Context, id int) error {
	if err := b.svc.Delete(ctx, id); err != nil {
		return err
	}
	b.upload.Invalidate()
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.items {
		if b.items[i].ID == id {
			b.items = append(b.items[:i:i], b.items[i+1:]...)
			break
		}
	}
	return nil
}

// View renders the list with cache-busted document URLs.
func (b *SeriesBoard) View() SeriesView {
	b.mu.Lock()
	defer b.mu.Unlock()
	stamp := b.stamp.Value()
	items := make([]catalogapi.Series, len(b.items))
	for i, s := range b.items {
		s.PDF = Bust(s.PDF, stamp)
		items[i] = s
	}
	return SeriesView{Items: items, Stamp: stamp, Stale: b.lastErr != "", Error: b.lastErr}
}

func (b *SeriesBoard) afterWrite(ctx context.Context) {
	if err := b.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("Refresh after series write failed")
	}
	b.stamp.Bump()
	b.upload.Invalidate()
}
