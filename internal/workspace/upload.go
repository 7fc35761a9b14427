package workspace

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/solidoro/bmw-admin/internal/allocator"
	"github.com/solidoro/bmw-admin/internal/service"
	"github.com/solidoro/bmw-admin/pkg/catalogapi"
)

// UploadForm backs the "add material" form: the picker options and the
// code proposal that follows the chosen category.
type UploadForm struct {
	svc *service.MaterialService

	mu      sync.Mutex
	options *service.FormOptions
}

func newUploadForm(svc *service.MaterialService) *UploadForm {
	return &UploadForm{svc: svc}
}

// Reload refetches categories and series. On failure the previous options
// stay in place.
func (u *UploadForm) Reload(ctx context.Context) (*service.FormOptions, error) {
	opts, err := u.svc.FormOptions(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch upload form options")
		return u.current(), err
	}
	u.mu.Lock()
	u.options = opts
	u.mu.Unlock()
	return opts, nil
}

// Options returns the loaded options, fetching them on first use.
func (u *UploadForm) Options(ctx context.Context) (*service.FormOptions, error) {
	if opts := u.current(); opts != nil {
		return opts, nil
	}
	return u.Reload(ctx)
}

// ProposeCode returns the next code for category. The prefix is resolved
// against the categories this form has loaded.
func (u *UploadForm) ProposeCode(ctx context.Context, category string) (allocator.Proposal, error) {
	return u.svc.ProposeCode(ctx, category, u.categories(ctx))
}

// Submit creates the material, allocating a code when the draft has none.
func (u *UploadForm) Submit(ctx context.Context, d *service.MaterialDraft) (*catalogapi.Material, error) {
	return u.svc.Create(ctx, d, u.categories(ctx))
}

// Invalidate drops the loaded options so the next use refetches them.
func (u *UploadForm) Invalidate() {
	u.mu.Lock()
	u.options = nil
	u.mu.Unlock()
}

func (u *UploadForm) current() *service.FormOptions {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.options
}

func (u *UploadForm) categories(ctx context.Context) []catalogapi.Category {
	opts, err := u.Options(ctx)
	if err != nil || opts == nil {
		return nil
	}
	return opts.CategoryData
}
