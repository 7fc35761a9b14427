package service

import (
	"context"
	"strings"
	"unicode"

	"github.com/rs/zerolog/log"

	"github.com/solidoro/bmw-admin/pkg/catalogapi"
)

// CategoryAPI is the upstream surface for categories.
type CategoryAPI interface {
	ListCategories(ctx context.Context) ([]catalogapi.Category, error)
	CreateCategory(ctx context.Context, form *catalogapi.Form) error
	UpdateCategory(ctx context.Context, id int, form *catalogapi.Form) error
	DeleteCategory(ctx context.Context, id int) error
}

// CategoryService validates category drafts and forwards them upstream.
type CategoryService struct {
	api CategoryAPI
}

// NewCategoryService constructs a CategoryService.
func NewCategoryService(api CategoryAPI) *CategoryService {
	return &CategoryService{api: api}
}

// CategoryDraft is the operator's form state for a category.
type CategoryDraft struct {
	Category    string
	Description string
	Prefix      string
	Image       *catalogapi.File
}

// List fetches every category.
func (s *CategoryService) List(ctx context.Context) ([]catalogapi.Category, error) {
	return s.api.ListCategories(ctx)
}

// Create validates and uploads a new category. An image is mandatory.
func (s *CategoryService) Create(ctx context.Context, d *CategoryDraft) error {
	form, err := s.form(d, true)
	if err != nil {
		return err
	}
	if err := s.api.CreateCategory(ctx, form); err != nil {
		return err
	}
	log.Info().Str("category", d.Category).Msg("Category created")
	return nil
}

// Update edits category id. The image is replaced only when one is given.
func (s *CategoryService) Update(ctx context.Context, id int, d *CategoryDraft) error {
	form, err := s.form(d, false)
	if err != nil {
		return err
	}
	if err := s.api.UpdateCategory(ctx, id, form); err != nil {
		return err
	}
	log.Info().Int("id", id).Msg("Category updated")
	return nil
}

// Delete removes category id. Materials that reference it by name are left
// as they are.
func (s *CategoryService) Delete(ctx context.Context, id int) error {
	if err := s.api.DeleteCategory(ctx, id); err != nil {
		return err
	}
	log.Info().Int("id", id).Msg("Category deleted")
	return nil
}

func (s *CategoryService) form(d *CategoryDraft, create bool) (*catalogapi.Form, error) {
	if strings.TrimSpace(d.Category) == "" || strings.TrimSpace(d.Description) == "" {
		return nil, invalid("category", "Please fill in all required fields")
	}
	if create && d.Image == nil {
		return nil, invalid("image", "Please select an image")
	}
	if d.Image != nil {
		if err := InspectImage("image", d.Image); err != nil {
			return nil, err
		}
	}

	prefix, err := NormalizePrefix(d.Prefix)
	if err != nil {
		return nil, err
	}

	return catalogapi.NewForm().
		Set("category", d.Category).
		Set("description", d.Description).
		SetIf("prefix", prefix).
		Attach("image", d.Image), nil
}

// NormalizePrefix upper-cases a code prefix. An empty prefix is allowed and
// means "derive from the category name"; otherwise it must be 2 or 3 letters.
func NormalizePrefix(raw string) (string, error) {
	p := strings.ToUpper(strings.TrimSpace(raw))
	if p == "" {
		return "", nil
	}
	n := 0
	for _, r := range p {
		if !unicode.IsLetter(r) {
			return "", invalid("prefix", "Prefix may only contain letters")
		}
		n++
	}
	if n < 2 || n > 3 {
		return "", invalid("prefix", "Prefix must be 2 or 3 letters")
	}
	return p, nil
}
