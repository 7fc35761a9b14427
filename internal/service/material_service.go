package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/solidoro/bmw-admin/internal/allocator"
	"github.com/solidoro/bmw-admin/pkg/catalogapi"
)

const (
	// MaxImages caps the images accepted per material: one main image plus
	// up to four gallery images.
	MaxImages  = 5
	MaxGallery = MaxImages - 1
)

// MaterialAPI is the upstream surface the material editor needs.
type MaterialAPI interface {
	ListMaterials(ctx context.Context) ([]catalogapi.Material, error)
	CreateMaterial(ctx context.Context, form *catalogapi.Form) (*catalogapi.Material, error)
	UpdateMaterial(ctx context.Context, code string, form *catalogapi.Form) (*catalogapi.Material, error)
	DeleteMaterial(ctx context.Context, code string) error
}

// ReferenceAPI lists the categories and series materials refer to.
type ReferenceAPI interface {
	ListCategories(ctx context.Context) ([]catalogapi.Category, error)
	ListSeries(ctx context.Context) ([]catalogapi.Series, error)
}

// MaterialService validates material drafts and forwards them upstream.
type MaterialService struct {
	api       MaterialAPI
	refs      ReferenceAPI
	allocator *allocator.Allocator
}

// NewMaterialService constructs a MaterialService.
func NewMaterialService(api MaterialAPI, refs ReferenceAPI) *MaterialService {
	return &MaterialService{
		api:       api,
		refs:      refs,
		allocator: allocator.New(api),
	}
}

// MaterialDraft is the operator's form state for a create or edit.
type MaterialDraft struct {
	Code        string
	Name        string
	Category    string
	Series      string
	Price       catalogapi.OptionalString
	Description string
	Specs       []catalogapi.Spec
	// Images holds newly chosen files in display order. The first becomes
	// the main image and the rest the gallery.
	Images []*catalogapi.File
}

// FormOptions feeds the category and series pickers of the upload form.
type FormOptions struct {
	Categories   []string              `json:"categories"`
	Series       []string              `json:"series"`
	CategoryData []catalogapi.Category `json:"categoryData"`
}

// List fetches every material.
func (s *MaterialService) List(ctx context.Context) ([]catalogapi.Material, error) {
	return s.api.ListMaterials(ctx)
}

// FormOptions fetches categories and series together and returns their
// names sorted.
func (s *MaterialService) FormOptions(ctx context.Context) (*FormOptions, error) {
	var (
		categories []catalogapi.Category
		series     []catalogapi.Series
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		categories, err = s.refs.ListCategories(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		series, err = s.refs.ListSeries(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	opts := &FormOptions{
		Categories:   make([]string, 0, len(categories)),
		Series:       make([]string, 0, len(series)),
		CategoryData: categories,
	}
	for _, c := range categories {
		opts.Categories = append(opts.Categories, c.Category)
	}
	for _, sr := range series {
		opts.Series = append(opts.Series, sr.Name)
	}
	sort.Strings(opts.Categories)
	sort.Strings(opts.Series)
	return opts, nil
}

// ProposeCode asks the allocator for the next code in category, resolving
// the prefix against the given loaded categories.
func (s *MaterialService) ProposeCode(ctx context.Context, category string, categories []catalogapi.Category) (allocator.Proposal, error) {
	return s.allocator.NextCode(ctx, category, categories)
}

// Create validates the draft and uploads it. A blank code is allocated
// first from categories.
func (s *MaterialService) Create(ctx context.Context, d *MaterialDraft, categories []catalogapi.Category) (*catalogapi.Material, error) {
	if strings.TrimSpace(d.Category) == "" {
		return nil, invalid("category", "Please select a category before uploading.")
	}
	if strings.TrimSpace(d.Name) == "" {
		return nil, invalid("name", "Please enter a material name")
	}
	if strings.TrimSpace(d.Description) == "" {
		return nil, invalid("description", "Please enter a description")
	}
	if len(d.Images) == 0 {
		return nil, invalid("images", "Please select at least one image")
	}
	if err := inspectImages(d.Images); err != nil {
		return nil, err
	}

	code := strings.TrimSpace(d.Code)
	if code == "" {
		p, err := s.allocator.NextCode(ctx, d.Category, categories)
		if err != nil {
			return nil, fmt.Errorf("allocate code: %w", err)
		}
		code = p.Code
	}

	specs, err := encodeSpecs(d.Specs)
	if err != nil {
		return nil, err
	}

	form := catalogapi.NewForm().
		Set("code", code).
		Set("name", d.Name).
		Set("category", d.Category).
		SetIf("series", d.Series)
	if !d.Price.IsBlank() {
		form.Set("price", d.Price.Value)
	}
	form.Set("description", d.Description).Set("specs", specs)
	attachImages(form, d.Images)

	m, err := s.api.CreateMaterial(ctx, form)
	if err != nil {
		return nil, err
	}
	log.Info().Str("code", code).Str("category", d.Category).Int("images", min(len(d.Images), MaxImages)).Msg("Material created")
	return m, nil
}

// Update replaces the mutable fields of the material identified by code.
// The code itself is never resent. Price is always sent so that clearing it
// upstream is possible.
func (s *MaterialService) Update(ctx context.Context, code string, d *MaterialDraft) (*catalogapi.Material, error) {
	if strings.TrimSpace(d.Name) == "" {
		return nil, invalid("name", "Please enter a material name")
	}
	if strings.TrimSpace(d.Category) == "" {
		return nil, invalid("category", "Please select a category")
	}
	if err := inspectImages(d.Images); err != nil {
		return nil, err
	}

	specs, err := encodeSpecs(d.Specs)
	if err != nil {
		return nil, err
	}

	form := catalogapi.NewForm().
		Set("name", d.Name).
		Set("category", d.Category).
		SetIf("series", d.Series).
		Set("price", d.Price.Value).
		Set("description", d.Description).
		Set("specs", specs)
	attachImages(form, d.Images)

	m, err := s.api.UpdateMaterial(ctx, code, form)
	if err != nil {
		return nil, err
	}
	log.Info().Str("code", code).Msg("Material updated")
	return m, nil
}

// Delete removes the material identified by code.
func (s *MaterialService) Delete(ctx context.Context, code string) error {
	if err := s.api.DeleteMaterial(ctx, code); err != nil {
		return err
	}
	log.Info().Str("code", code).Msg("Material deleted")
	return nil
}

func inspectImages(images []*catalogapi.File) error {
	for i, img := range images {
		if i >= MaxImages {
			break
		}
		if err := InspectImage("images", img); err != nil {
			return err
		}
	}
	return nil
}

// attachImages maps the first image to "image" and up to MaxGallery more to
// repeated "gallery" parts. Extra images are dropped.
func attachImages(form *catalogapi.Form, images []*catalogapi.File) {
	if len(images) == 0 {
		return
	}
	if len(images) > MaxImages {
		log.Warn().Int("images", len(images)).Msg("Dropping images beyond the gallery limit")
		images = images[:MaxImages]
	}
	form.Attach("image", images[0])
	for _, g := range images[1:] {
		form.Attach("gallery", g)
	}
}

func encodeSpecs(specs []catalogapi.Spec) (string, error) {
	if specs == nil {
		specs = []catalogapi.Spec{}
	}
	b, err := json.Marshal(specs)
	if err != nil {
		return "", fmt.Errorf("failed to encode specs: %w", err)
	}
	return string(b), nil
}

// AddSpec appends an empty row.
func AddSpec(specs []catalogapi.Spec) []catalogapi.Spec {
	return append(specs, catalogapi.Spec{})
}

// RemoveSpec drops the row at i. Out-of-range indexes are ignored.
func RemoveSpec(specs []catalogapi.Spec, i int) []catalogapi.Spec {
	if i < 0 || i >= len(specs) {
		return specs
	}
	out := make([]catalogapi.Spec, 0, len(specs)-1)
	out = append(out, specs[:i]...)
	return append(out, specs[i+1:]...)
}

// UpdateSpec sets the label or value of row i.
func UpdateSpec(specs []catalogapi.Spec, i int, field, value string) ([]catalogapi.Spec, error) {
	if i < 0 || i >= len(specs) {
		return specs, invalid("specs", fmt.Sprintf("spec row %d does not exist", i))
	}
	out := append([]catalogapi.Spec(nil), specs...)
	switch field {
	case "label":
		out[i].Label = value
	case "value":
		out[i].Value = value
	default:
		return specs, invalid("specs", fmt.Sprintf("unknown spec field %q", field))
	}
	return out, nil
}
