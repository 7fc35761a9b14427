package workspace

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/solidoro/bmw-admin/internal/service"
	"github.com/solidoro/bmw-admin/internal/utils"
	"github.com/solidoro/bmw-admin/pkg/catalogapi"
)

// Layout is the materials list presentation.
type Layout string

const (
	LayoutList Layout = "list"
	LayoutGrid Layout = "grid"
)

// ParseLayout validates a layout name.
func ParseLayout(s string) (Layout, error) {
	switch l := Layout(s); l {
	case LayoutList, LayoutGrid:
		return l, nil
	}
	return "", fmt.Errorf("%w: %q", utils.ErrInvalidLayout, s)
}

// MaterialFilter narrows the materials list. Empty fields match everything.
type MaterialFilter struct {
	Category string `json:"category"`
	Series   string `json:"series"`
	Search   string `json:"search"`
}

// Facet groups the series seen under one category.
type Facet struct {
	Category string   `json:"category"`
	Series   []string `json:"series"`
}

// MaterialsView is a rendered snapshot of the board.
type MaterialsView struct {
	Items      []catalogapi.Material `json:"items"`
	Showing    int                   `json:"showing"`
	Total      int                   `json:"total"`
	Filter     MaterialFilter        `json:"filter"`
	Layout     Layout                `json:"layout"`
	Categories []string              `json:"categories"`
	Series     []string              `json:"series"`
	Facets     []Facet               `json:"facets"`
	Selected   *catalogapi.Material  `json:"selected,omitempty"`
	Stamp      int64                 `json:"stamp"`
	Stale      bool                  `json:"stale"`
	Error      string                `json:"error,omitempty"`
}

// MaterialsBoard holds one session's materials list with its filters,
// layout and selection.
type MaterialsBoard struct {
	svc   *service.MaterialService
	stamp *Stamp

	mu        sync.Mutex
	materials []catalogapi.Material
	filter    MaterialFilter
	layout    Layout
	selected  string
	lastErr   string
}

func newMaterialsBoard(svc *service.MaterialService, stamp *Stamp) *MaterialsBoard {
	return &MaterialsBoard{svc: svc, stamp: stamp, layout: LayoutList}
}

// Refresh refetches the list. On failure the previous list is kept and the
// error is remembered for the next view.
func (b *MaterialsBoard) Refresh(ctx context.Context) error {
	items, err := b.svc.List(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch materials")
		b.lastErr = err.Error()
		return err
	}
	for i := range items {
		if items[i].Specs == nil {
			items[i].Specs = catalogapi.SpecList{}
		}
	}
	b.materials = items
	b.lastErr = ""
	if b.selected != "" && b.indexOf(b.selected) < 0 {
		b.selected = ""
	}
	return nil
}

// FilterChange lists the filter fields a request sets. Nil fields keep
// their current value.
type FilterChange struct {
	Category *string
	Series   *string
	Search   *string
}

// ChangeFilter applies c. Switching category clears the series filter
// unless c also names a series.
func (b *MaterialsBoard) ChangeFilter(c FilterChange) MaterialFilter {
	b.mu.Lock()
	defer b.mu.Unlock()
	f := b.filter
	if c.Category != nil && *c.Category != f.Category {
		f.Category = *c.Category
		f.Series = ""
	}
	if c.Series != nil {
		f.Series = *c.Series
	}
	if c.Search != nil {
		f.Search = *c.Search
	}
	b.filter = f
	return f
}

// SetLayout switches between list and grid.
func (b *MaterialsBoard) SetLayout(l Layout) {
	b.mu.Lock()
	b.layout = l
	b.mu.Unlock()
}

// Select opens the detail view of code.
func (b *MaterialsBoard) Select(code string) (*catalogapi.Material, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.indexOf(code)
	if i < 0 {
		return nil, fmt.Errorf("%w: material %s", utils.ErrNotFound, code)
	}
	b.selected = code
	m := b.decorate(b.materials[i])
	return &m, nil
}

// ClearSelection closes the detail view.
func (b *MaterialsBoard) ClearSelection() {
	b.mu.Lock()
	b.selected = ""
	b.mu.Unlock()
}

// Update saves an edit and merges the returned record into the list
// without refetching. The stamp is bumped so replaced images reload.
func (b *MaterialsBoard) Update(ctx context.Context, code string, d *service.MaterialDraft) (*catalogapi.Material, error) {
	updated, err := b.svc.Update(ctx, code, d)
	if err != nil {
		return nil, err
	}
	if updated == nil || updated.Code == "" {
		if err := b.Refresh(ctx); err != nil {
			log.Warn().Err(err).Str("code", code).Msg("Refresh after update failed")
		}
		b.stamp.Bump()
		return b.Select(code)
	}
	if updated.Specs == nil {
		updated.Specs = catalogapi.SpecList{}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if i := b.indexOf(updated.Code); i >= 0 {
		b.materials[i] = *updated
	}
	b.stamp.Bump()
	m := b.decorate(*updated)
	return &m, nil
}

// Delete removes code upstream and then locally, clearing the selection
// when it pointed at the deleted material.
func (b *MaterialsBoard) Delete(ctx context.Context, code string) error {
	if err := b.svc.Delete(ctx, code); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := b.indexOf(code); i >= 0 {
		b.materials = append(b.materials[:i:i], b.materials[i+1:]...)
	}
	if b.selected == code {
		b.selected = ""
	}
	return nil
}

// View renders the filtered list.
func (b *MaterialsBoard) View() MaterialsView {
	b.mu.Lock()
	defer b.mu.Unlock()

	visible := FilterMaterials(b.materials, b.filter)
	items := make([]catalogapi.Material, len(visible))
	for i, m := range visible {
		items[i] = b.decorate(m)
	}

	facets := BuildFacets(b.materials)
	categories := make([]string, len(facets))
	for i, f := range facets {
		categories[i] = f.Category
	}

	v := MaterialsView{
		Items:      items,
		Showing:    len(items),
		Total:      len(b.materials),
		Filter:     b.filter,
		Layout:     b.layout,
		Categories: categories,
		Series:     availableSeries(b.materials, b.filter.Category),
		Facets:     facets,
		Stamp:      b.stamp.Value(),
		Stale:      b.lastErr != "",
		Error:      b.lastErr,
	}
	if i := b.indexOf(b.selected); i >= 0 {
		m := b.decorate(b.materials[i])
		v.Selected = &m
	}
	return v
}

func (b *MaterialsBoard) indexOf(code string) int {
	if code == "" {
		return -1
	}
	for i := range b.materials {
		if b.materials[i].Code == code {
			return i
		}
	}
	return -1
}

func (b *MaterialsBoard) decorate(m catalogapi.Material) catalogapi.Material {
	stamp := b.stamp.Value()
	m.Image = Bust(m.Image, stamp)
	if len(m.Gallery) > 0 {
		gallery := make([]string, len(m.Gallery))
		for i, g := range m.Gallery {
			gallery[i] = Bust(g, stamp)
		}
		m.Gallery = gallery
	}
	return m
}

// FilterMaterials keeps the materials matching every set field of f, in
// input order. Category and series match exactly; search is a
// case-insensitive substring of name or code.
func FilterMaterials(materials []catalogapi.Material, f MaterialFilter) []catalogapi.Material {
	search := strings.ToLower(f.Search)
	out := make([]catalogapi.Material, 0, len(materials))
	for _, m := range materials {
		if f.Category != "" && m.Category != f.Category {
			continue
		}
		if f.Series != "" && m.SeriesName() != f.Series {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(m.Name), search) &&
			!strings.Contains(strings.ToLower(m.Code), search) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// BuildFacets groups the series of the loaded materials by category. Both
// levels are sorted.
func BuildFacets(materials []catalogapi.Material) []Facet {
	byCategory := map[string]map[string]struct{}{}
	for _, m := range materials {
		if m.Category == "" {
			continue
		}
		set, ok := byCategory[m.Category]
		if !ok {
			set = map[string]struct{}{}
			byCategory[m.Category] = set
		}
		if s := m.SeriesName(); s != "" {
			set[s] = struct{}{}
		}
	}

	facets := make([]Facet, 0, len(byCategory))
	for category, set := range byCategory {
		facets = append(facets, Facet{Category: category, Series: sortedKeys(set)})
	}
	sort.Slice(facets, func(i, j int) bool { return facets[i].Category < facets[j].Category })
	return facets
}

// availableSeries lists the series offered by the series filter: those of
// category when one is chosen, every series otherwise.
func availableSeries(materials []catalogapi.Material, category string) []string {
	set := map[string]struct{}{}
	for _, m := range materials {
		if category != "" && m.Category != category {
			continue
		}
		if s := m.SeriesName(); s != "" {
			set[s] = struct{}{}
		}
	}
	return sortedKeys(set)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
