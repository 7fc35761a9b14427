package workspace

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/solidoro/bmw-admin/internal/service"
	"github.com/solidoro/bmw-admin/internal/utils"
	"github.com/solidoro/bmw-admin/pkg/catalogapi"
)

type fakeCatalog struct {
	materials  []catalogapi.Material
	categories []catalogapi.Category
	series     []catalogapi.Series
	messages   []catalogapi.Message

	listErr   error
	writeErr  error
	updated   *catalogapi.Material
	statusErr error
}

func (f *fakeCatalog) ListMaterials(ctx context.Context) ([]catalogapi.Material, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]catalogapi.Material(nil), f.materials...), nil
}

func (f *fakeCatalog) CreateMaterial(ctx context.Context, form *catalogapi.Form) (*catalogapi.Material, error) {
	return &catalogapi.Material{Code: form.Fields("code")[0]}, f.writeErr
}

func (f *fakeCatalog) UpdateMaterial(ctx context.Context, code string, form *catalogapi.Form) (*catalogapi.Material, error) {
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	return f.updated, nil
}

func (f *fakeCatalog) DeleteMaterial(ctx context.Context, code string) error { return f.writeErr }

func (f *fakeCatalog) ListCategories(ctx context.Context) ([]catalogapi.Category, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]catalogapi.Category(nil), f.categories...), nil
}

func (f *fakeCatalog) CreateCategory(ctx context.Context, form *catalogapi.Form) error {
	return f.writeErr
}

func (f *fakeCatalog) UpdateCategory(ctx context.Context, id int, form *catalogapi.Form) error {
	return f.writeErr
}

func (f *fakeCatalog) DeleteCategory(ctx context.Context, id int) error { return f.writeErr }

func (f *fakeCatalog) ListSeries(ctx context.Context) ([]catalogapi.Series, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]catalogapi.Series(nil), f.series...), nil
}

func (f *fakeCatalog) CreateSeries(ctx context.Context, form *catalogapi.Form) error {
	return f.writeErr
}

func (f *fakeCatalog) UpdateSeries(ctx context.Context, id int, form *catalogapi.Form) error {
	return f.writeErr
}

func (f *fakeCatalog) DeleteSeries(ctx context.Context, id int) error { return f.writeErr }

func (f *fakeCatalog) ListMessages(ctx context.Context) ([]catalogapi.Message, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]catalogapi.Message(nil), f.messages...), nil
}

func (f *fakeCatalog) SetMessageStatus(ctx context.Context, id int, done bool) error {
	return f.statusErr
}

func servicesFor(api *fakeCatalog) Services {
	return Services{
		Materials:  service.NewMaterialService(api, api),
		Categories: service.NewCategoryService(api),
		Series:     service.NewSeriesService(api),
		Messages:   service.NewMessageService(api),
	}
}

func str(s string) *string { return &s }

func sampleMaterials() []catalogapi.Material {
	return []catalogapi.Material{
		{Code: "P-001", Name: "Oak Panel", Category: "Panels", Series: str("Nordic"), Image: "https://cdn.example/p1.jpg"},
		{Code: "P-002", Name: "Pine Panel", Category: "Panels", Series: str("Alpine")},
		{Code: "RT-001", Name: "Clay Tile", Category: "Roof Tiles", Series: str("Terra"), Gallery: []string{"https://cdn.example/g.jpg?w=200"}},
		{Code: "RT-002", Name: "Oak-look Tile", Category: "Roof Tiles"},
	}
}

func newTestWorkspace(api *fakeCatalog) *Workspace {
	return newWorkspace("user_1", servicesFor(api), time.Now)
}

func TestCategoryFilterExcludesOtherCategories(t *testing.T) {
	got := FilterMaterials(sampleMaterials(), MaterialFilter{Category: "Panels", Search: "oak"})
	if len(got) != 1 || got[0].Code != "P-001" {
		t.Fatalf("Expected only P-001, got %+v", got)
	}
	for _, m := range FilterMaterials(sampleMaterials(), MaterialFilter{Category: "Panels"}) {
		if m.Category != "Panels" {
			t.Errorf("Unexpected category %s in filtered list", m.Category)
		}
	}
}

func TestSearchMatchesCodeCaseInsensitive(t *testing.T) {
	got := FilterMaterials(sampleMaterials(), MaterialFilter{Search: "rt-00"})
	if len(got) != 2 {
		t.Errorf("Expected 2 roof tiles, got %d", len(got))
	}
}

func TestRefreshTwiceIsStable(t *testing.T) {
	api := &fakeCatalog{materials: sampleMaterials()}
	ws := newTestWorkspace(api)

	if err := ws.Materials.Refresh(context.Background()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	first := ws.Materials.View().Items
	if err := ws.Materials.Refresh(context.Background()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	second := ws.Materials.View().Items
	if !reflect.DeepEqual(first, second) {
		t.Error("Expected identical lists across refreshes")
	}
	for i, m := range second {
		if m.Code != sampleMaterials()[i].Code {
			t.Errorf("Expected input order, got %s at %d", m.Code, i)
		}
	}
}

func TestRefreshFailureKeepsStaleList(t *testing.T) {
	api := &fakeCatalog{materials: sampleMaterials()}
	ws := newTestWorkspace(api)
	_ = ws.Materials.Refresh(context.Background())

	api.listErr = errors.New("upstream down")
	if err := ws.Materials.Refresh(context.Background()); err == nil {
		t.Fatal("Expected error")
	}
	v := ws.Materials.View()
	if v.Total != 4 || !v.Stale || v.Error == "" {
		t.Errorf("Expected stale list of 4 with error, got total=%d stale=%v err=%q", v.Total, v.Stale, v.Error)
	}
}

func TestFacetsAndAvailableSeries(t *testing.T) {
	facets := BuildFacets(sampleMaterials())
	if len(facets) != 2 || facets[0].Category != "Panels" {
		t.Fatalf("Unexpected facets %+v", facets)
	}
	if !reflect.DeepEqual(facets[0].Series, []string{"Alpine", "Nordic"}) {
		t.Errorf("Expected sorted series, got %v", facets[0].Series)
	}
	if got := availableSeries(sampleMaterials(), ""); len(got) != 3 {
		t.Errorf("Expected all 3 series without category, got %v", got)
	}
	if got := availableSeries(sampleMaterials(), "Roof Tiles"); !reflect.DeepEqual(got, []string{"Terra"}) {
		t.Errorf("Expected Terra only, got %v", got)
	}
}

func TestChangingCategoryResetsSeries(t *testing.T) {
	api := &fakeCatalog{materials: sampleMaterials()}
	ws := newTestWorkspace(api)
	_ = ws.Materials.Refresh(context.Background())

	ws.Materials.ChangeFilter(FilterChange{Category: str("Panels"), Series: str("Nordic")})
	f := ws.Materials.ChangeFilter(FilterChange{Category: str("Roof Tiles")})
	if f.Series != "" {
		t.Errorf("Expected series reset, got %q", f.Series)
	}
	f = ws.Materials.ChangeFilter(FilterChange{Series: str("Terra")})
	if f.Series != "Terra" || f.Category != "Roof Tiles" {
		t.Errorf("Expected Roof Tiles/Terra, got %+v", f)
	}
	if v := ws.Materials.View(); v.Showing != 1 || v.Total != 4 {
		t.Errorf("Expected showing 1 of 4, got %d of %d", v.Showing, v.Total)
	}
}

func TestCategoryChangeResetsSeriesEvenWhenShared(t *testing.T) {
	ws := newTestWorkspace(&fakeCatalog{})
	ws.Materials.ChangeFilter(FilterChange{Category: str("A"), Series: str("S1")})
	f := ws.Materials.ChangeFilter(FilterChange{Category: str("B")})
	if f.Series != "" {
		t.Errorf("Expected series cleared on category change, got %q", f.Series)
	}
}

func TestFilterWithCategoryAndSeriesOnEmptyBoard(t *testing.T) {
	ws := newTestWorkspace(&fakeCatalog{})
	f := ws.Materials.ChangeFilter(FilterChange{Category: str("Pipes"), Series: str("S1")})
	if f.Category != "Pipes" || f.Series != "S1" {
		t.Errorf("Expected Pipes/S1 kept before any list is loaded, got %+v", f)
	}
}

func TestSameCategoryKeepsSeries(t *testing.T) {
	ws := newTestWorkspace(&fakeCatalog{})
	ws.Materials.ChangeFilter(FilterChange{Category: str("A"), Series: str("S1")})
	f := ws.Materials.ChangeFilter(FilterChange{Category: str("A"), Search: str("pipe")})
	if f.Series != "S1" || f.Search != "pipe" {
		t.Errorf("Expected S1 kept with search, got %+v", f)
	}
}

func TestDeleteClearsSelection(t *testing.T) {
	api := &fakeCatalog{materials: sampleMaterials()}
	ws := newTestWorkspace(api)
	_ = ws.Materials.Refresh(context.Background())

	if _, err := ws.Materials.Select("P-002"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := ws.Materials.Delete(context.Background(), "P-002"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	v := ws.Materials.View()
	if v.Selected != nil {
		t.Error("Expected selection cleared")
	}
	if v.Total != 3 {
		t.Errorf("Expected 3 materials, got %d", v.Total)
	}
	if _, err := ws.Materials.Select("P-002"); !errors.Is(err, utils.ErrNotFound) {
		t.Errorf("Expected not found, got %v", err)
	}
}

func TestDeleteFailureKeepsState(t *testing.T) {
	api := &fakeCatalog{materials: sampleMaterials()}
	ws := newTestWorkspace(api)
	_ = ws.Materials.Refresh(context.Background())

	api.writeErr = errors.New("forbidden")
	if err := ws.Materials.Delete(context.Background(), "P-001"); err == nil {
		t.Fatal("Expected error")
	}
	if ws.Materials.View().Total != 4 {
		t.Error("Expected list unchanged after failed delete")
	}
}

func TestEditMergesAndBumpsStamp(t *testing.T) {
	api := &fakeCatalog{materials: sampleMaterials()}
	ws := newTestWorkspace(api)
	_ = ws.Materials.Refresh(context.Background())
	_, _ = ws.Materials.Select("P-001")
	before := ws.Stamp.Value()

	api.updated = &catalogapi.Material{Code: "P-001", Name: "Oak Panel XL", Category: "Panels", Image: "https://cdn.example/p1.jpg"}
	m, err := ws.Materials.Update(context.Background(), "P-001", &service.MaterialDraft{Name: "Oak Panel XL", Category: "Panels"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if m.Specs == nil {
		t.Error("Expected specs normalized to an empty list")
	}

	v := ws.Materials.View()
	if v.Stamp <= before {
		t.Errorf("Expected stamp bump, got %d after %d", v.Stamp, before)
	}
	if v.Selected == nil || v.Selected.Name != "Oak Panel XL" {
		t.Errorf("Expected selection to show merged record, got %+v", v.Selected)
	}
	if !strings.Contains(v.Selected.Image, "t=") {
		t.Errorf("Expected cache-busted image, got %s", v.Selected.Image)
	}
	if v.Total != 4 {
		t.Errorf("Expected no refetch-driven change, got %d", v.Total)
	}
}

func TestUploadProposesFromLoadedCategories(t *testing.T) {
	api := &fakeCatalog{
		materials:  sampleMaterials(),
		categories: []catalogapi.Category{{ID: 1, Category: "Panels", Prefix: "P"}, {ID: 2, Category: "Roof Tiles"}},
	}
	ws := newTestWorkspace(api)

	p, err := ws.Upload.ProposeCode(context.Background(), "Panels")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if p.Code != "P-003" {
		t.Errorf("Expected P-003, got %s", p.Code)
	}
	p, _ = ws.Upload.ProposeCode(context.Background(), "Roof Tiles")
	if p.Code != "RT-003" {
		t.Errorf("Expected RT-003, got %s", p.Code)
	}
	p, _ = ws.Upload.ProposeCode(context.Background(), "")
	if p.Code != "" {
		t.Errorf("Expected empty code for empty category, got %s", p.Code)
	}
}

func TestUploadOptionsKeepPreviousOnFailure(t *testing.T) {
	api := &fakeCatalog{categories: []catalogapi.Category{{Category: "Panels"}}, series: []catalogapi.Series{{Name: "Nordic"}}}
	ws := newTestWorkspace(api)
	if _, err := ws.Upload.Reload(context.Background()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	api.listErr = errors.New("down")
	opts, err := ws.Upload.Reload(context.Background())
	if err == nil {
		t.Fatal("Expected error")
	}
	if opts == nil || len(opts.Categories) != 1 {
		t.Errorf("Expected previous options, got %+v", opts)
	}
}

func TestCategoryBoardDeleteAndBust(t *testing.T) {
	api := &fakeCatalog{categories: []catalogapi.Category{
		{ID: 1, Category: "Panels", Image: "https://cdn.example/c1.png"},
		{ID: 2, Category: "Tiles"},
	}}
	ws := newTestWorkspace(api)
	_ = ws.Categories.Refresh(context.Background())

	v := ws.Categories.View()
	if !strings.HasPrefix(v.Items[0].Image, "https://cdn.example/c1.png?t=") {
		t.Errorf("Expected busted image, got %s", v.Items[0].Image)
	}
	if v.Items[1].Image != "" {
		t.Errorf("Expected empty image left alone, got %s", v.Items[1].Image)
	}
	if err := ws.Categories.Delete(context.Background(), 1); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got := ws.Categories.View().Items; len(got) != 1 || got[0].ID != 2 {
		t.Errorf("Expected only category 2, got %+v", got)
	}
}

func TestCategoryWriteBumpsStamp(t *testing.T) {
	api := &fakeCatalog{}
	ws := newTestWorkspace(api)
	before := ws.Stamp.Value()
	err := ws.Categories.Update(context.Background(), 1, &service.CategoryDraft{Category: "Panels", Description: "d"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if ws.Stamp.Value() <= before {
		t.Error("Expected stamp bump after category write")
	}
}

func TestSeriesValidationLeavesStampAlone(t *testing.T) {
	api := &fakeCatalog{}
	ws := newTestWorkspace(api)
	before := ws.Stamp.Value()
	if err := ws.Series.Create(context.Background(), &service.SeriesDraft{Name: "Zen"}); err == nil {
		t.Fatal("Expected missing PDF error")
	}
	if ws.Stamp.Value() != before {
		t.Error("Failed writes must not bump the stamp")
	}
}

func TestBust(t *testing.T) {
	if got := Bust("https://cdn.example/a.png?w=10", 42); got != "https://cdn.example/a.png?t=42&w=10" {
		t.Errorf("Unexpected busted URL %s", got)
	}
	if got := Bust("https://cdn.example/a.png?t=1", 2); got != "https://cdn.example/a.png?t=2" {
		t.Errorf("Expected t replaced, got %s", got)
	}
	if Bust("", 1) != "" {
		t.Error("Expected empty URL unchanged")
	}
}

func TestStampBumpIsMonotonic(t *testing.T) {
	fixed := time.UnixMilli(1000)
	s := newStamp(func() time.Time { return fixed })
	a := s.Bump()
	b := s.Bump()
	if !(b > a && a > 1000) {
		t.Errorf("Expected strictly increasing stamps, got %d then %d", a, b)
	}
}

func TestRegistrySweep(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	r := NewRegistry(servicesFor(&fakeCatalog{}))
	r.now = func() time.Time { return now }

	a := r.Acquire("alice")
	r.Acquire("bob")
	if r.Acquire("alice") != a {
		t.Error("Expected the same workspace for the same subject")
	}

	now = now.Add(20 * time.Minute)
	r.Acquire("bob")
	now = now.Add(15 * time.Minute)

	if removed := r.Sweep(30 * time.Minute); removed != 1 {
		t.Errorf("Expected 1 idle workspace removed, got %d", removed)
	}
	if r.Len() != 1 {
		t.Errorf("Expected bob to remain, got %d workspaces", r.Len())
	}
	if !r.Drop("bob") || r.Drop("bob") {
		t.Error("Expected drop to succeed exactly once")
	}
}

func TestCategoryWriteRefreshesCodePrefix(t *testing.T) {
	api := &fakeCatalog{
		materials:  sampleMaterials(),
		categories: []catalogapi.Category{{ID: 1, Category: "Panels", Prefix: "P"}},
	}
	ws := newTestWorkspace(api)

	p, _ := ws.Upload.ProposeCode(context.Background(), "Panels")
	if p.Code != "P-003" {
		t.Fatalf("Expected P-003, got %s", p.Code)
	}

	api.categories = []catalogapi.Category{{ID: 1, Category: "Panels", Prefix: "PN"}}
	err := ws.Categories.Update(context.Background(), 1, &service.CategoryDraft{Category: "Panels", Description: "Wall panels", Prefix: "pn"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	p, _ = ws.Upload.ProposeCode(context.Background(), "Panels")
	if p.Code != "PN-001" {
		t.Errorf("Expected proposal under the new prefix PN-001, got %s", p.Code)
	}
}

func TestFailedCategoryWriteKeepsUploadOptions(t *testing.T) {
	api := &fakeCatalog{categories: []catalogapi.Category{{ID: 1, Category: "Panels", Prefix: "P"}}}
	ws := newTestWorkspace(api)
	if _, err := ws.Upload.Options(context.Background()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	api.writeErr = errors.New("rejected")
	_ = ws.Categories.Update(context.Background(), 1, &service.CategoryDraft{Category: "Panels", Description: "x"})
	if ws.Upload.current() == nil {
		t.Error("Expected options kept after a rejected write")
	}
}
