package allocator

import (
	"context"
	"errors"
	"testing"

	"github.com/solidoro/bmw-admin/pkg/catalogapi"
)

type stubLister struct {
	materials []catalogapi.Material
	err       error
	calls     int
}

func (s *stubLister) ListMaterials(ctx context.Context) ([]catalogapi.Material, error) {
	s.calls++
	return s.materials, s.err
}

func mat(code, category string) catalogapi.Material {
	return catalogapi.Material{Code: code, Category: category}
}

func TestNextSkipsForeignPrefix(t *testing.T) {
	ms := []catalogapi.Material{
		mat("P-001", "Panels"),
		mat("P-004", "Panels"),
		mat("OTHER-009", "Panels"),
	}
	if got := Next("P", "Panels", ms); got != "P-005" {
		t.Errorf("Expected P-005, got %s", got)
	}
}

func TestNextIgnoresMalformedSuffix(t *testing.T) {
	ms := []catalogapi.Material{
		mat("P-002", "Panels"),
		mat("P-abc", "Panels"),
		mat("P-010-B", "Panels"),
		mat("P", "Panels"),
	}
	if got := Next("P", "Panels", ms); got != "P-003" {
		t.Errorf("Expected P-003, got %s", got)
	}
}

func TestNextIgnoresOtherCategories(t *testing.T) {
	ms := []catalogapi.Material{
		mat("P-050", "Pipes"),
		mat("P-002", "Panels"),
	}
	if got := Next("P", "Panels", ms); got != "P-003" {
		t.Errorf("Expected P-003, got %s", got)
	}
}

func TestNextStartsAtOne(t *testing.T) {
	if got := Next("RT", "Roof Tiles", nil); got != "RT-001" {
		t.Errorf("Expected RT-001, got %s", got)
	}
}

func TestFormatGrowsPastThreeDigits(t *testing.T) {
	if got := Format("EM", 1000); got != "EM-1000" {
		t.Errorf("Expected EM-1000, got %s", got)
	}
}

func TestDerivePrefix(t *testing.T) {
	cases := map[string]string{
		"Exterior Materials":  "EM",
		"Roof Tiles":          "RT",
		"  double   spaced  ": "DS",
		"stone":               "S",
		"":                    "",
	}
	for in, want := range cases {
		if got := DerivePrefix(in); got != want {
			t.Errorf("DerivePrefix(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestResolvePrefixPrefersStored(t *testing.T) {
	cats := []catalogapi.Category{
		{Category: "Exterior Materials", Prefix: "EXT"},
		{Category: "Roof Tiles"},
	}
	if got := ResolvePrefix("Exterior Materials", cats); got != "EXT" {
		t.Errorf("Expected stored prefix EXT, got %s", got)
	}
	if got := ResolvePrefix("Roof Tiles", cats); got != "RT" {
		t.Errorf("Expected derived prefix RT, got %s", got)
	}
	if got := ResolvePrefix("Wall Panels", cats); got != "WP" {
		t.Errorf("Expected derived prefix for unknown category, got %s", got)
	}
}

func TestNextCodeDerivedPrefixNoMaterials(t *testing.T) {
	lister := &stubLister{}
	a := New(lister)

	p, err := a.NextCode(context.Background(), "Roof Tiles", []catalogapi.Category{{Category: "Roof Tiles"}})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if p.Prefix != "RT" || p.Code != "RT-001" {
		t.Errorf("Expected RT / RT-001, got %+v", p)
	}
}

func TestNextCodeEmptyCategoryClears(t *testing.T) {
	lister := &stubLister{}
	p, err := New(lister).NextCode(context.Background(), "", nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if p.Code != "" {
		t.Errorf("Expected empty code, got %s", p.Code)
	}
	if lister.calls != 0 {
		t.Errorf("Expected no fetch for empty selection, got %d", lister.calls)
	}
}

func TestNextCodeFetchFailureLeavesCodeUnset(t *testing.T) {
	lister := &stubLister{err: errors.New("boom")}
	p, err := New(lister).NextCode(context.Background(), "Panels", []catalogapi.Category{{Category: "Panels", Prefix: "P"}})
	if err == nil {
		t.Fatal("Expected error on fetch failure")
	}
	if p.Code != "" {
		t.Errorf("Expected code to stay unset, got %s", p.Code)
	}
	if p.Category != "Panels" {
		t.Errorf("Expected category selection to survive, got %q", p.Category)
	}
}

func TestNextCodeIsDeterministic(t *testing.T) {
	lister := &stubLister{materials: []catalogapi.Material{mat("P-007", "Panels")}}
	a := New(lister)
	cats := []catalogapi.Category{{Category: "Panels", Prefix: "P"}}

	first, _ := a.NextCode(context.Background(), "Panels", cats)
	second, _ := a.NextCode(context.Background(), "Panels", cats)
	if first.Code != "P-008" || first != second {
		t.Errorf("Expected stable P-008, got %+v and %+v", first, second)
	}
}
