// Package allocator derives the next material code for a category.
//
// Codes look like PREFIX-NNN. The prefix comes from the category's stored
// prefix or, when that is empty, from the initials of the category name.
// Allocation is a read-only scan of the current material list: there is no
// reservation, so two sessions allocating at the same moment can be handed
// the same code.
package allocator

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/rs/zerolog/log"

	"github.com/solidoro/bmw-admin/pkg/catalogapi"
)

// MaterialLister fetches the full material list.
type MaterialLister interface {
	ListMaterials(ctx context.Context) ([]catalogapi.Material, error)
}

// DerivePrefix builds a fallback prefix from the first letter of each
// whitespace-separated word, upper-cased: "Exterior Materials" -> "EM".
func DerivePrefix(categoryName string) string {
	var b strings.Builder
	for _, word := range strings.Fields(categoryName) {
		r := []rune(word)[0]
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// ResolvePrefix returns the stored prefix of the named category when it is
// set, otherwise the derived fallback. Unknown categories fall back too.
func ResolvePrefix(categoryName string, categories []catalogapi.Category) string {
	for _, c := range categories {
		if c.Category == categoryName {
			if p := strings.TrimSpace(c.Prefix); p != "" {
				return p
			}
			break
		}
	}
	return DerivePrefix(categoryName)
}

// Next computes the next code for prefix within categoryName given the
// current materials. Materials from other categories, codes whose prefix
// differs, and codes without a numeric second part are ignored.
func Next(prefix, categoryName string, materials []catalogapi.Material) string {
	highest := 0
	for _, m := range materials {
		if m.Category != categoryName {
			continue
		}
		parts := strings.Split(m.Code, "-")
		if parts[0] != prefix || len(parts) != 2 {
			continue
		}
		n, err := strconv.Atoi(parts[1])
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return Format(prefix, highest+1)
}

// Format renders a code with the sequence zero-padded to three digits.
// Sequences past 999 simply grow wider.
func Format(prefix string, seq int) string {
	return fmt.Sprintf("%s-%03d", prefix, seq)
}

// Allocator proposes codes using a live material list.
type Allocator struct {
	materials MaterialLister
}

// New constructs an Allocator.
func New(materials MaterialLister) *Allocator {
	return &Allocator{materials: materials}
}

// Proposal is the outcome of an allocation.
type Proposal struct {
	Category string `json:"category"`
	Prefix   string `json:"prefix,omitempty"`
	Code     string `json:"code"`
}

// NextCode proposes a code for categoryName. An empty name clears the code.
// categories is the category list the caller currently has loaded. On a
// fetch failure the proposal carries an empty code alongside the error.
func (a *Allocator) NextCode(ctx context.Context, categoryName string, categories []catalogapi.Category) (Proposal, error) {
	p := Proposal{Category: categoryName}
	if categoryName == "" {
		return p, nil
	}

	p.Prefix = ResolvePrefix(categoryName, categories)

	materials, err := a.materials.ListMaterials(ctx)
	if err != nil {
		log.Error().Err(err).Str("category", categoryName).Msg("Failed to fetch materials for code generation")
		return p, fmt.Errorf("fetch materials: %w", err)
	}

	p.Code = Next(p.Prefix, categoryName, materials)
	log.Debug().
		Str("category", categoryName).
		Str("prefix", p.Prefix).
		Str("code", p.Code).
		Int("materials", len(materials)).
		Msg("Material code proposed")
	return p, nil
}
