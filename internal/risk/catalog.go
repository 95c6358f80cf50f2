package risk

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/JaimeStill/counsel/internal/prompts"
)

// Category is one clause section of the record to assess. Key names the
// top-level record field and Template is the assessment prompt; an empty
// Template skips the model and yields a neutral assessment.
type Category struct {
	Key      string
	Title    string
	Template string
}

// Catalog is the ordered list of categories an Assessor scores.
type Catalog []Category

// DefaultCatalog returns the ten built-in clause categories.
func DefaultCatalog() Catalog {
	c, _ := NewCatalog(prompts.Default())
	return c
}

// NewCatalog builds the built-in categories with templates from ps.
func NewCatalog(ps *prompts.System) (Catalog, error) {
	keys := prompts.ClauseKeys()
	c := make(Catalog, 0, len(keys))
	for _, key := range keys {
		tmpl, err := ps.Clause(key)
		if err != nil {
			return nil, err
		}
		c = append(c, Category{Key: key, Title: Title(key), Template: tmpl})
	}
	return c, nil
}

// Select returns the categories named by keys, in catalog order. An empty
// keys returns the whole catalog.
func (c Catalog) Select(keys []string) (Catalog, error) {
	if len(keys) == 0 {
		return c, nil
	}

	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		want[k] = true
	}

	var out Catalog
	for _, cat := range c {
		if want[cat.Key] {
			out = append(out, cat)
			delete(want, cat.Key)
		}
	}
	if len(want) > 0 {
		unknown := slices.Sorted(maps.Keys(want))
		return nil, fmt.Errorf("%w: %s", ErrUnknownCategory, strings.Join(unknown, ", "))
	}
	return out, nil
}

// Title turns a snake_case key into title case, so "dispute_resolution"
// becomes "Dispute Resolution".
func Title(key string) string {
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
