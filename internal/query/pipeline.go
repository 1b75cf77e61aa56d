// Package query turns the roster into the operator's visible, ordered and
// paged list. Everything here is pure: inputs are never modified.
package query

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/noah-isme/library-console/internal/models"
)

// Pipeline applies search, filters and ordering using a locale-aware collator.
type Pipeline struct {
	tag language.Tag
}

// NewPipeline builds a pipeline collating in the given locale.
func NewPipeline(tag language.Tag) *Pipeline {
	return &Pipeline{tag: tag}
}

// Apply returns the students matching search and filters, ordered by filters.Sort.
func (p *Pipeline) Apply(roster []models.Student, search string, filters models.FilterState) []models.Student {
	needle := strings.ToLower(strings.TrimSpace(search))

	out := make([]models.Student, 0, len(roster))
	for _, s := range roster {
		if Matches(s, needle, filters) {
			out = append(out, s)
		}
	}

	// collate.Collator keeps scratch buffers and is not safe for concurrent use.
	col := collate.New(p.tag, collate.IgnoreCase)
	key, desc := sortField(filters.Sort)
	sort.SliceStable(out, func(i, j int) bool {
		c := col.CompareString(key(out[i]), key(out[j]))
		if desc {
			return c > 0
		}
		return c < 0
	})
	return out
}

// Apply runs the default, language-neutral pipeline.
func Apply(roster []models.Student, search string, filters models.FilterState) []models.Student {
	return NewPipeline(language.Und).Apply(roster, search, filters)
}

// Matches reports whether s satisfies every active predicate. needle must
// already be trimmed and lower-cased.
func Matches(s models.Student, needle string, filters models.FilterState) bool {
	if needle != "" &&
		!strings.Contains(strings.ToLower(s.Name), needle) &&
		!strings.Contains(strings.ToLower(s.ID), needle) &&
		!strings.Contains(strings.ToLower(s.Email), needle) {
		return false
	}
	if filters.Category != "" && s.CategoryValue() != filters.Category {
		return false
	}
	switch filters.Status {
	case models.StatusActive:
		if s.Banned {
			return false
		}
	case models.StatusBanned:
		if !s.Banned {
			return false
		}
	}
	return true
}

func sortField(key models.SortKey) (func(models.Student) string, bool) {
	switch key {
	case models.SortNameDesc:
		return byName, true
	case models.SortID:
		return byCode, false
	case models.SortIDDesc:
		return byCode, true
	default:
		return byName, false
	}
}

func byName(s models.Student) string { return s.Name }

func byCode(s models.Student) string { return s.StudentCode }
