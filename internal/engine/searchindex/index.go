// Package searchindex derives the lower-cased searchable text of catalog
// entries and holds the immutable Snapshot the query engine runs against.
package searchindex

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/kailas-cloud/facetdex/internal/domain/catalog"
	"github.com/kailas-cloud/facetdex/internal/domain/taxonomy"
)

// Fold case-folds s for case-insensitive comparison.
// A Caser is stateful, so each call gets its own.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// Needle normalizes search input: trimmed and case-folded. "" means no search.
func Needle(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return Fold(s)
}

// TermNamer resolves a term id to its display name ("" if unknown).
type TermNamer func(d taxonomy.Dimension, id string) string

// Entry is the precomputed search text of one catalog entry.
type Entry struct {
	Text      string
	Takeaways []string
}

// Build derives the SearchIndexEntry: title, description, body and the
// display names of tagged terms, joined and folded. Key takeaways are kept
// separately. names may be nil.
func Build(e *catalog.Entry, names TermNamer) Entry {
	parts := []string{e.Title(), e.Description(), e.Body()}
	if names != nil {
		for _, d := range taxonomy.MultiValue() {
			for _, id := range e.Terms(d).IDs() {
				if n := names(d, id); n != "" {
					parts = append(parts, n)
				}
			}
		}
		for _, d := range taxonomy.SingleValue() {
			if v := e.Value(d); v != "" {
				if n := names(d, v); n != "" {
					parts = append(parts, n)
				}
			}
		}
	}

	var takeaways []string
	if kt := e.KeyTakeaways(); len(kt) > 0 {
		takeaways = make([]string, 0, len(kt))
		for _, t := range kt {
			if t != "" {
				takeaways = append(takeaways, Fold(t))
			}
		}
	}

	return Entry{
		Text:      Fold(strings.Join(nonEmpty(parts), "\n")),
		Takeaways: takeaways,
	}
}

// Contains reports whether the folded needle occurs in the text or any
// takeaway. An empty needle always matches.
func (e *Entry) Contains(needle string) bool {
	if needle == "" {
		return true
	}
	if strings.Contains(e.Text, needle) {
		return true
	}
	for _, t := range e.Takeaways {
		if strings.Contains(t, needle) {
			return true
		}
	}
	return false
}

func nonEmpty(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
