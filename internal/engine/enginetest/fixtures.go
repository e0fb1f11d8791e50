// Package enginetest provides catalog fixtures shared by the engine tests.
package enginetest

import (
	"testing"
	"time"

	"github.com/kailas-cloud/facetdex/internal/domain/catalog"
	"github.com/kailas-cloud/facetdex/internal/domain/taxonomy"
	"github.com/kailas-cloud/facetdex/internal/engine/searchindex"
)

// Day returns midnight UTC of the given date.
func Day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

// Int returns a pointer to i.
func Int(i int) *int { return &i }

// Entry builds a validated entry or fails the test.
func Entry(tb testing.TB, d catalog.Params) catalog.Entry {
	tb.Helper()
	if d.Title == "" {
		d.Title = d.ID
	}
	if d.Status == "" {
		d.Status = catalog.Published
	}
	e, err := catalog.New(d)
	if err != nil {
		tb.Fatalf("catalog.New(%q): %v", d.ID, err)
	}
	return e
}

// Terms builds a taxonomy where every id is its own display name.
func Terms(tb testing.TB, byDim map[taxonomy.Dimension][]string) map[taxonomy.Dimension][]taxonomy.Term {
	tb.Helper()
	out := make(map[taxonomy.Dimension][]taxonomy.Term, len(byDim))
	for d, ids := range byDim {
		for _, id := range ids {
			t, err := taxonomy.NewTerm(id, id, "", "", "", nil)
			if err != nil {
				tb.Fatalf("taxonomy.NewTerm(%q): %v", id, err)
			}
			out[d] = append(out[d], t)
		}
	}
	return out
}

// Snapshot builds a snapshot and fails the test on any rejection.
func Snapshot(tb testing.TB, entries []catalog.Entry, terms map[taxonomy.Dimension][]taxonomy.Term) *searchindex.Snapshot {
	tb.Helper()
	s, rejected := searchindex.NewSnapshot(entries, terms, 1, time.Unix(0, 0).UTC())
	if len(rejected) > 0 {
		tb.Fatalf("unexpected rejections: %v", rejected)
	}
	return s
}

// Taxonomy is the term set used by Catalog.
func Taxonomy(tb testing.TB) map[taxonomy.Dimension][]taxonomy.Term {
	return Terms(tb, map[taxonomy.Dimension][]string{
		taxonomy.Product:    {"sidekick", "hero", "copilot"},
		taxonomy.Team:       {"sales", "marketing", "support"},
		taxonomy.Topic:      {"pricing", "security"},
		taxonomy.Stage:      {"discovery", "closing"},
		taxonomy.Industry:   {"retail", "finance"},
		taxonomy.COE:        {"enablement"},
		taxonomy.Competitor: {"rival", "acme"},
		taxonomy.Format:     {"deck", "video", "template"},
		taxonomy.Difficulty: {"beginner", "advanced"},
		taxonomy.Presenter:  {"ana", "bo"},
	})
}

// Catalog is a small mixed catalog covering every dimension kind.
func Catalog(tb testing.TB) []catalog.Entry {
	tb.Helper()
	return []catalog.Entry{
		Entry(tb, catalog.Params{
			ID: "a", Title: "Sidekick pricing deck", Description: "ROI story",
			PublishDate: Day(2024, 1, 10), Priority: Int(90), Duration: Int(20), Featured: true,
			KeyTakeaways: []string{"Payback in 3 months"},
			Terms: map[taxonomy.Dimension][]string{
				taxonomy.Product: {"sidekick"},
				taxonomy.Team:    {"sales"},
				taxonomy.Topic:   {"pricing"},
			},
			Values: map[taxonomy.Dimension]string{taxonomy.Format: "deck", taxonomy.Competitor: "rival"},
		}),
		Entry(tb, catalog.Params{
			ID: "b", Title: "Hero security video", Description: "SOC2 walkthrough",
			PublishDate: Day(2024, 2, 5), Duration: Int(45),
			Terms: map[taxonomy.Dimension][]string{
				taxonomy.Product: {"hero"},
				taxonomy.Team:    {"support"},
				taxonomy.Topic:   {"security"},
			},
			Values: map[taxonomy.Dimension]string{taxonomy.Format: "video", taxonomy.Difficulty: "advanced"},
		}),
		Entry(tb, catalog.Params{
			ID: "c", Title: "Bundle battle card", Body: "Sidekick and Hero together",
			PublishDate: Day(2024, 3, 1), Priority: Int(70),
			Terms: map[taxonomy.Dimension][]string{
				taxonomy.Product:  {"sidekick", "hero"},
				taxonomy.Team:     {"sales", "marketing"},
				taxonomy.Industry: {"retail"},
			},
			Values: map[taxonomy.Dimension]string{taxonomy.Format: "deck", taxonomy.Competitor: "acme", taxonomy.Presenter: "ana"},
		}),
		Entry(tb, catalog.Params{
			ID: "d", Title: "Closing playbook",
			PublishDate: Day(2023, 12, 1), Featured: true, Priority: Int(30),
			Terms: map[taxonomy.Dimension][]string{
				taxonomy.Stage: {"closing"},
				taxonomy.Team:  {"sales"},
			},
			Values: map[taxonomy.Dimension]string{taxonomy.Format: "template"},
		}),
		Entry(tb, catalog.Params{
			ID: "e", Title: "Untagged note",
		}),
		Entry(tb, catalog.Params{
			ID: "f", Title: "Draft sidekick launch", Status: catalog.Draft,
			PublishDate: Day(2024, 4, 1),
			Terms: map[taxonomy.Dimension][]string{taxonomy.Product: {"sidekick"}},
		}),
		Entry(tb, catalog.Params{
			ID: "g", Title: "Archived hero intro", Status: catalog.Archived,
			PublishDate: Day(2022, 6, 1),
			Terms: map[taxonomy.Dimension][]string{taxonomy.Product: {"hero"}},
		}),
	}
}
