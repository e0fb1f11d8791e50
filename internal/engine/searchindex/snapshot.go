package searchindex

import (
	"sort"
	"time"

	"github.com/bits-and-blooms/bitset"

	"github.com/kailas-cloud/facetdex/internal/domain/catalog"
	"github.com/kailas-cloud/facetdex/internal/domain/taxonomy"
)

// Snapshot is an immutable view of the catalog: entries ordered by id, their
// search text, the taxonomy, and per-term posting bitsets over entry positions.
// It is never modified after NewSnapshot returns.
type Snapshot struct {
	entries  []catalog.Entry
	index    []Entry
	byID     map[string]int
	terms    map[taxonomy.Dimension][]taxonomy.Term
	termPos  map[taxonomy.Dimension]map[string]int
	postings map[taxonomy.Dimension]map[string]*bitset.BitSet
	version  uint64
	builtAt  time.Time
}

// Rejection describes an entry or tag dropped while building a snapshot.
type Rejection struct {
	EntryID string
	Reason  string
}

// NewSnapshot validates entries against the taxonomy and builds the index.
// Tags referring to terms absent from the taxonomy are dropped; duplicate
// entry ids keep the first occurrence. Both are reported as rejections.
func NewSnapshot(
	entries []catalog.Entry,
	terms map[taxonomy.Dimension][]taxonomy.Term,
	version uint64,
	builtAt time.Time,
) (*Snapshot, []Rejection) {
	s := &Snapshot{
		terms:    make(map[taxonomy.Dimension][]taxonomy.Term, len(taxonomy.All())),
		termPos:  make(map[taxonomy.Dimension]map[string]int, len(taxonomy.All())),
		postings: make(map[taxonomy.Dimension]map[string]*bitset.BitSet, len(taxonomy.All())),
		version:  version,
		builtAt:  builtAt,
	}

	var rejected []Rejection

	for _, d := range taxonomy.All() {
		list := dedupeTerms(terms[d])
		taxonomy.SortTerms(list)
		s.terms[d] = list
		pos := make(map[string]int, len(list))
		for i := range list {
			pos[list[i].ID()] = i
		}
		s.termPos[d] = pos
	}
	known := func(d taxonomy.Dimension, id string) bool {
		_, ok := s.termPos[d][id]
		return ok
	}

	seen := make(map[string]struct{}, len(entries))
	cleaned := make([]catalog.Entry, 0, len(entries))
	for i := range entries {
		id := entries[i].ID()
		if _, dup := seen[id]; dup {
			rejected = append(rejected, Rejection{EntryID: id, Reason: "duplicate entry id"})
			continue
		}
		seen[id] = struct{}{}
		e, dropped := entries[i].WithoutUnknownTerms(known)
		for _, tag := range dropped {
			rejected = append(rejected, Rejection{EntryID: id, Reason: "unknown term " + tag})
		}
		cleaned = append(cleaned, e)
	}
	sort.Slice(cleaned, func(i, j int) bool { return cleaned[i].ID() < cleaned[j].ID() })

	n := uint(len(cleaned))
	s.entries = cleaned
	s.index = make([]Entry, len(cleaned))
	s.byID = make(map[string]int, len(cleaned))
	for _, d := range taxonomy.All() {
		m := make(map[string]*bitset.BitSet, len(s.terms[d]))
		for _, t := range s.terms[d] {
			m[t.ID()] = bitset.New(n)
		}
		s.postings[d] = m
	}

	namer := s.TermName
	for i := range s.entries {
		e := &s.entries[i]
		s.byID[e.ID()] = i
		s.index[i] = Build(e, namer)
		for _, d := range taxonomy.MultiValue() {
			for _, id := range e.Terms(d).IDs() {
				s.postings[d][id].Set(uint(i))
			}
		}
		for _, d := range taxonomy.SingleValue() {
			if v := e.Value(d); v != "" {
				s.postings[d][v].Set(uint(i))
			}
		}
	}

	return s, rejected
}

// Empty returns a snapshot with no entries and no taxonomy.
func Empty() *Snapshot {
	s, _ := NewSnapshot(nil, nil, 0, time.Time{})
	return s
}

// Len returns the number of entries.
func (s *Snapshot) Len() int { return len(s.entries) }

// Entry returns the entry at position i.
func (s *Snapshot) Entry(i int) *catalog.Entry { return &s.entries[i] }

// Index returns the search text of the entry at position i.
func (s *Snapshot) Index(i int) *Entry { return &s.index[i] }

// Lookup returns the position of an entry id.
func (s *Snapshot) Lookup(id string) (int, bool) {
	i, ok := s.byID[id]
	return i, ok
}

// Terms returns the display-ordered taxonomy of dimension d.
// The returned slice must not be modified.
func (s *Snapshot) Terms(d taxonomy.Dimension) []taxonomy.Term { return s.terms[d] }

// Known reports whether id is a term of dimension d.
func (s *Snapshot) Known(d taxonomy.Dimension, id string) bool {
	_, ok := s.termPos[d][id]
	return ok
}

// TermName returns the display name of a term, "" if unknown.
func (s *Snapshot) TermName(d taxonomy.Dimension, id string) string {
	i, ok := s.termPos[d][id]
	if !ok {
		return ""
	}
	return s.terms[d][i].Name()
}

// Posting returns the bitset of entries tagged with id in d, nil if the term
// is unknown. The returned bitset must not be modified.
func (s *Snapshot) Posting(d taxonomy.Dimension, id string) *bitset.BitSet {
	return s.postings[d][id]
}

// Version returns the build sequence number.
func (s *Snapshot) Version() uint64 { return s.version }

// BuiltAt returns the build time.
func (s *Snapshot) BuiltAt() time.Time { return s.builtAt }

func dedupeTerms(in []taxonomy.Term) []taxonomy.Term {
	out := make([]taxonomy.Term, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, t := range in {
		if _, ok := seen[t.ID()]; ok {
			continue
		}
		seen[t.ID()] = struct{}{}
		out = append(out, t)
	}
	return out
}
