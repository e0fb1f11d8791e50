package taxonomy

import "sort"

// Set is an immutable set of term ids, kept sorted for deterministic
// iteration and encoding. The zero value is the empty set.
type Set struct {
	ids []string
}

// NewSet builds a Set, dropping empty strings and duplicates.
func NewSet(ids ...string) Set {
	if len(ids) == 0 {
		return Set{}
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	uniq := out[:0]
	for _, id := range out {
		if len(uniq) == 0 || id != uniq[len(uniq)-1] {
			uniq = append(uniq, id)
		}
	}
	if len(uniq) == 0 {
		return Set{}
	}
	return Set{ids: uniq}
}

// Len returns the number of ids.
func (s Set) Len() int { return len(s.ids) }

// IsEmpty reports whether the set has no ids.
func (s Set) IsEmpty() bool { return len(s.ids) == 0 }

// IDs returns a copy of the sorted ids.
func (s Set) IDs() []string { return append([]string(nil), s.ids...) }

// Contains reports whether id is in the set.
func (s Set) Contains(id string) bool {
	i := sort.SearchStrings(s.ids, id)
	return i < len(s.ids) && s.ids[i] == id
}

// Intersects reports whether the two sets share at least one id.
func (s Set) Intersects(o Set) bool {
	i, j := 0, 0
	for i < len(s.ids) && j < len(o.ids) {
		switch {
		case s.ids[i] == o.ids[j]:
			return true
		case s.ids[i] < o.ids[j]:
			i++
		default:
			j++
		}
	}
	return false
}

// Equal reports whether both sets hold the same ids.
func (s Set) Equal(o Set) bool {
	if len(s.ids) != len(o.ids) {
		return false
	}
	for i := range s.ids {
		if s.ids[i] != o.ids[i] {
			return false
		}
	}
	return true
}

// Filter returns the subset of ids for which keep returns true.
func (s Set) Filter(keep func(id string) bool) Set {
	out := make([]string, 0, len(s.ids))
	for _, id := range s.ids {
		if keep(id) {
			out = append(out, id)
		}
	}
	if len(out) == 0 {
		return Set{}
	}
	return Set{ids: out}
}
