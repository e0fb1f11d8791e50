package query

// SortKey selects the result ordering.
type SortKey string

// Sort key constants.
const (
	// SortDateDesc orders newest first; it is the default.
	SortDateDesc      SortKey = "date-desc"
	SortDateAsc       SortKey = "date-asc"
	SortTitle         SortKey = "title"
	SortPriority      SortKey = "priority"
	SortDuration      SortKey = "duration"
	SortFeaturedFirst SortKey = "featured-first"
)

// DefaultSort is used when the caller does not pick a sort key.
const DefaultSort = SortDateDesc

// SortKeys returns all supported sort keys.
func SortKeys() []SortKey {
	return []SortKey{SortDateDesc, SortDateAsc, SortTitle, SortPriority, SortDuration, SortFeaturedFirst}
}

// IsValid checks if the key is one of the supported values.
func (k SortKey) IsValid() bool {
	for _, s := range SortKeys() {
		if s == k {
			return true
		}
	}
	return false
}

// ParseSortKey returns the key and true, or DefaultSort and false.
func ParseSortKey(s string) (SortKey, bool) {
	k := SortKey(s)
	if !k.IsValid() {
		return DefaultSort, false
	}
	return k, true
}
