package query

import "fmt"

// Warning reports malformed query input that was replaced by a default.
// Warnings are returned to the caller, never raised as errors.
type Warning struct {
	Field  string `json:"field"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s=%q: %s", w.Field, w.Value, w.Reason)
}

// Warning reasons.
const (
	ReasonUnknownSort     = "unknown sort key, using default"
	ReasonInvalidDate     = "invalid date, bound ignored"
	ReasonInvertedRange   = "from is after to, range matches nothing"
	ReasonInvalidPageSize = "invalid page size, using default"
	ReasonPageSizeClamped = "page size above maximum, clamped"
	ReasonInvalidOffset   = "invalid offset, starting from first page"
	ReasonCursorAndOffset = "both cursor and offset given, cursor wins"
	ReasonInvalidStatus   = "unknown status, only published entries shown"
	ReasonMultipleValues  = "single-value field given several values, first kept"
	ReasonUnknownTerm     = "term not in taxonomy, matches nothing"
	ReasonInvalidTermID   = "malformed term id, matches nothing"
	ReasonAllWithTerms    = "\"all\" given with other terms, ignored"
)
