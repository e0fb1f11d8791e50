package query

import "time"

// DateLayout is the wire layout of date bounds.
const DateLayout = "2006-01-02"

// DateRange bounds the publish date at day granularity (UTC), inclusive on
// whichever side is set.
type DateRange struct {
	from *time.Time
	to   *time.Time
}

// NewDateRange truncates both bounds to UTC days. Either may be nil.
func NewDateRange(from, to *time.Time) DateRange {
	return DateRange{from: day(from), to: day(to)}
}

// From returns the lower bound, if set.
func (r DateRange) From() (time.Time, bool) {
	if r.from == nil {
		return time.Time{}, false
	}
	return *r.from, true
}

// To returns the upper bound, if set.
func (r DateRange) To() (time.Time, bool) {
	if r.to == nil {
		return time.Time{}, false
	}
	return *r.to, true
}

// IsZero reports whether neither bound is set.
func (r DateRange) IsZero() bool { return r.from == nil && r.to == nil }

// Contains reports whether t falls within the range. Comparison is by UTC day.
func (r DateRange) Contains(t time.Time) bool {
	d := *day(&t)
	if r.from != nil && d.Before(*r.from) {
		return false
	}
	if r.to != nil && d.After(*r.to) {
		return false
	}
	return true
}

// Equal reports whether both ranges have the same bounds.
func (r DateRange) Equal(o DateRange) bool {
	return timePtrEqual(r.from, o.from) && timePtrEqual(r.to, o.to)
}

func day(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	d := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
