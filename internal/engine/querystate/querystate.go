// Package querystate implements the QueryStateCodec: the mapping between a
// Query and the flat key/value form used in URLs and shared links.
//
// Decode(Encode(q)) equals q. Absent keys decode to "no constraint", unknown
// keys are ignored, and malformed values fall back to defaults with a Warning.
package querystate

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/facetdex/internal/domain/query"
	"github.com/kailas-cloud/facetdex/internal/domain/taxonomy"
)

// Keys of the flat representation. Each dimension uses its own name as key.
const (
	KeySearch   = "q"
	KeySort     = "sort"
	KeyPageSize = "page_size"
	KeyCursor   = "cursor"
	KeyOffset   = "offset"
	KeyFrom     = "from"
	KeyTo       = "to"
	KeyStatus   = "status"
)

// Encode returns the canonical flat form of q. Defaults are omitted;
// multi-value selections are comma-joined in sorted order.
func Encode(q query.Query) url.Values {
	v := encodeFilters(q)
	if q.Sort() != query.DefaultSort {
		v.Set(KeySort, string(q.Sort()))
	}
	if q.PageSize() > 0 {
		v.Set(KeyPageSize, strconv.Itoa(q.PageSize()))
	}
	if q.Cursor() != "" {
		v.Set(KeyCursor, q.Cursor())
	}
	if q.Offset() > 0 {
		v.Set(KeyOffset, strconv.Itoa(q.Offset()))
	}
	return v
}

func encodeFilters(q query.Query) url.Values {
	v := url.Values{}
	for _, d := range q.ConstrainedDimensions() {
		v.Set(string(d), strings.Join(q.Selection(d).IDs(), ","))
	}
	if from, ok := q.DateRange().From(); ok {
		v.Set(KeyFrom, from.Format(query.DateLayout))
	}
	if to, ok := q.DateRange().To(); ok {
		v.Set(KeyTo, to.Format(query.DateLayout))
	}
	if q.Status() != query.StatusDefault {
		v.Set(KeyStatus, string(q.Status()))
	}
	if q.Search() != "" {
		v.Set(KeySearch, q.Search())
	}
	return v
}

// Fingerprint identifies the filter state of q: selections, date range,
// status and search. Sort and paging are excluded.
func Fingerprint(q query.Query) string {
	sum := sha256.Sum256([]byte(encodeFilters(q).Encode()))
	return hex.EncodeToString(sum[:12])
}

// Decode parses the flat form. It never fails: malformed values are dropped
// and reported as warnings.
func Decode(v url.Values) (query.Query, []query.Warning) {
	q := query.New()
	var warns []query.Warning
	warn := func(field, value, reason string) {
		warns = append(warns, query.Warning{Field: field, Value: value, Reason: reason})
	}

	for _, d := range taxonomy.MultiValue() {
		ids := split(v[string(d)])
		if len(ids) > 1 && slices.Contains(ids, taxonomy.AllID) {
			warn(string(d), strings.Join(ids, ","), query.ReasonAllWithTerms)
		}
		for _, id := range ids {
			if id != taxonomy.AllID && !taxonomy.ValidID(id) {
				warn(string(d), id, query.ReasonInvalidTermID)
			}
		}
		if len(ids) > 0 {
			q = q.WithTerms(d, ids...)
		}
	}
	for _, d := range taxonomy.SingleValue() {
		vals := split(v[string(d)])
		if len(vals) == 0 {
			continue
		}
		if len(vals) > 1 {
			warn(string(d), strings.Join(vals, ","), query.ReasonMultipleValues)
		}
		if vals[0] != taxonomy.AllID && !taxonomy.ValidID(vals[0]) {
			warn(string(d), vals[0], query.ReasonInvalidTermID)
		}
		q = q.WithValue(d, vals[0])
	}

	if s := first(v, KeyStatus); s != "" {
		f := query.StatusFilter(s)
		if f.IsValid() {
			q = q.WithStatus(f)
		} else {
			warn(KeyStatus, s, query.ReasonInvalidStatus)
		}
	}

	from := parseDate(first(v, KeyFrom), KeyFrom, warn)
	to := parseDate(first(v, KeyTo), KeyTo, warn)
	if from != nil && to != nil && from.After(*to) {
		warn(KeyFrom, first(v, KeyFrom), query.ReasonInvertedRange)
	}
	if from != nil || to != nil {
		q = q.WithDateRange(from, to)
	}

	if s := first(v, KeySearch); s != "" {
		q = q.WithSearch(s)
	}

	if s := first(v, KeySort); s != "" {
		k, ok := query.ParseSortKey(s)
		if !ok {
			warn(KeySort, s, query.ReasonUnknownSort)
		}
		q = q.WithSort(k)
	}

	if s := first(v, KeyPageSize); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			warn(KeyPageSize, s, query.ReasonInvalidPageSize)
		} else {
			q = q.WithPageSize(n)
		}
	}

	cursor := first(v, KeyCursor)
	if s := first(v, KeyOffset); s != "" {
		n, err := strconv.Atoi(s)
		switch {
		case err != nil || n < 0:
			warn(KeyOffset, s, query.ReasonInvalidOffset)
		case cursor != "":
			warn(KeyOffset, s, query.ReasonCursorAndOffset)
		default:
			q = q.WithOffset(n)
		}
	}
	if cursor != "" {
		q = q.WithCursor(cursor)
	}

	return q, warns
}

// split flattens repeated and comma-joined values, dropping blanks.
func split(raw []string) []string {
	var out []string
	for _, r := range raw {
		for _, part := range strings.Split(r, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			out = append(out, part)
		}
	}
	return out
}

func first(v url.Values, key string) string {
	return strings.TrimSpace(v.Get(key))
}

func parseDate(s, field string, warn func(field, value, reason string)) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(query.DateLayout, s)
	if err != nil {
		warn(field, s, query.ReasonInvalidDate)
		return nil
	}
	return &t
}
