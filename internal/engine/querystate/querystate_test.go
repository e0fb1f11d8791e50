package querystate

import (
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kailas-cloud/facetdex/internal/domain/query"
	"github.com/kailas-cloud/facetdex/internal/domain/taxonomy"
	"github.com/kailas-cloud/facetdex/internal/engine/enginetest"
)

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		q    query.Query
	}{
		{"empty", query.New()},
		{"multi value", query.New().WithTerms(taxonomy.Product, "sidekick", "hero").WithTerms(taxonomy.COE, "enablement")},
		{"single value", query.New().WithValue(taxonomy.Format, "deck").WithValue(taxonomy.Presenter, "ana")},
		{"all among terms", query.New().WithTerms(taxonomy.Product, "all", "hero")},
		{"every dimension", everyDimension()},
		{"dates", query.New().WithDateRange(enginetest.Day(2024, 1, 1), enginetest.Day(2024, 12, 31))},
		{"open range", query.New().WithDateRange(nil, enginetest.Day(2024, 6, 30))},
		{"status all", query.New().WithStatus(query.StatusAll)},
		{"status draft", query.New().WithStatus("draft")},
		{"search", query.New().WithSearch("ROI & payback, 2024")},
		{"sort", query.New().WithSort(query.SortFeaturedFirst)},
		{"page size and cursor", query.New().WithPageSize(50).WithCursor("abc_-123")},
		{"offset", query.New().WithOffset(40).WithSort(query.SortTitle)},
		{"everything", everyDimension().
			WithStatus(query.StatusAll).
			WithDateRange(enginetest.Day(2023, 2, 3), nil).
			WithSearch("battle card").
			WithSort(query.SortDuration).
			WithPageSize(10).
			WithOffset(30)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc := Encode(tt.q)
			got, warns := Decode(enc)
			if len(warns) != 0 {
				t.Fatalf("unexpected warnings: %v", warns)
			}
			if !got.Equal(tt.q) {
				t.Errorf("Decode(Encode(q)) != q\nencoded: %s\nre-encoded: %s", enc.Encode(), Encode(got).Encode())
			}
			// The wire form survives a URL round trip too.
			parsed, err := url.ParseQuery(enc.Encode())
			if err != nil {
				t.Fatal(err)
			}
			if again, _ := Decode(parsed); !again.Equal(tt.q) {
				t.Error("query string round trip changed the query")
			}
		})
	}
}

func everyDimension() query.Query {
	q := query.New()
	for _, d := range taxonomy.MultiValue() {
		q = q.WithTerms(d, "t2", "t1")
	}
	for _, d := range taxonomy.SingleValue() {
		q = q.WithValue(d, "v1")
	}
	return q
}

func TestEncode_Canonical(t *testing.T) {
	q := query.New().
		WithTerms(taxonomy.Team, "sales", "marketing").
		WithValue(taxonomy.Format, "deck").
		WithSearch("roi")

	got := Encode(q).Encode()
	want := "format=deck&q=roi&team=marketing%2Csales"
	if got != want {
		t.Errorf("Encode = %q, want %q", got, want)
	}
	if s := Encode(query.New()).Encode(); s != "" {
		t.Errorf("empty query encodes to %q", s)
	}
}

func TestDecode_RepeatedAndCommaJoined(t *testing.T) {
	a, _ := Decode(url.Values{"product": {"hero", "sidekick"}})
	b, _ := Decode(url.Values{"product": {"sidekick,hero"}})
	c, _ := Decode(url.Values{"product": {"hero, sidekick", "hero"}})
	if !a.Equal(b) || !a.Equal(c) {
		t.Error("repeated keys and comma-joined values must decode alike")
	}
	if diff := cmp.Diff([]string{"hero", "sidekick"}, a.Terms(taxonomy.Product).IDs()); diff != "" {
		t.Errorf("ids (-want +got):\n%s", diff)
	}
}

func TestDecode_AbsentEmptyAndAll(t *testing.T) {
	tests := []url.Values{
		{},
		{"product": {""}},
		{"product": {","}},
		{"format": {"all"}},
		{"product": {"all"}},
		{"utm_source": {"mail"}, "page": {"3"}},
	}
	for _, v := range tests {
		q, warns := Decode(v)
		if len(q.ConstrainedDimensions()) != 0 {
			t.Errorf("Decode(%v) constrained %v", v, q.ConstrainedDimensions())
		}
		if len(warns) != 0 {
			t.Errorf("Decode(%v) warnings %v", v, warns)
		}
	}
}

func TestDecode_Warnings(t *testing.T) {
	tests := []struct {
		name  string
		in    url.Values
		want  []query.Warning
		check func(t *testing.T, q query.Query)
	}{
		{
			name: "unknown sort",
			in:   url.Values{"sort": {"random"}},
			want: []query.Warning{{Field: "sort", Value: "random", Reason: query.ReasonUnknownSort}},
			check: func(t *testing.T, q query.Query) {
				if q.Sort() != query.DefaultSort {
					t.Errorf("sort = %q", q.Sort())
				}
			},
		},
		{
			name: "invalid date",
			in:   url.Values{"from": {"2024-13-01"}, "to": {"2024-02-01"}},
			want: []query.Warning{{Field: "from", Value: "2024-13-01", Reason: query.ReasonInvalidDate}},
			check: func(t *testing.T, q query.Query) {
				if _, ok := q.DateRange().From(); ok {
					t.Error("invalid bound must be ignored")
				}
				if _, ok := q.DateRange().To(); !ok {
					t.Error("valid bound must be kept")
				}
			},
		},
		{
			name: "inverted range",
			in:   url.Values{"from": {"2024-03-01"}, "to": {"2024-02-01"}},
			want: []query.Warning{{Field: "from", Value: "2024-03-01", Reason: query.ReasonInvertedRange}},
		},
		{
			name: "bad page size",
			in:   url.Values{"page_size": {"-3"}},
			want: []query.Warning{{Field: "page_size", Value: "-3", Reason: query.ReasonInvalidPageSize}},
			check: func(t *testing.T, q query.Query) {
				if q.PageSize() != 0 {
					t.Errorf("page size = %d", q.PageSize())
				}
			},
		},
		{
			name: "bad offset",
			in:   url.Values{"offset": {"x"}},
			want: []query.Warning{{Field: "offset", Value: "x", Reason: query.ReasonInvalidOffset}},
		},
		{
			name: "cursor and offset",
			in:   url.Values{"offset": {"20"}, "cursor": {"tok"}},
			want: []query.Warning{{Field: "offset", Value: "20", Reason: query.ReasonCursorAndOffset}},
			check: func(t *testing.T, q query.Query) {
				if q.Cursor() != "tok" || q.Offset() != 0 {
					t.Errorf("cursor=%q offset=%d", q.Cursor(), q.Offset())
				}
			},
		},
		{
			name: "invalid status",
			in:   url.Values{"status": {"live"}},
			want: []query.Warning{{Field: "status", Value: "live", Reason: query.ReasonInvalidStatus}},
			check: func(t *testing.T, q query.Query) {
				if q.Status() != query.StatusDefault {
					t.Errorf("status = %q", q.Status())
				}
			},
		},
		{
			name: "all with terms",
			in:   url.Values{"product": {"all,hero"}},
			want: []query.Warning{{Field: "product", Value: "all,hero", Reason: query.ReasonAllWithTerms}},
			check: func(t *testing.T, q query.Query) {
				if diff := cmp.Diff([]string{"hero"}, q.Terms(taxonomy.Product).IDs()); diff != "" {
					t.Errorf("product ids (-want +got):\n%s", diff)
				}
			},
		},
		{
			name: "several single values",
			in:   url.Values{"format": {"video,deck"}},
			want: []query.Warning{{Field: "format", Value: "video,deck", Reason: query.ReasonMultipleValues}},
			check: func(t *testing.T, q query.Query) {
				if q.Value(taxonomy.Format) != "video" {
					t.Errorf("format = %q, want first given", q.Value(taxonomy.Format))
				}
			},
		},
		{
			name: "garbage term id stays and matches nothing",
			in:   url.Values{"product": {"<script>"}},
			want: []query.Warning{{Field: "product", Value: "<script>", Reason: query.ReasonInvalidTermID}},
			check: func(t *testing.T, q query.Query) {
				if !q.Constrained(taxonomy.Product) {
					t.Error("garbage id must keep the category constrained")
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, warns := Decode(tt.in)
			if diff := cmp.Diff(tt.want, warns); diff != "" {
				t.Errorf("warnings (-want +got):\n%s", diff)
			}
			if tt.check != nil {
				tt.check(t, q)
			}
		})
	}
}

func TestFingerprint(t *testing.T) {
	base := query.New().WithTerms(taxonomy.Product, "hero").WithSearch("roi")

	if Fingerprint(base) != Fingerprint(base.WithSort(query.SortTitle).WithPageSize(5).WithCursor("x")) {
		t.Error("fingerprint must ignore sort and paging")
	}
	if Fingerprint(base) == Fingerprint(base.WithTerms(taxonomy.Product, "hero", "sidekick")) {
		t.Error("fingerprint must change with selections")
	}
	if Fingerprint(base) == Fingerprint(base.WithStatus(query.StatusAll)) {
		t.Error("fingerprint must change with status")
	}
	if Fingerprint(base) == Fingerprint(base.WithSearch("roi 2")) {
		t.Error("fingerprint must change with search")
	}
	if len(Fingerprint(base)) != 24 {
		t.Errorf("fingerprint length = %d", len(Fingerprint(base)))
	}
}
