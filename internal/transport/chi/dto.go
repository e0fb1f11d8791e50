package chi

import (
	"time"

	domcat "github.com/kailas-cloud/facetdex/internal/domain/catalog"
	"github.com/kailas-cloud/facetdex/internal/domain/query"
	"github.com/kailas-cloud/facetdex/internal/domain/taxonomy"
	"github.com/kailas-cloud/facetdex/internal/engine/facet"
	cataloguc "github.com/kailas-cloud/facetdex/internal/usecase/catalog"
)

// ErrorCode is a stable machine-readable error identifier.
type ErrorCode string

// Error codes returned in ErrorResponse.Code.
const (
	CodeBadRequest        ErrorCode = "bad_request"
	CodeUnauthorized      ErrorCode = "unauthorized"
	CodeCursorMismatch    ErrorCode = "cursor_mismatch"
	CodeInvalidCursor     ErrorCode = "invalid_cursor"
	CodeEntryNotFound     ErrorCode = "entry_not_found"
	CodeUnknownDimension  ErrorCode = "unknown_dimension"
	CodeSourceUnavailable ErrorCode = "source_unavailable"
	CodeTimeout           ErrorCode = "timeout"
	CodeInternalError     ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// EntryResponse is the public shape of a catalog entry.
type EntryResponse struct {
	ID             string              `json:"id"`
	Title          string              `json:"title"`
	Description    string              `json:"description,omitempty"`
	Body           string              `json:"body,omitempty"`
	KeyTakeaways   []string            `json:"key_takeaways,omitempty"`
	Status         string              `json:"status"`
	PublishDate    *string             `json:"publish_date,omitempty"`
	Priority       int                 `json:"priority"`
	Duration       *int                `json:"duration_minutes,omitempty"`
	Featured       bool                `json:"featured"`
	ShowInUpcoming bool                `json:"show_in_upcoming"`
	Terms          map[string][]string `json:"terms,omitempty"`
	Values         map[string]string   `json:"values,omitempty"`
}

// TermResponse is one taxonomy option.
type TermResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Icon  string `json:"icon,omitempty"`
	Color string `json:"color,omitempty"`
}

// FacetRow is one term with its count under the current filters.
type FacetRow struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Count    int    `json:"count"`
	Selected bool   `json:"selected"`
}

// SearchResponse is the body of GET /api/v1/catalog/search.
type SearchResponse struct {
	Items      []EntryResponse       `json:"items"`
	Facets     map[string][]FacetRow `json:"facets"`
	Total      int                   `json:"total"`
	HasMore    bool                  `json:"has_more"`
	NextCursor string                `json:"next_cursor,omitempty"`
	NextOffset int                   `json:"next_offset,omitempty"`
	Warnings   []query.Warning       `json:"warnings"`
	Version    uint64                `json:"version"`
	Seq        *int64                `json:"seq,omitempty"`
}

// TaxonomyResponse is the body of GET /api/v1/taxonomy/{dimension}.
type TaxonomyResponse struct {
	Dimension string         `json:"dimension"`
	Multi     bool           `json:"multi"`
	Terms     []TermResponse `json:"terms"`
}

// RefreshResponse is the body of POST /api/v1/admin/refresh.
type RefreshResponse struct {
	Version uint64    `json:"version"`
	Entries int       `json:"entries"`
	BuiltAt time.Time `json:"built_at"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status          string            `json:"status"`
	Checks          map[string]string `json:"checks"`
	SnapshotVersion uint64            `json:"snapshot_version"`
	SnapshotAgeSec  float64           `json:"snapshot_age_sec"`
}

func entryToResponse(e *domcat.Entry) EntryResponse {
	resp := EntryResponse{
		ID:             e.ID(),
		Title:          e.Title(),
		Description:    e.Description(),
		Body:           e.Body(),
		KeyTakeaways:   e.KeyTakeaways(),
		Status:         string(e.Status()),
		Priority:       e.Priority(),
		Featured:       e.Featured(),
		ShowInUpcoming: e.ShowInUpcoming(),
	}
	if t, ok := e.PublishDate(); ok {
		s := t.Format(time.DateOnly)
		resp.PublishDate = &s
	}
	if e.HasDuration() {
		d := e.Duration()
		resp.Duration = &d
	}
	for _, d := range taxonomy.MultiValue() {
		if set := e.Terms(d); !set.IsEmpty() {
			if resp.Terms == nil {
				resp.Terms = make(map[string][]string)
			}
			resp.Terms[string(d)] = set.IDs()
		}
	}
	for _, d := range taxonomy.SingleValue() {
		if v := e.Value(d); v != "" {
			if resp.Values == nil {
				resp.Values = make(map[string]string)
			}
			resp.Values[string(d)] = v
		}
	}
	return resp
}

func termToResponse(t taxonomy.Term) TermResponse {
	return TermResponse{ID: t.ID(), Name: t.Name(), Slug: t.Slug(), Icon: t.Icon(), Color: t.Color()}
}

// NewSearchResponse renders a query result in its wire form. seq is echoed
// when non-nil.
func NewSearchResponse(r *cataloguc.Response, seq *int64) SearchResponse {
	items := make([]EntryResponse, len(r.Items))
	for i := range r.Items {
		items[i] = entryToResponse(&r.Items[i])
	}
	warnings := r.Warnings
	if warnings == nil {
		warnings = []query.Warning{}
	}
	return SearchResponse{
		Items:      items,
		Facets:     facetsToResponse(r.Facets),
		Total:      r.Total,
		HasMore:    r.HasMore,
		NextCursor: r.NextCursor,
		NextOffset: r.NextOffset,
		Warnings:   warnings,
		Version:    r.Version,
		Seq:        seq,
	}
}

func facetsToResponse(res facet.Result) map[string][]FacetRow {
	out := make(map[string][]FacetRow, len(res))
	for d, rows := range res {
		list := make([]FacetRow, len(rows))
		for i, c := range rows {
			list[i] = FacetRow{ID: c.Term.ID(), Name: c.Term.Name(), Count: c.Count, Selected: c.Selected}
		}
		out[string(d)] = list
	}
	return out
}
