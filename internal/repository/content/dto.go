package content

import (
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/facetdex/internal/domain"
	domcat "github.com/kailas-cloud/facetdex/internal/domain/catalog"
	"github.com/kailas-cloud/facetdex/internal/domain/taxonomy"
)

// entryDoc is the stored shape of an entry, shared by every adapter.
// Taxonomy references are already dereferenced to term ids.
type entryDoc struct {
	ID             string              `json:"id" yaml:"id"`
	Title          string              `json:"title" yaml:"title"`
	Description    string              `json:"description,omitempty" yaml:"description,omitempty"`
	Body           string              `json:"body,omitempty" yaml:"body,omitempty"`
	KeyTakeaways   []string            `json:"key_takeaways,omitempty" yaml:"key_takeaways,omitempty"`
	Status         string              `json:"status" yaml:"status"`
	PublishDate    string              `json:"publish_date,omitempty" yaml:"publish_date,omitempty"`
	Priority       *int                `json:"priority,omitempty" yaml:"priority,omitempty"`
	Duration       *int                `json:"duration_minutes,omitempty" yaml:"duration_minutes,omitempty"`
	Featured       bool                `json:"featured,omitempty" yaml:"featured,omitempty"`
	ShowInUpcoming bool                `json:"show_in_upcoming,omitempty" yaml:"show_in_upcoming,omitempty"`
	Terms          map[string][]string `json:"terms,omitempty" yaml:"terms,omitempty"`
	Values         map[string]string   `json:"values,omitempty" yaml:"values,omitempty"`
}

// termDoc is the stored shape of a taxonomy term.
type termDoc struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Slug  string `json:"slug,omitempty" yaml:"slug,omitempty"`
	Icon  string `json:"icon,omitempty" yaml:"icon,omitempty"`
	Color string `json:"color,omitempty" yaml:"color,omitempty"`
	Order *int   `json:"order,omitempty" yaml:"order,omitempty"`
}

const dateLayout = time.DateOnly

func (d *entryDoc) toDomain() (domcat.Entry, error) {
	draft := domcat.Params{
		ID:             d.ID,
		Title:          d.Title,
		Description:    d.Description,
		Body:           d.Body,
		KeyTakeaways:   d.KeyTakeaways,
		Status:         domcat.Status(d.Status),
		Priority:       d.Priority,
		Duration:       d.Duration,
		Featured:       d.Featured,
		ShowInUpcoming: d.ShowInUpcoming,
	}
	if d.PublishDate != "" {
		t, err := parseDate(d.PublishDate)
		if err != nil {
			return domcat.Entry{}, fmt.Errorf("%w: entry %q: %w", domain.ErrInvalidEntry, d.ID, err)
		}
		draft.PublishDate = &t
	}
	if len(d.Terms) > 0 {
		draft.Terms = make(map[taxonomy.Dimension][]string, len(d.Terms))
		for dim, ids := range d.Terms {
			draft.Terms[taxonomy.Dimension(dim)] = ids
		}
	}
	if len(d.Values) > 0 {
		draft.Values = make(map[taxonomy.Dimension]string, len(d.Values))
		for dim, v := range d.Values {
			draft.Values[taxonomy.Dimension(dim)] = v
		}
	}

	e, err := domcat.New(draft)
	if err != nil {
		return domcat.Entry{}, fmt.Errorf("%w: %w", domain.ErrInvalidEntry, err)
	}
	return e, nil
}

// parseDate accepts a plain date or a full RFC 3339 timestamp, normalized to UTC.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid publish_date %q", s)
	}
	return t.UTC(), nil
}

func entryToDoc(e *domcat.Entry) entryDoc {
	d := entryDoc{
		ID:             e.ID(),
		Title:          e.Title(),
		Description:    e.Description(),
		Body:           e.Body(),
		KeyTakeaways:   e.KeyTakeaways(),
		Status:         string(e.Status()),
		Featured:       e.Featured(),
		ShowInUpcoming: e.ShowInUpcoming(),
	}
	if t, ok := e.PublishDate(); ok {
		if t.Equal(t.Truncate(24 * time.Hour)) {
			d.PublishDate = t.Format(dateLayout)
		} else {
			d.PublishDate = t.Format(time.RFC3339)
		}
	}
	if e.HasPriority() {
		p := e.Priority()
		d.Priority = &p
	}
	if e.HasDuration() {
		m := e.Duration()
		d.Duration = &m
	}
	for _, dim := range taxonomy.MultiValue() {
		if s := e.Terms(dim); !s.IsEmpty() {
			if d.Terms == nil {
				d.Terms = make(map[string][]string)
			}
			d.Terms[string(dim)] = s.IDs()
		}
	}
	for _, dim := range taxonomy.SingleValue() {
		if v := e.Value(dim); v != "" {
			if d.Values == nil {
				d.Values = make(map[string]string)
			}
			d.Values[string(dim)] = v
		}
	}
	return d
}

func (d *termDoc) toDomain() (taxonomy.Term, error) {
	t, err := taxonomy.NewTerm(d.ID, d.Name, d.Slug, d.Icon, d.Color, d.Order)
	if err != nil {
		return taxonomy.Term{}, fmt.Errorf("%w: %w", domain.ErrInvalidTerm, err)
	}
	return t, nil
}

func termToDoc(t taxonomy.Term) termDoc {
	d := termDoc{ID: t.ID(), Name: t.Name(), Icon: t.Icon(), Color: t.Color()}
	if t.Slug() != t.ID() {
		d.Slug = t.Slug()
	}
	if o, ok := t.Order(); ok {
		d.Order = &o
	}
	return d
}

// decodeEntries converts stored docs, keeping those whose status is wanted.
// Invalid docs are logged and skipped so one bad record cannot block a refresh.
func decodeEntries(docs []entryDoc, statuses []domcat.Status, logger *zap.Logger) []domcat.Entry {
	logger = nopIfNil(logger)
	out := make([]domcat.Entry, 0, len(docs))
	for i := range docs {
		if !wanted(domcat.Status(docs[i].Status), statuses) {
			continue
		}
		e, err := docs[i].toDomain()
		if err != nil {
			logger.Warn("skip invalid entry", zap.String("id", docs[i].ID), zap.Error(err))
			continue
		}
		out = append(out, e)
	}
	return out
}

func decodeTerms(d taxonomy.Dimension, docs []termDoc, logger *zap.Logger) []taxonomy.Term {
	logger = nopIfNil(logger)
	out := make([]taxonomy.Term, 0, len(docs))
	for i := range docs {
		t, err := docs[i].toDomain()
		if err != nil {
			logger.Warn("skip invalid term",
				zap.String("dimension", string(d)), zap.String("id", docs[i].ID), zap.Error(err))
			continue
		}
		out = append(out, t)
	}
	return out
}

// wanted reports whether s is in statuses. Docs without a status default to
// draft, mirroring domain validation.
func wanted(s domcat.Status, statuses []domcat.Status) bool {
	if s == "" {
		s = domcat.Draft
	}
	return slices.Contains(statuses, s)
}

func nopIfNil(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
