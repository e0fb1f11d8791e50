package catalog

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/facetdex/internal/domain/taxonomy"
)

// Status is the publication state of an entry.
type Status string

// Status constants.
const (
	Published Status = "published"
	Draft     Status = "draft"
	Archived  Status = "archived"
)

// IsValid checks if the status is one of the supported values.
func (s Status) IsValid() bool {
	return s == Published || s == Draft || s == Archived
}

// Statuses returns every known status.
func Statuses() []Status { return []Status{Published, Draft, Archived} }

// DefaultPriority is the priority assumed when an entry does not set one.
const DefaultPriority = 50

// Params is the unvalidated input for New. Term lists may contain duplicates;
// they are collapsed into sets.
type Params struct {
	ID             string
	Title          string
	Description    string
	Body           string
	KeyTakeaways   []string
	Status         Status
	PublishDate    *time.Time
	Priority       *int
	Duration       *int // minutes
	Featured       bool
	ShowInUpcoming bool
	Terms          map[taxonomy.Dimension][]string // multi-value categories
	Values         map[taxonomy.Dimension]string   // single-value fields
}

// Entry is an immutable catalog document with typed taxonomy sets.
type Entry struct {
	id             string
	title          string
	description    string
	body           string
	takeaways      []string
	status         Status
	publishDate    *time.Time
	priority       *int
	duration       *int
	featured       bool
	showInUpcoming bool
	terms          map[taxonomy.Dimension]taxonomy.Set
	values         map[taxonomy.Dimension]string
}

// New validates Params and creates an Entry.
func New(d Params) (Entry, error) {
	if !taxonomy.ValidID(d.ID) {
		return Entry{}, fmt.Errorf("entry id %q must be 1-%d chars of [a-zA-Z0-9_.:-]", d.ID, taxonomy.MaxIDLength)
	}
	if d.Title == "" {
		return Entry{}, fmt.Errorf("entry %q: title is required", d.ID)
	}
	if d.Status == "" {
		d.Status = Draft
	}
	if !d.Status.IsValid() {
		return Entry{}, fmt.Errorf("entry %q: invalid status %q", d.ID, d.Status)
	}
	if d.Duration != nil && *d.Duration < 0 {
		return Entry{}, fmt.Errorf("entry %q: duration must not be negative", d.ID)
	}

	terms := make(map[taxonomy.Dimension]taxonomy.Set, len(d.Terms))
	for dim, ids := range d.Terms {
		if !dim.IsMulti() {
			return Entry{}, fmt.Errorf("entry %q: %q is not a multi-value category", d.ID, dim)
		}
		for _, id := range ids {
			if !taxonomy.ValidTermID(id) {
				return Entry{}, fmt.Errorf("entry %q: invalid %s term id %q", d.ID, dim, id)
			}
		}
		if s := taxonomy.NewSet(ids...); !s.IsEmpty() {
			terms[dim] = s
		}
	}

	values := make(map[taxonomy.Dimension]string, len(d.Values))
	for dim, v := range d.Values {
		if !dim.IsValid() || dim.IsMulti() {
			return Entry{}, fmt.Errorf("entry %q: %q is not a single-value field", d.ID, dim)
		}
		if v == "" {
			continue
		}
		if !taxonomy.ValidTermID(v) {
			return Entry{}, fmt.Errorf("entry %q: invalid %s value %q", d.ID, dim, v)
		}
		values[dim] = v
	}

	return Entry{
		id:             d.ID,
		title:          d.Title,
		description:    d.Description,
		body:           d.Body,
		takeaways:      append([]string(nil), d.KeyTakeaways...),
		status:         d.Status,
		publishDate:    cloneTime(d.PublishDate),
		priority:       cloneInt(d.Priority),
		duration:       cloneInt(d.Duration),
		featured:       d.Featured,
		showInUpcoming: d.ShowInUpcoming,
		terms:          terms,
		values:         values,
	}, nil
}

// ID returns the entry identifier.
func (e *Entry) ID() string { return e.id }

// Title returns the display title.
func (e *Entry) Title() string { return e.title }

// Description returns the short description.
func (e *Entry) Description() string { return e.description }

// Body returns the long-form searchable text.
func (e *Entry) Body() string { return e.body }

// KeyTakeaways returns the key-takeaway strings.
func (e *Entry) KeyTakeaways() []string { return e.takeaways }

// Status returns the publication status.
func (e *Entry) Status() Status { return e.status }

// PublishDate returns the publish date, if set.
func (e *Entry) PublishDate() (time.Time, bool) {
	if e.publishDate == nil {
		return time.Time{}, false
	}
	return *e.publishDate, true
}

// Priority returns the priority, DefaultPriority when unset.
func (e *Entry) Priority() int {
	if e.priority == nil {
		return DefaultPriority
	}
	return *e.priority
}

// HasPriority reports whether priority was set explicitly.
func (e *Entry) HasPriority() bool { return e.priority != nil }

// Duration returns the duration in minutes, 0 when unset.
func (e *Entry) Duration() int {
	if e.duration == nil {
		return 0
	}
	return *e.duration
}

// HasDuration reports whether duration was set explicitly.
func (e *Entry) HasDuration() bool { return e.duration != nil }

// Featured reports whether the entry is featured.
func (e *Entry) Featured() bool { return e.featured }

// ShowInUpcoming reports whether the entry is listed as upcoming.
func (e *Entry) ShowInUpcoming() bool { return e.showInUpcoming }

// Terms returns the term set for a multi-value category (empty if none).
func (e *Entry) Terms(d taxonomy.Dimension) taxonomy.Set { return e.terms[d] }

// Value returns the term id of a single-value field ("" if unset).
func (e *Entry) Value(d taxonomy.Dimension) string { return e.values[d] }

// Tagged reports whether the entry carries term id in dimension d.
func (e *Entry) Tagged(d taxonomy.Dimension, id string) bool {
	if d.IsMulti() {
		return e.terms[d].Contains(id)
	}
	return e.values[d] == id && id != ""
}

// WithoutUnknownTerms returns a copy keeping only term ids for which known
// reports true, plus the list of dropped "dimension:id" pairs.
func (e *Entry) WithoutUnknownTerms(known func(d taxonomy.Dimension, id string) bool) (Entry, []string) {
	var dropped []string
	out := *e
	out.terms = make(map[taxonomy.Dimension]taxonomy.Set, len(e.terms))
	for _, dim := range taxonomy.MultiValue() {
		s, ok := e.terms[dim]
		if !ok {
			continue
		}
		kept := s.Filter(func(id string) bool {
			if known(dim, id) {
				return true
			}
			dropped = append(dropped, string(dim)+":"+id)
			return false
		})
		if !kept.IsEmpty() {
			out.terms[dim] = kept
		}
	}
	out.values = make(map[taxonomy.Dimension]string, len(e.values))
	for _, dim := range taxonomy.SingleValue() {
		v, ok := e.values[dim]
		if !ok {
			continue
		}
		if known(dim, v) {
			out.values[dim] = v
		} else {
			dropped = append(dropped, string(dim)+":"+v)
		}
	}
	return out, dropped
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

func cloneInt(i *int) *int {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}
