package taxonomy

import (
	"fmt"
	"regexp"
	"sort"
)

// Dimension is a facetable taxonomy axis of the catalog.
type Dimension string

// Multi-value categories: an entry carries a set of terms.
const (
	Product  Dimension = "product"
	Team     Dimension = "team"
	Topic    Dimension = "topic"
	Stage    Dimension = "stage"
	Industry Dimension = "industry"
	COE      Dimension = "coe"
)

// Single-value fields: an entry carries at most one term.
const (
	Competitor Dimension = "competitor"
	Format     Dimension = "format"
	Difficulty Dimension = "difficulty"
	Presenter  Dimension = "presenter"
)

var (
	multiValue  = []Dimension{Product, Team, Topic, Stage, Industry, COE}
	singleValue = []Dimension{Competitor, Format, Difficulty, Presenter}
	all         = append(append([]Dimension{}, multiValue...), singleValue...)
)

// All returns every dimension in canonical order (multi-value first).
func All() []Dimension { return append([]Dimension(nil), all...) }

// MultiValue returns the multi-value categories in canonical order.
func MultiValue() []Dimension { return append([]Dimension(nil), multiValue...) }

// SingleValue returns the single-value fields in canonical order.
func SingleValue() []Dimension { return append([]Dimension(nil), singleValue...) }

// IsValid reports whether d is a known dimension.
func (d Dimension) IsValid() bool {
	for _, x := range all {
		if x == d {
			return true
		}
	}
	return false
}

// IsMulti reports whether d is a multi-value category.
func (d Dimension) IsMulti() bool {
	for _, x := range multiValue {
		if x == d {
			return true
		}
	}
	return false
}

// Index returns the position of d in All(), or -1.
func (d Dimension) Index() int {
	for i, x := range all {
		if x == d {
			return i
		}
	}
	return -1
}

// ParseDimension converts a string to a known Dimension.
func ParseDimension(s string) (Dimension, error) {
	d := Dimension(s)
	if !d.IsValid() {
		return "", fmt.Errorf("unknown dimension %q", s)
	}
	return d, nil
}

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_.:-]+$`)

// MaxIDLength bounds term and entry identifiers.
const MaxIDLength = 256

// AllID selects every option of a category. It is never a term id.
const AllID = "all"

// ValidID reports whether s can be used as a term or entry identifier.
// Commas are excluded so ids survive comma-joined query encoding.
func ValidID(s string) bool {
	return s != "" && len(s) <= MaxIDLength && idRegex.MatchString(s)
}

// ValidTermID is ValidID minus the reserved AllID.
func ValidTermID(s string) bool {
	return s != AllID && ValidID(s)
}

// Term is an immutable taxonomy option.
type Term struct {
	id    string
	name  string
	slug  string
	icon  string
	color string
	order *int
}

// NewTerm validates and creates a Term.
func NewTerm(id, name, slug, icon, color string, order *int) (Term, error) {
	if id == AllID {
		return Term{}, fmt.Errorf("term id %q is reserved", id)
	}
	if !ValidID(id) {
		return Term{}, fmt.Errorf("term id %q must be 1-%d chars of [a-zA-Z0-9_.:-]", id, MaxIDLength)
	}
	if name == "" {
		return Term{}, fmt.Errorf("term %q: name is required", id)
	}
	if slug == "" {
		slug = id
	}
	var o *int
	if order != nil {
		v := *order
		o = &v
	}
	return Term{id: id, name: name, slug: slug, icon: icon, color: color, order: o}, nil
}

// ID returns the term identifier.
func (t Term) ID() string { return t.id }

// Name returns the display name.
func (t Term) Name() string { return t.name }

// Slug returns the URL slug.
func (t Term) Slug() string { return t.slug }

// Icon returns the optional icon reference.
func (t Term) Icon() string { return t.icon }

// Color returns the optional color.
func (t Term) Color() string { return t.color }

// Order returns the explicit display order, if any.
func (t Term) Order() (int, bool) {
	if t.order == nil {
		return 0, false
	}
	return *t.order, true
}

// SortTerms orders terms for display: explicit order first (ascending),
// then by name, then by id.
func SortTerms(terms []Term) {
	sort.SliceStable(terms, func(i, j int) bool {
		oi, hasI := terms[i].Order()
		oj, hasJ := terms[j].Order()
		if hasI != hasJ {
			return hasI
		}
		if hasI && oi != oj {
			return oi < oj
		}
		if terms[i].name != terms[j].name {
			return terms[i].name < terms[j].name
		}
		return terms[i].id < terms[j].id
	})
}
