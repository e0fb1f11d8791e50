package page

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/query"
	"github.com/kailas-cloud/facetdex/internal/engine/order"
)

const cursorVersion = 1

// Cursor is the decoded content of a pagination token: the sort position of
// the last item served, and the sort and filter state it was issued for.
type Cursor struct {
	Version     int            `json:"v"`
	Sort        query.SortKey  `json:"s"`
	Fingerprint string         `json:"f"`
	Position    order.Position `json:"p"`
}

// Encode returns the opaque token.
func (c Cursor) Encode() string {
	c.Version = cursorVersion
	raw, err := json.Marshal(c)
	if err != nil {
		// Cursor holds only strings, ints and bools.
		panic(fmt.Sprintf("page: marshal cursor: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeCursor parses a token produced by Encode.
func DecodeCursor(token string) (Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: %v", domain.ErrInvalidCursor, err)
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return Cursor{}, fmt.Errorf("%w: %v", domain.ErrInvalidCursor, err)
	}
	if c.Version != cursorVersion {
		return Cursor{}, fmt.Errorf("%w: unsupported version %d", domain.ErrInvalidCursor, c.Version)
	}
	if !c.Sort.IsValid() || c.Position.ID == "" {
		return Cursor{}, fmt.Errorf("%w: incomplete cursor", domain.ErrInvalidCursor)
	}
	return c, nil
}
