package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEntryNotFound signals a missing catalog entry.
	ErrEntryNotFound = errors.New("entry not found")
	// ErrUnknownDimension signals a taxonomy dimension the catalog does not define.
	ErrUnknownDimension = errors.New("unknown dimension")
	// ErrInvalidEntry signals an entry rejected at ingestion.
	ErrInvalidEntry = errors.New("invalid entry")
	// ErrInvalidTerm signals a taxonomy term rejected at ingestion.
	ErrInvalidTerm = errors.New("invalid term")

	// ErrSourceUnavailable signals a content store fetch failure.
	ErrSourceUnavailable = errors.New("content source unavailable")

	// ErrInvalidCursor signals a pagination token that cannot be decoded.
	ErrInvalidCursor = errors.New("invalid cursor")
	// ErrCursorMismatch signals a cursor issued for a different sort or filter state.
	ErrCursorMismatch = errors.New("cursor mismatch")
)

// CursorMismatchError wraps ErrCursorMismatch with the state the cursor was issued for.
type CursorMismatchError struct {
	CursorSort string
	QuerySort  string
	Filters    bool // filter fingerprint differs
}

func (e *CursorMismatchError) Error() string {
	if e.Filters {
		return fmt.Sprintf("%s: filters changed since cursor was issued", ErrCursorMismatch.Error())
	}
	return fmt.Sprintf("%s: cursor sort %q, query sort %q", ErrCursorMismatch.Error(), e.CursorSort, e.QuerySort)
}

func (e *CursorMismatchError) Unwrap() error { return ErrCursorMismatch }

// NewCursorMismatch creates a cursor mismatch error.
func NewCursorMismatch(cursorSort, querySort string, filters bool) error {
	return &CursorMismatchError{CursorSort: cursorSort, QuerySort: querySort, Filters: filters}
}
