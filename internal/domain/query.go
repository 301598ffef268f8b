package domain

import (
	"strings"
	"time"
)

// SortOrder determines client-side ordering of results by publication date
type SortOrder string

const (
	SortNone       SortOrder = ""
	SortAscending  SortOrder = "asc"
	SortDescending SortOrder = "desc"
)

// ParseSortOrder validates a user-supplied sort order string
func ParseSortOrder(raw string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "none":
		return SortNone, nil
	case "asc", "ascending":
		return SortAscending, nil
	case "desc", "descending":
		return SortDescending, nil
	default:
		return SortNone, ErrInvalidSort
	}
}

// DateLayout is the ISO calendar format used in query parameters
const DateLayout = "2006-01-02"

// EpochFloor substitutes a missing start bound
const EpochFloor = "1980-01-01"

// DateRange holds optional ISO date bounds. An empty string means the bound
// was not supplied.
type DateRange struct {
	Start string
	End   string
}

// IsZero reports whether neither bound is set
func (r DateRange) IsZero() bool {
	return r.Start == "" && r.End == ""
}

// Normalize synthesizes missing bounds: a missing start becomes the epoch
// floor, a missing end becomes today's date. A fully empty range stays empty
// (no filter). Normalization is a client responsibility, never delegated to
// the backend.
func (r DateRange) Normalize(today time.Time) DateRange {
	if r.IsZero() {
		return r
	}
	out := r
	if out.Start == "" {
		out.Start = EpochFloor
	}
	if out.End == "" {
		out.End = today.Format(DateLayout)
	}
	return out
}

// Validate checks the supplied bounds before any network call is made.
// A bound later than today or a start after the end is rejected.
func (r DateRange) Validate(today time.Time) error {
	var start, end time.Time
	var err error

	if r.Start != "" {
		start, err = time.Parse(DateLayout, r.Start)
		if err != nil {
			return ErrInvalidDate
		}
	}
	if r.End != "" {
		end, err = time.Parse(DateLayout, r.End)
		if err != nil {
			return ErrInvalidDate
		}
	}

	day := today.Format(DateLayout)
	cutoff, _ := time.Parse(DateLayout, day)

	if r.Start != "" && start.After(cutoff) {
		return ErrFutureDateBound
	}
	if r.End != "" && end.After(cutoff) {
		return ErrFutureDateBound
	}
	if r.Start != "" && r.End != "" && start.After(end) {
		return ErrStartAfterEnd
	}
	return nil
}

// SearchQuery is the user's full search intent: query text plus the optional
// date filter and client-side sort order.
type SearchQuery struct {
	Text  string
	Dates DateRange
	Sort  SortOrder
}
