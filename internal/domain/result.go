package domain

import (
	"sort"
	"strconv"
	"strings"
)

// ResultItem is a single search hit. Items have no identity beyond their
// position in the result set and are not deduplicated.
type ResultItem struct {
	URL           string `json:"url"`
	Title         string `json:"title"`
	PublishedDate string `json:"published_date,omitempty"`
	Snippet       string `json:"snippet,omitempty"`
}

// ResultPage is one page-worth window of results plus pagination metadata
// and the backend-issued continuation token ("query_key") that correlates
// follow-up filter/export calls with this result set.
type ResultPage struct {
	Items             []ResultItem
	TotalCount        int
	TotalPages        int
	PageNumber        int
	ContinuationToken string
}

// ParsePublishedDate parses the backend's "MM.YYYY" publication date.
// Returns ok=false for absent or unparseable values (the backend sometimes
// substitutes a human-readable placeholder).
func ParsePublishedDate(raw string) (year, month int, ok bool) {
	parts := strings.SplitN(raw, ".", 2)
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 4 {
		return 0, 0, false
	}
	month, err := strconv.Atoi(parts[0])
	if err != nil || month < 1 || month > 12 {
		return 0, 0, false
	}
	year, err = strconv.Atoi(parts[1])
	if err != nil || year < 1900 {
		return 0, 0, false
	}
	return year, month, true
}

// PublishedDateFromURL derives an "MM.YYYY" publication date from an arXiv
// URL when the backend did not supply one. Handles both the legacy
// archive-prefixed identifiers (quant-ph/9901011, years >= 80 are 19xx) and
// modern YYMM.NNNNN identifiers. Returns "" when nothing can be derived.
func PublishedDateFromURL(url string) string {
	if url == "" || !strings.Contains(url, "arxiv.org") {
		return ""
	}
	segments := strings.Split(strings.TrimRight(url, "/"), "/")
	id := segments[len(segments)-1]
	if len(id) < 4 {
		return ""
	}

	yy, err := strconv.Atoi(id[:2])
	if err != nil {
		return ""
	}
	mm, err := strconv.Atoi(id[2:4])
	if err != nil || mm < 1 || mm > 12 {
		return ""
	}

	var year int
	if strings.Contains(url, "quant-ph") && yy >= 80 {
		year = 1900 + yy
	} else {
		year = 2000 + yy
	}
	return id[2:4] + "." + strconv.Itoa(year)
}

// SortByPublishedDate reorders items in place by (year, month) of their
// publication date. The sort is stable: items with equal dates keep their
// relative order. Items without a parseable date compare as earliest
// possible, so ascending puts them first and descending pushes them last.
// SortNone leaves the slice untouched.
func SortByPublishedDate(items []ResultItem, order SortOrder) {
	if order == SortNone {
		return
	}

	sort.SliceStable(items, func(i, j int) bool {
		yi, mi, oki := ParsePublishedDate(items[i].PublishedDate)
		yj, mj, okj := ParsePublishedDate(items[j].PublishedDate)

		if order == SortAscending {
			if !oki {
				return okj // missing first, equal to other missing
			}
			if !okj {
				return false
			}
			if yi != yj {
				return yi < yj
			}
			return mi < mj
		}

		// descending: missing last
		if !oki {
			return false
		}
		if !okj {
			return true
		}
		if yi != yj {
			return yi > yj
		}
		return mi > mj
	})
}
