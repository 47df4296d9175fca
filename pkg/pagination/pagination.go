package pagination

import (
	"net/http"
	"strconv"
)

const (
	DefaultLimit = 25
	MaxLimit     = 100
)

// Page captures limit/offset paging parsed from a request query string.
type Page struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// FromRequest reads limit and offset query params, clamping limit to
// [1, MaxLimit] and offset to >= 0. Missing or malformed values fall back
// to defaults rather than erroring.
func FromRequest(r *http.Request) Page {
	p := Page{Limit: DefaultLimit}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			p.Limit = v
		}
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}

	if raw := r.URL.Query().Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			p.Offset = v
		}
	}

	return p
}

// Meta describes the page returned alongside a collection payload.
type Meta struct {
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
	Total  int64 `json:"total"`
}

// MetaFor builds response metadata for a page and total row count.
func MetaFor(p Page, total int64) Meta {
	return Meta{Limit: p.Limit, Offset: p.Offset, Total: total}
}
