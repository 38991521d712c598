// Package pagination parses page/limit query parameters, computes page metadata and
// renders offset-based SQL clauses.
package pagination

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"genesis-api/pkg/envelope"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// maxParsed caps parsed integers so (page-1)*limit cannot overflow.
const maxParsed = math.MaxInt32

type Defaults struct {
	Page      int
	Limit     int
	MaxLimit  int
	SortBy    string
	SortOrder SortOrder
}

var DefaultDefaults = Defaults{
	Page:      1,
	Limit:     20,
	MaxLimit:  100,
	SortBy:    "createdAt",
	SortOrder: SortDesc,
}

type Params struct {
	Page      int       `json:"page"`
	Limit     int       `json:"limit"`
	SortBy    string    `json:"sortBy"`
	SortOrder SortOrder `json:"sortOrder"`
}

// Offset is the number of rows skipped before this page.
func (p Params) Offset() int {
	page, limit := resolve(p)
	return (page - 1) * limit
}

type Meta struct {
	Page        int  `json:"page"`
	Limit       int  `json:"limit"`
	Total       int  `json:"total"`
	TotalPages  int  `json:"totalPages"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

type Page[T any] struct {
	Success    bool           `json:"success"`
	Data       []T            `json:"data"`
	Pagination Meta           `json:"pagination"`
	Meta       *envelope.Meta `json:"meta,omitempty"`
}

// Source is anything that can look up a single query value. url.Values satisfies it.
type Source interface {
	Get(key string) string
}

// Map adapts a plain key/value map to Source.
type Map map[string]string

func (m Map) Get(key string) string {
	return m[key]
}

// Parse reads page, limit, sortBy and sortOrder from src. Invalid values are coerced
// to defaults, never rejected.
func Parse(src Source, defaults Defaults) Params {
	d := defaults.withFallbacks()
	get := func(key string) string {
		if src == nil {
			return ""
		}
		return src.Get(key)
	}

	page, ok := parseLeadingInt(get("page"))
	if !ok || page == 0 {
		page = d.Page
	}
	page = max(1, page)

	limit, ok := parseLeadingInt(get("limit"))
	if !ok || limit == 0 {
		limit = d.Limit
	}
	limit = min(d.MaxLimit, max(1, limit))

	sortBy := get("sortBy")
	if sortBy == "" {
		sortBy = d.SortBy
	}

	sortOrder := d.SortOrder
	if get("sortOrder") == string(SortAsc) {
		sortOrder = SortAsc
	}

	return Params{Page: page, Limit: limit, SortBy: sortBy, SortOrder: sortOrder}
}

// NewMeta derives page metadata. A page past the last one is returned as is with
// HasNextPage=false.
func NewMeta(total int, params Params) Meta {
	page, limit := resolve(params)

	totalPages := 0
	if total > 0 {
		totalPages = total / limit
		if total%limit != 0 {
			totalPages++
		}
	}

	return Meta{
		Page:        page,
		Limit:       limit,
		Total:       total,
		TotalPages:  totalPages,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1,
	}
}

// NewPage wraps one page of data. It has no failure path.
func NewPage[T any](data []T, total int, params Params, meta *envelope.Meta) Page[T] {
	if data == nil {
		data = []T{}
	}
	stamped := envelope.MergeMeta(envelope.Stamp(), meta)

	return Page[T]{
		Success:    true,
		Data:       data,
		Pagination: NewMeta(total, params),
		Meta:       &stamped,
	}
}

// SQLClause renders "LIMIT n OFFSET m". Page and limit are trusted as given; only
// zero values are replaced by defaults.
func SQLClause(params Params) string {
	page, limit := resolve(params)
	return fmt.Sprintf("LIMIT %d OFFSET %d", limit, (page-1)*limit)
}

func resolve(p Params) (int, int) {
	page, limit := p.Page, p.Limit
	if page == 0 {
		page = DefaultDefaults.Page
	}
	if limit == 0 {
		limit = DefaultDefaults.Limit
	}
	return page, limit
}

func (d Defaults) withFallbacks() Defaults {
	if d.Page == 0 {
		d.Page = DefaultDefaults.Page
	}
	if d.Limit == 0 {
		d.Limit = DefaultDefaults.Limit
	}
	if d.MaxLimit == 0 {
		d.MaxLimit = DefaultDefaults.MaxLimit
	}
	if d.SortBy == "" {
		d.SortBy = DefaultDefaults.SortBy
	}
	if d.SortOrder != SortAsc && d.SortOrder != SortDesc {
		d.SortOrder = DefaultDefaults.SortOrder
	}
	return d
}

// parseLeadingInt accepts optional leading whitespace, an optional sign and a run of
// digits. Anything after the digits is ignored. Out-of-range values saturate.
func parseLeadingInt(raw string) (int, bool) {
	s := strings.TrimLeft(raw, " \t\n\r\v\f")

	negative := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		negative = s[0] == '-'
		s = s[1:]
	}

	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}

	v, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil || v > maxParsed {
		v = maxParsed
	}
	if negative {
		v = -v
	}

	return int(v), true
}
