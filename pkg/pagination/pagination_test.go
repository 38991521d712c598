package pagination

import (
	"encoding/json"
	"math"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("clamps negative page and oversized limit", func(t *testing.T) {
		params := Parse(Map{"page": "-5", "limit": "9999"}, DefaultDefaults)
		require.Equal(t, Params{Page: 1, Limit: 100, SortBy: "createdAt", SortOrder: SortDesc}, params)
	})

	t.Run("missing values take defaults", func(t *testing.T) {
		require.Equal(t, Params{Page: 1, Limit: 20, SortBy: "createdAt", SortOrder: SortDesc}, Parse(Map{}, DefaultDefaults))
		require.Equal(t, Params{Page: 1, Limit: 20, SortBy: "createdAt", SortOrder: SortDesc}, Parse(nil, DefaultDefaults))
	})

	t.Run("non numeric and zero fall back", func(t *testing.T) {
		params := Parse(Map{"page": "abc", "limit": "0"}, DefaultDefaults)
		require.Equal(t, 1, params.Page)
		require.Equal(t, 20, params.Limit)
	})

	t.Run("limit below one is raised to one", func(t *testing.T) {
		require.Equal(t, 1, Parse(Map{"limit": "-3"}, DefaultDefaults).Limit)
	})

	t.Run("leading integer prefix is used", func(t *testing.T) {
		params := Parse(Map{"page": " 3abc", "limit": "12.9"}, DefaultDefaults)
		require.Equal(t, 3, params.Page)
		require.Equal(t, 12, params.Limit)
	})

	t.Run("huge numbers saturate", func(t *testing.T) {
		params := Parse(Map{"page": "99999999999999999999999", "limit": "99999999999999999999999"}, DefaultDefaults)
		require.Equal(t, maxParsed, params.Page)
		require.Equal(t, 100, params.Limit)
	})

	t.Run("sort order accepts only asc literal", func(t *testing.T) {
		require.Equal(t, SortAsc, Parse(Map{"sortOrder": "asc"}, DefaultDefaults).SortOrder)
		require.Equal(t, SortDesc, Parse(Map{"sortOrder": "desc"}, DefaultDefaults).SortOrder)
		require.Equal(t, SortDesc, Parse(Map{"sortOrder": "ASC"}, DefaultDefaults).SortOrder)
		require.Equal(t, SortDesc, Parse(Map{"sortOrder": "garbage"}, DefaultDefaults).SortOrder)

		custom := DefaultDefaults
		custom.SortOrder = SortAsc
		require.Equal(t, SortAsc, Parse(Map{"sortOrder": "desc"}, custom).SortOrder)
	})

	t.Run("reads url values", func(t *testing.T) {
		query := url.Values{}
		query.Set("page", "4")
		query.Set("limit", "25")
		query.Set("sortBy", "name")
		query.Set("sortOrder", "asc")

		require.Equal(t, Params{Page: 4, Limit: 25, SortBy: "name", SortOrder: SortAsc}, Parse(query, DefaultDefaults))
	})

	t.Run("custom defaults and zero value defaults", func(t *testing.T) {
		params := Parse(Map{"limit": "70"}, Defaults{Limit: 10, MaxLimit: 50})
		require.Equal(t, 50, params.Limit)
		require.Equal(t, "createdAt", params.SortBy)
		require.Equal(t, SortDesc, params.SortOrder)

		require.Equal(t, 10, Parse(Map{}, Defaults{Limit: 10, MaxLimit: 50}).Limit)
	})
}

func TestNewMeta(t *testing.T) {
	t.Parallel()

	t.Run("middle page", func(t *testing.T) {
		require.Equal(t, Meta{Page: 2, Limit: 20, Total: 150, TotalPages: 8, HasNextPage: true, HasPrevPage: true},
			NewMeta(150, Params{Page: 2, Limit: 20}))
	})

	t.Run("empty result", func(t *testing.T) {
		meta := NewMeta(0, Params{Page: 1, Limit: 20})
		require.Equal(t, 0, meta.TotalPages)
		require.False(t, meta.HasNextPage)
		require.False(t, meta.HasPrevPage)
	})

	t.Run("page beyond the last one is not clamped", func(t *testing.T) {
		meta := NewMeta(30, Params{Page: 9, Limit: 10})
		require.Equal(t, 9, meta.Page)
		require.Equal(t, 3, meta.TotalPages)
		require.False(t, meta.HasNextPage)
		require.True(t, meta.HasPrevPage)
	})

	t.Run("huge totals do not overflow", func(t *testing.T) {
		meta := NewMeta(math.MaxInt, Params{Page: 1, Limit: 20})
		require.Equal(t, math.MaxInt/20+1, meta.TotalPages)
		require.True(t, meta.HasNextPage)

		meta = NewMeta(math.MaxInt, Params{Page: 1, Limit: 1})
		require.Equal(t, math.MaxInt, meta.TotalPages)
	})

	t.Run("zero params take defaults", func(t *testing.T) {
		meta := NewMeta(41, Params{})
		require.Equal(t, 1, meta.Page)
		require.Equal(t, 20, meta.Limit)
		require.Equal(t, 3, meta.TotalPages)
	})

	t.Run("total pages is the ceiling of total over limit", func(t *testing.T) {
		for total := 0; total <= 250; total++ {
			for _, limit := range []int{1, 3, 7, 20, 100} {
				want := total / limit
				if total%limit != 0 {
					want++
				}
				require.Equal(t, want, NewMeta(total, Params{Page: 1, Limit: limit}).TotalPages, "total=%d limit=%d", total, limit)
			}
		}
	})
}

func TestNewPage(t *testing.T) {
	t.Parallel()

	page := NewPage[string](nil, 0, Params{Page: 1, Limit: 20}, nil)
	require.True(t, page.Success)
	require.NotNil(t, page.Data)
	require.NotEmpty(t, page.Meta.Timestamp)

	raw, err := json.Marshal(page)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, []any{}, decoded["data"])
	require.Equal(t, map[string]any{
		"page": float64(1), "limit": float64(20), "total": float64(0), "totalPages": float64(0),
		"hasNextPage": false, "hasPrevPage": false,
	}, decoded["pagination"])
}

func TestSQLClause(t *testing.T) {
	t.Parallel()

	require.Equal(t, "LIMIT 10 OFFSET 20", SQLClause(Params{Page: 3, Limit: 10}))
	require.Equal(t, "LIMIT 20 OFFSET 20", SQLClause(Params{Page: 2, Limit: 20}))
	require.Equal(t, "LIMIT 20 OFFSET 0", SQLClause(Params{}))
	require.Equal(t, 20, Params{Page: 3, Limit: 10}.Offset())
}
