package repository

import (
	"genesis-api/internal/model"
	"genesis-api/pkg/pagination"
)

// ListQuery selects one offset page of items. SortColumn is a database column name
// taken from model.ItemSortColumns; anything else falls back to created_at.
type ListQuery struct {
	Params     pagination.Params
	SortColumn string
}

// KeysetQuery selects items next to From in the feed ordering (created_at DESC, id DESC).
// After walks towards older items and returns them newest first. Before walks towards
// newer items and returns them oldest first, so callers must reverse the slice.
type KeysetQuery struct {
	From      *model.ItemKey
	Direction pagination.Direction
	Limit     int
}

func sortColumn(column string) string {
	for _, allowed := range model.ItemSortColumns {
		if column == allowed {
			return column
		}
	}
	return "created_at"
}

func sortDirection(order pagination.SortOrder) string {
	if order == pagination.SortAsc {
		return "ASC"
	}
	return "DESC"
}
