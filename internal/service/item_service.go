package service

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"genesis-api/internal/model"
	"genesis-api/internal/repository"
	"genesis-api/internal/validation"
	"genesis-api/pkg/apierror"
	"genesis-api/pkg/identity"
	"genesis-api/pkg/pagination"
)

type ItemStore interface {
	Create(ctx context.Context, item model.Item) error
	FindByID(ctx context.Context, id string) (model.Item, error)
	List(ctx context.Context, q repository.ListQuery) ([]model.Item, int, error)
	ListByKey(ctx context.Context, q repository.KeysetQuery) ([]model.Item, error)
}

type ItemService struct {
	items ItemStore
	now   func() time.Time
}

// Feed is one window of the newest-first item feed.
type Feed struct {
	Items   []model.Item
	Cursors pagination.Cursors
	HasMore bool
}

func NewItemService(items ItemStore) *ItemService {
	return &ItemService{items: items, now: time.Now}
}

func (s *ItemService) Create(ctx context.Context, owner *identity.AuthUser, req model.CreateItemRequest) (model.Item, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if err := validation.Struct(req); err != nil {
		return model.Item{}, err
	}
	if owner == nil {
		return model.Item{}, model.ErrUnauthorized
	}

	now := s.now().UTC().Truncate(time.Microsecond)
	item := model.Item{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     owner.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.items.Create(ctx, item); err != nil {
		return model.Item{}, err
	}
	return item, nil
}

func (s *ItemService) Get(ctx context.Context, id string) (model.Item, error) {
	if strings.TrimSpace(id) == "" {
		return model.Item{}, model.ErrItemNotFound
	}
	return s.items.FindByID(ctx, id)
}

func (s *ItemService) List(ctx context.Context, params pagination.Params) ([]model.Item, int, error) {
	column, ok := model.ItemSortColumns[params.SortBy]
	if !ok {
		return nil, 0, apierror.New(apierror.CodeValidation, "Invalid sort field", map[string]any{
			"field":   "sortBy",
			"reason":  "invalid",
			"allowed": sortFields(),
		})
	}

	return s.items.List(ctx, repository.ListQuery{Params: params, SortColumn: column})
}

// Feed walks the newest-first feed from params.Cursor. HasMore reports whether more
// items exist beyond this window in the requested direction.
func (s *ItemService) Feed(ctx context.Context, params pagination.CursorParams) (Feed, error) {
	var from *model.ItemKey
	direction := params.Direction
	if params.Cursor != "" {
		var key model.ItemKey
		if err := pagination.DecodeCursor(params.Cursor, &key); err != nil || key.ID == "" {
			return Feed{}, apierror.Validation("cursor", "invalid", "Cursor is malformed")
		}
		from = &key
	} else {
		direction = pagination.After
	}

	rows, err := s.items.ListByKey(ctx, repository.KeysetQuery{
		From:      from,
		Direction: direction,
		Limit:     params.Limit + 1,
	})
	if err != nil {
		return Feed{}, err
	}

	hasMore := len(rows) > params.Limit
	if hasMore {
		rows = rows[:params.Limit]
	}
	if direction == pagination.Before {
		slices.Reverse(rows)
	}

	feed := Feed{Items: rows, HasMore: hasMore}
	if len(rows) == 0 {
		return feed, nil
	}

	first, err := pagination.EncodeCursor(rows[0].Key())
	if err != nil {
		return Feed{}, err
	}
	last, err := pagination.EncodeCursor(rows[len(rows)-1].Key())
	if err != nil {
		return Feed{}, err
	}

	switch direction {
	case pagination.Before:
		feed.Cursors.Next = &last
		if hasMore {
			feed.Cursors.Prev = &first
		}
	default:
		if hasMore {
			feed.Cursors.Next = &last
		}
		if from != nil {
			feed.Cursors.Prev = &first
		}
	}

	return feed, nil
}

func sortFields() []string {
	fields := make([]string, 0, len(model.ItemSortColumns))
	for field := range model.ItemSortColumns {
		fields = append(fields, field)
	}
	slices.Sort(fields)
	return fields
}
