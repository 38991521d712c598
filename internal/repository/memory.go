package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"genesis-api/internal/model"
	"genesis-api/pkg/pagination"
)

// MemoryItemRepository keeps items in process memory. It backs the service when
// DATABASE_URL is empty and mirrors the SQL ordering of ItemRepository.
type MemoryItemRepository struct {
	mu    sync.RWMutex
	items map[string]model.Item
}

func NewMemoryItemRepository() *MemoryItemRepository {
	return &MemoryItemRepository{items: make(map[string]model.Item)}
}

func (r *MemoryItemRepository) Create(_ context.Context, item model.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item.CreatedAt = item.CreatedAt.UTC().Truncate(time.Microsecond)
	item.UpdatedAt = item.UpdatedAt.UTC().Truncate(time.Microsecond)
	r.items[item.ID] = item
	return nil
}

func (r *MemoryItemRepository) FindByID(_ context.Context, id string) (model.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return model.Item{}, model.ErrItemNotFound
	}
	return item, nil
}

func (r *MemoryItemRepository) List(_ context.Context, q ListQuery) ([]model.Item, int, error) {
	r.mu.RLock()
	all := r.snapshot()
	r.mu.RUnlock()

	column := sortColumn(q.SortColumn)
	asc := q.Params.SortOrder == pagination.SortAsc
	sort.SliceStable(all, func(i, j int) bool {
		c := compareColumn(all[i], all[j], column)
		if c == 0 {
			c = strings.Compare(all[i].ID, all[j].ID)
		}
		if asc {
			return c < 0
		}
		return c > 0
	})

	limit := q.Params.Limit
	if limit <= 0 {
		limit = pagination.DefaultDefaults.Limit
	}

	total := len(all)
	offset := max(0, q.Params.Offset())
	if offset >= total {
		return []model.Item{}, total, nil
	}
	end := min(offset+limit, total)
	return all[offset:end], total, nil
}

func (r *MemoryItemRepository) ListByKey(_ context.Context, q KeysetQuery) ([]model.Item, error) {
	r.mu.RLock()
	all := r.snapshot()
	r.mu.RUnlock()

	// feed order: newest first
	sort.Slice(all, func(i, j int) bool { return compareKey(all[i].Key(), all[j].Key()) > 0 })

	out := make([]model.Item, 0, q.Limit)
	if q.From != nil && q.Direction == pagination.Before {
		for i := len(all) - 1; i >= 0 && len(out) < q.Limit; i-- {
			if compareKey(all[i].Key(), *q.From) > 0 {
				out = append(out, all[i])
			}
		}
		return out, nil
	}

	for _, item := range all {
		if len(out) >= q.Limit {
			break
		}
		if q.From != nil && compareKey(item.Key(), *q.From) >= 0 {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (r *MemoryItemRepository) snapshot() []model.Item {
	out := make([]model.Item, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, item)
	}
	return out
}

func compareColumn(a, b model.Item, column string) int {
	switch column {
	case "name":
		return strings.Compare(a.Name, b.Name)
	case "updated_at":
		return a.UpdatedAt.Compare(b.UpdatedAt)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func compareKey(a, b model.ItemKey) int {
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]model.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]model.User)}
}

func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[normalizeEmail(email)]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (r *MemoryUserRepository) Create(_ context.Context, u model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := normalizeEmail(u.Email)
	if _, exists := r.users[key]; exists {
		return model.ErrUserAlreadyExists
	}
	u.Roles = append([]string(nil), u.Roles...)
	r.users[key] = u
	return nil
}

func (r *MemoryUserRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
