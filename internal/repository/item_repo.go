package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"genesis-api/internal/model"
	"genesis-api/pkg/pagination"
)

const itemColumns = `id, name, description, owner_id, created_at, updated_at`

type ItemRepository struct {
	pool *pgxpool.Pool
}

func NewItemRepository(pool *pgxpool.Pool) *ItemRepository {
	return &ItemRepository{pool: pool}
}

func (r *ItemRepository) Create(ctx context.Context, item model.Item) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO items (`+itemColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		item.ID, item.Name, item.Description, item.OwnerID, item.CreatedAt, item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create item: %w", err)
	}
	return nil
}

func (r *ItemRepository) FindByID(ctx context.Context, id string) (model.Item, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id)

	item, err := scanItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Item{}, model.ErrItemNotFound
	}
	if err != nil {
		return model.Item{}, fmt.Errorf("find item by id: %w", err)
	}
	return item, nil
}

func (r *ItemRepository) List(ctx context.Context, q ListQuery) ([]model.Item, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM items`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count items: %w", err)
	}

	dir := sortDirection(q.Params.SortOrder)
	query := fmt.Sprintf(`SELECT %s FROM items ORDER BY %s %s, id %s %s`,
		itemColumns, sortColumn(q.SortColumn), dir, dir, pagination.SQLClause(q.Params))

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	items, err := collectItems(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *ItemRepository) ListByKey(ctx context.Context, q KeysetQuery) ([]model.Item, error) {
	var (
		query string
		args  []any
	)

	switch {
	case q.Direction == pagination.Before && q.From != nil:
		query = `SELECT ` + itemColumns + ` FROM items
		         WHERE (created_at, id) > ($1, $2)
		         ORDER BY created_at ASC, id ASC LIMIT $3`
		args = []any{q.From.CreatedAt, q.From.ID, q.Limit}
	case q.From != nil:
		query = `SELECT ` + itemColumns + ` FROM items
		         WHERE (created_at, id) < ($1, $2)
		         ORDER BY created_at DESC, id DESC LIMIT $3`
		args = []any{q.From.CreatedAt, q.From.ID, q.Limit}
	default:
		query = `SELECT ` + itemColumns + ` FROM items ORDER BY created_at DESC, id DESC LIMIT $1`
		args = []any{q.Limit}
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items by key: %w", err)
	}
	defer rows.Close()

	return collectItems(rows)
}

func scanItem(row pgx.Row) (model.Item, error) {
	var item model.Item
	err := row.Scan(&item.ID, &item.Name, &item.Description, &item.OwnerID, &item.CreatedAt, &item.UpdatedAt)
	item.CreatedAt = item.CreatedAt.UTC()
	item.UpdatedAt = item.UpdatedAt.UTC()
	return item, err
}

func collectItems(rows pgx.Rows) ([]model.Item, error) {
	items := make([]model.Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
