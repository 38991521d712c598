package model

import "time"

type Item struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	OwnerID     string    `json:"ownerId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ItemKey is the keyset position of an item in the feed ordering
// (created_at DESC, id DESC).
type ItemKey struct {
	CreatedAt time.Time `json:"t"`
	ID        string    `json:"id"`
}

func (i Item) Key() ItemKey {
	return ItemKey{CreatedAt: i.CreatedAt, ID: i.ID}
}

// Sortable item columns keyed by their API name.
var ItemSortColumns = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"name":      "name",
}
