package pagination

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"genesis-api/pkg/envelope"
)

type Direction string

const (
	After  Direction = "after"
	Before Direction = "before"
)

type CursorParams struct {
	Cursor    string    `json:"cursor,omitempty"`
	Limit     int       `json:"limit"`
	Direction Direction `json:"direction"`
}

type Cursors struct {
	Next *string `json:"next"`
	Prev *string `json:"prev"`
}

type CursorPage[T any] struct {
	Success bool           `json:"success"`
	Data    []T            `json:"data"`
	Cursors Cursors        `json:"cursors"`
	HasMore bool           `json:"hasMore"`
	Meta    *envelope.Meta `json:"meta,omitempty"`
}

// ParseCursor reads cursor, limit and direction. Limit follows the same policy as
// Parse; direction is "before" only for that literal.
func ParseCursor(src Source, defaults Defaults) CursorParams {
	d := defaults.withFallbacks()
	get := func(key string) string {
		if src == nil {
			return ""
		}
		return src.Get(key)
	}

	limit, ok := parseLeadingInt(get("limit"))
	if !ok || limit == 0 {
		limit = d.Limit
	}
	limit = min(d.MaxLimit, max(1, limit))

	direction := After
	if get("direction") == string(Before) {
		direction = Before
	}

	return CursorParams{Cursor: get("cursor"), Limit: limit, Direction: direction}
}

func NewCursorPage[T any](data []T, cursors Cursors, hasMore bool, meta *envelope.Meta) CursorPage[T] {
	if data == nil {
		data = []T{}
	}
	stamped := envelope.MergeMeta(envelope.Stamp(), meta)

	return CursorPage[T]{
		Success: true,
		Data:    data,
		Cursors: cursors,
		HasMore: hasMore,
		Meta:    &stamped,
	}
}

// EncodeCursor turns a position key into an opaque token.
func EncodeCursor(key any) (string, error) {
	raw, err := json.Marshal(key)
	if err != nil {
		return "", fmt.Errorf("encode cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// DecodeCursor reverses EncodeCursor into dst.
func DecodeCursor(token string, dst any) error {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return fmt.Errorf("decode cursor: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode cursor: %w", err)
	}
	return nil
}
