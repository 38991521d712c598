// Package envelope builds the uniform {success, data, error, meta} wrapper used by
// every API response.
package envelope

import "time"

// TimestampLayout renders UTC timestamps with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Now is the clock used to stamp meta.timestamp.
var Now = time.Now

type Response[T any] struct {
	Success bool   `json:"success"`
	Data    *T     `json:"data,omitempty"`
	Error   *Error `json:"error,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
}

type Error struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type Meta struct {
	Timestamp string `json:"timestamp,omitempty"`
	RequestID string `json:"requestId,omitempty"`
	Version   string `json:"version,omitempty"`
}

// Success wraps data. Non-empty fields of meta override the generated timestamp.
func Success[T any](data T, meta *Meta) Response[T] {
	stamped := MergeMeta(Stamp(), meta)
	return Response[T]{
		Success: true,
		Data:    &data,
		Meta:    &stamped,
	}
}

// Failure builds an error envelope. code is not checked against the known set.
func Failure(code string, message string, details map[string]any) Response[any] {
	stamped := Stamp()
	return Response[any]{
		Success: false,
		Error: &Error{
			Code:    code,
			Message: message,
			Details: details,
		},
		Meta: &stamped,
	}
}

// Stamp returns a Meta holding only the current timestamp.
func Stamp() Meta {
	return Meta{Timestamp: Now().UTC().Format(TimestampLayout)}
}

// MergeMeta copies every non-empty field of override onto base.
func MergeMeta(base Meta, override *Meta) Meta {
	if override == nil {
		return base
	}
	if override.Timestamp != "" {
		base.Timestamp = override.Timestamp
	}
	if override.RequestID != "" {
		base.RequestID = override.RequestID
	}
	if override.Version != "" {
		base.Version = override.Version
	}
	return base
}
