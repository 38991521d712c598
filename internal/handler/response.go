package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"genesis-api/internal/middleware"
	"genesis-api/internal/model"
	"genesis-api/pkg/apierror"
	"genesis-api/pkg/envelope"
	"genesis-api/pkg/pagination"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeSuccess[T any](w http.ResponseWriter, r *http.Request, status int, data T) {
	writeJSON(w, status, envelope.Success(data, middleware.RequestMeta(r)))
}

func writePage[T any](w http.ResponseWriter, r *http.Request, data []T, total int, params pagination.Params) {
	writeJSON(w, http.StatusOK, pagination.NewPage(data, total, params, middleware.RequestMeta(r)))
}

func writeCursorPage[T any](w http.ResponseWriter, r *http.Request, data []T, cursors pagination.Cursors, hasMore bool) {
	writeJSON(w, http.StatusOK, pagination.NewCursorPage(data, cursors, hasMore, middleware.RequestMeta(r)))
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	code := apierror.CodeInternal
	message := "Unexpected server error"
	var details map[string]any

	var apiErr *apierror.APIError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatus
		code = apiErr.Code
		message = apiErr.Message
		details = apiErr.Details
	case errors.Is(err, model.ErrItemNotFound):
		status, code, message = http.StatusNotFound, apierror.CodeNotFound, "Item not found"
	case errors.Is(err, model.ErrUserNotFound):
		status, code, message = http.StatusNotFound, apierror.CodeNotFound, "User not found"
	case errors.Is(err, model.ErrUserAlreadyExists):
		status, code, message = http.StatusConflict, apierror.CodeConflict, "User already exists"
	case errors.Is(err, model.ErrInvalidCredentials):
		status, code, message = http.StatusUnauthorized, apierror.CodeUnauthorized, "Invalid credentials"
	case errors.Is(err, model.ErrUnauthorized):
		status, code, message = http.StatusUnauthorized, apierror.CodeUnauthorized, "Authentication required"
	case errors.Is(err, model.ErrForbidden):
		status, code, message = http.StatusForbidden, apierror.CodeForbidden, "Access denied"
	case errors.Is(err, model.ErrInvalidSort):
		status, code, message = http.StatusBadRequest, apierror.CodeValidation, "Invalid sort field"
	case errors.Is(err, model.ErrInvalidInput):
		status, code, message = http.StatusBadRequest, apierror.CodeValidation, "Invalid input"
	default:
		slog.Error("unhandled error in writeError",
			"request_id", middleware.RequestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"error", err.Error(),
		)
	}

	if status == 0 {
		status = http.StatusInternalServerError
	}

	resp := envelope.Failure(code, message, details)
	merged := envelope.MergeMeta(*resp.Meta, middleware.RequestMeta(r))
	resp.Meta = &merged
	writeJSON(w, status, resp)
}

// decodeJSON reads a single JSON document from the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	defer r.Body.Close()

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apierror.New(apierror.CodeValidation, "Request body is required", nil)
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apierror.New(apierror.CodeValidation, "Request body too large", map[string]any{"limit": tooLarge.Limit})
		}
		return apierror.New(apierror.CodeValidation, "Invalid JSON body", nil)
	}
	return nil
}

func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, apierror.New(apierror.CodeNotFound, "Route not found", map[string]any{"path": r.URL.Path}))
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	resp := envelope.Failure("METHOD_NOT_ALLOWED", "Method not allowed", map[string]any{"method": r.Method})
	merged := envelope.MergeMeta(*resp.Meta, middleware.RequestMeta(r))
	resp.Meta = &merged
	writeJSON(w, http.StatusMethodNotAllowed, resp)
}
