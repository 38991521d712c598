package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"genesis-api/internal/metrics"
	"genesis-api/internal/middleware"
	"genesis-api/internal/model"
	"genesis-api/internal/service"
	"genesis-api/pkg/pagination"
)

type ItemHandler struct {
	service  *service.ItemService
	defaults pagination.Defaults
	metrics  *metrics.Registry
}

func NewItemHandler(service *service.ItemService, defaults pagination.Defaults, reg *metrics.Registry) *ItemHandler {
	return &ItemHandler{service: service, defaults: defaults, metrics: reg}
}

func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, model.ErrUnauthorized)
		return
	}

	var payload model.CreateItemRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	item, err := h.service.Create(r.Context(), user, payload)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if h.metrics != nil {
		h.metrics.ItemsCreatedTotal.Inc()
	}
	writeSuccess(w, r, http.StatusCreated, item)
}

func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	params := pagination.Parse(r.URL.Query(), h.defaults)

	items, total, err := h.service.List(r.Context(), params)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writePage(w, r, items, total, params)
}

func (h *ItemHandler) Feed(w http.ResponseWriter, r *http.Request) {
	params := pagination.ParseCursor(r.URL.Query(), h.defaults)

	feed, err := h.service.Feed(r.Context(), params)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeCursorPage(w, r, feed.Items, feed.Cursors, feed.HasMore)
}

func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, r, http.StatusOK, item)
}
