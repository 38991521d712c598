package handler

import (
	"net/http"

	"genesis-api/internal/middleware"
	"genesis-api/internal/model"
	"genesis-api/pkg/apierror"
	"genesis-api/pkg/identity"
)

// AccountHandler serves endpoints that only describe the caller.
type AccountHandler struct{}

func NewAccountHandler() *AccountHandler {
	return &AccountHandler{}
}

type accessResponse struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
	Access  string `json:"access"`
}

type dataResponse struct {
	Message string         `json:"message"`
	UserID  string         `json:"userId"`
	Data    map[string]any `json:"data"`
}

func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	user, _ := middleware.UserFromContext(r.Context())
	if !ok || user == nil {
		writeError(w, r, model.ErrUnauthorized)
		return
	}

	writeSuccess(w, r, http.StatusOK, identity.ProfileFromTokenClaims(*claims, user.Token))
}

func (h *AccountHandler) Protected(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, model.ErrUnauthorized)
		return
	}

	writeSuccess(w, r, http.StatusOK, accessResponse{
		Message: "This is a protected endpoint",
		UserID:  user.ID,
		Access:  "granted",
	})
}

func (h *AccountHandler) Admin(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, model.ErrUnauthorized)
		return
	}

	writeSuccess(w, r, http.StatusOK, accessResponse{
		Message: "Welcome to the admin area!",
		UserID:  user.ID,
		Access:  identity.RoleAdmin,
	})
}

func (h *AccountHandler) Data(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, model.ErrUnauthorized)
		return
	}

	var payload map[string]any
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, r, err)
		return
	}
	if payload == nil {
		writeError(w, r, apierror.New(apierror.CodeValidation, "Request body must be a JSON object", nil))
		return
	}

	writeSuccess(w, r, http.StatusOK, dataResponse{
		Message: "Data created successfully",
		UserID:  user.ID,
		Data:    payload,
	})
}
