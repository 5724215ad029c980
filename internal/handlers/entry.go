package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/walkgoal/apiserver/internal/services"
	"github.com/walkgoal/apiserver/types"
)

// EntryHandler serves the public submission form endpoints.
type EntryHandler struct {
	entries *services.EntryService
	users   *services.UserService
	logger  *slog.Logger
}

func NewEntryHandler(entries *services.EntryService, users *services.UserService, logger *slog.Logger) *EntryHandler {
	return &EntryHandler{entries: entries, users: users, logger: logger}
}

// EntryRouter registers the public entry and user-name routes.
func EntryRouter(r chi.Router, entries *services.EntryService, users *services.UserService, logger *slog.Logger) {
	handler := NewEntryHandler(entries, users, logger)

	r.Post("/entries", handler.SubmitEntry)
	r.Get("/users", handler.ListNames)
}

func (h *EntryHandler) SubmitEntry(w http.ResponseWriter, r *http.Request) {
	var req SubmitEntryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	result, err := h.entries.Submit(r.Context(), req.Name, string(req.Minutes))
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to add entry")
		return
	}
	writeJSON(w, http.StatusCreated, SubmitEntryResponse{Success: true, SubmitResult: result})
}

// ListNames returns the names that may submit entries.
func (h *EntryHandler) ListNames(w http.ResponseWriter, r *http.Request) {
	names, err := h.users.ListNames(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to get users")
		return
	}
	writeJSON(w, http.StatusOK, names)
}

type SubmitEntryRequest struct {
	Name    string     `json:"name"`
	Minutes flexString `json:"minutes"`
}

type SubmitEntryResponse struct {
	Success bool `json:"success"`
	types.SubmitResult
}
