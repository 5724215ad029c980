package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/walkgoal/apiserver/internal/services"
)

// ProgressHandler serves the dashboard snapshot and weekly history.
type ProgressHandler struct {
	progress *services.ProgressService
	logger   *slog.Logger
}

func NewProgressHandler(progress *services.ProgressService, logger *slog.Logger) *ProgressHandler {
	return &ProgressHandler{progress: progress, logger: logger}
}

// ProgressRouter registers progress routes on the given router.
func ProgressRouter(r chi.Router, progress *services.ProgressService, logger *slog.Logger) {
	handler := NewProgressHandler(progress, logger)

	r.Get("/", handler.GetProgress)
	r.Get("/history", handler.GetHistory)
}

func (h *ProgressHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.progress.Snapshot(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to get progress data")
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (h *ProgressHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	weeks, err := h.progress.History(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to get history")
		return
	}
	writeJSON(w, http.StatusOK, weeks)
}
