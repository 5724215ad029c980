package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/walkgoal/apiserver/internal/services"
	"github.com/walkgoal/apiserver/types"
)

// AdminHandler serves the password-protected management endpoints.
type AdminHandler struct {
	settings *services.SettingsService
	users    *services.UserService
	entries  *services.EntryService
	exports  *services.ExportService
	logger   *slog.Logger
}

// AdminDeps groups what the admin routes need. Exports may be nil when object
// storage is not configured; the export route is then not registered.
type AdminDeps struct {
	Settings  *services.SettingsService
	Users     *services.UserService
	Entries   *services.EntryService
	Exports   *services.ExportService
	JWTSecret string
	TokenTTL  time.Duration
	Logger    *slog.Logger
}

func NewAdminHandler(deps AdminDeps) *AdminHandler {
	return &AdminHandler{
		settings: deps.Settings,
		users:    deps.Users,
		entries:  deps.Entries,
		exports:  deps.Exports,
		logger:   deps.Logger,
	}
}

// AdminRouter registers the login route and the protected admin routes.
func AdminRouter(r chi.Router, deps AdminDeps) {
	handler := NewAdminHandler(deps)
	auth := NewAuthHandler(deps.Settings, deps.JWTSecret, deps.TokenTTL, deps.Logger)

	r.Post("/login", auth.Login)

	r.Group(func(r chi.Router) {
		r.Use(RequireAdmin(deps.JWTSecret))

		r.Get("/settings", handler.GetSettings)
		r.Post("/settings", handler.UpdateSettings)
		r.Put("/settings", handler.UpdateSettings)

		r.Get("/users", handler.ListUsers)
		r.Post("/users", handler.CreateUser)
		r.Delete("/users/{userID}", handler.DeleteUser)

		r.Get("/entries", handler.ListEntries)
		r.Delete("/entries/{entryID}", handler.DeleteEntry)

		if deps.Exports != nil {
			r.Post("/export", handler.Export)
		}
	})
}

func (h *AdminHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.Public(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to get settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *AdminHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req UpdateSettingsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	update := types.SettingsUpdate{
		StartLocation: req.StartLocation,
		EndLocation:   req.EndLocation,
		AdminPassword: req.AdminPassword,
	}
	if req.GoalMinutes != nil {
		goal := string(*req.GoalMinutes)
		update.GoalMinutes = &goal
	}

	settings, err := h.settings.Update(r.Context(), update)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to update settings")
		return
	}
	h.audit(r.Context(), "settings updated", "password_changed", req.AdminPassword != nil && strings.TrimSpace(*req.AdminPassword) != "")
	writeJSON(w, http.StatusOK, UpdateSettingsResponse{Success: true, Message: "Settings updated", Settings: settings})
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to get users")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	user, err := h.users.Add(r.Context(), req.Name)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to add user")
		return
	}
	h.audit(r.Context(), "user added", "user", user.Name)
	writeJSON(w, http.StatusCreated, CreateUserResponse{Success: true, User: user})
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "userID"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	deletion, err := h.users.Delete(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to delete user")
		return
	}
	h.audit(r.Context(), "user deleted", "user", deletion.UserName, "entries_removed", deletion.EntriesRemoved)
	writeJSON(w, http.StatusOK, DeleteUserResponse{
		Success:      true,
		Message:      fmt.Sprintf("Deleted %s and %d entries", deletion.UserName, deletion.EntriesRemoved),
		UserDeletion: deletion,
	})
}

func (h *AdminHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, total, err := h.entries.List(r.Context(), r.URL.Query().Get("user_name"), offset, limit)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to get entries")
		return
	}
	writeJSON(w, http.StatusOK, EntryListResponse{Items: entries, Page: page, Limit: limit, Total: total})
}

func (h *AdminHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "entryID"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid entry id")
		return
	}

	if err := h.entries.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, h.logger, err, "failed to delete entry")
		return
	}
	h.audit(r.Context(), "entry deleted", "entry_id", id)
	writeJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "Entry deleted"})
}

// Export writes a JSON snapshot to object storage.
func (h *AdminHandler) Export(w http.ResponseWriter, r *http.Request) {
	result, err := h.exports.Export(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to export data")
		return
	}
	h.audit(r.Context(), "export written", "bucket", result.Bucket, "key", result.Key)
	writeJSON(w, http.StatusCreated, result)
}

func (h *AdminHandler) audit(ctx context.Context, msg string, args ...any) {
	if subject, ok := ctx.Value(contextSubjectKey).(string); ok {
		args = append(args, "actor", subject)
	}
	h.logger.InfoContext(ctx, msg, args...)
}

type UpdateSettingsRequest struct {
	GoalMinutes   *flexString `json:"goal_minutes"`
	StartLocation *string     `json:"start_location"`
	EndLocation   *string     `json:"end_location"`
	AdminPassword *string     `json:"admin_password"`
}

type UpdateSettingsResponse struct {
	Success  bool              `json:"success"`
	Message  string            `json:"message"`
	Settings map[string]string `json:"settings"`
}

type CreateUserRequest struct {
	Name string `json:"name"`
}

type CreateUserResponse struct {
	Success bool       `json:"success"`
	User    types.User `json:"user"`
}

type DeleteUserResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	types.UserDeletion
}

// EntryListResponse is the paginated list response payload.
type EntryListResponse struct {
	Items []types.Entry `json:"items"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
	Total int           `json:"total"`
}
