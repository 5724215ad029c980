package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walkgoal/apiserver/internal/logging"
	"github.com/walkgoal/apiserver/internal/services"
	"github.com/walkgoal/apiserver/internal/store"
	"github.com/walkgoal/apiserver/types"
)

const testSecret = "test-secret"

type exportSink struct {
	key  string
	body []byte
}

func (s *exportSink) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	body, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.key, s.body = key, body
	return nil
}

func (s *exportSink) Bucket() string { return "test-bucket" }

type testAPI struct {
	router http.Handler
	users  *services.UserService
	sink   *exportSink
}

func newTestAPI(t *testing.T, withExport bool) *testAPI {
	t.Helper()
	logger := logging.Discard()
	mem := store.NewMemoryStore()

	settings := services.NewSettingsService(mem.Settings())
	require.NoError(t, settings.EnsureDefaults(context.Background(), services.SettingsDefaults{
		GoalMinutes:   600,
		StartLocation: "Start",
		EndLocation:   "Destination",
		AdminPassword: "admin",
	}))
	users := services.NewUserService(mem.Users(), nil)
	entries := services.NewEntryService(mem.Entries(), users, settings, services.EntryOptions{Logger: logger})
	progress := services.NewProgressService(mem.Entries(), settings, time.UTC, nil)

	var exports *services.ExportService
	sink := &exportSink{}
	if withExport {
		exports = services.NewExportService(sink, users, mem.Entries(), settings, progress)
	}

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Route("/progress", func(r chi.Router) {
			ProgressRouter(r, progress, logger)
		})
		EntryRouter(r, entries, users, logger)
		r.Route("/admin", func(r chi.Router) {
			AdminRouter(r, AdminDeps{
				Settings:  settings,
				Users:     users,
				Entries:   entries,
				Exports:   exports,
				JWTSecret: testSecret,
				TokenTTL:  time.Hour,
				Logger:    logger,
			})
		})
	})

	return &testAPI{router: r, users: users, sink: sink}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) login(t *testing.T) string {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/admin/login", "", map[string]string{"password": "admin"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestSubmitEntry(t *testing.T) {
	api := newTestAPI(t, false)
	_, err := api.users.Add(context.Background(), "ann")
	require.NoError(t, err)

	rec := api.do(t, http.MethodPost, "/api/entries", "", `{"name":"ann","minutes":120}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "Successfully added 120 minutes for ann", resp["message"])
	stats := resp["relativeStats"].(map[string]any)
	assert.Equal(t, 120.0, stats["userTotalMinutes"])
	assert.Equal(t, 20.0, stats["contributionPercent"])

	rec = api.do(t, http.MethodPost, "/api/entries", "", `{"name":"ann","minutes":"180"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = api.do(t, http.MethodGet, "/api/progress", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decode[types.Progress](t, rec)
	assert.Equal(t, 300, snap.TotalMinutes)
	assert.Equal(t, 50.0, snap.ProgressPercentage)
}

func TestSubmitEntry_Errors(t *testing.T) {
	api := newTestAPI(t, false)
	_, err := api.users.Add(context.Background(), "ann")
	require.NoError(t, err)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"malformed", `{"name":`, "invalid request"},
		{"missing name", `{"minutes":10}`, services.ErrMissingName.Message},
		{"bad minutes", `{"name":"ann","minutes":"ten"}`, services.ErrInvalidMinutes.Message},
		{"null minutes", `{"name":"ann","minutes":null}`, services.ErrInvalidMinutes.Message},
		{"boolean minutes", `{"name":"ann","minutes":true}`, "invalid request"},
		{"over cap", `{"name":"ann","minutes":301}`, services.ErrMinutesExceedsCap.Message},
		{"unknown user", `{"name":"zed","minutes":30}`, services.ErrUnknownUser.Message},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(t, http.MethodPost, "/api/entries", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.want, decode[ErrorResponse](t, rec).Error)
		})
	}
}

func TestListNamesAndHistory(t *testing.T) {
	api := newTestAPI(t, false)
	for _, name := range []string{"zoe", "ann"} {
		_, err := api.users.Add(context.Background(), name)
		require.NoError(t, err)
	}

	rec := api.do(t, http.MethodGet, "/api/users", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"ann", "zoe"}, decode[[]string](t, rec))

	rec = api.do(t, http.MethodPost, "/api/entries", "", `{"name":"zoe","minutes":15}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/progress/history", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	weeks := decode[[]types.WeekTotal](t, rec)
	require.Len(t, weeks, 1)
	assert.Equal(t, 15, weeks[0].TotalMinutes)
}

func TestAdminLogin(t *testing.T) {
	api := newTestAPI(t, false)

	rec := api.do(t, http.MethodPost, "/api/admin/login", "", map[string]string{"password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/admin/login", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	token := api.login(t)
	subject, err := parseTokenSubject(token, []byte(testSecret))
	require.NoError(t, err)
	assert.Equal(t, adminSubject, subject)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	api := newTestAPI(t, false)

	otherSubject, err := issueToken("someone", []byte(testSecret), time.Hour)
	require.NoError(t, err)
	wrongSecret, err := issueToken(adminSubject, []byte("other-secret"), time.Hour)
	require.NoError(t, err)
	expired, err := issueToken(adminSubject, []byte(testSecret), -time.Minute)
	require.NoError(t, err)

	for _, token := range []string{"", "garbage", otherSubject, wrongSecret, expired} {
		rec := api.do(t, http.MethodGet, "/api/admin/settings", token, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "token %q", token)
	}
}

func TestAdminSettings(t *testing.T) {
	api := newTestAPI(t, false)
	token := api.login(t)

	rec := api.do(t, http.MethodGet, "/api/admin/settings", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	settings := decode[map[string]string](t, rec)
	assert.Equal(t, "600", settings[types.SettingGoalMinutes])
	assert.NotContains(t, settings, types.SettingAdminPassword)

	rec = api.do(t, http.MethodPut, "/api/admin/settings", token, `{"goal_minutes":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/admin/settings", token, `{"goal_minutes":900,"end_location":"Summit","admin_password":"new-pass"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[UpdateSettingsResponse](t, rec)
	assert.Equal(t, "900", resp.Settings[types.SettingGoalMinutes])
	assert.Equal(t, "Summit", resp.Settings[types.SettingEndLocation])

	rec = api.do(t, http.MethodPost, "/api/admin/login", "", map[string]string{"password": "new-pass"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminUsers(t *testing.T) {
	api := newTestAPI(t, false)
	token := api.login(t)

	rec := api.do(t, http.MethodPost, "/api/admin/users", token, map[string]string{"name": " ann "})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[CreateUserResponse](t, rec)
	assert.Equal(t, "ann", created.User.Name)

	rec = api.do(t, http.MethodPost, "/api/admin/users", token, map[string]string{"name": "ann"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/admin/users", token, map[string]string{"name": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	for i := 0; i < 2; i++ {
		rec = api.do(t, http.MethodPost, "/api/entries", "", `{"name":"ann","minutes":10}`)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec = api.do(t, http.MethodGet, "/api/admin/users", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]types.User](t, rec), 1)

	rec = api.do(t, http.MethodDelete, "/api/admin/users/"+created.User.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	deleted := decode[DeleteUserResponse](t, rec)
	assert.Equal(t, "Deleted ann and 2 entries", deleted.Message)
	assert.Equal(t, 2, deleted.EntriesRemoved)

	rec = api.do(t, http.MethodDelete, "/api/admin/users/"+created.User.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminEntries(t *testing.T) {
	api := newTestAPI(t, false)
	token := api.login(t)
	for _, name := range []string{"ann", "bob"} {
		_, err := api.users.Add(context.Background(), name)
		require.NoError(t, err)
	}
	for _, body := range []string{
		`{"name":"ann","minutes":10}`,
		`{"name":"bob","minutes":20}`,
		`{"name":"ann","minutes":30}`,
	} {
		rec := api.do(t, http.MethodPost, "/api/entries", "", body)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := api.do(t, http.MethodGet, "/api/admin/entries?limit=2", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[EntryListResponse](t, rec)
	assert.Equal(t, 3, list.Total)
	assert.Len(t, list.Items, 2)
	assert.Equal(t, 1, list.Page)

	rec = api.do(t, http.MethodGet, "/api/admin/entries?user_name=ann", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list = decode[EntryListResponse](t, rec)
	require.Equal(t, 2, list.Total)

	rec = api.do(t, http.MethodGet, "/api/admin/entries?page=0", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodDelete, "/api/admin/entries/"+list.Items[0].ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Entry deleted", decode[MessageResponse](t, rec).Message)

	rec = api.do(t, http.MethodDelete, "/api/admin/entries/"+list.Items[0].ID, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminExport(t *testing.T) {
	api := newTestAPI(t, false)
	token := api.login(t)
	rec := api.do(t, http.MethodPost, "/api/admin/export", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "export is only routed when storage is configured")

	api = newTestAPI(t, true)
	token = api.login(t)
	rec = api.do(t, http.MethodPost, "/api/admin/export", token, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	result := decode[types.ExportResult](t, rec)
	assert.Equal(t, "test-bucket", result.Bucket)
	assert.Equal(t, api.sink.key, result.Key)
	assert.Contains(t, string(api.sink.body), `"progress"`)
}

func TestFlexString(t *testing.T) {
	var req SubmitEntryRequest
	require.NoError(t, json.Unmarshal([]byte(`{"minutes": 12.5}`), &req))
	assert.Equal(t, flexString("12.5"), req.Minutes)
	require.NoError(t, json.Unmarshal([]byte(`{"minutes": " 7 "}`), &req))
	assert.Equal(t, flexString(" 7 "), req.Minutes)
	assert.Error(t, json.Unmarshal([]byte(`{"minutes": [1]}`), &req))
}
