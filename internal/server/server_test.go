package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walkgoal/apiserver/config"
	"github.com/walkgoal/apiserver/internal/logging"
)

func testConfig(driver string) config.Config {
	return config.Config{
		ServerPort: 0,
		JWTSecret:  "test-secret",
		TokenTTL:   time.Hour,
		Store:      config.StoreConfig{Driver: driver, AutoMigrate: true},
		App: config.AppConfig{
			GoalMinutes:     600,
			StartLocation:   "Start",
			EndLocation:     "Summit",
			AdminPassword:   "admin",
			MaxEntryMinutes: 300,
			EntryPolicy:     config.EntryPolicyAutoCreate,
			Timezone:        "UTC",
		},
		Storage: config.StorageConfig{Backend: config.BackendNone},
		MQ:      config.MQConfig{Backend: config.BackendNone},
	}
}

func newTestServer(t *testing.T, cfg config.Config) *httptest.Server {
	t.Helper()
	srv, err := New(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = srv.Shutdown(context.Background())
	})

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func call(t *testing.T, method, url, token, body string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(config.StoreDriverMemory)
	cfg.JWTSecret = ""
	_, err := New(context.Background(), cfg, logging.Discard())
	assert.Error(t, err)

	cfg = testConfig("mongo")
	_, err = New(context.Background(), cfg, logging.Discard())
	assert.Error(t, err)
}

func TestServer_MemoryStore(t *testing.T) {
	ts := newTestServer(t, testConfig(config.StoreDriverMemory))

	status, body := call(t, http.MethodGet, ts.URL+"/api/health", "", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	// auto_create lets an unknown name submit.
	status, body = call(t, http.MethodPost, ts.URL+"/api/entries", "", `{"name":"ann","minutes":"45.9"}`)
	require.Equal(t, http.StatusCreated, status, string(body))

	status, body = call(t, http.MethodGet, ts.URL+"/api/users", "", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `["ann"]`, string(body))

	status, body = call(t, http.MethodGet, ts.URL+"/api/progress", "", "")
	require.Equal(t, http.StatusOK, status)
	var progress map[string]any
	require.NoError(t, json.Unmarshal(body, &progress))
	assert.Equal(t, 45.0, progress["totalMinutes"])
	assert.Equal(t, "Summit", progress["endLocation"])

	status, _ = call(t, http.MethodGet, ts.URL+"/api/admin/users", "", "")
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = call(t, http.MethodPost, ts.URL+"/api/admin/export", "", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, body = call(t, http.MethodGet, ts.URL+"/metrics", "", "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "walkgoal_entries_submitted_total 1")
	assert.Contains(t, string(body), `walkgoal_http_requests_total{method="POST",route="/api/entries",status="201"} 1`)
	assert.Contains(t, string(body), "walkgoal_progress_percentage 7.5")
}

func TestServer_SQLiteStore(t *testing.T) {
	cfg := testConfig(config.StoreDriverSQLite)
	cfg.App.EntryPolicy = config.EntryPolicyWhitelist
	cfg.Store.SQLitePath = filepath.Join(t.TempDir(), "data", "walkgoal.db")
	ts := newTestServer(t, cfg)

	status, body := call(t, http.MethodPost, ts.URL+"/api/entries", "", `{"name":"ann","minutes":30}`)
	require.Equal(t, http.StatusBadRequest, status, string(body))

	status, body = call(t, http.MethodPost, ts.URL+"/api/admin/login", "", `{"password":"admin"}`)
	require.Equal(t, http.StatusOK, status, string(body))
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(body, &login))

	status, body = call(t, http.MethodPost, ts.URL+"/api/admin/users", login.Token, `{"name":"ann"}`)
	require.Equal(t, http.StatusCreated, status, string(body))

	status, body = call(t, http.MethodPost, ts.URL+"/api/entries", "", `{"name":"ann","minutes":30}`)
	require.Equal(t, http.StatusCreated, status, string(body))

	status, body = call(t, http.MethodGet, ts.URL+"/api/admin/entries", login.Token, "")
	require.Equal(t, http.StatusOK, status)
	var list struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Equal(t, 1, list.Total)
}

func TestServer_SettingsSurviveRestart(t *testing.T) {
	cfg := testConfig(config.StoreDriverSQLite)
	cfg.Store.SQLitePath = filepath.Join(t.TempDir(), "walkgoal.db")

	srv, err := New(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Router())

	status, body := call(t, http.MethodPost, ts.URL+"/api/admin/login", "", `{"password":"admin"}`)
	require.Equal(t, http.StatusOK, status)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(body, &login))

	payload, err := json.Marshal(map[string]any{"goal_minutes": 1200})
	require.NoError(t, err)
	status, _ = call(t, http.MethodPut, ts.URL+"/api/admin/settings", login.Token, string(payload))
	require.Equal(t, http.StatusOK, status)

	ts.Close()
	require.NoError(t, srv.Shutdown(context.Background()))

	// Defaults from config only fill missing keys.
	ts = newTestServer(t, cfg)
	status, body = call(t, http.MethodGet, ts.URL+"/api/progress", "", "")
	require.Equal(t, http.StatusOK, status)
	var progress struct {
		GoalMinutes int `json:"goalMinutes"`
	}
	require.NoError(t, json.NewDecoder(bytes.NewReader(body)).Decode(&progress))
	assert.Equal(t, 1200, progress.GoalMinutes)
}
