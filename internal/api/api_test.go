package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cvanloo/burrowdns/internal/api"
	"github.com/cvanloo/burrowdns/internal/api/handlers"
	"github.com/cvanloo/burrowdns/internal/api/middleware"
	"github.com/cvanloo/burrowdns/internal/config"
	"github.com/cvanloo/burrowdns/internal/database"
	"github.com/cvanloo/burrowdns/internal/server"
)

func testServer(t *testing.T, mutate func(*config.Config), queryLog *database.DB) *api.Server {
	t.Helper()

	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.API.Enabled = true
	if mutate != nil {
		mutate(cfg)
	}

	stats := server.NewDNSStats()
	stats.RecordQuery()

	h := handlers.New(cfg, nil, "test-instance", stats.Snapshot, queryLog)
	return api.New(cfg, nil, h)
}

func doGET(t *testing.T, srv *api.Server, path string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	srv := testServer(t, nil, nil)

	w := doGET(t, srv, "/api/v1/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body handlers.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "test-instance", body.InstanceID)
}

func TestStats(t *testing.T) {
	srv := testServer(t, nil, nil)

	w := doGET(t, srv, "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body handlers.StatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, uint64(1), body.DNS.QueriesTotal)
	assert.GreaterOrEqual(t, body.UptimeSeconds, int64(0))
}

func TestGetConfig_RedactsAPIKey(t *testing.T) {
	srv := testServer(t, func(c *config.Config) {
		c.API.APIKey = "super-secret"
	}, nil)

	w := doGET(t, srv, "/api/v1/config", map[string]string{middleware.APIKeyHeader: "super-secret"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "super-secret")

	var body struct {
		API struct {
			APIKey string `json:"api_key"`
		} `json:"api"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "<redacted>", body.API.APIKey)
}

func TestAPIKey_Required(t *testing.T) {
	srv := testServer(t, func(c *config.Config) {
		c.API.APIKey = "super-secret"
	}, nil)

	assert.Equal(t, http.StatusUnauthorized, doGET(t, srv, "/api/v1/health", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, doGET(t, srv, "/api/v1/health",
		map[string]string{middleware.APIKeyHeader: "wrong"}).Code)
	assert.Equal(t, http.StatusOK, doGET(t, srv, "/api/v1/health",
		map[string]string{middleware.APIKeyHeader: "super-secret"}).Code)
}

func TestQueryLog_Disabled(t *testing.T) {
	srv := testServer(t, nil, nil)
	assert.Equal(t, http.StatusNotFound, doGET(t, srv, "/api/v1/querylog", nil).Code)
}

func TestQueryLog_Enabled(t *testing.T) {
	db, err := database.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.InsertQueryLog(context.Background(), database.QueryLogEntry{
		AskedAt: time.Now(), Client: "192.0.2.1", QName: "example.com",
		QType: "A", Rcode: "NOERROR", Source: "recursive", DurationMs: 12,
	}))

	srv := testServer(t, nil, db)
	w := doGET(t, srv, "/api/v1/querylog?limit=10", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body handlers.QueryLogResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(1), body.Total)
	require.Len(t, body.Entries, 1)
	assert.Equal(t, "example.com", body.Entries[0].QName)
}

func TestQueryLog_BadLimit(t *testing.T) {
	db, err := database.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	defer db.Close()

	srv := testServer(t, nil, db)
	assert.Equal(t, http.StatusBadRequest, doGET(t, srv, "/api/v1/querylog?limit=abc", nil).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := testServer(t, nil, nil)
	w := doGET(t, srv, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
