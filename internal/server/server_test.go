package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aristath/rebalancer/internal/modules/optimization"
	"github.com/aristath/rebalancer/internal/modules/portfolio"
	"github.com/aristath/rebalancer/internal/scheduler"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer() *Server {
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	solver := optimization.NewBranchAndBound(optimization.DefaultConfig(), logger)
	return New(Config{
		Log:     logger,
		Port:    0,
		DevMode: true,
		Service: portfolio.NewService(solver, 0, 0, logger),
	})
}

func TestHandleHealth(t *testing.T) {
	w := httptest.NewRecorder()
	newTestServer().Handler().ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "healthy", response["status"])
	assert.Equal(t, "rebalancer", response["service"])
}

func TestHandleSystemStatus(t *testing.T) {
	w := httptest.NewRecorder()
	newTestServer().Handler().ServeHTTP(w, httptest.NewRequest("GET", "/api/system/status", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	data := response["data"].(map[string]interface{})
	assert.Len(t, data["strategies"], 3)
	assert.Equal(t, 0.02, data["drift_threshold"])
}

func TestRoutes_RebalancingMounted(t *testing.T) {
	srv := newTestServer()

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/api/rebalancing/strategies", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	body := `{"holdings":[{"symbol":"AAPL","quantity":2,"price":50}],"target":{"AAPL":1}}`
	req := httptest.NewRequest("POST", "/api/rebalancing/plan", strings.NewReader(body))
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	req = httptest.NewRequest("POST", "/api/portfolio/summary", strings.NewReader(body))
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/api/unknown", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest("OPTIONS", "/api/rebalancing/plan", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	newTestServer().Handler().ServeHTTP(w, req)

	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestShutdownBeforeStart(t *testing.T) {
	assert.NoError(t, newTestServer().Shutdown(context.Background()))
}

type stubJobs []scheduler.JobStatus

func (s stubJobs) Status() []scheduler.JobStatus { return s }

type stubDrift struct {
	result scheduler.DriftCheckResult
	ok     bool
}

func (s stubDrift) Last() (scheduler.DriftCheckResult, bool) { return s.result, s.ok }

func TestHandleJobs(t *testing.T) {
	w := httptest.NewRecorder()
	newTestServer().Handler().ServeHTTP(w, httptest.NewRequest("GET", "/api/system/jobs", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, extractData(t, w.Body.Bytes()))

	logger := zerolog.Nop()
	srv := New(Config{
		Log:     logger,
		DevMode: true,
		Service: portfolio.NewService(optimization.NewBranchAndBound(optimization.DefaultConfig(), logger), 0, 0, logger),
		Jobs:    stubJobs{{Name: "drift_check", Schedule: "@hourly", Runs: 2}},
	})
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/api/system/jobs", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Data []scheduler.JobStatus `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Data, 1)
	assert.Equal(t, "drift_check", response.Data[0].Name)
	assert.Equal(t, 2, response.Data[0].Runs)
}

func TestHandleLastDrift(t *testing.T) {
	w := httptest.NewRecorder()
	newTestServer().Handler().ServeHTTP(w, httptest.NewRequest("GET", "/api/system/drift", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	logger := zerolog.Nop()
	service := portfolio.NewService(optimization.NewBranchAndBound(optimization.DefaultConfig(), logger), 0, 0, logger)

	pending := New(Config{Log: logger, DevMode: true, Service: service, DriftCheck: stubDrift{}})
	w = httptest.NewRecorder()
	pending.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/api/system/drift", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	checked := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	ready := New(Config{Log: logger, DevMode: true, Service: service, DriftCheck: stubDrift{
		result: scheduler.DriftCheckResult{CheckedAt: checked},
		ok:     true,
	}})
	w = httptest.NewRecorder()
	ready.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/api/system/drift", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Data scheduler.DriftCheckResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, checked.Equal(response.Data.CheckedAt))
	assert.Nil(t, response.Data.Plan)
}

func extractData(t *testing.T, body []byte) string {
	t.Helper()
	var response struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &response))
	return string(response.Data)
}
