package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aristath/rebalancer/internal/modules/optimization"
	"github.com/aristath/rebalancer/internal/modules/portfolio"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func setupRouter() http.Handler {
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	solver := optimization.NewBranchAndBound(optimization.DefaultConfig(), logger)
	handler := NewHandler(portfolio.NewService(solver, 0, 0, logger), "", logger)

	r := chi.NewRouter()
	r.Route("/api", handler.RegisterRoutes)
	return r
}

func doRequest(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	return response
}

func TestHandleGetStrategies(t *testing.T) {
	w := doRequest(t, setupRouter(), "GET", "/api/rebalancing/strategies", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	response := decode(t, w)
	assert.Contains(t, response, "metadata")
	data := response["data"].(map[string]interface{})
	assert.Equal(t, []interface{}{"simple", "tracking_error", "trade_minimization"}, data["strategies"])
	assert.Equal(t, "simple", data["default"])
}

func TestHandlePlan(t *testing.T) {
	body := map[string]interface{}{
		"holdings": []map[string]interface{}{
			{"symbol": "AAPL", "quantity": 1, "price": 370},
			{"symbol": "META", "quantity": 1, "price": "580"},
		},
		"target":   map[string]interface{}{"AAPL": 0.8, "META": 0.2},
		"strategy": "simple",
	}

	w := doRequest(t, setupRouter(), "POST", "/api/rebalancing/plan", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	data := decode(t, w)["data"].(map[string]interface{})
	assert.NotEmpty(t, data["plan_id"])
	assert.Equal(t, "greedy", data["method"])
	assert.NotContains(t, data, "solver_status")

	orders := data["orders"].([]interface{})
	require.Len(t, orders, 1)
	o := orders[0].(map[string]interface{})
	assert.Equal(t, "BUY", o["action"])
	assert.Equal(t, "AAPL", o["symbol"])
	assert.Equal(t, float64(1), o["shares"])
	assert.Equal(t, "370.00", o["dollar_amount"])
	assert.Equal(t, "390.00", o["target_dollars"])
	assert.Equal(t, "20.00", o["deviation_dollars"])

	totals := data["totals"].(map[string]interface{})
	assert.Equal(t, "370.00", totals["bought"])
	assert.Equal(t, "0.00", totals["sold"])
	assert.Equal(t, "-370.00", totals["uninvested"])

	assert.Len(t, data["resulting_allocation"], 2)
}

func TestHandlePlan_Fund(t *testing.T) {
	body := map[string]interface{}{
		"holdings": []map[string]interface{}{
			{"symbol": "BND", "quantity": 100, "price": "73.90"},
		},
		"fund":     "very-conservative-streep",
		"prices":   map[string]interface{}{"TIP": "110.25", "BLV": "69.17"},
		"strategy": "tracking_error",
	}

	w := doRequest(t, setupRouter(), "POST", "/api/rebalancing/plan", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "tracking_error", data["strategy"])
	assert.NotEmpty(t, data["orders"])
}

func TestHandlePlan_DefaultStrategy(t *testing.T) {
	body := map[string]interface{}{
		"holdings": []map[string]interface{}{{"symbol": "AAPL", "quantity": 1, "price": 100}},
		"target":   map[string]interface{}{"AAPL": 1},
	}

	w := doRequest(t, setupRouter(), "POST", "/api/rebalancing/plan", body)
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "simple", data["strategy"])
	assert.Empty(t, data["orders"])
}

func TestHandlePlan_Errors(t *testing.T) {
	holdings := []map[string]interface{}{{"symbol": "AAPL", "quantity": 1, "price": 100}}

	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
	}{
		{name: "malformed body", body: `{"holdings":`, wantStatus: http.StatusBadRequest},
		{
			name:       "no target",
			body:       map[string]interface{}{"holdings": holdings},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "target and fund",
			body: map[string]interface{}{
				"holdings": holdings, "target": map[string]interface{}{"AAPL": 1}, "fund": "risky-norris",
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown fund",
			body:       map[string]interface{}{"holdings": holdings, "fund": "aggressive-stallone"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "weights over one",
			body:       map[string]interface{}{"holdings": holdings, "target": map[string]interface{}{"AAPL": 1.5}},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "unknown strategy",
			body: map[string]interface{}{
				"holdings": holdings, "target": map[string]interface{}{"AAPL": 1}, "strategy": "momentum",
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "missing price",
			body: map[string]interface{}{
				"holdings": holdings, "target": map[string]interface{}{"AAPL": 0.5, "META": 0.5},
			},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "negative quantity",
			body: map[string]interface{}{
				"holdings": []map[string]interface{}{{"symbol": "AAPL", "quantity": -1, "price": 100}},
				"target":   map[string]interface{}{"AAPL": 1},
			},
			wantStatus: http.StatusBadRequest,
		},
	}

	router := setupRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, router, "POST", "/api/rebalancing/plan", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.Contains(t, decode(t, w), "error")
		})
	}
}

func TestHandlePlan_Msgpack(t *testing.T) {
	body := `{"holdings":[{"symbol":"AAPL","quantity":1,"price":100}],"target":{"AAPL":1}}`
	req := httptest.NewRequest("POST", "/api/rebalancing/plan", bytes.NewBufferString(body))
	req.Header.Set("Accept", ContentTypeMsgpack)
	w := httptest.NewRecorder()
	setupRouter().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ContentTypeMsgpack, w.Header().Get("Content-Type"))

	var response struct {
		Data PlanResponse `msgpack:"data"`
	}
	require.NoError(t, msgpack.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "simple", response.Data.Strategy)
	assert.Equal(t, "greedy", response.Data.Method)
}

func TestHandleGetPresets(t *testing.T) {
	w := doRequest(t, setupRouter(), "GET", "/api/rebalancing/presets", nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(4), data["count"])
}

func TestHandleGetPreset(t *testing.T) {
	router := setupRouter()

	w := doRequest(t, router, "GET", "/api/rebalancing/presets/very-conservative-streep", nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "Very Conservative (Streep)", data["label"])
	weights := data["weights"].([]interface{})
	require.Len(t, weights, 3)
	first := weights[0].(map[string]interface{})
	assert.Equal(t, "BND", first["symbol"])
	assert.Equal(t, "0.65", first["weight"])
	assert.Equal(t, "73.90", first["fallback_price"])

	w = doRequest(t, router, "GET", "/api/rebalancing/presets/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
