package server

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"dcatool/internal/params"
	"dcatool/internal/store"
)

const runDocument = `{
	"symbol": "AAPL",
	"priceSeries": [
		{"date": "2024-01-01", "close": 100},
		{"date": "2024-01-02", "close": 90},
		{"date": "2024-01-03", "close": 95}
	],
	"enhancedTransactions": [
		{
			"type": "BUY", "date": "2024-01-02", "price": 90,
			"lotsAfterTransaction": [
				{"entryDate": "2024-01-02", "entryPrice": 90}
			]
		}
	]
}`

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	dir := t.TempDir()

	st, err := store.New(filepath.Join(dir, "replay.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	presetPath := filepath.Join(dir, "presets.yaml")
	require.NoError(t, os.WriteFile(presetPath, []byte(`
presets:
  default:
    lot_size_usd: 10000
    max_positions: 10
    mode: LONG
    entry_activation_pct: 0.05
    entry_pullback_pct: 0.02
    exit_activation_pct: 0.10
    exit_pullback_pct: 0.03
`), 0o644))
	registry, err := params.NewRegistry(presetPath)
	require.NoError(t, err)

	svc, err := NewService(st, registry)
	require.NoError(t, err)
	httpSrv, err := NewHTTPServer(HTTPConfig{Service: svc, Store: st, Registry: registry})
	require.NoError(t, err)
	return httpSrv.Router()
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHTTP_RunAndFetch(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/replay/runs?preset=default", runDocument)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	created := gjson.Parse(w.Body.String())
	runID := created.Get("run.id").String()
	require.NotEmpty(t, runID)
	assert.Equal(t, "AAPL", created.Get("run.symbol").String())
	assert.Equal(t, "default", created.Get("run.preset").String())
	assert.InDelta(t, 555.5556, created.Get("run.final_total_pnl").Float(), 1e-3)

	w = doJSON(t, router, http.MethodGet, "/api/replay/runs/"+runID, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/replay/runs/"+runID+"/days", "")
	require.Equal(t, http.StatusOK, w.Code)
	days := gjson.Parse(w.Body.String()).Get("days")
	require.Equal(t, int64(3), days.Get("#").Int())
	first := days.Get("0")
	assert.Equal(t, "2024-01-01", first.Get("date").String())
	assert.False(t, first.Get("total_pnl_percent").Exists() && first.Get("total_pnl_percent").Type != gjson.Null,
		"percent stays null before the first trade")

	w = doJSON(t, router, http.MethodGet, "/api/replay/runs/"+runID+"/transactions", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), gjson.Parse(w.Body.String()).Get("transactions.#").Int())

	w = doJSON(t, router, http.MethodGet, "/api/replay/runs/"+runID+"/chart", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "echarts")
}

func TestHTTP_RunInlineParams(t *testing.T) {
	router := newTestRouter(t)
	doc := strings.TrimSuffix(strings.TrimSpace(runDocument), "}") + `,
		"strategyParameters": {"lotSizeUsd": 5000, "maxPositions": 4, "strategyMode": "LONG"}
	}`
	w := doJSON(t, router, http.MethodPost, "/api/replay/runs", doc)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.InDelta(t, 5000, gjson.Parse(w.Body.String()).Get("run.lot_size_usd").Float(), 1e-9)
}

func TestHTTP_RunRejections(t *testing.T) {
	router := newTestRouter(t)

	t.Run("empty body", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/replay/runs?preset=default", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
	t.Run("unknown preset", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/replay/runs?preset=nope", runDocument)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
	t.Run("no preset and no inline params", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/replay/runs", runDocument)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
	t.Run("unknown run", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/replay/runs/missing", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHTTP_Batch(t *testing.T) {
	router := newTestRouter(t)
	body := `{"preset": "default", "items": [` + runDocument + `,` + runDocument + `]}`
	w := doJSON(t, router, http.MethodPost, "/api/replay/batch", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, int64(2), gjson.Parse(w.Body.String()).Get("runs.#").Int())
}

func TestHTTP_Forecast(t *testing.T) {
	router := newTestRouter(t)

	t.Run("preset with explicit extremes", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/forecast", `{
			"current_price": 98,
			"preset": "default",
			"orders": {"recent_peak": 100, "recent_bottom": 90},
			"open_position_count": 1
		}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		res := gjson.Parse(w.Body.String())
		assert.InDelta(t, 95, res.Get("entry.trigger_price").Float(), 1e-9)
		assert.InDelta(t, 99, res.Get("exit.trigger_price").Float(), 1e-9)
	})

	t.Run("extremes derived from recent bars", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/forecast", `{
			"current_price": 98,
			"preset": "default",
			"recent_bars": [
				{"date": "2024-01-01", "close": 100},
				{"date": "2024-01-02", "close": 90},
				{"date": "2024-01-03", "close": 98}
			]
		}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		res := gjson.Parse(w.Body.String())
		assert.InDelta(t, 95, res.Get("entry.trigger_price").Float(), 1e-9)
		assert.False(t, res.Get("exit").Exists() && res.Get("exit").Type != gjson.Null)
	})

	t.Run("missing price", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/forecast", `{"preset": "default"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("no preset and no params", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/forecast", `{"current_price": 98}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHTTP_Presets(t *testing.T) {
	router := newTestRouter(t)
	w := doJSON(t, router, http.MethodGet, "/api/params/presets", "")
	require.Equal(t, http.StatusOK, w.Code)
	res := gjson.Parse(w.Body.String())
	assert.True(t, res.Get("presets.default").Exists())
}
