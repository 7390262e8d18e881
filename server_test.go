package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*ChartServer, *IntradayStore) {
	t.Helper()
	config := getDefaultConfig()
	config.System.DataDir = t.TempDir()
	store := NewIntradayStore(config.System.DataDir)
	return NewChartServer(config, store), store
}

func doRequest(t *testing.T, s *ChartServer, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestServerHealth(t *testing.T) {
	s, _ := newTestServer(t)
	w := doRequest(t, s, "/api/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestServerChart(t *testing.T) {
	s, store := newTestServer(t)
	require.NoError(t, store.Save(&IntradayData{
		Code:      "SH600000",
		Date:      "20251126",
		PrevClose: 10,
		Datapoints: []IntradayDataPoint{
			{Time: "09:30", Price: 10.00, Volume: 100, AvgPrice: 10.00},
			{Time: "09:31", Price: 10.05, Volume: 2000, AvgPrice: 10.02},
			{Time: "09:32", Price: 9.98, Volume: 15000},
		},
	}))

	w := doRequest(t, s, "/api/intraday/sh600000/20251126/chart?lang=zh")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Empty     bool    `json:"empty"`
		Reference float64 `json:"reference"`
		Samples   []struct {
			Time        string `json:"time"`
			VsReference string `json:"vs_reference"`
		} `json:"samples"`
		Summary struct {
			TotalVolume int64  `json:"total_volume"`
			Direction   string `json:"direction"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Empty)
	assert.Equal(t, 10.0, body.Reference)
	require.Len(t, body.Samples, 3)
	assert.Equal(t, "up", body.Samples[1].VsReference)
	assert.Equal(t, int64(17100), body.Summary.TotalVolume)
	assert.Equal(t, "down", body.Summary.Direction)
}

func TestServerChartNotFound(t *testing.T) {
	s, _ := newTestServer(t)
	w := doRequest(t, s, "/api/intraday/AAPL/20251126/chart")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServerChartEmpty(t *testing.T) {
	s, store := newTestServer(t)
	require.NoError(t, store.Save(&IntradayData{Code: "AAPL", Date: "20251126"}))

	w := doRequest(t, s, "/api/intraday/AAPL/20251126/chart")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Empty   bool              `json:"empty"`
		Samples []json.RawMessage `json:"samples"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Empty)
	assert.Empty(t, body.Samples)
}

func TestServerDates(t *testing.T) {
	s, store := newTestServer(t)
	for _, date := range []string{"20251127", "20251126"} {
		require.NoError(t, store.Save(&IntradayData{Code: "HK00700", Date: date}))
	}

	w := doRequest(t, s, "/api/dates/hk00700")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"code":"HK00700","dates":["20251126","20251127"]}`, w.Body.String())
}

func TestServerChartInvalidReference(t *testing.T) {
	s, store := newTestServer(t)
	require.NoError(t, store.Save(&IntradayData{
		Code:       "AAPL",
		Date:       "20251126",
		PrevClose:  -5,
		Datapoints: []IntradayDataPoint{{Time: "09:30", Price: 180}},
	}))

	w := doRequest(t, s, "/api/intraday/AAPL/20251126/chart")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "error")
}

func TestServerRejectsBadKeys(t *testing.T) {
	s, _ := newTestServer(t)

	for _, path := range []string{
		"/api/intraday/AAPL/2025-11-26/chart",
		"/api/intraday/AAPL/abc/chart",
		"/api/intraday/A..B/20251126/chart",
		"/api/dates/A..B",
	} {
		w := doRequest(t, s, path)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
}

func TestValidateChartKey(t *testing.T) {
	tests := []struct {
		code  string
		date  string
		valid bool
		desc  string
	}{
		{"SH600000", "20251126", true, "A股"},
		{"0700.HK", "20251126", true, "港股后缀"},
		{"..", "20251126", false, "上级目录"},
		{".", "20251126", false, "当前目录"},
		{"SH/600000", "20251126", false, "路径分隔符"},
		{`SH\600000`, "20251126", false, "反斜杠"},
		{"", "20251126", false, "空代码"},
		{"AAPL", "20251332", false, "非法日期"},
		{"AAPL", "../../x", false, "日期含路径"},
	}

	for _, tt := range tests {
		err := validateChartKey(tt.code, tt.date)
		if (err == nil) != tt.valid {
			t.Errorf("%s: validateChartKey(%q, %q) error = %v, expected valid=%v", tt.desc, tt.code, tt.date, err, tt.valid)
		}
	}
}
