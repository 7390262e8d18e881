package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMarketType(t *testing.T) {
	tests := []struct {
		code     string
		expected MarketType
		desc     string
	}{
		{"SH600000", MarketChina, "上海A股"},
		{"sz000001", MarketChina, "深圳A股小写"},
		{"BJ430047", MarketChina, "北交所"},
		{"HK00700", MarketHongKong, "港股HK前缀"},
		{"0700.HK", MarketHongKong, "港股.HK后缀"},
		{"AAPL", MarketUS, "美股"},
	}

	for _, tt := range tests {
		result := getMarketType(tt.code)
		if result != tt.expected {
			t.Errorf("%s: getMarketType(%q) = %q, expected %q", tt.desc, tt.code, result, tt.expected)
		}
	}
}

func TestFormatIntradayTime(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"2025-11-26 09:31:00", "09:31"},
		{"09:31:00", "09:31"},
		{"9:31", "09:31"},
		{"0931", "09:31"},
		{" 13:05 ", "13:05"},
		{"25:00", ""},
		{"09:61", ""},
		{"abc", ""},
		{"", ""},
	}

	for _, tt := range tests {
		result := formatIntradayTime(tt.input)
		if result != tt.expected {
			t.Errorf("formatIntradayTime(%q) = %q, expected %q", tt.input, result, tt.expected)
		}
	}
}

func TestMergeDatapoints(t *testing.T) {
	existing := []IntradayDataPoint{
		{Time: "09:31", Price: 10.1},
		{Time: "09:32", Price: 10.2},
	}
	incoming := []IntradayDataPoint{
		{Time: "09:32", Price: 10.25},
		{Time: "09:30", Price: 10.0},
	}

	merged := mergeDatapoints(existing, incoming)
	assert.Equal(t, []IntradayDataPoint{
		{Time: "09:30", Price: 10.0},
		{Time: "09:31", Price: 10.1},
		{Time: "09:32", Price: 10.25},
	}, merged)
}

func TestFillAvgPrices(t *testing.T) {
	samples := []Sample{
		{Price: 10, Volume: 100},
		{Price: 11, Volume: 300},
		{Price: 12, Volume: 0, AvgPrice: 11.5},
	}
	assert.True(t, fillAvgPrices(samples))
	assert.InDelta(t, 10.0, samples[0].AvgPrice, 1e-9)
	assert.InDelta(t, 10.75, samples[1].AvgPrice, 1e-9)
	assert.Equal(t, 11.5, samples[2].AvgPrice, "existing avg price is kept")

	// 没有成交量时使用算术平均
	noVolume := []Sample{{Price: 10}, {Price: 12}}
	assert.True(t, fillAvgPrices(noVolume))
	assert.InDelta(t, 11.0, noVolume[1].AvgPrice, 1e-9)

	complete := []Sample{{Price: 10, AvgPrice: 10}}
	assert.False(t, fillAvgPrices(complete))
}

func TestIntradayDataReference(t *testing.T) {
	data := &IntradayData{
		PrevClose:  9.5,
		Datapoints: []IntradayDataPoint{{Time: "09:30", Price: 10}},
	}
	ref, ok := data.Reference()
	assert.True(t, ok)
	assert.Equal(t, 9.5, ref)

	data.PrevClose = 0
	ref, ok = data.Reference()
	assert.False(t, ok)
	assert.Equal(t, 10.0, ref)

	ref, ok = (&IntradayData{}).Reference()
	assert.False(t, ok)
	assert.Equal(t, 0.0, ref)
}

func TestIntradayStoreSaveLoad(t *testing.T) {
	store := NewIntradayStore(t.TempDir())

	data := &IntradayData{
		Code:      "SH600000",
		Name:      "浦发银行",
		Date:      "20251126",
		PrevClose: 10,
		Datapoints: []IntradayDataPoint{
			{Time: "09:31", Price: 10.05, Volume: 2000},
			{Time: "09:30", Price: 10.00, Volume: 100},
		},
	}
	require.NoError(t, store.Save(data))
	assert.FileExists(t, filepath.Join(store.root, "intraday", "CN", "SH600000", "20251126.json"))

	loaded, err := store.Load("SH600000", "20251126")
	require.NoError(t, err)
	assert.Equal(t, "浦发银行", loaded.Name)
	assert.Equal(t, MarketChina, loaded.Market)
	require.Len(t, loaded.Datapoints, 2)
	assert.Equal(t, "09:30", loaded.Datapoints[0].Time, "datapoints are sorted by time")

	samples := loaded.Samples()
	require.Len(t, samples, 2)
	assert.InDelta(t, 10.0, samples[0].AvgPrice, 1e-9)
}

func TestIntradayStoreLoadErrors(t *testing.T) {
	store := NewIntradayStore(t.TempDir())

	_, err := store.Load("SH600000", "20251126")
	assert.True(t, errors.Is(err, ErrNoIntradayData))

	dir := filepath.Join(store.root, "intraday", "US", "AAPL")
	require.NoError(t, os.MkdirAll(dir, 0755))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "20251126.json"), []byte("{not json"), 0644))
	_, err = store.Load("AAPL", "20251126")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoIntradayData))

	bad := `{"code":"AAPL","date":"20251127","datapoints":[{"time":"09:30","price":0}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20251127.json"), []byte(bad), 0644))
	_, err = store.Load("AAPL", "20251127")
	assert.Error(t, err)

	empty := `{"code":"AAPL","date":"20251128","datapoints":[]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20251128.json"), []byte(empty), 0644))
	data, err := store.Load("AAPL", "20251128")
	require.NoError(t, err)
	assert.Empty(t, data.Datapoints)
}

func TestIntradayStoreLegacyPath(t *testing.T) {
	store := NewIntradayStore(t.TempDir())

	legacyDir := filepath.Join(store.root, "intraday", "SH600058")
	require.NoError(t, os.MkdirAll(legacyDir, 0755))
	legacy := `{"code":"SH600058","date":"20251211","datapoints":[{"time":"09:30","price":5.5}]}`
	require.NoError(t, os.WriteFile(filepath.Join(legacyDir, "20251211.json"), []byte(legacy), 0644))

	data, err := store.Load("SH600058", "20251211")
	require.NoError(t, err)
	assert.Equal(t, MarketChina, data.Market)
	require.Len(t, data.Datapoints, 1)

	require.NoError(t, store.Save(&IntradayData{Code: "SH600058", Date: "20251212"}))
	assert.Equal(t, []string{"20251211", "20251212"}, store.Dates("SH600058"))
}

func TestIntradayStoreMerge(t *testing.T) {
	store := NewIntradayStore(t.TempDir())

	first, err := store.Merge("HK00700", "腾讯控股", "20251126",
		[]IntradayDataPoint{{Time: "09:30", Price: 500}}, 498)
	require.NoError(t, err)
	assert.Equal(t, MarketHongKong, first.Market)
	assert.NotEmpty(t, first.UpdatedAt)

	second, err := store.Merge("HK00700", "", "20251126",
		[]IntradayDataPoint{{Time: "09:31", Price: 501}, {Time: "09:30", Price: 500.5}}, 0)
	require.NoError(t, err)
	assert.Equal(t, "腾讯控股", second.Name)
	assert.Equal(t, 498.0, second.PrevClose)
	assert.Equal(t, []IntradayDataPoint{
		{Time: "09:30", Price: 500.5},
		{Time: "09:31", Price: 501},
	}, second.Datapoints)

	assert.Error(t, store.Save(&IntradayData{Code: "HK00700", Date: "2025"}))
}

func TestIntradayDataReferenceInvalidStored(t *testing.T) {
	data := &IntradayData{
		PrevClose:  -1,
		Datapoints: []IntradayDataPoint{{Time: "09:30", Price: 10}},
	}
	ref, ok := data.Reference()
	assert.True(t, ok)
	assert.Equal(t, -1.0, ref)

	_, err := describeIntradayData(data, DefaultChartOptions())
	assert.True(t, errors.Is(err, ErrInvalidReference))
}
