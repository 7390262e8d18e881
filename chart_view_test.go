package main

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestModel(t *testing.T) (*Model, *IntradayStore) {
	t.Helper()
	config := getDefaultConfig()
	config.System.DataDir = t.TempDir()
	store := NewIntradayStore(config.System.DataDir)
	return newModel(config, store, "sh600000", "20251126"), store
}

func saveScenario(t *testing.T, store *IntradayStore, date string) {
	t.Helper()
	points := make([]IntradayDataPoint, 0, 3)
	for _, s := range scenarioSamples() {
		points = append(points, IntradayDataPoint{Time: s.Time, Price: s.Price, Volume: s.Volume, AvgPrice: s.AvgPrice})
	}
	require.NoError(t, store.Save(&IntradayData{
		Code:       "SH600000",
		Name:       "浦发银行",
		Date:       date,
		PrevClose:  10,
		Datapoints: points,
	}))
}

func loadedMsg(t *testing.T, cmd tea.Cmd) chartLoadedMsg {
	t.Helper()
	require.NotNil(t, cmd)
	msg, ok := cmd().(chartLoadedMsg)
	require.True(t, ok)
	return msg
}

func TestModelLoadChart(t *testing.T) {
	m, store := newTestModel(t)
	saveScenario(t, store, "20251126")
	assert.Equal(t, ViewLoading, m.state)
	assert.Equal(t, "SH600000", m.code)

	m.Update(loadedMsg(t, m.loadChartCmd(m.date)))
	assert.Equal(t, ViewChart, m.state)
	assert.Equal(t, 2, m.cursor, "cursor starts at the latest sample")
	assert.Equal(t, "浦发银行", m.name)
	require.NotNil(t, m.chart)
	assert.Len(t, m.chart.Samples, 3)
}

func TestModelCursorKeys(t *testing.T) {
	m, store := newTestModel(t)
	saveScenario(t, store, "20251126")
	m.Update(loadedMsg(t, m.loadChartCmd(m.date)))

	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, 1, m.cursor)
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'h'}})
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, 0, m.cursor, "cursor stops at the first sample")

	m.Update(tea.KeyMsg{Type: tea.KeyEnd})
	assert.Equal(t, 2, m.cursor)
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, 2, m.cursor, "cursor stops at the last sample")
	m.Update(tea.KeyMsg{Type: tea.KeyHome})
	assert.Equal(t, 0, m.cursor)

	assert.False(t, m.showTooltip)
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'t'}})
	assert.True(t, m.showTooltip)

	// 刷新同一天的数据时保留光标
	m.Update(loadedMsg(t, m.loadChartCmd(m.date)))
	assert.Equal(t, 0, m.cursor)
}

func TestModelLoadStates(t *testing.T) {
	m, store := newTestModel(t)

	m.Update(loadedMsg(t, m.loadChartCmd(m.date)))
	assert.Equal(t, ViewError, m.state)
	assert.True(t, errors.Is(m.loadError, ErrNoIntradayData))
	assert.Contains(t, m.View(), getTextFor(English, "noDataAvailable"))

	require.NoError(t, store.Save(&IntradayData{Code: "SH600000", Date: "20251126"}))
	m.Update(loadedMsg(t, m.loadChartCmd(m.date)))
	assert.Equal(t, ViewEmpty, m.state)
	assert.Equal(t, -1, m.cursor)
	assert.Contains(t, m.View(), getTextFor(English, "noChartData"))

	// 空数据时移动光标没有效果
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, -1, m.cursor)
}

func TestModelViewTooSmall(t *testing.T) {
	m, store := newTestModel(t)
	saveScenario(t, store, "20251126")
	m.Update(loadedMsg(t, m.loadChartCmd(m.date)))

	m.Update(tea.WindowSizeMsg{Width: 20, Height: 10})
	assert.Contains(t, m.View(), getTextFor(English, "terminalTooSmall"))

	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m.showTooltip = true
	view := m.View()
	assert.NotContains(t, view, getTextFor(English, "terminalTooSmall"))
	assert.Contains(t, view, "09:32")
}

func TestModelChangeDate(t *testing.T) {
	m, store := newTestModel(t)
	saveScenario(t, store, "20251124")

	// 20251125 没有数据，继续向前找到 20251124
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'['}})
	msg := loadedMsg(t, cmd)
	require.NoError(t, msg.err)
	assert.Equal(t, "20251124", msg.date)

	m.Update(msg)
	assert.Equal(t, "20251124", m.date)
	assert.Equal(t, ViewChart, m.state)
}

func TestModelQuit(t *testing.T) {
	m, _ := newTestModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModelDiscardsStaleLoad(t *testing.T) {
	m, store := newTestModel(t)
	saveScenario(t, store, "20251126")
	saveScenario(t, store, "20251125")
	m.Update(loadedMsg(t, m.loadChartCmd(m.date)))
	require.Equal(t, ViewChart, m.state)

	// 刷新今天的请求尚未返回时切换到前一天
	refresh := m.loadChartCmd(m.date)
	_, change := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'['}})

	changed := loadedMsg(t, change)
	stale := loadedMsg(t, refresh)
	require.Equal(t, "20251125", changed.date)

	m.Update(changed)
	assert.Equal(t, "20251125", m.date)
	assert.False(t, m.loading)

	m.Update(stale)
	assert.Equal(t, "20251125", m.date, "late refresh must not switch the date back")
	assert.Equal(t, ViewChart, m.state)
}

func TestModelTickSkipsRefreshWhileLoading(t *testing.T) {
	m, _ := newTestModel(t)
	m.loadChartCmd(m.date)
	require.True(t, m.loading)
	seq := m.loadSeq

	m.Update(tickMsg{})
	assert.Equal(t, seq, m.loadSeq)
}
