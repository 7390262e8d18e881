package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRenderer(t *testing.T, width, height int) chartRenderer {
	t.Helper()
	desc, err := DescribeIntraday(scenarioSamples(), 10, DefaultChartOptions())
	require.NoError(t, err)
	return chartRenderer{
		desc:    desc,
		palette: newChartPalette(RedUp),
		width:   width,
		height:  height,
		xSteps:  8,
		ySteps:  5,
		cursor:  1,
	}
}

func TestChartRendererRender(t *testing.T) {
	r := newTestRenderer(t, 100, 30)
	out, ok := r.render()
	require.True(t, ok)
	assert.NotEmpty(t, out)
	assert.GreaterOrEqual(t, len(strings.Split(out, "\n")), 20)

	r.cursor = -1
	_, ok = r.render()
	assert.True(t, ok)
}

func TestChartRendererTooSmall(t *testing.T) {
	tests := []struct {
		width, height int
		desc          string
	}{
		{30, 30, "太窄"},
		{100, 10, "太矮"},
	}

	for _, tt := range tests {
		r := newTestRenderer(t, tt.width, tt.height)
		_, ok := r.render()
		assert.False(t, ok, tt.desc)
	}
}

func TestChartRendererEmpty(t *testing.T) {
	r := newTestRenderer(t, 100, 30)
	r.desc = EmptyChartDescription()
	_, ok := r.render()
	assert.False(t, ok)

	r.desc = nil
	_, ok = r.render()
	assert.False(t, ok)
}

func TestChartRendererAxisRows(t *testing.T) {
	r := chartRenderer{ySteps: 5}
	assert.Equal(t, []int{0, 2, 4, 5, 7, 9}, r.axisRows(12))
	assert.Nil(t, r.axisRows(3))

	assert.InDelta(t, 10.055, r.tickValue(0, 9.945, 10.055), 1e-9)
	assert.InDelta(t, 9.945, r.tickValue(5, 9.945, 10.055), 1e-9)
}

func TestChartPalette(t *testing.T) {
	red := newChartPalette(RedUp)
	green := newChartPalette(GreenUp)
	assert.Equal(t, red.up, green.down)
	assert.Equal(t, red.down, green.up)
	assert.Equal(t, red.flat, red.style(DirectionEqual))
}

func TestVolumeAxisColumnKeepsMaxLabel(t *testing.T) {
	r := newTestRenderer(t, 100, 30)

	lines := strings.Split(r.volumeAxisColumn(3, 6), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "1.5W")

	lines = strings.Split(r.volumeAxisColumn(6, 6), "\n")
	require.Len(t, lines, 6)
	assert.Contains(t, lines[0], "1.5W")
	assert.Contains(t, lines[3], "0")
}
