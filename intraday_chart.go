package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/NimbleMarkets/ntcharts/canvas"
	"github.com/NimbleMarkets/ntcharts/linechart"
	"github.com/charmbracelet/lipgloss"
)

// ============================================================================
// 终端渲染器：将 ChartDescription 绘制为 ntcharts 折线图
// ============================================================================

const (
	chartMinWidth    = 40
	chartMinHeight   = 15
	volumeChartRatio = 4 // 成交量子图高度 = 总高度 / 4
)

// chartPalette 涨跌配色
type chartPalette struct {
	up        lipgloss.Style
	down      lipgloss.Style
	flat      lipgloss.Style
	avg       lipgloss.Style
	reference lipgloss.Style
	cursor    lipgloss.Style
}

// newChartPalette A股红涨绿跌，非A股绿涨红跌
func newChartPalette(convention ColorConvention) chartPalette {
	red := lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))

	p := chartPalette{
		flat:      lipgloss.NewStyle().Foreground(lipgloss.Color("15")), // 白色
		avg:       lipgloss.NewStyle().Foreground(lipgloss.Color("11")), // 黄色
		reference: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		cursor:    lipgloss.NewStyle().Foreground(lipgloss.Color("14")), // 青色
	}
	if convention == RedUp {
		p.up, p.down = red, green
	} else {
		p.up, p.down = green, red
	}
	return p
}

func (p chartPalette) style(d Direction) lipgloss.Style {
	switch d {
	case DirectionUp:
		return p.up
	case DirectionDown:
		return p.down
	}
	return p.flat
}

// chartRenderer 绘制参数
type chartRenderer struct {
	desc    *ChartDescription
	palette chartPalette
	width   int
	height  int
	xSteps  int
	ySteps  int
	cursor  int // -1 表示不显示光标
}

// render 返回价格图与成交量图；终端太小或描述为空时返回 ok=false
func (r chartRenderer) render() (string, bool) {
	if r.desc == nil || r.desc.Empty || len(r.desc.Samples) == 0 {
		return "", false
	}
	if r.width < chartMinWidth || r.height < chartMinHeight {
		return "", false
	}

	volumeHeight := r.height / volumeChartRatio
	priceHeight := r.height - volumeHeight

	priceAxisWidth := r.priceAxisWidth()
	pctAxisWidth := 9
	plotWidth := r.width - priceAxisWidth - pctAxisWidth
	if plotWidth < chartMinWidth/2 {
		return "", false
	}

	price := lipgloss.JoinHorizontal(lipgloss.Top,
		r.priceAxisColumn(priceHeight, priceAxisWidth),
		r.priceChart(plotWidth, priceHeight),
		r.percentAxisColumn(priceHeight, pctAxisWidth),
	)
	volume := lipgloss.JoinHorizontal(lipgloss.Top,
		r.volumeAxisColumn(volumeHeight, priceAxisWidth),
		r.volumeChart(plotWidth, volumeHeight),
	)

	return lipgloss.JoinVertical(lipgloss.Left, price, volume), true
}

// maxX X 轴上界（单个采样点时避免零宽度）
func (r chartRenderer) maxX() float64 {
	n := len(r.desc.Samples)
	if n < 2 {
		return 1
	}
	return float64(n - 1)
}

// xLabelFormatter X 轴显示采样点的时间
func (r chartRenderer) xLabelFormatter() linechart.LabelFormatter {
	return func(_ int, value float64) string {
		idx := r.desc.IndexAt(value)
		if idx < 0 {
			return ""
		}
		return r.desc.Samples[idx].Time
	}
}

// noLabel Y 轴标签由左右两侧的着色列绘制
func noLabel(_ int, _ float64) string {
	return ""
}

// priceChart 价格线（按相对昨收着色）、均价线、昨收参考线与光标
func (r chartRenderer) priceChart(width, height int) string {
	domain := r.desc.Domains.Price
	lc := linechart.New(width, height,
		0, r.maxX(),
		domain.MinFloat(), domain.MaxFloat(),
		linechart.WithXYSteps(r.xSteps, r.ySteps),
		linechart.WithXLabelFormatter(r.xLabelFormatter()),
		linechart.WithYLabelFormatter(noLabel),
		linechart.WithStyles(lipgloss.Style{}, lipgloss.Style{}, r.palette.flat),
	)

	// 昨收参考线
	lc.DrawBrailleLineWithStyle(
		canvas.Float64Point{X: 0, Y: r.desc.Reference},
		canvas.Float64Point{X: r.maxX(), Y: r.desc.Reference},
		r.palette.reference,
	)

	r.drawCursor(&lc, domain.MinFloat(), domain.MaxFloat())

	samples := r.desc.Samples
	if len(samples) == 1 {
		s := samples[0]
		lc.DrawBrailleLineWithStyle(
			canvas.Float64Point{X: 0, Y: s.Price},
			canvas.Float64Point{X: r.maxX(), Y: s.Price},
			r.palette.style(s.VsReference),
		)
	}
	for i := 0; i < len(samples)-1; i++ {
		a, b := samples[i], samples[i+1]
		// 缺少均价的点不画均价线
		if a.AvgPrice > 0 && b.AvgPrice > 0 {
			lc.DrawBrailleLineWithStyle(
				canvas.Float64Point{X: float64(i), Y: a.AvgPrice},
				canvas.Float64Point{X: float64(i + 1), Y: b.AvgPrice},
				r.palette.avg,
			)
		}
		lc.DrawBrailleLineWithStyle(
			canvas.Float64Point{X: float64(i), Y: a.Price},
			canvas.Float64Point{X: float64(i + 1), Y: b.Price},
			r.palette.style(b.VsReference),
		)
	}

	lc.DrawXYAxisAndLabel()
	return lc.View()
}

// volumeChart 成交量柱（按相对前一采样点着色）
func (r chartRenderer) volumeChart(width, height int) string {
	maxVolume := float64(r.desc.MaxVolume)
	if maxVolume <= 0 {
		maxVolume = 1
	}

	lc := linechart.New(width, height,
		0, r.maxX(),
		0, maxVolume,
		linechart.WithXYSteps(r.xSteps, 2),
		linechart.WithXLabelFormatter(noLabel),
		linechart.WithYLabelFormatter(noLabel),
		linechart.WithStyles(lipgloss.Style{}, lipgloss.Style{}, r.palette.flat),
	)

	r.drawCursor(&lc, 0, maxVolume)

	for i, s := range r.desc.Samples {
		if s.Volume <= 0 {
			continue
		}
		lc.DrawBrailleLineWithStyle(
			canvas.Float64Point{X: float64(i), Y: 0},
			canvas.Float64Point{X: float64(i), Y: float64(s.Volume)},
			r.palette.style(s.VsPrevious),
		)
	}

	lc.DrawXYAxisAndLabel()
	return lc.View()
}

func (r chartRenderer) drawCursor(lc *linechart.Model, minY, maxY float64) {
	if r.cursor < 0 || r.cursor >= len(r.desc.Samples) {
		return
	}
	x := float64(r.cursor)
	lc.DrawBrailleLineWithStyle(
		canvas.Float64Point{X: x, Y: minY},
		canvas.Float64Point{X: x, Y: maxY},
		r.palette.cursor,
	)
}

// ============================================================================
// 着色坐标轴列
// ============================================================================

// axisRows 将 ySteps 个刻度映射到绘图区的行号（第 0 行为上界）
// 图表底部两行为 X 轴与时间标签
func (r chartRenderer) axisRows(height int) []int {
	plotRows := height - 2
	if plotRows < 2 || r.ySteps <= 0 {
		return nil
	}
	rows := make([]int, r.ySteps+1)
	for i := range rows {
		rows[i] = int(math.Round(float64(i) * float64(plotRows-1) / float64(r.ySteps)))
	}
	return rows
}

// tickValue 第 i 个刻度的数值（从上到下）
func (r chartRenderer) tickValue(i int, minV, maxV float64) float64 {
	return maxV - float64(i)*(maxV-minV)/float64(r.ySteps)
}

func (r chartRenderer) priceAxisWidth() int {
	domain := r.desc.Domains.Price
	w := len(r.desc.FormatPriceTick(domain.MaxFloat()))
	if l := len(r.desc.FormatPriceTick(domain.MinFloat())); l > w {
		w = l
	}
	if l := len(r.desc.FormatVolumeTick(float64(r.desc.MaxVolume))); l > w {
		w = l
	}
	return w + 1
}

// priceAxisColumn 价格刻度，按刻度值相对昨收着色
func (r chartRenderer) priceAxisColumn(height, width int) string {
	domain := r.desc.Domains.Price
	lines := make([]string, height)
	for i, row := range r.axisRows(height) {
		v := r.tickValue(i, domain.MinFloat(), domain.MaxFloat())
		label := fmt.Sprintf("%*s", width-1, r.desc.FormatPriceTick(v))
		lines[row] = r.palette.style(r.desc.PriceTickDirection(v)).Render(label)
	}
	return padColumn(lines, width)
}

// percentAxisColumn 涨跌幅刻度，按刻度值相对 0 着色
func (r chartRenderer) percentAxisColumn(height, width int) string {
	domain := r.desc.Domains.Percent
	lines := make([]string, height)
	for i, row := range r.axisRows(height) {
		v := r.tickValue(i, domain.MinFloat(), domain.MaxFloat())
		label := " " + r.desc.FormatPercentTick(v)
		lines[row] = r.palette.style(r.desc.PercentTickDirection(v)).Render(label)
	}
	return padColumn(lines, width)
}

// volumeAxisColumn 成交量刻度（不着色）
func (r chartRenderer) volumeAxisColumn(height, width int) string {
	lines := make([]string, height)
	if height > 2 {
		lines[0] = fmt.Sprintf("%*s", width-1, r.desc.FormatVolumeTick(float64(r.desc.MaxVolume)))
	}
	// 只有一行绘图区时只显示最大值
	if height > 3 {
		lines[height-3] = fmt.Sprintf("%*s", width-1, "0")
	}
	return padColumn(lines, width)
}

func padColumn(lines []string, width int) string {
	style := lipgloss.NewStyle().Width(width)
	for i, l := range lines {
		lines[i] = style.Render(l)
	}
	return strings.Join(lines, "\n")
}
