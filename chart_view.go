package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
)

// ============================================================================
// 分时图查看器（bubbletea）
// ============================================================================

// newModel 创建查看器模型
func newModel(config Config, store *IntradayStore, code, date string) *Model {
	return &Model{
		config:   config,
		language: Language(config.System.Language),
		store:    store,
		code:     strings.ToUpper(code),
		date:     date,
		state:    ViewLoading,
		cursor:   -1,
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadChartCmd(m.date), m.tickCmd())
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case chartLoadedMsg:
		m.applyLoaded(msg)
		return m, nil

	case tickMsg:
		// 只在开市期间且查看今天的数据时自动刷新
		var cmds []tea.Cmd
		if !m.loading && m.isLive(time.Time(msg)) {
			cmds = append(cmds, m.loadChartCmd(m.date))
		}
		cmds = append(cmds, m.tickCmd())
		return m, tea.Batch(cmds...)
	}
	return m, nil
}

func (m *Model) tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// isLive 当前查看的是市场的今天并且正在交易
func (m *Model) isLive(now time.Time) bool {
	market := getMarketType(m.code)
	marketConfig, ok := m.config.marketConfigFor(market)
	if !ok {
		return false
	}
	return m.date == m.config.currentDateForMarket(market, now) && isMarketOpenForConfig(now, marketConfig)
}

// nextLoad 登记一次新的加载请求，之前未返回的请求随之作废
func (m *Model) nextLoad() int {
	m.loadSeq++
	m.loading = true
	return m.loadSeq
}

// loadChartCmd 在后台读取数据并构建图表描述
func (m *Model) loadChartCmd(date string) tea.Cmd {
	store, config, lang, code := m.store, m.config, m.language, m.code
	seq := m.nextLoad()
	return func() tea.Msg {
		data, desc, err := loadChart(store, config, lang, code, date)
		return chartLoadedMsg{seq: seq, date: date, data: data, chart: desc, err: err}
	}
}

// applyLoaded 处理加载结果；刷新时保留光标位置
// 不是最近一次请求的结果直接丢弃
func (m *Model) applyLoaded(msg chartLoadedMsg) {
	if msg.seq != m.loadSeq {
		logDebug("log.chart.staleLoad", m.code, msg.date)
		return
	}
	m.loading = false

	sameDate := msg.date == m.date
	m.date = msg.date
	m.lastUpdate = time.Now()

	if msg.err != nil {
		m.state = ViewError
		m.loadError = msg.err
		m.data = msg.data
		m.chart = nil
		return
	}

	m.loadError = nil
	m.data = msg.data
	m.chart = msg.chart
	if msg.data != nil && msg.data.Name != "" {
		m.name = msg.data.Name
	}

	if msg.chart == nil || msg.chart.Empty {
		m.state = ViewEmpty
		m.cursor = -1
		return
	}

	m.state = ViewChart
	last := len(msg.chart.Samples) - 1
	if !sameDate || m.cursor < 0 || m.cursor > last {
		m.cursor = last
	}
}

// ============================================================================
// 按键处理
// ============================================================================

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "ctrl+c":
		return m, tea.Quit

	case "left", "h":
		m.moveCursor(-1)
	case "right", "l":
		m.moveCursor(1)
	case "home":
		m.moveCursor(-len(m.samples()))
	case "end":
		m.moveCursor(len(m.samples()))

	case "t":
		m.showTooltip = !m.showTooltip

	case "[":
		return m, m.changeDateCmd(-1)
	case "]":
		return m, m.changeDateCmd(1)
	}
	return m, nil
}

func (m *Model) samples() []ClassifiedSample {
	if m.chart == nil {
		return nil
	}
	return m.chart.Samples
}

func (m *Model) moveCursor(delta int) {
	n := len(m.samples())
	if n == 0 {
		return
	}
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor >= n {
		m.cursor = n - 1
	}
}

// changeDateCmd 切换到上一个或下一个有数据的交易日，最多尝试 10 次
func (m *Model) changeDateCmd(step int) tea.Cmd {
	store, config, lang, code, current := m.store, m.config, m.language, m.code, m.date
	market := getMarketType(code)
	today, _ := time.Parse(dateLayout, config.currentDateForMarket(market, time.Now()))
	seq := m.nextLoad()

	return func() tea.Msg {
		date := current
		for attempt := 0; attempt < 10; attempt++ {
			if step < 0 {
				date = findPreviousTradingDay(market, date)
			} else {
				next, err := findNextTradingDay(market, date, today)
				if err != nil {
					return chartLoadedMsg{seq: seq, date: current, err: err}
				}
				date = next
			}

			data, desc, err := loadChart(store, config, lang, code, date)
			if errors.Is(err, ErrNoIntradayData) {
				continue
			}
			return chartLoadedMsg{seq: seq, date: date, data: data, chart: desc, err: err}
		}
		return chartLoadedMsg{seq: seq, date: current, err: errors.Wrapf(ErrNoIntradayData, "%s near %s", code, current)}
	}
}

// ============================================================================
// 视图
// ============================================================================

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.viewHeader())
	b.WriteString("\n\n")

	switch m.state {
	case ViewLoading:
		b.WriteString(lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")). // 黄色
			Render(m.getText("loading") + "..."))
		b.WriteString("\n\n")
		b.WriteString(m.viewHelp(false))
		return b.String()

	case ViewError:
		b.WriteString(lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")). // 红色
			Render(fmt.Sprintf("%s: %s", m.getText("loadError"), m.loadError.Error())))
		b.WriteString("\n\n")
		if errors.Is(m.loadError, ErrNoIntradayData) {
			b.WriteString(m.getText("noDataAvailable"))
			b.WriteString("\n\n")
		}
		b.WriteString(m.viewHelp(false))
		return b.String()

	case ViewEmpty:
		b.WriteString(m.getText("noChartData"))
		b.WriteString("\n\n")
		b.WriteString(m.viewHelp(false))
		return b.String()
	}

	renderer := chartRenderer{
		desc:    m.chart,
		palette: newChartPalette(m.config.colorConvention(m.code, m.language)),
		width:   m.width - 2,
		height:  m.height - 10,
		xSteps:  m.config.Chart.XSteps,
		ySteps:  m.config.Chart.YSteps,
		cursor:  m.cursor,
	}
	chart, ok := renderer.render()
	if !ok {
		b.WriteString(m.getText("terminalTooSmall"))
		b.WriteString("\n\n")
		b.WriteString(m.getText("pleaseResize"))
		b.WriteString("\n\n")
		b.WriteString(m.viewHelp(false))
		return b.String()
	}

	b.WriteString(m.viewSummary(renderer.palette))
	b.WriteString("\n")
	b.WriteString(chart)
	b.WriteString("\n")
	if m.showTooltip {
		b.WriteString(m.viewTooltip(renderer.palette))
		b.WriteString("\n")
	}
	b.WriteString(m.viewHelp(true))
	return b.String()
}

// viewHeader 标题与交易时段
func (m *Model) viewHeader() string {
	market := getMarketType(m.code)
	marketLabel := m.getText("market")
	switch market {
	case MarketChina:
		marketLabel = m.getText("marketChina")
	case MarketUS:
		marketLabel = m.getText("marketUS")
	case MarketHongKong:
		marketLabel = m.getText("marketHongKong")
	}

	title := fmt.Sprintf("📈 %s [%s] - %s", m.getText("intradayChart"), marketLabel, m.code)
	if m.name != "" {
		title += " (" + m.name + ")"
	}
	title += " - " + formatDate(m.date)

	sessions := m.getText("tradingSession")
	if marketConfig, ok := m.config.marketConfigFor(market); ok {
		sessions = tradingSessionText(marketConfig, m.language)
	}

	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14")).Render(title) +
		"\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render(sessions)
}

// viewSummary 最新价、涨跌、高低、振幅、总成交量
func (m *Model) viewSummary(palette chartPalette) string {
	s := m.chart.Summary
	style := palette.style(s.Direction)

	parts := []string{
		fmt.Sprintf("%s: %s", m.getText("prevClose"), formatPrice(m.chart.Reference)),
		fmt.Sprintf("%s: %s", m.getText("latest"), style.Render(formatPrice(s.LatestPrice))),
		fmt.Sprintf("%s: %s", m.getText("change"), style.Render(formatChange(s.LatestChangeAbs, s.LatestChangePct))),
		fmt.Sprintf("%s: %s", m.getText("high"), palette.style(m.chart.PriceTickDirection(s.High)).Render(formatPrice(s.High))),
		fmt.Sprintf("%s: %s", m.getText("low"), palette.style(m.chart.PriceTickDirection(s.Low)).Render(formatPrice(s.Low))),
		fmt.Sprintf("%s: %.2f%%", m.getText("amplitude"), s.Amplitude),
		fmt.Sprintf("%s: %s", m.getText("totalVolume"), FormatVolume(s.TotalVolume, m.chart.VolumeUnits)),
	}
	return strings.Join(parts, "  ")
}

// viewTooltip 光标处的提示框
func (m *Model) viewTooltip(palette chartPalette) string {
	lines := m.chart.Tooltip(m.cursor)
	if len(lines) == 0 {
		return ""
	}

	rendered := make([]string, len(lines))
	for i, line := range lines {
		if line.Series == SeriesTime {
			rendered[i] = lipgloss.NewStyle().Bold(true).Render(line.Text)
			continue
		}
		rendered[i] = palette.style(line.Direction).Render(line.Text)
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1).
		Render(strings.Join(rendered, "\n"))
}

// viewHelp 底部按键提示
func (m *Model) viewHelp(withChart bool) string {
	items := []string{fmt.Sprintf("[%s] %s", "[ ]", m.getText("changeDate"))}
	if withChart {
		items = append(items,
			fmt.Sprintf("[%s] %s", "←/→", m.getText("moveCursor")),
			fmt.Sprintf("[%s] %s", "T", m.getText("toggleTooltip")),
		)
	}
	items = append(items, fmt.Sprintf("[%s] %s", "ESC/Q", m.getText("back")))
	return lipgloss.NewStyle().Faint(true).Render(strings.Join(items, "  "))
}
