package main

import (
	"fmt"
	"math"
	"strconv"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/floats"
)

// ============================================================================
// 分时图描述构建
// ============================================================================

// ChartOptions 构建图表描述所需的参数（来自配置）
type ChartOptions struct {
	EqualEpsilon float64
	Domain       DomainOptions
	VolumeUnits  VolumeUnits
	Labels       TooltipLabels
}

// DefaultChartOptions 默认参数（英文标签）
func DefaultChartOptions() ChartOptions {
	return ChartOptions{
		EqualEpsilon: DefaultEqualEpsilon,
		Domain:       DefaultDomainOptions(),
		VolumeUnits:  defaultVolumeUnits(English),
		Labels: TooltipLabels{
			Price:    "Price",
			AvgPrice: "Avg",
			Volume:   "Vol",
		},
	}
}

// EmptyChartDescription 空采样序列的占位描述，渲染器据此显示空状态
func EmptyChartDescription() *ChartDescription {
	return &ChartDescription{Empty: true}
}

// DescribeIntraday 完整流程：空序列检查 → 范围计算 → 分类 → 构建描述
// 昨收非法时返回 *InvalidReferenceError，不做任何部分计算
func DescribeIntraday(samples []Sample, reference float64, opts ChartOptions) (*ChartDescription, error) {
	if len(samples) == 0 {
		logDebug("log.chart.dataEmpty")
		return EmptyChartDescription(), nil
	}

	domains, err := ComputeDomainsWithOptions(samples, reference, opts.Domain)
	if err != nil {
		return nil, err
	}

	classifications := Classify(samples, reference, opts.EqualEpsilon)

	logDebug("log.chart.domain", len(samples), reference,
		domains.Price.MinFloat(), domains.Price.MaxFloat(), domains.Percent.MaxFloat())

	return BuildChartDescription(samples, reference, domains, classifications, opts), nil
}

// BuildChartDescription 组装坐标范围、分类后的采样点、摘要和标签规则
// 不修改输入，无副作用
func BuildChartDescription(samples []Sample, reference float64, domains Domains, classifications []Classification, opts ChartOptions) *ChartDescription {
	if len(samples) == 0 {
		return EmptyChartDescription()
	}

	epsilon := opts.EqualEpsilon
	if epsilon < 0 {
		epsilon = DefaultEqualEpsilon
	}

	classified := make([]ClassifiedSample, len(samples))
	for i, s := range samples {
		var c Classification
		if i < len(classifications) {
			c = classifications[i]
		}
		classified[i] = ClassifiedSample{Sample: s, Classification: c}
	}

	maxVolume := lo.MaxBy(samples, func(a, b Sample) bool { return a.Volume > b.Volume }).Volume

	return &ChartDescription{
		Reference:   reference,
		Domains:     domains,
		Samples:     classified,
		Summary:     buildSummary(samples, reference, epsilon),
		LabelRules:  buildLabelRules(reference, epsilon),
		VolumeUnits: opts.VolumeUnits,
		MaxVolume:   maxVolume,
		Labels:      opts.Labels,
		Epsilon:     epsilon,
	}
}

// buildSummary 以最后一个采样点计算最新价、涨跌额、涨跌幅
func buildSummary(samples []Sample, reference, epsilon float64) Summary {
	last := samples[len(samples)-1]
	prices := lo.Map(samples, func(s Sample, _ int) float64 { return s.Price })

	changeAbs := last.Price - reference
	high := floats.Max(prices)
	low := floats.Min(prices)

	return Summary{
		LatestPrice:     last.Price,
		LatestChangeAbs: changeAbs,
		LatestChangePct: changeAbs / reference * 100,
		LatestVolume:    last.Volume,
		LatestTime:      last.Time,
		Open:            samples[0].Price,
		High:            high,
		Low:             low,
		Amplitude:       (high - low) / reference * 100,
		TotalVolume:     lo.SumBy(samples, func(s Sample) int64 { return s.Volume }),
		Direction:       DirectionWithin(last.Price, reference, epsilon),
	}
}

func buildLabelRules(reference, epsilon float64) []AxisLabelRule {
	return []AxisLabelRule{
		{Axis: AxisPrice, ColorByDirection: true, ColorAnchor: reference, Epsilon: epsilon, Decimals: priceDecimals(reference)},
		{Axis: AxisPercent, ColorByDirection: true, ColorAnchor: 0, Epsilon: epsilon, Decimals: 2, Suffix: "%"},
		{Axis: AxisVolume},
		{Axis: AxisTime},
	}
}

// ============================================================================
// 刻度着色与标签格式化
// ============================================================================

// LabelRule 返回指定坐标轴的标签规则
func (d *ChartDescription) LabelRule(axis AxisKind) (AxisLabelRule, bool) {
	return lo.Find(d.LabelRules, func(r AxisLabelRule) bool { return r.Axis == axis })
}

// PriceTickDirection 价格轴刻度值相对昨收的方向（刻度本身，而非采样点）
func (d *ChartDescription) PriceTickDirection(value float64) Direction {
	return DirectionWithin(value, d.Reference, d.Epsilon)
}

// PercentTickDirection 涨跌幅轴刻度值相对 0 的方向
func (d *ChartDescription) PercentTickDirection(value float64) Direction {
	return DirectionWithin(value, 0, d.Epsilon)
}

// FormatPriceTick 按价格轴规则格式化刻度，整条轴使用同一精度
func (d *ChartDescription) FormatPriceTick(value float64) string {
	return d.formatTick(AxisPrice, value)
}

// FormatPercentTick 按涨跌幅轴规则格式化刻度
func (d *ChartDescription) FormatPercentTick(value float64) string {
	if math.Abs(value) < d.Epsilon {
		value = 0
	}
	return d.formatTick(AxisPercent, value)
}

// formatTick 使用坐标轴规则中的小数位和后缀；没有规则时退回按价格大小选择精度
func (d *ChartDescription) formatTick(axis AxisKind, value float64) string {
	rule, ok := d.LabelRule(axis)
	if !ok {
		return formatPrice(value)
	}
	// 四舍五入后为 0 的值不输出负号
	if math.Abs(value) < 0.5*math.Pow10(-rule.Decimals) {
		value = 0
	}
	return strconv.FormatFloat(value, 'f', rule.Decimals, 64) + rule.Suffix
}

// FormatVolumeTick 成交量刻度
func (d *ChartDescription) FormatVolumeTick(value float64) string {
	if value < 0 {
		value = 0
	}
	return FormatVolume(int64(math.Round(value)), d.VolumeUnits)
}

// FormatVolume 成交量三档缩写：>=1万 → x.x万，>=1千 → x.x千，否则原始整数
// 档位与后缀来自配置，以支持不同语言；无论配置顺序如何都从最大阈值开始匹配
func FormatVolume(volume int64, units VolumeUnits) string {
	for _, tier := range units.sorted() {
		if tier.Divisor <= 0 || volume < tier.Threshold {
			continue
		}
		v := float64(volume) / float64(tier.Divisor)
		return strconv.FormatFloat(v, 'f', tier.Decimals, 64) + tier.Suffix
	}
	return strconv.FormatInt(volume, 10)
}

// ============================================================================
// 提示框
// ============================================================================

// IndexAt 返回离 x 位置最近的采样点索引，超出范围返回 -1
func (d *ChartDescription) IndexAt(x float64) int {
	if d.Empty || len(d.Samples) == 0 || math.IsNaN(x) {
		return -1
	}
	idx := int(math.Round(x))
	if idx < 0 || idx >= len(d.Samples) {
		return -1
	}
	return idx
}

// Tooltip 返回 index 处的提示框内容：时间、价格（含涨跌额和涨跌幅）、均价、成交量
// 每个该位置上存在的数据系列恰好一行；没有均价时不输出均价行
func (d *ChartDescription) Tooltip(index int) []TooltipLine {
	if d.Empty || index < 0 || index >= len(d.Samples) {
		return nil
	}

	s := d.Samples[index]
	labels := d.Labels

	lines := []TooltipLine{{Series: SeriesTime, Text: s.Time}}

	changeAbs := s.Price - d.Reference
	changePct := d.Domains.PercentAt(s.Price, d.Reference)
	lines = append(lines, TooltipLine{
		Series:    SeriesPrice,
		Text:      fmt.Sprintf("%s: %s %+.2f (%+.2f%%)", labels.Price, formatPrice(s.Price), changeAbs, changePct),
		Direction: s.VsReference,
	})

	if s.AvgPrice > 0 {
		lines = append(lines, TooltipLine{
			Series:    SeriesAvgPrice,
			Text:      fmt.Sprintf("%s: %s", labels.AvgPrice, formatPrice(s.AvgPrice)),
			Direction: DirectionWithin(s.AvgPrice, d.Reference, d.Epsilon),
		})
	}

	lines = append(lines, TooltipLine{
		Series:    SeriesVolume,
		Text:      fmt.Sprintf("%s: %s", labels.Volume, FormatVolume(s.Volume, d.VolumeUnits)),
		Direction: s.VsPrevious,
	})

	return lines
}
