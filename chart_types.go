package main

import (
	"sort"

	"github.com/shopspring/decimal"
)

// ============================================================================
// 分时图核心数据结构
// ============================================================================

// Sample 单个分时采样点（一般为一分钟一个）
// 由外部数据源产生，核心计算过程不会修改它
type Sample struct {
	Time     string  `json:"time"`      // "09:31"
	Price    float64 `json:"price"`     // 最新价
	Volume   int64   `json:"volume"`    // 成交量
	AvgPrice float64 `json:"avg_price"` // 均价
}

// Direction 涨跌方向三态
type Direction int

const (
	DirectionEqual Direction = iota // 平
	DirectionUp                     // 涨
	DirectionDown                   // 跌
)

// String 返回方向的文本表示（用于 JSON 与表格输出）
func (d Direction) String() string {
	switch d {
	case DirectionUp:
		return "up"
	case DirectionDown:
		return "down"
	default:
		return "equal"
	}
}

// MarshalText 实现 encoding.TextMarshaler
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Classification 单个采样点的涨跌分类
// VsReference: 相对昨收（用于价格着色）
// VsPrevious:  相对上一个采样点（用于成交量柱着色）
type Classification struct {
	VsReference Direction `json:"vs_reference"`
	VsPrevious  Direction `json:"vs_previous"`
}

// Domain 坐标轴取值范围
type Domain struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

// MinFloat 返回下界的 float64 值（供渲染器使用）
func (d Domain) MinFloat() float64 {
	return d.Min.InexactFloat64()
}

// MaxFloat 返回上界的 float64 值（供渲染器使用）
func (d Domain) MaxFloat() float64 {
	return d.Max.InexactFloat64()
}

// Domains 价格轴与涨跌幅轴的对称范围
type Domains struct {
	Price        Domain          `json:"price"`
	Percent      Domain          `json:"percent"`
	MaxDeviation decimal.Decimal `json:"max_deviation"` // 相对昨收的最大偏离（未乘 margin）
}

// ClassifiedSample 采样点与其分类
type ClassifiedSample struct {
	Sample
	Classification
}

// Summary 最新价摘要
type Summary struct {
	LatestPrice     float64 `json:"latest_price"`
	LatestChangeAbs float64 `json:"latest_change_abs"`
	LatestChangePct float64 `json:"latest_change_pct"`
	LatestVolume    int64   `json:"latest_volume"`
	LatestTime      string  `json:"latest_time"`

	Open        float64   `json:"open"`
	High        float64   `json:"high"`
	Low         float64   `json:"low"`
	Amplitude   float64   `json:"amplitude"` // (high-low)/reference*100
	TotalVolume int64     `json:"total_volume"`
	Direction   Direction `json:"direction"` // 最新价相对昨收
}

// ============================================================================
// 坐标轴标签规则（以数据形式描述，不包含行为）
// ============================================================================

// AxisKind 坐标轴类型
type AxisKind string

const (
	AxisPrice   AxisKind = "price"
	AxisPercent AxisKind = "percent"
	AxisVolume  AxisKind = "volume"
	AxisTime    AxisKind = "time"
)

// AxisLabelRule 坐标轴标签格式化规则
// ColorAnchor: 刻度值与之比较以决定颜色（价格轴为昨收，涨跌幅轴为 0）
// ColorByDirection 为 false 时标签不着色（成交量轴、时间轴）
type AxisLabelRule struct {
	Axis             AxisKind `json:"axis"`
	ColorByDirection bool     `json:"color_by_direction"`
	ColorAnchor      float64  `json:"color_anchor"`
	Epsilon          float64  `json:"epsilon"`
	Decimals         int      `json:"decimals"`
	Suffix           string   `json:"suffix,omitempty"`
}

// VolumeTier 成交量缩写档位
type VolumeTier struct {
	Threshold int64  `yaml:"threshold" json:"threshold"`
	Divisor   int64  `yaml:"divisor" json:"divisor"`
	Suffix    string `yaml:"suffix" json:"suffix"`
	Decimals  int    `yaml:"decimals" json:"decimals"`
}

// VolumeUnits 成交量缩写配置（按阈值从大到小匹配）
type VolumeUnits struct {
	Tiers []VolumeTier `yaml:"tiers" json:"tiers"`
}

// sorted 返回按阈值从大到小排列的档位副本
func (u VolumeUnits) sorted() []VolumeTier {
	tiers := append([]VolumeTier(nil), u.Tiers...)
	sort.SliceStable(tiers, func(i, j int) bool {
		return tiers[i].Threshold > tiers[j].Threshold
	})
	return tiers
}

// TooltipSeries 提示框中的数据系列
type TooltipSeries string

const (
	SeriesTime     TooltipSeries = "time"
	SeriesPrice    TooltipSeries = "price"
	SeriesAvgPrice TooltipSeries = "avg_price"
	SeriesVolume   TooltipSeries = "volume"
)

// TooltipLine 提示框中的一行
type TooltipLine struct {
	Series    TooltipSeries `json:"series"`
	Text      string        `json:"text"`
	Direction Direction     `json:"direction"`
}

// ChartDescription 提供给外部渲染器的声明式分时图描述
// 每次输入变化都整体重建，不做增量修改
type ChartDescription struct {
	Empty       bool               `json:"empty"`
	Reference   float64            `json:"reference"`
	Domains     Domains            `json:"domains"`
	Samples     []ClassifiedSample `json:"samples"`
	Summary     Summary            `json:"summary"`
	LabelRules  []AxisLabelRule    `json:"label_rules"`
	VolumeUnits VolumeUnits        `json:"volume_units"`
	MaxVolume   int64              `json:"max_volume"`
	Labels      TooltipLabels      `json:"-"`
	Epsilon     float64            `json:"epsilon"`
}

// TooltipLabels 提示框中各行的前缀文本（随语言变化）
type TooltipLabels struct {
	Price    string
	AvgPrice string
	Volume   string
}
