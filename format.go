package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
)

// ============================================================================
// 涨跌着色 - 支持多种配色习惯
// A股/中文：红涨绿跌 | 其他：绿涨红跌
// ============================================================================

// ColorConvention 涨跌配色习惯
type ColorConvention int

const (
	RedUp   ColorConvention = iota // 红涨绿跌
	GreenUp                        // 绿涨红跌
)

// conventionFor 根据股票代码和语言选择配色习惯
func conventionFor(code string, lang Language) ColorConvention {
	if getMarketType(code) == MarketChina || lang == Chinese {
		return RedUp
	}
	return GreenUp
}

// directionTextColor 方向对应的 go-pretty 前景色，平盘不着色
func directionTextColor(d Direction, convention ColorConvention) (text.Color, bool) {
	switch d {
	case DirectionUp:
		if convention == RedUp {
			return text.FgRed, true
		}
		return text.FgGreen, true
	case DirectionDown:
		if convention == RedUp {
			return text.FgGreen, true
		}
		return text.FgRed, true
	}
	return 0, false
}

// colorizeByDirection 按方向为文本着色
func colorizeByDirection(s string, d Direction, convention ColorConvention) string {
	if color, ok := directionTextColor(d, convention); ok {
		return color.Sprint(s)
	}
	return s
}

// ============================================================================
// 数值格式化
// ============================================================================

// priceDecimals 根据价格量级选择精度
func priceDecimals(value float64) int {
	v := abs(value)
	switch {
	case v >= 100:
		return 1 // 150.5
	case v >= 10:
		return 2 // 35.25
	case v >= 1:
		return 3 // 5.745
	default:
		return 4 // 0.7452
	}
}

// formatPrice 按量级格式化价格
func formatPrice(value float64) string {
	return fmt.Sprintf("%.*f", priceDecimals(value), value)
}

// formatChange 涨跌额与涨跌幅: "+0.05 (+0.50%)"
func formatChange(changeAbs, changePct float64) string {
	return fmt.Sprintf("%+.2f (%+.2f%%)", changeAbs, changePct)
}

// formatDate 格式化 YYYYMMDD → 2006-01-02
func formatDate(dateStr string) string {
	if len(dateStr) != 8 {
		return dateStr
	}
	return strings.Join([]string{dateStr[:4], dateStr[4:6], dateStr[6:]}, "-")
}

// abs 返回浮点数的绝对值
func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
