package main

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// ============================================================================
// 对称坐标范围计算
// ============================================================================

const (
	// DefaultDeviationFloorRatio 最小偏离（昨收的 0.5%），避免价格走平时坐标轴宽度为 0
	DefaultDeviationFloorRatio = 0.005
	// DefaultDomainMargin 在最大偏离基础上预留 10% 的上下空间
	DefaultDomainMargin = 1.1
)

var hundred = decimal.NewFromInt(100)

// ErrInvalidReference 昨收价非法（<= 0）
var ErrInvalidReference = errors.New("invalid reference price")

// InvalidReferenceError 昨收价非法时返回，可用 errors.Is(err, ErrInvalidReference) 判断
type InvalidReferenceError struct {
	Reference float64
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("invalid reference price %v: must be > 0", e.Reference)
}

// Is 使 errors.Is 能匹配 ErrInvalidReference
func (e *InvalidReferenceError) Is(target error) bool {
	return target == ErrInvalidReference
}

// DomainOptions 范围计算参数
type DomainOptions struct {
	DeviationFloorRatio float64
	Margin              float64
}

// DefaultDomainOptions 默认范围计算参数
func DefaultDomainOptions() DomainOptions {
	return DomainOptions{
		DeviationFloorRatio: DefaultDeviationFloorRatio,
		Margin:              DefaultDomainMargin,
	}
}

// ComputeDomains 根据采样点和昨收价计算对称的价格范围与涨跌幅范围
//
//	maxDeviation = max(|price-ref|, |avgPrice-ref|, ref*0.005)
//	price   = [ref - maxDeviation*1.1, ref + maxDeviation*1.1]
//	percent = [-pct, +pct], pct = (price.Max-ref)/ref*100
//
// 空采样序列只会得到由最小偏离决定的范围；调用方应在此之前处理空序列。
func ComputeDomains(samples []Sample, reference float64) (Domains, error) {
	return ComputeDomainsWithOptions(samples, reference, DefaultDomainOptions())
}

// ComputeDomainsWithOptions 同 ComputeDomains，可覆盖最小偏离比例与 margin
func ComputeDomainsWithOptions(samples []Sample, reference float64, opts DomainOptions) (Domains, error) {
	if !isFinitePositive(reference) {
		return Domains{}, &InvalidReferenceError{Reference: reference}
	}
	if !isFinitePositive(opts.DeviationFloorRatio) {
		opts.DeviationFloorRatio = DefaultDeviationFloorRatio
	}
	if !isFinitePositive(opts.Margin) {
		opts.Margin = DefaultDomainMargin
	}

	ref := decimal.NewFromFloat(reference)
	maxDeviation := ref.Mul(decimal.NewFromFloat(opts.DeviationFloorRatio))

	for _, s := range samples {
		for _, v := range [...]float64{s.Price, s.AvgPrice} {
			// 缺失的均价（0）和非法值不参与计算
			if !isFinitePositive(v) {
				continue
			}
			dev := decimal.NewFromFloat(v).Sub(ref).Abs()
			if dev.GreaterThan(maxDeviation) {
				maxDeviation = dev
			}
		}
	}

	halfWidth := maxDeviation.Mul(decimal.NewFromFloat(opts.Margin))
	pct := halfWidth.Div(ref).Mul(hundred)

	return Domains{
		Price: Domain{
			Min: ref.Sub(halfWidth),
			Max: ref.Add(halfWidth),
		},
		Percent: Domain{
			Min: pct.Neg(),
			Max: pct,
		},
		MaxDeviation: maxDeviation,
	}, nil
}

// PercentAt 价格轴上的值对应的涨跌幅（与涨跌幅轴同一垂直位置）
func (d Domains) PercentAt(price, reference float64) float64 {
	if !isFinitePositive(reference) {
		return 0
	}
	return (price - reference) / reference * 100
}

func isFinitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
