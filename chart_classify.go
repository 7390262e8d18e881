package main

// ============================================================================
// 采样点涨跌分类
// ============================================================================

// DefaultEqualEpsilon 判定"持平"的绝对容差，避免接近昨收时颜色闪烁
// 修改该值会改变可见的着色结果，可通过配置 chart.equal_epsilon 覆盖
const DefaultEqualEpsilon = 0.001

// DirectionWithin 按容差比较 value 与 anchor
// value-anchor > epsilon 为涨，< -epsilon 为跌，否则为平
func DirectionWithin(value, anchor, epsilon float64) Direction {
	diff := value - anchor
	if diff > epsilon {
		return DirectionUp
	}
	if diff < -epsilon {
		return DirectionDown
	}
	return DirectionEqual
}

// directionFromPrevious 相对上一个采样点的方向
// 持平沿用"涨"的颜色（上涨后横盘仍显示为涨）
func directionFromPrevious(price, previous float64) Direction {
	if price >= previous {
		return DirectionUp
	}
	return DirectionDown
}

// Classify 为每个采样点计算涨跌分类，保持顺序，结果只取决于输入
// 第一个采样点没有前一个点，VsPrevious 回退为 VsReference
func Classify(samples []Sample, reference, epsilon float64) []Classification {
	if epsilon < 0 {
		epsilon = DefaultEqualEpsilon
	}

	result := make([]Classification, len(samples))
	for i, s := range samples {
		c := Classification{
			VsReference: DirectionWithin(s.Price, reference, epsilon),
		}
		if i == 0 {
			c.VsPrevious = c.VsReference
		} else {
			c.VsPrevious = directionFromPrevious(s.Price, samples[i-1].Price)
		}
		result[i] = c
	}
	return result
}
