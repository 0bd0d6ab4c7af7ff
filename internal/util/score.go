package util

import "github.com/shopspring/decimal"

// Percentage 计算 scored/total*100 并保留两位小数，total 为 0 时返回 0
func Percentage(scored, total int) float64 {
	if total <= 0 {
		return 0
	}
	p := decimal.NewFromInt(int64(scored)).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(int64(total)), 2)
	f, _ := p.Float64()
	return f
}

// Round2 保留两位小数
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

func Remarks(percentage float64) string {
	switch {
	case percentage >= 90:
		return "Excellent performance!"
	case percentage >= 75:
		return "Good job!"
	case percentage >= 60:
		return "Satisfactory"
	default:
		return "Needs improvement"
	}
}
