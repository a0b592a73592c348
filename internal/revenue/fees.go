// Package revenue はアプリプロジェクトの収益分析機能を提供する。
// 金額計算は浮動小数点を避け、decimalで行う。
package revenue

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/hitoshi/goaltrack/internal/model"
)

// moneyScale は金額の小数桁数。
const moneyScale = 2

// NetFromGross は総収益からプラットフォーム手数料を差し引いた純収益を返す。
// 小数第2位に丸める（銀行丸めではなく四捨五入）。
func NetFromGross(gross decimal.Decimal, platform model.Platform) decimal.Decimal {
	net := gross.Mul(decimal.NewFromInt(1).Sub(platform.FeeRate()))
	return net.Round(moneyScale)
}

// FeeAmount は総収益と純収益の差分、すなわち手数料額を返す。
func FeeAmount(gross, net decimal.Decimal) decimal.Decimal {
	return gross.Sub(net).Round(moneyScale)
}

// EffectiveFeePercent は実効手数料率（百分率）を返す。
// 総収益が0の場合は0を返す。
func EffectiveFeePercent(gross, net decimal.Decimal) decimal.Decimal {
	if gross.IsZero() {
		return decimal.Zero
	}
	return gross.Sub(net).Div(gross).Mul(decimal.NewFromInt(100)).Round(1)
}

// monthOf は指定時刻が属する月の先頭（ローカル暦）を返す。
func monthOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// Summary はプロジェクトの収益集計を表す。
type Summary struct {
	TotalGross decimal.Decimal
	TotalNet   decimal.Decimal
	ThisMonth  decimal.Decimal
	LastMonth  decimal.Decimal
	// GrowthPercent は先月比の純収益成長率（百分率）。先月が0の場合はnil。
	GrowthPercent *decimal.Decimal
}

// Summarize は収益エントリから集計を計算する。
// 月次バケットはエントリのdateが属する暦月（nowのローカルタイムゾーン基準）で決まる。
func Summarize(entries []model.RevenueEntry, now time.Time) Summary {
	thisMonth := monthOf(now)
	lastMonth := thisMonth.AddDate(0, -1, 0)

	s := Summary{
		TotalGross: decimal.Zero,
		TotalNet:   decimal.Zero,
		ThisMonth:  decimal.Zero,
		LastMonth:  decimal.Zero,
	}
	for _, e := range entries {
		s.TotalGross = s.TotalGross.Add(e.GrossRevenue)
		s.TotalNet = s.TotalNet.Add(e.NetRevenue)

		m := monthOf(e.Date.In(now.Location()))
		switch {
		case m.Equal(thisMonth):
			s.ThisMonth = s.ThisMonth.Add(e.NetRevenue)
		case m.Equal(lastMonth):
			s.LastMonth = s.LastMonth.Add(e.NetRevenue)
		}
	}

	if !s.LastMonth.IsZero() {
		growth := s.ThisMonth.Sub(s.LastMonth).Div(s.LastMonth).Mul(decimal.NewFromInt(100)).Round(1)
		s.GrowthPercent = &growth
	}
	return s
}
