// Package model はドメインモデルを定義する。
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AppProject はプログラミング目標に属するアプリプロジェクトを表す。
type AppProject struct {
	ID        string
	GoalID    string
	Name      string
	Platform  Platform
	StoreURL  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Platform はアプリの配布プラットフォームを表す。
type Platform string

const (
	// PlatformIOS はiOS App Store。
	PlatformIOS Platform = "ios"
	// PlatformMacOS はMac App Store。
	PlatformMacOS Platform = "macos"
	// PlatformAndroid はGoogle Play。
	PlatformAndroid Platform = "android"
	// PlatformWeb はWeb配布。
	PlatformWeb Platform = "web"
	// PlatformCrossPlatform はクロスプラットフォーム配布。
	PlatformCrossPlatform Platform = "cross_platform"
)

// FeeRate はプラットフォーム手数料率を返す。
// ストア経由（iOS/macOS/Android）は15%、Web/クロスプラットフォームは決済手数料相当の3%。
func (p Platform) FeeRate() decimal.Decimal {
	switch p {
	case PlatformIOS, PlatformMacOS, PlatformAndroid:
		return decimal.NewFromFloat(0.15)
	case PlatformWeb, PlatformCrossPlatform:
		return decimal.NewFromFloat(0.03)
	default:
		return decimal.Zero
	}
}

// RevenueEntry は収益のログエントリを表す。
// 作成後は不変（追記専用ログ）。
type RevenueEntry struct {
	ID           string
	ProjectID    string
	Date         time.Time
	Period       RevenuePeriod
	GrossRevenue decimal.Decimal
	NetRevenue   decimal.Decimal
	Downloads    *int
	IsNetManual  bool // 純収益が手入力された場合は真。偽なら手数料モデルで自動計算された値。
	CreatedAt    time.Time
}

// RevenuePeriod は収益エントリの集計期間を表す。
type RevenuePeriod string

const (
	// RevenuePeriodDaily は日次。
	RevenuePeriodDaily RevenuePeriod = "daily"
	// RevenuePeriodWeekly は週次。
	RevenuePeriodWeekly RevenuePeriod = "weekly"
	// RevenuePeriodMonthly は月次。
	RevenuePeriodMonthly RevenuePeriod = "monthly"
	// RevenuePeriodYearly は年次。
	RevenuePeriodYearly RevenuePeriod = "yearly"
)

// AppMetricSnapshot はアプリ指標の定期スナップショットを表す。
type AppMetricSnapshot struct {
	ID             string
	ProjectID      string
	Date           time.Time
	ActiveUsers    *int
	Downloads      *int
	CrashFreeRate  *float64
	AverageRating  *float64
	CreatedAt      time.Time
}
