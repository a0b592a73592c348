package fitness

import (
	"math"
	"time"

	"github.com/hitoshi/goaltrack/internal/model"
)

// defaultMileageWeeks は週間走行距離集計のデフォルト窓幅。
const defaultMileageWeeks = 12

// WeekBucket は1週間分の走行距離集計を表す。
type WeekBucket struct {
	WeekStart  time.Time
	DistanceKm float64
	Sessions   int
}

// weekStart は時刻が属するISO週の開始日（月曜）のローカル深夜0時を返す。
func weekStart(t time.Time) time.Time {
	t = t.Local()
	// time.Weekdayは日曜=0。月曜起点のオフセットに変換する。
	offset := (int(t.Weekday()) + 6) % 7
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
	return day.AddDate(0, 0, -offset)
}

// WeeklyMileage は直近weeks週間の週次走行距離バケットを古い順に返す。
// weeksが0以下の場合はデフォルトの12週を使用する。
// セッションのない週も距離0のバケットとして具現化し、
// 疎なデータでグラフや平均が歪まないようにする。
// キロメートル単位で記録されたセッションのみを集計対象とする。
func WeeklyMileage(sessions []model.TrainingSession, now time.Time, weeks int) []WeekBucket {
	if weeks <= 0 {
		weeks = defaultMileageWeeks
	}

	currentWeek := weekStart(now)
	oldestWeek := currentWeek.AddDate(0, 0, -7*(weeks-1))

	buckets := make([]WeekBucket, weeks)
	for i := range buckets {
		buckets[i].WeekStart = oldestWeek.AddDate(0, 0, 7*i)
	}

	for _, s := range sessions {
		if s.Distance == nil || s.DistanceUnit != model.DistanceUnitKm {
			continue
		}
		ws := weekStart(s.Date)
		if ws.Before(oldestWeek) || ws.After(currentWeek) {
			continue
		}
		// 夏時間の切り替え週は167時間または169時間になるため、
		// 切り捨てではなく最近傍の週番号に丸める。
		idx := int(math.Round(ws.Sub(oldestWeek).Hours() / (24 * 7)))
		buckets[idx].DistanceKm += *s.Distance
		buckets[idx].Sessions++
	}

	return buckets
}

// AverageWeeklyMileage は週間走行距離の平均を返す。
// 距離0の週は分母から除外する。集計対象の週がない場合は0を返す。
func AverageWeeklyMileage(buckets []WeekBucket) float64 {
	var sum float64
	var count int
	for _, b := range buckets {
		if b.DistanceKm > 0 {
			sum += b.DistanceKm
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
