// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SyncRecorder はGitHub同期メトリクス収集のインターフェース。
// ワーカーやサービス層から利用する。
type SyncRecorder interface {
	RecordSyncSuccess(repoID string)
	RecordSyncFailure(repoID string, reason string)
	RecordStatsPending(repoID string)
	RecordSyncLatency(duration time.Duration)
	RecordProgressRecompute(goalType string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	syncSuccess       prometheus.Counter
	syncFail          *prometheus.CounterVec
	statsPending      prometheus.Counter
	syncLatency       prometheus.Histogram
	progressRecompute *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		syncSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "goaltrack_sync_success_total",
			Help: "リポジトリ同期成功の合計数",
		}),
		syncFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "goaltrack_sync_fail_total",
			Help: "リポジトリ同期失敗の合計数（理由別）",
		}, []string{"reason"}),
		statsPending: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "goaltrack_stats_pending_total",
			Help: "統計生成待ちで同期を中断した合計数",
		}),
		syncLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "goaltrack_sync_latency_seconds",
			Help:    "リポジトリ同期のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		progressRecompute: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "goaltrack_progress_recompute_total",
			Help: "ゴール進捗再計算の合計数（ゴール種別）",
		}, []string{"goal_type"}),
	}

	reg.MustRegister(
		c.syncSuccess,
		c.syncFail,
		c.statsPending,
		c.syncLatency,
		c.progressRecompute,
	)

	return c
}

// RecordSyncSuccess は同期成功を記録する。
func (c *Collector) RecordSyncSuccess(repoID string) {
	c.syncSuccess.Inc()
}

// RecordSyncFailure は同期失敗を理由付きで記録する。
func (c *Collector) RecordSyncFailure(repoID string, reason string) {
	c.syncFail.WithLabelValues(reason).Inc()
}

// RecordStatsPending は統計生成待ちによる中断を記録する。
func (c *Collector) RecordStatsPending(repoID string) {
	c.statsPending.Inc()
}

// RecordSyncLatency は同期のレイテンシを記録する。
func (c *Collector) RecordSyncLatency(duration time.Duration) {
	c.syncLatency.Observe(duration.Seconds())
}

// RecordProgressRecompute は進捗再計算を記録する。
func (c *Collector) RecordProgressRecompute(goalType string) {
	c.progressRecompute.WithLabelValues(goalType).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
