// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder はメトリクス収集のインターフェース。
// ミドルウェアやプロファイル整合サービスから利用する。
type Recorder interface {
	RecordAuthzDecision(permission string, allowed bool)
	RecordReconcileRun()
	RecordProfilesCreated(count int)
	RecordReconcileFailure()
	RecordHTTPStatus(statusCode int)
	RecordRequestDuration(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	authzDecisions    *prometheus.CounterVec
	reconcileRuns     prometheus.Counter
	profilesCreated   prometheus.Counter
	reconcileFailures prometheus.Counter
	httpStatus        *prometheus.CounterVec
	requestDuration   prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		authzDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "regiman_authz_decisions_total",
			Help: "権限判定の合計数（権限名・許可否ラベル付き）",
		}, []string{"permission", "allowed"}),
		reconcileRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "regiman_reconcile_runs_total",
			Help: "プロファイル整合実行の合計数",
		}),
		profilesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "regiman_reconcile_profiles_created_total",
			Help: "整合処理で作成されたプロファイルの合計数",
		}),
		reconcileFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "regiman_reconcile_failures_total",
			Help: "プロファイル整合失敗の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "regiman_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "regiman_http_request_duration_seconds",
			Help:    "HTTPリクエスト処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.authzDecisions,
		c.reconcileRuns,
		c.profilesCreated,
		c.reconcileFailures,
		c.httpStatus,
		c.requestDuration,
	)

	return c
}

// RecordAuthzDecision は権限判定の結果を記録する。
func (c *Collector) RecordAuthzDecision(permission string, allowed bool) {
	c.authzDecisions.WithLabelValues(permission, strconv.FormatBool(allowed)).Inc()
}

// RecordReconcileRun はプロファイル整合の実行を記録する。
func (c *Collector) RecordReconcileRun() {
	c.reconcileRuns.Inc()
}

// RecordProfilesCreated は整合処理で作成されたプロファイル数を記録する。
func (c *Collector) RecordProfilesCreated(count int) {
	c.profilesCreated.Add(float64(count))
}

// RecordReconcileFailure はプロファイル整合の失敗を記録する。
func (c *Collector) RecordReconcileFailure() {
	c.reconcileFailures.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestDuration はリクエスト処理時間を記録する。
func (c *Collector) RecordRequestDuration(duration time.Duration) {
	c.requestDuration.Observe(duration.Seconds())
}

// NopRecorder は何も記録しないRecorder実装。
// メトリクスを公開しないCLIサブコマンドで使用する。
type NopRecorder struct{}

func (NopRecorder) RecordAuthzDecision(permission string, allowed bool) {}
func (NopRecorder) RecordReconcileRun()                                 {}
func (NopRecorder) RecordProfilesCreated(count int)                     {}
func (NopRecorder) RecordReconcileFailure()                             {}
func (NopRecorder) RecordHTTPStatus(statusCode int)                     {}
func (NopRecorder) RecordRequestDuration(duration time.Duration)        {}

// compile-time interface checks
var _ Recorder = (*Collector)(nil)
var _ Recorder = NopRecorder{}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
