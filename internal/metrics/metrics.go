// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// HTTPミドルウェアやサービス層から利用する。
type MetricsCollector interface {
	RecordHTTPRequest(method, route string, statusCode int, duration time.Duration)
	RecordUserRegistered(role string)
	RecordLoginFailure(reason string)
	RecordJobPosted()
	RecordApplicationSubmitted()
	RecordResumeUploadFailure(reason string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpRequests     *prometheus.CounterVec
	httpLatency      *prometheus.HistogramVec
	usersRegistered  *prometheus.CounterVec
	loginFailures    *prometheus.CounterVec
	jobsPosted       prometheus.Counter
	appsSubmitted    prometheus.Counter
	resumeUploadFail *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobboard_http_requests_total",
			Help: "メソッド・ルート・ステータス別のHTTPリクエスト数",
		}, []string{"method", "route", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "jobboard_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		usersRegistered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobboard_users_registered_total",
			Help: "ロール別のユーザー登録数",
		}, []string{"role"}),
		loginFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobboard_login_failures_total",
			Help: "理由別のログイン失敗数",
		}, []string{"reason"}),
		jobsPosted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jobboard_jobs_posted_total",
			Help: "投稿された求人の合計数",
		}),
		appsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jobboard_applications_submitted_total",
			Help: "送信された応募の合計数",
		}),
		resumeUploadFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobboard_resume_upload_failures_total",
			Help: "理由別の履歴書アップロード失敗数",
		}, []string{"reason"}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpLatency,
		c.usersRegistered,
		c.loginFailures,
		c.jobsPosted,
		c.appsSubmitted,
		c.resumeUploadFail,
	)

	return c
}

// RecordHTTPRequest はHTTPリクエストの件数と処理時間を記録する。
// routeにはchiのルートパターンを渡し、IDを含む実パスは渡さないこと。
func (c *Collector) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordUserRegistered はユーザー登録を記録する。
func (c *Collector) RecordUserRegistered(role string) {
	c.usersRegistered.WithLabelValues(role).Inc()
}

// RecordLoginFailure はログイン失敗を記録する。
func (c *Collector) RecordLoginFailure(reason string) {
	c.loginFailures.WithLabelValues(reason).Inc()
}

// RecordJobPosted は求人投稿を記録する。
func (c *Collector) RecordJobPosted() {
	c.jobsPosted.Inc()
}

// RecordApplicationSubmitted は応募送信を記録する。
func (c *Collector) RecordApplicationSubmitted() {
	c.appsSubmitted.Inc()
}

// RecordResumeUploadFailure は履歴書アップロード失敗を記録する。
func (c *Collector) RecordResumeUploadFailure(reason string) {
	c.resumeUploadFail.WithLabelValues(reason).Inc()
}

// Nop は何も記録しないMetricsCollector。テストやメトリクス無効時に使用する。
type Nop struct{}

func (Nop) RecordHTTPRequest(string, string, int, time.Duration) {}
func (Nop) RecordUserRegistered(string)                          {}
func (Nop) RecordLoginFailure(string)                            {}
func (Nop) RecordJobPosted()                                     {}
func (Nop) RecordApplicationSubmitted()                          {}
func (Nop) RecordResumeUploadFailure(string)                     {}

// OrNop はnilの場合にNopを返す。
func OrNop(m MetricsCollector) MetricsCollector {
	if m == nil {
		return Nop{}
	}
	return m
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = Nop{}
)
