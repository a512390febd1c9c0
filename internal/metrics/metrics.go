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
// ハンドラーやサービス層から利用する。
type MetricsCollector interface {
	RecordLogin()
	RecordVoteCast()
	RecordVoteDuplicate()
	RecordWorkCreated(category string)
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	logins         prometheus.Counter
	votesCast      prometheus.Counter
	votesDuplicate prometheus.Counter
	worksCreated   *prometheus.CounterVec
	httpStatus     *prometheus.CounterVec
	requestLatency prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		logins: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mediarank_logins_total",
			Help: "ログイン成功の合計数",
		}),
		votesCast: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mediarank_votes_cast_total",
			Help: "登録された投票の合計数",
		}),
		votesDuplicate: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mediarank_votes_duplicate_total",
			Help: "重複により無視された投票の合計数",
		}),
		worksCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mediarank_works_created_total",
			Help: "カテゴリ別の作品登録数",
		}, []string{"category"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mediarank_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mediarank_request_latency_seconds",
			Help:    "HTTPリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.logins,
		c.votesCast,
		c.votesDuplicate,
		c.worksCreated,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

// RecordLogin はログイン成功を記録する。
func (c *Collector) RecordLogin() {
	c.logins.Inc()
}

// RecordVoteCast は投票の登録を記録する。
func (c *Collector) RecordVoteCast() {
	c.votesCast.Inc()
}

// RecordVoteDuplicate は重複投票を記録する。
func (c *Collector) RecordVoteDuplicate() {
	c.votesDuplicate.Inc()
}

// RecordWorkCreated は作品登録をカテゴリ別に記録する。
func (c *Collector) RecordWorkCreated(category string) {
	c.worksCreated.WithLabelValues(category).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエストのレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
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
