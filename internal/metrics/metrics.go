// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ハンドラーやサービス層から利用する。
type MetricsCollector interface {
	RecordSignup()
	RecordLoginSuccess()
	RecordLoginFailure()
	RecordAccountDeletion()
	RecordAvatarUploadFailure()
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	signups          prometheus.Counter
	loginSuccess     prometheus.Counter
	loginFail        prometheus.Counter
	accountDeletions prometheus.Counter
	avatarUploadFail prometheus.Counter
	httpStatus       *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		signups: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "profiles_signup_total",
			Help: "アカウント作成の合計数",
		}),
		loginSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "profiles_login_success_total",
			Help: "ログイン成功の合計数",
		}),
		loginFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "profiles_login_fail_total",
			Help: "ログイン失敗の合計数",
		}),
		accountDeletions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "profiles_account_deletion_total",
			Help: "退会処理の合計数",
		}),
		avatarUploadFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "profiles_avatar_upload_fail_total",
			Help: "アバター保存失敗の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "profiles_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.signups,
		c.loginSuccess,
		c.loginFail,
		c.accountDeletions,
		c.avatarUploadFail,
		c.httpStatus,
	)

	return c
}

// RecordSignup はアカウント作成を記録する。
func (c *Collector) RecordSignup() {
	c.signups.Inc()
}

// RecordLoginSuccess はログイン成功を記録する。
func (c *Collector) RecordLoginSuccess() {
	c.loginSuccess.Inc()
}

// RecordLoginFailure はログイン失敗を記録する。
func (c *Collector) RecordLoginFailure() {
	c.loginFail.Inc()
}

// RecordAccountDeletion は退会処理を記録する。
func (c *Collector) RecordAccountDeletion() {
	c.accountDeletions.Inc()
}

// RecordAvatarUploadFailure はアバター保存失敗を記録する。
func (c *Collector) RecordAvatarUploadFailure() {
	c.avatarUploadFail.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
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

var _ MetricsCollector = (*Collector)(nil)
