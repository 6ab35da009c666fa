// Prometheus 指标导出
package server

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 包含所有 API Server 指标
type Metrics struct {
	// HTTP 请求指标
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// 业务指标
	UsersTotal    prometheus.Gauge
	SongsTotal    prometheus.Gauge
	PlaysRecorded prometheus.Counter
	LikesRecorded prometheus.Counter
}

// NewMetrics 创建指标实例
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),
		UsersTotal: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "users_total",
				Help:      "Total registered users",
			},
		),
		SongsTotal: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "songs_total",
				Help:      "Total songs in the catalog",
			},
		),
		PlaysRecorded: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "plays_recorded_total",
				Help:      "Total play events recorded via the API",
			},
		),
		LikesRecorded: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "likes_recorded_total",
				Help:      "Total like events recorded via the API",
			},
		),
	}
}

// MetricsMiddleware 创建 HTTP 指标中间件
func (m *Metrics) MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()

		// 包装 ResponseWriter 以捕获状态码
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := normalizePath(r.URL.Path)
		status := strconv.Itoa(wrapped.statusCode)

		m.HTTPRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)

		if wrapped.statusCode < 400 && r.Method == "POST" {
			switch {
			case strings.HasSuffix(path, "/play"):
				m.PlaysRecorded.Inc()
			case strings.HasSuffix(path, "/like"):
				m.LikesRecorded.Inc()
			}
		}
	})
}

// responseWriter 包装 http.ResponseWriter 以捕获状态码
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// normalizePath 规范化路径，将数字 ID 替换为占位符避免高基数
//
// 例如 /songs/123 -> /songs/{id}，/songs/123/play -> /songs/{id}/play
func normalizePath(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if p == "" {
			continue
		}
		if _, err := strconv.ParseInt(p, 10, 64); err == nil {
			parts[i] = "{id}"
		}
	}
	return strings.Join(parts, "/")
}

// MetricsHandler 返回 Prometheus HTTP Handler
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// StartGaugeUpdater 周期刷新用户/歌曲总量指标
//
// ctx 取消后退出。
func (h *Handler) StartGaugeUpdater(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			h.refreshGauges(ctx)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

func (h *Handler) refreshGauges(ctx context.Context) {
	if n, err := h.store.CountUsers(ctx); err == nil {
		h.metrics.UsersTotal.Set(float64(n))
	} else {
		log.Printf("[metrics] count users failed: %v", err)
	}
	if n, err := h.store.CountSongs(ctx); err == nil {
		h.metrics.SongsTotal.Set(float64(n))
	} else {
		log.Printf("[metrics] count songs failed: %v", err)
	}
}
