package sdk

import (
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the client-side collectors. A nil *Metrics records nothing.
type Metrics struct {
	RequestsTotal          *prometheus.CounterVec
	RequestDurationSeconds *prometheus.HistogramVec
	UnauthorizedTotal      prometheus.Counter
	RefreshTotal           *prometheus.CounterVec
	UserCacheLookups       *prometheus.CounterVec
}

// NewMetrics registers the collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sports_client_requests_total",
				Help: "Total number of API requests issued by the client",
			},
			[]string{"method", "path", "status"},
		),
		RequestDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sports_client_request_duration_seconds",
				Help:    "Duration of API requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		UnauthorizedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "sports_client_unauthorized_total",
				Help: "Total number of 401 responses that terminated the session",
			},
		),
		RefreshTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sports_client_token_refresh_total",
				Help: "Token refresh attempts by outcome",
			},
			[]string{"outcome"},
		),
		UserCacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sports_client_user_cache_lookups_total",
				Help: "User listing lookups by result",
			},
			[]string{"result"},
		),
	}
}

func (m *Metrics) observeRequest(method, path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	norm := normalizePath(path)
	statusLabel := "error"
	if status > 0 {
		statusLabel = strconv.Itoa(status)
	}
	m.RequestsTotal.WithLabelValues(method, norm, statusLabel).Inc()
	m.RequestDurationSeconds.WithLabelValues(method, norm).Observe(elapsed.Seconds())
}

func (m *Metrics) unauthorized() {
	if m == nil {
		return
	}
	m.UnauthorizedTotal.Inc()
}

func (m *Metrics) refresh(outcome string) {
	if m == nil {
		return
	}
	m.RefreshTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) cacheLookup(result string) {
	if m == nil {
		return
	}
	m.UserCacheLookups.WithLabelValues(result).Inc()
}

var userSubresources = map[string]bool{
	"login":                     true,
	"refresh":                   true,
	"verify-email":              true,
	"resend-verification-email": true,
	"reset-password":            true,
}

// normalizePath collapses user ids so the path label stays bounded.
func normalizePath(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) >= 2 && parts[0] == "users" && !userSubresources[parts[1]] {
		parts[1] = "{id}"
	}
	return "/" + strings.Join(parts, "/")
}
