// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/taxbyte/go-identity-server/auth"
)

// Collector counts authentication and token-lifecycle outcomes.
type Collector struct {
	loginSuccess     prometheus.Counter
	loginFailure     prometheus.Counter
	loginRateLimited prometheus.Counter
	tokenRefresh     *prometheus.CounterVec
}

var _ auth.Metrics = (*Collector)(nil)

// NewCollector registers the counters against the given registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		loginSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "identity_login_success_total",
			Help: "Successful logins.",
		}),
		loginFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "identity_login_failure_total",
			Help: "Failed login attempts.",
		}),
		loginRateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "identity_login_rate_limited_total",
			Help: "Logins blocked by the rate limiter.",
		}),
		tokenRefresh: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "identity_token_refresh_total",
			Help: "OAuth token refreshes by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		c.loginSuccess,
		c.loginFailure,
		c.loginRateLimited,
		c.tokenRefresh,
	)
	return c
}

func (c *Collector) RecordLoginSuccess()     { c.loginSuccess.Inc() }
func (c *Collector) RecordLoginFailure()     { c.loginFailure.Inc() }
func (c *Collector) RecordLoginRateLimited() { c.loginRateLimited.Inc() }

// RecordTokenRefresh records an OAuth refresh outcome ("ok" or "error").
func (c *Collector) RecordTokenRefresh(outcome string) {
	c.tokenRefresh.WithLabelValues(outcome).Inc()
}

// Handler returns the Prometheus scrape handler.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
