// Package metrics exposes Prometheus counters for the API client.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "nutrikeeper_client"

// Collector groups the client counters. A nil *Collector is valid and
// records nothing, so callers need no guards.
type Collector struct {
	Requests         *prometheus.CounterVec
	NetworkRetries   prometheus.Counter
	Unauthorized     prometheus.Counter
	AnalysisAttempts *prometheus.CounterVec
	SignOutFailures  *prometheus.CounterVec
}

// New creates the counters and registers them with reg.
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "API requests by method and outcome.",
		}, []string{"method", "outcome"}),
		NetworkRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "network_retries_total",
			Help:      "Requests resent after a connection-level failure.",
		}),
		Unauthorized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unauthorized_total",
			Help:      "401 responses that triggered token invalidation.",
		}),
		AnalysisAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "meal_analysis_attempts_total",
			Help:      "Meal analysis attempts by result.",
		}, []string{"result"}),
		SignOutFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signout_step_failures_total",
			Help:      "Sign-out cleanup steps that failed.",
		}, []string{"step"}),
	}

	if reg != nil {
		reg.MustRegister(c.Requests, c.NetworkRetries, c.Unauthorized, c.AnalysisAttempts, c.SignOutFailures)
	}
	return c
}

func (c *Collector) Request(method, outcome string) {
	if c == nil {
		return
	}
	c.Requests.WithLabelValues(method, outcome).Inc()
}

func (c *Collector) NetworkRetry() {
	if c == nil {
		return
	}
	c.NetworkRetries.Inc()
}

func (c *Collector) UnauthorizedResponse() {
	if c == nil {
		return
	}
	c.Unauthorized.Inc()
}

func (c *Collector) AnalysisAttempt(result string) {
	if c == nil {
		return
	}
	c.AnalysisAttempts.WithLabelValues(result).Inc()
}

func (c *Collector) SignOutStepFailed(step string) {
	if c == nil {
		return
	}
	c.SignOutFailures.WithLabelValues(step).Inc()
}
