package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterRequests      *prometheus.CounterVec
	CounterRateLimited   *prometheus.CounterVec
	CounterLogins        *prometheus.CounterVec
	CounterContacts      prometheus.Counter
	CounterNotifyFailure prometheus.Counter
	CounterSweptKeys     prometheus.Counter

	// gauges
	GaugeRequests    prometheus.Gauge
	GaugeTrackedKeys prometheus.Gauge

	// histograms
	HistRequestDuration *prometheus.HistogramVec
}

func NewTestManager() *Manager {
	return NewManager("landing", "test_server", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("landing", "test_server", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "requests_total",
		Help:      "The total number of incoming requests",
	}, []string{"method", "route", "status"})
	counterRateLimited := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "rate_limited_total",
		Help:      "Requests rejected by a rate limiter",
	}, []string{"limiter"})
	counterLogins := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "admin_logins_total",
		Help:      "Admin login attempts by outcome",
	}, []string{"outcome"})
	counterContacts := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "contact_submissions_total",
		Help:      "Contact form submissions stored",
	})
	counterNotifyFailure := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "owner_notification_failures_total",
		Help:      "Owner notification emails that could not be sent",
	})
	counterSweptKeys := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "rate_limit_swept_keys_total",
		Help:      "Expired rate limit records removed by inline sweeps",
	})

	gaugeRequests := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "current_requests",
		Help:      "Requests currently being served",
	})
	gaugeTrackedKeys := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "rate_limit_tracked_keys",
		Help:      "Client keys currently held by the rate limiter",
	})

	histReqDuration := factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			Name:      "request_duration_seconds",
			Help:      "Total duration of requests in seconds",
		},
		[]string{"route"},
	)

	return &Manager{
		CounterRequests:      counterRequests,
		CounterRateLimited:   counterRateLimited,
		CounterLogins:        counterLogins,
		CounterContacts:      counterContacts,
		CounterNotifyFailure: counterNotifyFailure,
		CounterSweptKeys:     counterSweptKeys,
		GaugeRequests:        gaugeRequests,
		GaugeTrackedKeys:     gaugeTrackedKeys,
		HistRequestDuration:  histReqDuration,
	}
}

// LoginOutcome counts one admin login attempt. Safe on a nil manager.
func (m *Manager) LoginOutcome(outcome string) {
	if m == nil {
		return
	}
	m.CounterLogins.WithLabelValues(outcome).Inc()
}

// RateLimited counts one rejected request. Safe on a nil manager.
func (m *Manager) RateLimited(limiter string) {
	if m == nil {
		return
	}
	m.CounterRateLimited.WithLabelValues(limiter).Inc()
}

// SweptKeys records the result of one rate limiter sweep. Safe on a nil manager.
func (m *Manager) SweptKeys(removed int) {
	if m == nil || removed <= 0 {
		return
	}
	m.CounterSweptKeys.Add(float64(removed))
}
