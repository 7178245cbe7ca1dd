package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	ExpiryResultFinished    = "finished"
	ExpiryResultAlarmFailed = "alarm_failed"
	ExpiryResultError       = "error"
)

// TimerMetrics captures session timer health on the local /metrics endpoint.
type TimerMetrics struct {
	tracked      prometheus.Gauge
	ticks        prometheus.Counter
	expiries     *prometheus.CounterVec
	expiryLag    prometheus.Observer
	expiryCounts map[string]prometheus.Counter
}

var (
	timerMetricsOnce sync.Once
	timerMetrics     *TimerMetrics
)

// Timer returns the singleton timer metrics registry.
func Timer() *TimerMetrics {
	return TimerWithConfig(Config{})
}

// TimerWithConfig returns the singleton timer metrics registry using config labels.
func TimerWithConfig(cfg Config) *TimerMetrics {
	timerMetricsOnce.Do(func() {
		timerMetrics = newTimerMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return timerMetrics
}

// ResetTimerMetricsForTest resets the timer metrics singleton for tests.
func ResetTimerMetricsForTest() {
	timerMetricsOnce = sync.Once{}
	timerMetrics = nil
}

func constLabels(cfg Config) prometheus.Labels {
	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "cyberdesk"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	return prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}
}

func newTimerMetrics(registerer prometheus.Registerer, cfg Config) *TimerMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	labels := constLabels(cfg)

	tracked := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "cyberdesk_timer_tracked_sessions",
		Help:        "Sessions currently counted down by the timer engine.",
		ConstLabels: labels,
	})
	ticks := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "cyberdesk_timer_ticks_total",
		Help:        "Countdown ticks evaluated across all tracked sessions.",
		ConstLabels: labels,
	})
	expiries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "cyberdesk_timer_expiries_total",
		Help:        "Session expiries handled by the timer engine, by result.",
		ConstLabels: labels,
	}, []string{"result"})
	expiryLag := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "cyberdesk_timer_expiry_lag_seconds",
		Help:        "Delay between a session's scheduled end and its completion.",
		Buckets:     []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		ConstLabels: labels,
	})

	registerer.MustRegister(tracked, ticks, expiries, expiryLag)

	expiryCounts := map[string]prometheus.Counter{}
	for _, result := range []string{ExpiryResultFinished, ExpiryResultAlarmFailed, ExpiryResultError} {
		expiryCounts[result] = expiries.WithLabelValues(result)
	}

	return &TimerMetrics{
		tracked:      tracked,
		ticks:        ticks,
		expiries:     expiries,
		expiryLag:    expiryLag,
		expiryCounts: expiryCounts,
	}
}

func (m *TimerMetrics) SetTracked(n int) {
	if m == nil {
		return
	}
	m.tracked.Set(float64(n))
}

func (m *TimerMetrics) IncTick() {
	if m == nil {
		return
	}
	m.ticks.Inc()
}

// IncExpiry counts a handled expiry under one of the ExpiryResult values.
func (m *TimerMetrics) IncExpiry(result string) {
	if m == nil {
		return
	}
	if counter, ok := m.expiryCounts[result]; ok {
		counter.Inc()
		return
	}
	m.expiries.WithLabelValues(result).Inc()
}

// ObserveExpiryLag records how late completion ran relative to the end time.
func (m *TimerMetrics) ObserveExpiryLag(lag time.Duration) {
	if m == nil {
		return
	}
	if lag < 0 {
		lag = 0
	}
	m.expiryLag.Observe(lag.Seconds())
}
