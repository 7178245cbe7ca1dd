package fleetmetrics

import (
	"runtime"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// Snapshot is what one lounge reports to the owner's dashboard.
type Snapshot struct {
	ActiveCyber       int
	ActiveGame        int
	TotalRevenue      int64
	OrderRevenue      int64
	SubscriptionCount int
	OrderCount        int
	TransactionCount  int
}

// Gauges holds the fleet registry. It is separate from the process
// registry so that only lounge-level figures leave the machine.
type Gauges struct {
	registry       *prometheus.Registry
	activeSessions *prometheus.GaugeVec
	revenue        *prometheus.GaugeVec
	subscriptions  prometheus.Gauge
	orders         prometheus.Gauge
	transactions   prometheus.Gauge
	memory         prometheus.Gauge
}

func NewGauges(loungeID, version string) *Gauges {
	labels := prometheus.Labels{
		"lounge_id": strings.TrimSpace(loungeID),
		"version":   strings.TrimSpace(version),
	}
	g := &Gauges{
		registry: prometheus.NewRegistry(),
		activeSessions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "cyberdesk_fleet_active_sessions",
			Help:        "Sessions running on the lounge's posts.",
			ConstLabels: labels,
		}, []string{"type"}),
		revenue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "cyberdesk_fleet_revenue",
			Help:        "Cumulative ledger income in minor currency units.",
			ConstLabels: labels,
		}, []string{"source"}),
		subscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "cyberdesk_fleet_subscriptions",
			Help:        "Subscriptions sold.",
			ConstLabels: labels,
		}),
		orders: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "cyberdesk_fleet_orders",
			Help:        "Digital goods orders sold.",
			ConstLabels: labels,
		}),
		transactions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "cyberdesk_fleet_transactions",
			Help:        "Ledger transactions posted.",
			ConstLabels: labels,
		}),
		memory: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "cyberdesk_fleet_memory_bytes",
			Help:        "Memory obtained from the OS by the desk process.",
			ConstLabels: labels,
		}),
	}
	g.registry.MustRegister(g.activeSessions, g.revenue, g.subscriptions, g.orders, g.transactions, g.memory)
	return g
}

func (g *Gauges) Registry() *prometheus.Registry {
	return g.registry
}

// Update replaces every gauge with the snapshot values.
func (g *Gauges) Update(s Snapshot) {
	g.activeSessions.WithLabelValues("CYBER").Set(float64(s.ActiveCyber))
	g.activeSessions.WithLabelValues("GAME").Set(float64(s.ActiveGame))
	g.revenue.WithLabelValues("total").Set(float64(s.TotalRevenue))
	g.revenue.WithLabelValues("order").Set(float64(s.OrderRevenue))
	g.subscriptions.Set(float64(s.SubscriptionCount))
	g.orders.Set(float64(s.OrderCount))
	g.transactions.Set(float64(s.TransactionCount))

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	g.memory.Set(float64(m.Sys))
}
