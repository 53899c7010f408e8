package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// DistributionMetrics tracks daily SOLAR distribution runs.
type DistributionMetrics struct {
	RunsTotal            *prometheus.CounterVec
	CreditedSolarTotal   prometheus.Counter
	MembersCreditedTotal prometheus.Counter
	LastRunTimestamp     prometheus.Gauge
}

func NewDistributionMetrics(reg prometheus.Registerer) *DistributionMetrics {
	m := &DistributionMetrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "distribution",
			Name:      "runs_total",
			Help:      "Distribution runs by result (success, error).",
		}, []string{"result"}),
		CreditedSolarTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "distribution",
			Name:      "credited_solar_total",
			Help:      "SOLAR credited to members across all runs.",
		}),
		MembersCreditedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "distribution",
			Name:      "members_credited_total",
			Help:      "Member credits applied across all runs.",
		}),
		LastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "distribution",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last successful run finished.",
		}),
	}

	reg.MustRegister(m.RunsTotal, m.CreditedSolarTotal, m.MembersCreditedTotal, m.LastRunTimestamp)
	return m
}

// ObserveSuccess records a finished run.
func (m *DistributionMetrics) ObserveSuccess(members int, solar decimal.Decimal, finishedAt int64) {
	m.RunsTotal.WithLabelValues("success").Inc()
	m.MembersCreditedTotal.Add(float64(members))
	m.CreditedSolarTotal.Add(solar.InexactFloat64())
	m.LastRunTimestamp.Set(float64(finishedAt))
}

// ObserveFailure records a failed run.
func (m *DistributionMetrics) ObserveFailure() {
	m.RunsTotal.WithLabelValues("error").Inc()
}
