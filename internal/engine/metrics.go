package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Traffic: сколько событий обработано и с каким статусом
	EventsProcessed *prometheus.CounterVec

	// Решения по категориям
	DecisionsTotal *prometheus.CounterVec

	// Распределение риск-скоров
	RiskScore prometheus.Histogram

	// Исходы действий (action x result)
	ActionOutcomes *prometheus.CounterVec

	// Saturation: заполненность буфера decision trail (backpressure)
	TrailBufferFill prometheus.Gauge

	// Состояние Circuit Breaker по каждому sink (0 - ок, 1 - выбило)
	SinkBreakerState *prometheus.GaugeVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern - Если рег не передан, используем локальный, который никуда не подключен
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		EventsProcessed: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "remedy_events_processed_total",
			Help: "Total number of processed events by record status.",
		}, []string{"status"}), // completed | error

		DecisionsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "remedy_decisions_total",
			Help: "Total number of decisions by category.",
		}, []string{"decision"}),

		RiskScore: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "remedy_risk_score",
			Help:    "Distribution of computed risk scores.",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),

		ActionOutcomes: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "remedy_action_outcomes_total",
			Help: "Total number of dispatched action outcomes.",
		}, []string{"action", "result"}),

		TrailBufferFill: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "remedy_trail_buffer_utilization",
			Help: "Current number of records in the decision trail buffer.",
		}),

		SinkBreakerState: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "remedy_sink_breaker_state",
			Help: "Current state of the effect sink circuit breaker (0=closed, 1=open).",
		}, []string{"sink"}),
	}
}
