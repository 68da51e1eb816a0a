package analytics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics — Prometheus-метрики потока событий.
type Metrics struct {
	tasksTotal      *prometheus.CounterVec
	taskDuration    *prometheus.HistogramVec
	stepsTotal      *prometheus.CounterVec
	captchaAttempts *prometheus.CounterVec
	captchaCost     prometheus.Counter
}

// NewMetrics регистрирует метрики в reg. Nil означает
// prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		tasksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "copflow",
				Name:      "tasks_total",
				Help:      "Terminal checkout task outcomes",
			},
			[]string{"platform", "result"},
		),
		taskDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "copflow",
				Name:      "task_duration_seconds",
				Help:      "End-to-end checkout task duration",
				Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600, 900},
			},
			[]string{"platform"},
		),
		stepsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "copflow",
				Name:      "steps_total",
				Help:      "Checkout step attempts by outcome",
			},
			[]string{"step", "outcome"},
		),
		captchaAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "copflow",
				Name:      "captcha_attempts_total",
				Help:      "CAPTCHA challenge attempts by terminal state",
			},
			[]string{"outcome"},
		),
		captchaCost: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "copflow",
				Name:      "captcha_cost_dollars_total",
				Help:      "Cumulative CAPTCHA solving spend",
			},
		),
	}
}
