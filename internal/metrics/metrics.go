package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"oven/internal/notifications"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	signals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "oven",
			Name:      "signals_total",
			Help:      "Lifecycle signals accepted by trackers.",
		}, []string{"signal"},
	)
	decisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "oven",
			Name:      "trigger_decisions_total",
			Help:      "Trigger gate decisions (fire or suppress).",
		}, []string{"decision"},
	)
	deliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "oven",
			Name:      "deliveries_total",
			Help:      "Notification delivery attempts per backend and result.",
		}, []string{"backend", "result"},
	)
	deliveryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "oven",
			Name:      "delivery_duration_seconds",
			Help:      "Time spent in one backend delivery attempt.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"backend"},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{signals, decisions, deliveries, deliveryDuration}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns an http.Handler that serves Prometheus metrics for the DefaultGatherer.
func Handler() http.Handler { return promhttp.Handler() }

// IncSignal counts one accepted lifecycle signal.
func IncSignal(signal string) {
	if regOK.Load() {
		signals.WithLabelValues(signal).Inc()
	}
}

// IncDecision counts one trigger decision.
func IncDecision(fire bool) {
	if !regOK.Load() {
		return
	}
	label := "suppress"
	if fire {
		label = "fire"
	}
	decisions.WithLabelValues(label).Inc()
}

// ObserveResult records one delivery. It matches notifications.Observer.
func ObserveResult(res notifications.Result) {
	if !regOK.Load() {
		return
	}
	result := "ok"
	if res.HasError {
		result = "error"
	}
	deliveries.WithLabelValues(res.Backend, result).Inc()
	deliveryDuration.WithLabelValues(res.Backend).Observe(res.Elapsed.Seconds())
}
