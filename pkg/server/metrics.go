package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	metricConfigWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "veind",
			Subsystem: "config",
			Name:      "writes_total",
			Help:      "total number of successful config file writes",
		},
		[]string{"file"},
	)

	metricRestarts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "veind",
			Subsystem: "server",
			Name:      "restarts_total",
			Help:      "total number of successful server restarts",
		},
	)

	metricUpdates = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "veind",
			Subsystem: "server",
			Name:      "updates_total",
			Help:      "total number of successful update runs",
		},
	)

	metricUpdateFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "veind",
			Subsystem: "server",
			Name:      "update_failures_total",
			Help:      "total number of failed update runs",
		},
	)
)

func registerMetrics(reg *prometheus.Registry) error {
	for _, c := range []prometheus.Collector{
		metricConfigWrites,
		metricRestarts,
		metricUpdates,
		metricUpdateFailures,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
