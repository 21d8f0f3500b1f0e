package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ot"

type metrics struct {
	accepted  prometheus.Counter
	rejected  *prometheus.CounterVec
	clients   prometheus.Gauge
	documents prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)

	return &metrics{
		accepted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "revisions_accepted_total",
			Help:      "Total number of submissions sequenced into a revision log",
		}),
		rejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "revisions_rejected_total",
			Help:      "Total number of rejected submissions",
		}, []string{"reason"}),
		clients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "clients",
			Help:      "Connected websocket clients",
		}),
		documents: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "documents",
			Help:      "Documents held in memory",
		}),
	}
}
