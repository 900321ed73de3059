// Copyright 2021 Shiwen Cheng. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

package monitor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "influx_relay"

// Metrics counts what the relay pipeline does. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Events        *prometheus.CounterVec
	Lines         *prometheus.CounterVec
	Values        *prometheus.CounterVec
	Writes        *prometheus.CounterVec
	WriteDuration prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Events handled, by status.",
		}, []string{"status"}),
		Lines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_total",
			Help:      "Output lines seen, by parse result.",
		}, []string{"result"}),
		Values: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "values_total",
			Help:      "Parsed values, by coerced kind.",
		}, []string{"kind"}),
		Writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "writes_total",
			Help:      "Series writes to the sink, by result.",
		}, []string{"result"}),
		WriteDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "write_duration_seconds",
			Help:      "Latency of a single series write.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Events, m.Lines, m.Values, m.Writes, m.WriteDuration)
	}
	return m
}

func (m *Metrics) IncEvent(status string) {
	if m == nil {
		return
	}
	m.Events.WithLabelValues(status).Inc()
}

func (m *Metrics) IncLine(result string) {
	if m == nil {
		return
	}
	m.Lines.WithLabelValues(result).Inc()
}

func (m *Metrics) IncValue(kind string) {
	if m == nil {
		return
	}
	m.Values.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveWrite(start time.Time, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Writes.WithLabelValues(result).Inc()
	m.WriteDuration.Observe(time.Since(start).Seconds())
}
