package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/dbw/core/metrics"
)

// PromSink records control loop activity in Prometheus metrics.
type PromSink struct {
	ticks     *prometheus.CounterVec
	duration  prometheus.Histogram
	publishes *prometheus.CounterVec
	resets    prometheus.Counter
}

// NewPromSink registers loop metrics on the default Prometheus registerer.
// The Prometheus server is started separately using cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(_ coremetrics.Config, reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	ticks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dbw_ticks_total",
		Help: "Control loop ticks by outcome",
	}, []string{"outcome"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "dbw_tick_duration_seconds",
		Help:    "Duration of one control loop tick body",
		Buckets: prometheus.ExponentialBuckets(1e-5, 4, 8),
	})
	publishes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dbw_actuator_publishes_total",
		Help: "Actuator channel emissions by channel and delivery success",
	}, []string{"channel", "ok"})
	resets := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dbw_controller_resets_total",
		Help: "Controller resets triggered by drive-by-wire disable edges",
	})

	if err := reg.Register(ticks); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			ticks = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(duration); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			duration = are.ExistingCollector.(prometheus.Histogram)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(publishes); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			publishes = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(resets); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			resets = are.ExistingCollector.(prometheus.Counter)
		} else {
			return nil, err
		}
	}

	return &PromSink{ticks: ticks, duration: duration, publishes: publishes, resets: resets}, nil
}

// RecordTick increments the outcome counter and observes the tick duration.
func (s *PromSink) RecordTick(outcome coremetrics.TickOutcome, d time.Duration) error {
	s.ticks.WithLabelValues(string(outcome)).Inc()
	s.duration.Observe(d.Seconds())
	return nil
}

// RecordPublish counts one actuator channel emission attempt.
func (s *PromSink) RecordPublish(channel string, ok bool) error {
	s.publishes.WithLabelValues(channel, strconv.FormatBool(ok)).Inc()
	return nil
}

// RecordReset counts a controller reset.
func (s *PromSink) RecordReset() error {
	s.resets.Inc()
	return nil
}
