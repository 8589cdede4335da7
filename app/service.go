// Package app wires the configuration into a running drive-by-wire node:
// MQTT transport, metrics sinks, control law and the fixed-cadence loop.
package app

import (
	"context"
	"fmt"

	"github.com/kilianp07/dbw/config"
	"github.com/kilianp07/dbw/core/control"
	"github.com/kilianp07/dbw/core/events"
	coremetrics "github.com/kilianp07/dbw/core/metrics"
	"github.com/kilianp07/dbw/core/twist"
	"github.com/kilianp07/dbw/infra/logger"
	"github.com/kilianp07/dbw/infra/metrics"
	"github.com/kilianp07/dbw/infra/mqtt"
	"github.com/kilianp07/dbw/internal/eventbus"
)

// Service owns the control loop and its collaborators.
type Service struct {
	loop        *control.Loop
	client      *mqtt.Client
	bus         eventbus.EventBus
	log         logger.Logger
	promEnabled bool
	promPort    string
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")
	client, err := mqtt.NewClient(cfg.MQTT)
	if err != nil {
		return nil, fmt.Errorf("mqtt client: %w", err)
	}

	var sinks []coremetrics.MetricsSink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg.Metrics)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sink := metrics.NewInfluxSinkWithFallback(
			cfg.Metrics.InfluxURL, cfg.Metrics.InfluxToken,
			cfg.Metrics.InfluxOrg, cfg.Metrics.InfluxBucket)
		sinks = append(sinks, sink)
	}
	var sink coremetrics.MetricsSink = coremetrics.NopSink{}
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	period := cfg.Control.Period()
	ctrl := twist.NewController(cfg.Vehicle, period)
	pub := mqtt.NewActuatorPublisher(client, period)
	loop := control.NewLoop(period, ctrl, pub, logger.New("control_loop"), sink)

	bus := eventbus.New()
	loop.Store().OnAngularChange(func(prev, next float64) {
		bus.Publish(events.TargetChange{Previous: prev, Angular: next})
	})

	return &Service{
		loop:        loop,
		client:      client,
		bus:         bus,
		log:         logg,
		promEnabled: cfg.Metrics.PrometheusEnabled,
		promPort:    cfg.Metrics.PrometheusPort,
	}, nil
}

// Run subscribes the input topics and drives the loop until the context is
// cancelled. The returned error is nil on clean shutdown; a controller fault
// propagates out so the process fail-stops.
func (s *Service) Run(ctx context.Context) error {
	gate := s.loop.Gate()
	store := s.loop.Store()
	err := s.client.SubscribeInputs(mqtt.InputHandlers{
		OnEnable: func(enabled bool) {
			// Repeated identical signals are not transitions.
			if gate.Set(enabled) {
				s.bus.Publish(events.EnableTransition{Enabled: enabled})
			}
		},
		OnCurrentVelocity: store.SetCurrent,
		OnTargetVelocity:  store.SetTarget,
	})
	if err != nil {
		return fmt.Errorf("subscribe inputs: %w", err)
	}

	go s.logEvents()
	if s.promEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	return s.loop.Run(ctx)
}

// logEvents drains the diagnostic bus until it is closed.
func (s *Service) logEvents() {
	ch := s.bus.Subscribe()
	for ev := range ch {
		switch e := ev.(type) {
		case events.EnableTransition:
			s.log.Infof("dbw_enabled = %v", e.Enabled)
		case events.TargetChange:
			s.log.Debugw("new angular target", map[string]any{
				"previous": e.Previous,
				"angular":  e.Angular,
			})
		}
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	s.client.Disconnect()
	return nil
}
