package metrics

import (
	"errors"
	"time"

	coremetrics "github.com/kilianp07/dbw/core/metrics"
)

// MultiSink fans out records to several sinks, collecting all errors.
type MultiSink struct {
	sinks []coremetrics.MetricsSink
}

// NewMultiSink creates a sink writing to all provided sinks.
func NewMultiSink(sinks ...coremetrics.MetricsSink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (m *MultiSink) RecordTick(outcome coremetrics.TickOutcome, d time.Duration) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.RecordTick(outcome, d); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordPublish(channel string, ok bool) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.RecordPublish(channel, ok); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordReset() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.RecordReset(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
