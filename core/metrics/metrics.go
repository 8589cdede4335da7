package metrics

import "time"

// TickOutcome classifies one execution of the control loop body.
type TickOutcome string

const (
	// TickPublished means the tick produced and emitted an actuator command.
	TickPublished TickOutcome = "published"
	// TickSkippedDisabled means drive-by-wire authorization was off.
	TickSkippedDisabled TickOutcome = "skipped_disabled"
	// TickSkippedNotReady means a velocity input has not been observed yet.
	TickSkippedNotReady TickOutcome = "skipped_not_ready"
)

// MetricsSink records control loop activity for observability purposes.
type MetricsSink interface {
	// RecordTick records the outcome and duration of one loop tick.
	RecordTick(outcome TickOutcome, d time.Duration) error
	// RecordPublish records one actuator channel emission attempt.
	RecordPublish(channel string, ok bool) error
	// RecordReset records a controller reset triggered by a disable edge.
	RecordReset() error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordTick(TickOutcome, time.Duration) error { return nil }
func (NopSink) RecordPublish(string, bool) error            { return nil }
func (NopSink) RecordReset() error                          { return nil }
