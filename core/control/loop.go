package control

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/kilianp07/dbw/core/actuator"
	"github.com/kilianp07/dbw/core/logger"
	"github.com/kilianp07/dbw/core/metrics"
)

// Loop drives the controller at a fixed cadence. It owns the velocity store
// and enable gate; asynchronous input callbacks touch only those two
// sub-components, never the loop state itself.
//
// A tick publishes a command only when the gate is enabled and both
// velocities have been observed. Skipped ticks publish nothing: the previous
// command is never re-sent, so downstream consumers must tolerate gaps in
// the command stream.
type Loop struct {
	period time.Duration
	store  *Store
	gate   *Gate
	ctrl   Controller
	pub    actuator.Publisher
	log    logger.Logger
	sink   metrics.MetricsSink

	// mu serializes tick bodies with controller resets. Once a disable edge
	// has been processed, no command produced from pre-disable state can be
	// emitted until re-enable.
	mu sync.Mutex
}

// NewLoop creates a loop with a fresh store and a disabled gate wired to a
// guarded controller reset.
func NewLoop(period time.Duration, ctrl Controller, pub actuator.Publisher, log logger.Logger, sink metrics.MetricsSink) *Loop {
	if sink == nil {
		sink = metrics.NopSink{}
	}
	l := &Loop{
		period: period,
		store:  NewStore(),
		ctrl:   ctrl,
		pub:    pub,
		log:    log,
		sink:   sink,
	}
	l.gate = NewGate(l.resetController)
	return l
}

// Store returns the velocity store for input wiring.
func (l *Loop) Store() *Store { return l.store }

// Gate returns the enable gate for input wiring.
func (l *Loop) Gate() *Gate { return l.gate }

func (l *Loop) resetController() {
	l.mu.Lock()
	l.ctrl.Reset()
	l.mu.Unlock()
	_ = l.sink.RecordReset()
	l.log.Infof("drive-by-wire disabled, controller state cleared")
}

// Run executes ticks until ctx is cancelled. Cancellation is observed
// between ticks only, never mid-publish. The pacing is a fixed-period wait
// re-armed after each tick's work: an overrunning tick delays the next tick
// instead of bursting to catch up, and skipped ticks are paced the same as
// active ones.
//
// The only fatal condition is a controller fault; missing or stale input
// never terminates the loop.
func (l *Loop) Run(ctx context.Context) error {
	timer := time.NewTimer(l.period)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}
		if err := l.tick(); err != nil {
			return err
		}
		timer.Reset(l.period)
	}
}

func (l *Loop) tick() error {
	start := time.Now()
	outcome, results, err := l.tickLocked()
	if err != nil {
		return err
	}
	// Sink I/O stays outside the mutex: a slow sink must not delay a
	// disable-edge reset queued on l.mu.
	for _, r := range results {
		_ = l.sink.RecordPublish(r.channel, r.ok)
	}
	_ = l.sink.RecordTick(outcome, time.Since(start))
	return nil
}

type publishResult struct {
	channel string
	ok      bool
}

func (l *Loop) tickLocked() (metrics.TickOutcome, []publishResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.gate.Enabled() {
		return metrics.TickSkippedDisabled, nil, nil
	}
	snap, ok := l.store.Snapshot()
	if !ok {
		return metrics.TickSkippedNotReady, nil, nil
	}

	cmd, err := l.ctrl.Control(snap.Target.Linear, snap.Target.Angular, snap.Current)
	if err != nil {
		return "", nil, fmt.Errorf("controller fault: %w", err)
	}
	// Substituting a default command for a bad one is disallowed: fail-stop.
	if !isFinite(cmd.Throttle) || !isFinite(cmd.Brake) || !isFinite(cmd.Steering) {
		return "", nil, fmt.Errorf("controller fault: non-finite command throttle=%v brake=%v steering=%v",
			cmd.Throttle, cmd.Brake, cmd.Steering)
	}

	return metrics.TickPublished, l.publish(cmd), nil
}

// publish emits the three channels independently. A failure on one channel
// is logged and counted but does not block the others.
func (l *Loop) publish(cmd actuator.Command) []publishResult {
	results := make([]publishResult, 0, 3)

	if err := l.pub.PublishThrottle(actuator.ThrottleCommand{
		Enable:  true,
		CmdType: actuator.CmdPercent,
		Value:   cmd.Throttle,
	}); err != nil {
		l.log.Errorf("throttle publish: %v", err)
		results = append(results, publishResult{"throttle", false})
	} else {
		results = append(results, publishResult{"throttle", true})
	}

	if err := l.pub.PublishSteering(actuator.SteeringCommand{
		Enable: true,
		Value:  cmd.Steering,
	}); err != nil {
		l.log.Errorf("steering publish: %v", err)
		results = append(results, publishResult{"steering", false})
	} else {
		results = append(results, publishResult{"steering", true})
	}

	if err := l.pub.PublishBrake(actuator.BrakeCommand{
		Enable:  true,
		CmdType: actuator.CmdTorque,
		Value:   cmd.Brake,
	}); err != nil {
		l.log.Errorf("brake publish: %v", err)
		results = append(results, publishResult{"brake", false})
	} else {
		results = append(results, publishResult{"brake", true})
	}

	return results
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
