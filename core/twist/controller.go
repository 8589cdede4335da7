// Package twist implements the velocity tracking control law: a PID on the
// linear velocity error for throttle and brake, and bicycle-model yaw
// geometry for steering. State lives across ticks and is cleared only by
// Reset, which the loop triggers whenever drive-by-wire authority is lost.
package twist

import (
	"fmt"
	"math"
	"time"

	"github.com/kilianp07/dbw/core/actuator"
)

// Longitudinal PID gains and filter constant for the reference platform.
const (
	throttleKp = 0.3
	throttleKi = 0.1
	throttleKd = 0.0

	velocityFilterTau = 0.5

	// gasDensity converts the fuel volume into mass (kg/l) so the brake
	// torque accounts for a full tank.
	gasDensity = 2.858

	// holdTorque keeps the vehicle stationary at a stop (N·m).
	holdTorque = 700.0

	// standstill velocities below this are treated as stopped (m/s).
	standstill = 0.1
)

// Controller tracks a target twist. It is not safe for concurrent use; the
// control loop serializes Control and Reset.
type Controller struct {
	cfg       VehicleConfig
	totalMass float64
	pid       *pid
	velFilter *lowPass
	yaw       yawControl
	dt        float64
}

// NewController builds the control law from the static vehicle parameters
// and the loop's sampling period.
func NewController(cfg VehicleConfig, period time.Duration) *Controller {
	dt := period.Seconds()
	return &Controller{
		cfg:       cfg,
		totalMass: cfg.VehicleMass + cfg.FuelCapacity*gasDensity,
		pid:       newPID(throttleKp, throttleKi, throttleKd, cfg.DecelLimit, cfg.AccelLimit),
		velFilter: newLowPass(velocityFilterTau, dt),
		yaw: yawControl{
			wheelBase:   cfg.WheelBase,
			steerRatio:  cfg.SteerRatio,
			minSpeed:    standstill,
			maxLatAccel: cfg.MaxLatAccel,
			maxAngle:    cfg.MaxSteerAngle,
		},
		dt: dt,
	}
}

// Control maps the target twist and measured velocity to one actuator
// command. The PID output is a desired acceleration within the configured
// limits; positive becomes a throttle fraction, sufficiently negative
// becomes a brake torque, and the band in between coasts.
func (c *Controller) Control(targetLinear, targetAngular, currentLinear float64) (actuator.Command, error) {
	if !finite(targetLinear) || !finite(targetAngular) || !finite(currentLinear) {
		return actuator.Command{}, fmt.Errorf("non-finite input: target=(%v, %v) current=%v",
			targetLinear, targetAngular, currentLinear)
	}

	current := c.velFilter.filter(currentLinear)
	accel := c.pid.step(targetLinear-current, c.dt)

	var cmd actuator.Command
	switch {
	case targetLinear == 0 && current < standstill:
		cmd.Brake = holdTorque
	case accel > 0:
		cmd.Throttle = accel / c.cfg.AccelLimit
	case accel < -c.cfg.BrakeDeadband:
		cmd.Brake = -accel * c.totalMass * c.cfg.WheelRadius
	}
	// else: decelerating inside the deadband, coast on engine drag.

	cmd.Steering = c.yaw.steering(targetLinear, targetAngular, current)
	return cmd, nil
}

// Reset clears the PID integral and filter memory so a later re-enable
// starts from a neutral baseline.
func (c *Controller) Reset() {
	c.pid.reset()
	c.velFilter.reset()
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
