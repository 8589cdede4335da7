package twist

import (
	"math"
	"testing"
	"time"
)

func defaultConfig() VehicleConfig {
	var cfg VehicleConfig
	cfg.SetDefaults()
	return cfg
}

const period = 20 * time.Millisecond

func TestControlAcceleratesBelowTarget(t *testing.T) {
	c := NewController(defaultConfig(), period)
	cmd, err := c.Control(10, 0, 2)
	if err != nil {
		t.Fatalf("control: %v", err)
	}
	if cmd.Throttle <= 0 {
		t.Fatalf("expected positive throttle, got %v", cmd.Throttle)
	}
	if cmd.Throttle > 1 {
		t.Fatalf("throttle fraction above 1: %v", cmd.Throttle)
	}
	if cmd.Brake != 0 {
		t.Fatalf("braking while below target: %v", cmd.Brake)
	}
}

func TestControlBrakesAboveTarget(t *testing.T) {
	c := NewController(defaultConfig(), period)
	cmd, err := c.Control(2, 0, 12)
	if err != nil {
		t.Fatalf("control: %v", err)
	}
	if cmd.Brake <= 0 {
		t.Fatalf("expected brake torque, got %v", cmd.Brake)
	}
	if cmd.Throttle != 0 {
		t.Fatalf("throttle while braking: %v", cmd.Throttle)
	}
}

func TestControlHoldsAtStandstill(t *testing.T) {
	c := NewController(defaultConfig(), period)
	cmd, err := c.Control(0, 0, 0.05)
	if err != nil {
		t.Fatalf("control: %v", err)
	}
	if cmd.Brake != holdTorque {
		t.Fatalf("expected hold torque %v, got %v", holdTorque, cmd.Brake)
	}
	if cmd.Throttle != 0 {
		t.Fatalf("throttle at standstill: %v", cmd.Throttle)
	}
}

func TestSteeringFollowsAngularSign(t *testing.T) {
	c := NewController(defaultConfig(), period)
	left, err := c.Control(5, 0.5, 5)
	if err != nil {
		t.Fatalf("control: %v", err)
	}
	if left.Steering <= 0 {
		t.Fatalf("expected positive steering for positive yaw, got %v", left.Steering)
	}

	c.Reset()
	right, err := c.Control(5, -0.5, 5)
	if err != nil {
		t.Fatalf("control: %v", err)
	}
	if right.Steering >= 0 {
		t.Fatalf("expected negative steering for negative yaw, got %v", right.Steering)
	}
	if math.Abs(left.Steering+right.Steering) > 1e-9 {
		t.Fatalf("steering not symmetric: %v vs %v", left.Steering, right.Steering)
	}
}

func TestSteeringClampedToMaxAngle(t *testing.T) {
	cfg := defaultConfig()
	c := NewController(cfg, period)
	cmd, err := c.Control(1, 50, 1)
	if err != nil {
		t.Fatalf("control: %v", err)
	}
	if math.Abs(cmd.Steering) > cfg.MaxSteerAngle {
		t.Fatalf("steering %v exceeds max %v", cmd.Steering, cfg.MaxSteerAngle)
	}
}

func TestSteeringZeroForStraightTarget(t *testing.T) {
	c := NewController(defaultConfig(), period)
	cmd, err := c.Control(5, 0, 5)
	if err != nil {
		t.Fatalf("control: %v", err)
	}
	if cmd.Steering != 0 {
		t.Fatalf("expected zero steering, got %v", cmd.Steering)
	}
}

// After Reset the controller must behave like a freshly constructed one.
func TestResetClearsAccumulatedState(t *testing.T) {
	used := NewController(defaultConfig(), period)
	for i := 0; i < 200; i++ {
		if _, err := used.Control(10, 0.2, 2); err != nil {
			t.Fatalf("control: %v", err)
		}
	}
	used.Reset()

	fresh := NewController(defaultConfig(), period)
	gotUsed, err := used.Control(10, 0.2, 2)
	if err != nil {
		t.Fatalf("control after reset: %v", err)
	}
	gotFresh, err := fresh.Control(10, 0.2, 2)
	if err != nil {
		t.Fatalf("control fresh: %v", err)
	}
	if gotUsed != gotFresh {
		t.Fatalf("reset controller diverges from fresh one: %+v vs %+v", gotUsed, gotFresh)
	}
}

func TestControlRejectsNonFiniteInput(t *testing.T) {
	c := NewController(defaultConfig(), period)
	if _, err := c.Control(math.NaN(), 0, 1); err == nil {
		t.Fatalf("NaN target accepted")
	}
	if _, err := c.Control(1, math.Inf(1), 1); err == nil {
		t.Fatalf("infinite angular target accepted")
	}
}

func TestPIDAntiWindup(t *testing.T) {
	p := newPID(0.3, 0.1, 0, -5, 1)
	// Drive into saturation for a long time.
	for i := 0; i < 1000; i++ {
		p.step(100, 0.02)
	}
	if p.integral > 100 {
		t.Fatalf("integral wound up to %v while saturated", p.integral)
	}
}

func TestVehicleConfigDefaults(t *testing.T) {
	cfg := defaultConfig()
	if cfg.VehicleMass != 1736.35 || cfg.WheelRadius != 0.2413 || cfg.SteerRatio != 14.8 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestVehicleConfigValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*VehicleConfig)
	}{
		{"mass", func(c *VehicleConfig) { c.VehicleMass = -1 }},
		{"wheel_radius", func(c *VehicleConfig) { c.WheelRadius = -0.1 }},
		{"wheel_base", func(c *VehicleConfig) { c.WheelBase = -1 }},
		{"steer_ratio", func(c *VehicleConfig) { c.SteerRatio = -14.8 }},
		{"accel_limit", func(c *VehicleConfig) { c.AccelLimit = -1 }},
		{"decel_limit", func(c *VehicleConfig) { c.DecelLimit = 5 }},
		{"brake_deadband", func(c *VehicleConfig) { c.BrakeDeadband = -0.1 }},
		{"fuel_capacity", func(c *VehicleConfig) { c.FuelCapacity = -13.5 }},
		{"max_lat_accel", func(c *VehicleConfig) { c.MaxLatAccel = -3 }},
		{"max_steer_angle", func(c *VehicleConfig) { c.MaxSteerAngle = -8 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("invalid %s accepted", tc.name)
			}
		})
	}
}
