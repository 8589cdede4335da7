package twist

import "fmt"

// VehicleConfig carries the static vehicle parameters the control law is
// constructed with. Values come from the node configuration and are fixed
// for the process lifetime.
type VehicleConfig struct {
	DecelLimit    float64 `json:"decel_limit"`         // m/s², negative
	AccelLimit    float64 `json:"accel_limit"`         // m/s²
	BrakeDeadband float64 `json:"brake_deadband"`      // m/s², decel below this is coasting
	VehicleMass   float64 `json:"vehicle_mass_kg"`     // kg, dry
	FuelCapacity  float64 `json:"fuel_capacity_l"`     // l, assumed full for mass
	WheelRadius   float64 `json:"wheel_radius_m"`      // m
	WheelBase     float64 `json:"wheel_base_m"`        // m
	SteerRatio    float64 `json:"steer_ratio"`         // steering wheel to road wheel
	MaxLatAccel   float64 `json:"max_lat_accel"`       // m/s²
	MaxSteerAngle float64 `json:"max_steer_angle_rad"` // rad, steering wheel
}

// SetDefaults fills unset parameters with the reference platform values.
func (c *VehicleConfig) SetDefaults() {
	if c.DecelLimit == 0 {
		c.DecelLimit = -5
	}
	if c.AccelLimit == 0 {
		c.AccelLimit = 1.0
	}
	if c.BrakeDeadband == 0 {
		c.BrakeDeadband = 0.1
	}
	if c.VehicleMass == 0 {
		c.VehicleMass = 1736.35
	}
	if c.FuelCapacity == 0 {
		c.FuelCapacity = 13.5
	}
	if c.WheelRadius == 0 {
		c.WheelRadius = 0.2413
	}
	if c.WheelBase == 0 {
		c.WheelBase = 2.8498
	}
	if c.SteerRatio == 0 {
		c.SteerRatio = 14.8
	}
	if c.MaxLatAccel == 0 {
		c.MaxLatAccel = 3.0
	}
	if c.MaxSteerAngle == 0 {
		c.MaxSteerAngle = 8.0
	}
}

// Validate checks mandatory fields. An invalid parameter set must keep the
// node from starting.
func (c VehicleConfig) Validate() error {
	if c.VehicleMass <= 0 {
		return fmt.Errorf("vehicle_mass_kg must be positive, got %v", c.VehicleMass)
	}
	if c.WheelRadius <= 0 {
		return fmt.Errorf("wheel_radius_m must be positive, got %v", c.WheelRadius)
	}
	if c.WheelBase <= 0 {
		return fmt.Errorf("wheel_base_m must be positive, got %v", c.WheelBase)
	}
	if c.SteerRatio <= 0 {
		return fmt.Errorf("steer_ratio must be positive, got %v", c.SteerRatio)
	}
	if c.AccelLimit <= 0 {
		return fmt.Errorf("accel_limit must be positive, got %v", c.AccelLimit)
	}
	if c.DecelLimit >= 0 {
		return fmt.Errorf("decel_limit must be negative, got %v", c.DecelLimit)
	}
	if c.BrakeDeadband < 0 {
		return fmt.Errorf("brake_deadband must not be negative, got %v", c.BrakeDeadband)
	}
	if c.FuelCapacity < 0 {
		return fmt.Errorf("fuel_capacity_l must not be negative, got %v", c.FuelCapacity)
	}
	if c.MaxLatAccel <= 0 {
		return fmt.Errorf("max_lat_accel must be positive, got %v", c.MaxLatAccel)
	}
	if c.MaxSteerAngle <= 0 {
		return fmt.Errorf("max_steer_angle_rad must be positive, got %v", c.MaxSteerAngle)
	}
	return nil
}
