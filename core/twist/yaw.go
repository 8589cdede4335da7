package twist

import "math"

// yawControl converts a commanded yaw rate into a steering wheel angle using
// the bicycle model: for a turn radius r, the road wheel angle is
// atan(wheel_base / r), scaled by the steering ratio.
type yawControl struct {
	wheelBase   float64
	steerRatio  float64
	minSpeed    float64
	maxLatAccel float64
	maxAngle    float64 // steering wheel, rad
}

// steering returns the steering wheel angle for the requested linear and
// angular velocities at the current speed.
func (y yawControl) steering(linear, angular, current float64) float64 {
	// Rescale the yaw rate to the speed actually driven, keeping the turn
	// radius the upstream follower asked for.
	if linear != 0 {
		angular = current * angular / linear
	}

	// Cap the yaw rate so lateral acceleration stays within limits.
	if math.Abs(current) > 0.1 {
		maxYaw := y.maxLatAccel / math.Abs(current)
		angular = clamp(angular, -maxYaw, maxYaw)
	}

	if math.Abs(angular) < 1e-6 {
		return 0
	}

	radius := math.Max(current, y.minSpeed) / angular
	angle := math.Atan(y.wheelBase/radius) * y.steerRatio
	return clamp(angle, -y.maxAngle, y.maxAngle)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
