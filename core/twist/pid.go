package twist

// pid is a discrete PID with output clamping and integral anti-windup.
type pid struct {
	kp, ki, kd float64
	min, max   float64

	integral float64
	prevErr  float64
	hasPrev  bool
}

func newPID(kp, ki, kd, min, max float64) *pid {
	return &pid{kp: kp, ki: ki, kd: kd, min: min, max: max}
}

// step advances the controller by dt seconds and returns the clamped output.
func (p *pid) step(err, dt float64) float64 {
	integral := p.integral + err*dt
	var deriv float64
	if p.hasPrev && dt > 0 {
		deriv = (err - p.prevErr) / dt
	}

	out := p.kp*err + p.ki*integral + p.kd*deriv
	if out > p.max {
		out = p.max
	} else if out < p.min {
		out = p.min
	} else {
		// Only integrate while unsaturated, so the integral cannot wind up
		// against the actuator limits.
		p.integral = integral
	}

	p.prevErr = err
	p.hasPrev = true
	return out
}

// reset discards all accumulated state.
func (p *pid) reset() {
	p.integral = 0
	p.prevErr = 0
	p.hasPrev = false
}
