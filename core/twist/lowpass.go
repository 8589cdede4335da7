package twist

// lowPass is a first-order IIR filter: y = a*x + (1-a)*y_prev with
// a = ts / (ts + tau).
type lowPass struct {
	a     float64
	last  float64
	ready bool
}

func newLowPass(tau, ts float64) *lowPass {
	return &lowPass{a: ts / (ts + tau)}
}

func (f *lowPass) filter(x float64) float64 {
	if !f.ready {
		f.last = x
		f.ready = true
		return x
	}
	f.last = f.a*x + (1-f.a)*f.last
	return f.last
}

func (f *lowPass) reset() {
	f.last = 0
	f.ready = false
}
