package control

import "sync"

// Gate tracks the drive-by-wire authorization signal. It starts DISABLED:
// the node assumes a human driver holds authority until told otherwise.
//
// The disable hook fires on the ENABLED→DISABLED edge only, exactly once per
// transition. Repeated identical signals cause no transition and no hook
// call, so noisy input cannot produce reset storms.
type Gate struct {
	mu        sync.Mutex
	enabled   bool
	onDisable func()
}

// NewGate returns a disabled gate. onDisable may be nil.
func NewGate(onDisable func()) *Gate {
	return &Gate{onDisable: onDisable}
}

// Set records the latest authorization signal and reports whether the state
// actually changed. The hook runs outside the gate lock so it may safely
// acquire the loop's tick lock.
func (g *Gate) Set(enabled bool) bool {
	g.mu.Lock()
	changed := g.enabled != enabled
	falling := g.enabled && !enabled
	g.enabled = enabled
	g.mu.Unlock()

	if falling && g.onDisable != nil {
		g.onDisable()
	}
	return changed
}

// Enabled reports whether drive-by-wire is currently authorized.
func (g *Gate) Enabled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.enabled
}
