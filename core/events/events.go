// Package events defines the diagnostic events published on the internal
// event bus. These are observability hooks only and carry no control state.
package events

// EnableTransition reports a change of the drive-by-wire authorization.
type EnableTransition struct {
	Enabled bool
}

// TargetChange reports a new angular velocity target from the upstream
// follower. Used to trace veering issues; not part of the control contract.
type TargetChange struct {
	Previous float64
	Angular  float64
}
