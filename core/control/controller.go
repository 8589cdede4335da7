package control

import "github.com/kilianp07/dbw/core/actuator"

// Controller is the control law driven by the loop. Implementations are
// stateful across calls (integral terms, filter memory) and deterministic
// given their state and inputs. State is cleared only by Reset.
//
// Control and Reset are never invoked concurrently; the loop serializes
// them. An error return is a controller fault and terminates the node.
type Controller interface {
	Control(targetLinear, targetAngular, currentLinear float64) (actuator.Command, error)
	Reset()
}
