package actuator

// CmdType tells the actuation unit how to interpret a pedal command value.
type CmdType string

const (
	// CmdPercent commands a pedal position as a fraction of full travel.
	CmdPercent CmdType = "percent"
	// CmdTorque commands a braking torque in newton metres.
	CmdTorque CmdType = "torque"
)

// Command is the control law output for one tick. It is produced fresh on
// every active tick and never persisted.
type Command struct {
	// Throttle is the pedal fraction in [0, 1].
	Throttle float64
	// Brake is the requested braking torque in N·m.
	Brake float64
	// Steering is the steering wheel angle in radians.
	Steering float64
}

// ThrottleCommand is the throttle channel wire format.
type ThrottleCommand struct {
	Enable  bool    `json:"enable"`
	CmdType CmdType `json:"cmd_type"`
	Value   float64 `json:"value"`
}

// BrakeCommand is the brake channel wire format.
type BrakeCommand struct {
	Enable  bool    `json:"enable"`
	CmdType CmdType `json:"cmd_type"`
	Value   float64 `json:"value"`
}

// SteeringCommand is the steering channel wire format. The value is the
// steering wheel angle in radians.
type SteeringCommand struct {
	Enable bool    `json:"enable"`
	Value  float64 `json:"value"`
}

// Publisher emits the three actuator channels. Channels are independent: a
// delivery failure on one channel must not block or roll back the others,
// and consumers rely on no ordering between them.
type Publisher interface {
	PublishThrottle(ThrottleCommand) error
	PublishBrake(BrakeCommand) error
	PublishSteering(SteeringCommand) error
}
