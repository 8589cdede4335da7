package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/kilianp07/dbw/core/actuator"
)

const defaultPublishTimeout = time.Second

// ActuatorPublisher emits actuator commands on the three command topics.
// Each channel publishes independently; a failed channel neither blocks nor
// rolls back the others. Every publish waits at most the configured timeout
// for the broker ack, and expiry counts as a channel failure, so a wedged
// connection cannot stall the control loop.
type ActuatorPublisher struct {
	c       *Client
	timeout time.Duration
}

// NewActuatorPublisher wraps the client as an actuator.Publisher. The
// timeout bounds each channel publish; pass the loop period so a stalled
// broker costs at most one tick. Zero selects a one-second default.
func NewActuatorPublisher(c *Client, timeout time.Duration) *ActuatorPublisher {
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}
	return &ActuatorPublisher{c: c, timeout: timeout}
}

var _ actuator.Publisher = (*ActuatorPublisher)(nil)

func (p *ActuatorPublisher) PublishThrottle(cmd actuator.ThrottleCommand) error {
	return p.publish(p.c.topics.Throttle, cmd)
}

func (p *ActuatorPublisher) PublishBrake(cmd actuator.BrakeCommand) error {
	return p.publish(p.c.topics.Brake, cmd)
}

func (p *ActuatorPublisher) PublishSteering(cmd actuator.SteeringCommand) error {
	return p.publish(p.c.topics.Steering, cmd)
}

func (p *ActuatorPublisher) publish(topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	token := p.c.cli.Publish(topic, p.c.qosFor(QoSCommand), false, payload)
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("publish %s: no broker ack within %v", topic, p.timeout)
	}
	return token.Error()
}
