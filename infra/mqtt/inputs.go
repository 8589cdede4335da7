package mqtt

import (
	"encoding/json"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// Wire formats of the asynchronous inputs.
type enableSignal struct {
	Enabled bool `json:"enabled"`
}

type currentVelocity struct {
	LinearX float64 `json:"linear_x"`
}

type targetVelocity struct {
	LinearX  float64 `json:"linear_x"`
	AngularZ float64 `json:"angular_z"`
}

// InputHandlers receives decoded input messages. Callbacks run on Paho's
// delivery goroutines and must only touch the loop's store and gate.
type InputHandlers struct {
	OnEnable          func(enabled bool)
	OnCurrentVelocity func(linear float64)
	OnTargetVelocity  func(linear, angular float64)
}

// SubscribeInputs subscribes the three input topics. A malformed payload is
// logged and dropped; input decoding errors are never fatal to the node.
func (c *Client) SubscribeInputs(h InputHandlers) error {
	c.mu.Lock()
	c.handlers = &h
	c.mu.Unlock()
	return c.subscribeInputs(h)
}

func (c *Client) subscribeInputs(h InputHandlers) error {
	subs := []struct {
		topic string
		qos   byte
		cb    paho.MessageHandler
	}{
		{c.topics.Enable, c.qosFor(QoSEnable), func(_ paho.Client, msg paho.Message) {
			var m enableSignal
			if err := json.Unmarshal(msg.Payload(), &m); err != nil {
				c.logger.Errorf("decode enable signal: %v", err)
				return
			}
			if h.OnEnable != nil {
				h.OnEnable(m.Enabled)
			}
		}},
		{c.topics.CurrentVelocity, c.qosFor(QoSVelocity), func(_ paho.Client, msg paho.Message) {
			var m currentVelocity
			if err := json.Unmarshal(msg.Payload(), &m); err != nil {
				c.logger.Errorf("decode current velocity: %v", err)
				return
			}
			if h.OnCurrentVelocity != nil {
				h.OnCurrentVelocity(m.LinearX)
			}
		}},
		{c.topics.TwistCmd, c.qosFor(QoSTwist), func(_ paho.Client, msg paho.Message) {
			var m targetVelocity
			if err := json.Unmarshal(msg.Payload(), &m); err != nil {
				c.logger.Errorf("decode twist command: %v", err)
				return
			}
			if h.OnTargetVelocity != nil {
				h.OnTargetVelocity(m.LinearX, m.AngularZ)
			}
		}},
	}

	for _, s := range subs {
		if token := c.cli.Subscribe(s.topic, s.qos, s.cb); token.Wait() && token.Error() != nil {
			return token.Error()
		}
	}
	return nil
}
