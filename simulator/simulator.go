// Package simulator provides a fake upstream for bench testing the node
// against a live broker: it plays a waypoint follower publishing twist
// commands, a speed sensor publishing noisy measurements, and a safety
// driver toggling drive-by-wire authorization.
package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/kilianp07/dbw/infra/logger"
	"github.com/kilianp07/dbw/infra/mqtt"
)

// Config defines the simulated upstream behaviour.
type Config struct {
	Broker       string
	RateHz       float64       // input publish rate
	CruiseSpeed  float64       // m/s, peak of the speed profile
	YawAmplitude float64       // rad/s, peak commanded yaw rate
	NoiseSigma   float64       // m/s, measurement noise
	TogglePeriod time.Duration // 0 disables enable toggling
	Topics       mqtt.Topics
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.RateHz == 0 {
		c.RateHz = 50
	}
	if c.CruiseSpeed == 0 {
		c.CruiseSpeed = 11.1
	}
	if c.YawAmplitude == 0 {
		c.YawAmplitude = 0.2
	}
	if c.NoiseSigma == 0 {
		c.NoiseSigma = 0.05
	}
	c.Topics.SetDefaults()
}

// Upstream publishes simulated node inputs.
type Upstream struct {
	cfg   Config
	log   logger.Logger
	cli   paho.Client
	noise distuv.Normal

	speed   float64 // simulated true vehicle speed
	enabled bool
}

// New creates an Upstream for the given configuration.
func New(cfg Config) *Upstream {
	cfg.SetDefaults()
	return &Upstream{
		cfg:   cfg,
		log:   logger.New("simulator"),
		noise: distuv.Normal{Mu: 0, Sigma: cfg.NoiseSigma},
	}
}

// Run connects to the broker and publishes inputs until ctx is done.
func (u *Upstream) Run(ctx context.Context) error {
	opts := paho.NewClientOptions().
		AddBroker(u.cfg.Broker).
		SetClientID("dbw-sim-" + uuid.NewString()).
		SetAutoReconnect(true)
	cli := paho.NewClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("connect: %w", token.Error())
	}
	u.cli = cli
	defer cli.Disconnect(250)

	// Start authorized so the node produces commands immediately.
	u.enabled = true
	u.publishEnable()

	period := time.Duration(float64(time.Second) / u.cfg.RateHz)
	dt := period.Seconds()
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	var toggle <-chan time.Time
	if u.cfg.TogglePeriod > 0 {
		tt := time.NewTicker(u.cfg.TogglePeriod)
		defer tt.Stop()
		toggle = tt.C
	}

	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-toggle:
			u.enabled = !u.enabled
			u.publishEnable()
		case now := <-ticker.C:
			t := now.Sub(start).Seconds()
			targetLinear := speedProfile(u.cfg.CruiseSpeed, t)
			targetAngular := u.cfg.YawAmplitude * math.Sin(0.05*t)
			u.speed = advance(u.speed, targetLinear, 1.0, -5.0, dt)

			u.publishJSON(u.cfg.Topics.TwistCmd, map[string]float64{
				"linear_x":  targetLinear,
				"angular_z": targetAngular,
			})
			u.publishJSON(u.cfg.Topics.CurrentVelocity, map[string]float64{
				"linear_x": u.speed + u.noise.Rand(),
			})
		}
	}
}

func (u *Upstream) publishEnable() {
	u.publishJSON(u.cfg.Topics.Enable, map[string]bool{"enabled": u.enabled})
	u.log.Infof("dbw_enabled = %v", u.enabled)
}

func (u *Upstream) publishJSON(topic string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		u.log.Errorf("marshal %s: %v", topic, err)
		return
	}
	if token := u.cli.Publish(topic, 0, false, payload); token.Wait() && token.Error() != nil {
		u.log.Errorf("publish %s: %v", topic, token.Error())
	}
}

// speedProfile ramps from standstill to cruise and back, period ~2 min.
func speedProfile(cruise, t float64) float64 {
	return cruise * 0.5 * (1 - math.Cos(0.05*t))
}

// advance moves the simulated speed toward target under acceleration limits.
func advance(current, target, accelLimit, decelLimit, dt float64) float64 {
	delta := target - current
	if delta > accelLimit*dt {
		delta = accelLimit * dt
	} else if delta < decelLimit*dt {
		delta = decelLimit * dt
	}
	next := current + delta
	if next < 0 {
		return 0
	}
	return next
}
