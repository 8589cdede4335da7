package control

import (
	"fmt"
	"time"
)

// Config defines the loop cadence.
type Config struct {
	// SamplingRateHz is the fixed tick frequency of the control loop.
	SamplingRateHz float64 `json:"sampling_rate_hz"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.SamplingRateHz == 0 {
		c.SamplingRateHz = 50
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.SamplingRateHz <= 0 {
		return fmt.Errorf("sampling_rate_hz must be positive, got %v", c.SamplingRateHz)
	}
	return nil
}

// Period returns the tick period corresponding to the sampling rate.
func (c Config) Period() time.Duration {
	return time.Duration(float64(time.Second) / c.SamplingRateHz)
}
