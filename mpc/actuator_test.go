package mpc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapActuatorsSignFlip(t *testing.T) {
	cfg := DefaultConfig()

	// A left steering angle (positive radians) becomes a negative wire value.
	cmd := MapActuators(&Result{Steer: cfg.MaxSteer / 2, Throttle: 0.3}, Command{}, &cfg)

	assert.InDelta(t, -0.5, cmd.Steer, 1e-12)
	assert.InDelta(t, 0.3, cmd.Throttle, 1e-12)
}

func TestMapActuatorsClampsOvershoot(t *testing.T) {
	cfg := DefaultConfig()

	cmd := MapActuators(&Result{Steer: -3 * cfg.MaxSteer, Throttle: 1.7}, Command{}, &cfg)

	assert.InDelta(t, 1, cmd.Steer, 1e-12)
	assert.InDelta(t, cfg.MaxThrottle, cmd.Throttle, 1e-12)
}

func TestRateLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SteerRate = 0.1
	cfg.ThrottleRate = 0.2

	last := Command{Steer: 0.0, Throttle: 0.5}
	cmd := RateLimit(Command{Steer: 0.5, Throttle: -0.5}, last, &cfg)

	assert.InDelta(t, 0.1, cmd.Steer, 1e-12)
	assert.InDelta(t, 0.3, cmd.Throttle, 1e-12)
}

func TestRateLimitDisabledByDefault(t *testing.T) {
	cfg := DefaultConfig()

	cmd := RateLimit(Command{Steer: 0.9, Throttle: -1}, Command{}, &cfg)

	assert.InDelta(t, 0.9, cmd.Steer, 1e-12)
	assert.InDelta(t, -1, cmd.Throttle, 1e-12)
}
