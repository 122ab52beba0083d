package mpc

import (
	"ctrl.dev/mpcd/utils"
)

// Command is the normalized actuator pair the vehicle interface expects.
// Steer is in [-1, 1] where positive means turning right: the wire convention
// is the opposite of the bicycle model's positive-left steering angle.
type Command struct {
	Steer    float64
	Throttle float64
}

// MapActuators converts solver output to a wire command: the steering angle
// is normalized by the steering range and negated for the sign convention
// flip, the throttle is clamped against numerical overshoot, and both are
// rate limited against the previously issued command when a rate bound is
// configured.
func MapActuators(res *Result, last Command, cfg *Config) Command {
	cmd := Command{
		Steer:    utils.Clamp(-res.Steer/cfg.MaxSteer, -1, 1),
		Throttle: utils.Clamp(res.Throttle, cfg.MinThrottle, cfg.MaxThrottle),
	}
	return RateLimit(cmd, last, cfg)
}

// RateLimit bounds the per-cycle change of a command relative to the last
// issued one. Fallback commands go through this too, so actuation never jumps
// even on a failed cycle.
func RateLimit(cmd, last Command, cfg *Config) Command {
	if cfg.SteerRate > 0 {
		cmd.Steer = utils.Clamp(cmd.Steer, last.Steer-cfg.SteerRate, last.Steer+cfg.SteerRate)
	}
	if cfg.ThrottleRate > 0 {
		cmd.Throttle = utils.Clamp(cmd.Throttle, last.Throttle-cfg.ThrottleRate, last.Throttle+cfg.ThrottleRate)
	}
	cmd.Steer = utils.Clamp(cmd.Steer, -1, 1)
	cmd.Throttle = utils.Clamp(cmd.Throttle, cfg.MinThrottle, cfg.MaxThrottle)
	return cmd
}
