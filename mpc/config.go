// Package mpc implements the receding-horizon trajectory controller: latency
// compensation, the kinematic bicycle rollout, the nlopt-backed trajectory
// optimizer, and mapping of solver output to actuator commands.
package mpc

import (
	"math"
	"time"
)

// Weights are the cost-term weights of the trajectory objective. The delta
// terms penalize step-to-step actuator change; they are what breaks ties
// between near-equal tracking solutions toward the smoother one.
type Weights struct {
	Cte           float64
	Epsi          float64
	Speed         float64
	Steer         float64
	Throttle      float64
	SteerDelta    float64
	ThrottleDelta float64
}

// Config is the horizon configuration. It is built once at startup and shared
// read-only by every cycle; nothing in the pipeline mutates it.
type Config struct {
	// Steps is the number of discrete future steps in the horizon. The
	// predicted trajectory has exactly this many points.
	Steps int
	// StepTime is the duration of one horizon step.
	StepTime float64
	// Lf is the distance from the center of gravity to the front axle.
	Lf float64
	// RefSpeed is the speed the objective pulls toward, m/s.
	RefSpeed float64

	// MaxSteer is the physical steering range, radians. Steering is bounded
	// to [-MaxSteer, MaxSteer]; positive is left in the bicycle model.
	MaxSteer    float64
	MinThrottle float64
	MaxThrottle float64

	// SteerRate and ThrottleRate bound the per-cycle change of the emitted
	// normalized commands. Zero disables the bound.
	SteerRate    float64
	ThrottleRate float64

	// Latency is the actuation delay compensated before each solve.
	Latency time.Duration
	// SolveBudget caps the wall-clock time of one solve. A solve that
	// exceeds it is aborted and treated as divergence.
	SolveBudget time.Duration

	Weights Weights
}

// DefaultConfig mirrors the tuning the controller ships with: a one second
// horizon at 10 Hz and the simulator vehicle's geometry.
func DefaultConfig() Config {
	return Config{
		Steps:        10,
		StepTime:     0.1,
		Lf:           2.67,
		RefSpeed:     17.9,
		MaxSteer:     25 * deg2rad,
		MinThrottle:  -1,
		MaxThrottle:  1,
		SteerRate:    0,
		ThrottleRate: 0,
		Latency:      100 * time.Millisecond,
		SolveBudget:  50 * time.Millisecond,
		Weights: Weights{
			Cte:           2000,
			Epsi:          2000,
			Speed:         1,
			Steer:         50,
			Throttle:      50,
			SteerDelta:    150000,
			ThrottleDelta: 5000,
		},
	}
}

const deg2rad = math.Pi / 180
