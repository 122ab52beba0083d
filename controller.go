package main

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/pkg/errors"

	"ctrl.dev/mpcd/api"
	"ctrl.dev/mpcd/frame"
	"ctrl.dev/mpcd/mpc"
	"ctrl.dev/mpcd/poly"
	"ctrl.dev/mpcd/settings"
)

const pathOrder = 3

// Controller runs the per-cycle pipeline for one vehicle connection:
// transform, fit, latency compensation, trajectory solve, actuator mapping.
// It owns that connection's warm-start slot and last issued command; it is
// never shared across connections.
type Controller struct {
	cfg       mpc.Config
	opt       *mpc.Optimizer
	fallback  string
	brake     float64
	last      mpc.Command
	cycles    uint64
	failures  uint64
	lastState mpc.State
	solveTime time.Duration
}

func NewController(s *settings.MpcdSettings) *Controller {
	cfg := configFromSettings(s)
	return &Controller{
		cfg:      cfg,
		opt:      mpc.NewOptimizer(&cfg),
		fallback: s.FallbackMode,
		brake:    s.FallbackBrake,
	}
}

func configFromSettings(s *settings.MpcdSettings) mpc.Config {
	cfg := mpc.DefaultConfig()
	cfg.Steps = s.HorizonSteps
	cfg.StepTime = s.StepSeconds
	cfg.Lf = s.LfMeters
	cfg.RefSpeed = s.RefSpeed
	cfg.MaxSteer = s.MaxSteerDeg * deg2rad
	cfg.MinThrottle = s.MinThrottle
	cfg.MaxThrottle = s.MaxThrottle
	cfg.SteerRate = s.SteerRate
	cfg.ThrottleRate = s.ThrottleRate
	cfg.Latency = time.Duration(s.LatencyMs * float64(time.Millisecond))
	cfg.SolveBudget = time.Duration(s.SolveBudgetMs * float64(time.Millisecond))
	cfg.Weights = mpc.Weights{
		Cte:           s.WeightCte,
		Epsi:          s.WeightEpsi,
		Speed:         s.WeightSpeed,
		Steer:         s.WeightSteer,
		Throttle:      s.WeightThrottle,
		SteerDelta:    s.WeightSteerDelta,
		ThrottleDelta: s.WeightThrottleDelta,
	}
	return cfg
}

// RunCycle computes the command for one telemetry snapshot. Input failures
// return a nil command: the cycle is skipped and the collaborator holds its
// previous actuation. Every other failure returns the policy fallback
// command together with the error; the fallback is always bounded, so the
// caller can send it as-is.
func (c *Controller) RunCycle(ctx context.Context, t *Telemetry) (*SteerCommand, error) {
	c.cycles++

	if err := t.Validate(); err != nil {
		c.failures++
		return nil, err
	}

	local, err := frame.ToVehicleFrame(t.Waypoints(), frame.Position{X: t.X, Y: t.Y}, t.Psi)
	if err != nil {
		c.failures++
		return nil, err
	}

	coeffs, err := poly.Fit(local, pathOrder)
	if err != nil {
		return c.failCycle(err)
	}

	st := mpc.CompensateLatency(mpc.InitialState(coeffs, t.Speed), t.SteeringAngle, t.Throttle, coeffs, &c.cfg)
	c.lastState = st

	started := time.Now()
	res, err := c.opt.Solve(ctx, st, coeffs)
	c.solveTime = time.Since(started)
	if err != nil {
		if ctx.Err() != nil {
			// Cancelled mid-solve: the caller discards the result, so the
			// hold-last baseline must stay at the command actually sent.
			return nil, err
		}
		return c.failCycle(err)
	}

	cmd := mpc.MapActuators(res, c.last, &c.cfg)
	c.last = cmd

	refX, refY := splitPositions(local)
	mpcX, mpcY := splitPositions(res.Predicted)
	return &SteerCommand{
		SteeringAngle: cmd.Steer,
		Throttle:      cmd.Throttle,
		MpcX:          mpcX,
		MpcY:          mpcY,
		NextX:         refX,
		NextY:         refY,
	}, nil
}

// failCycle produces the bounded safe output for a failed cycle: hold the
// last steering and either re-issue the last throttle or command the
// configured deceleration. The cycle's error is passed through for logging
// and status classification.
func (c *Controller) failCycle(err error) (*SteerCommand, error) {
	c.failures++

	cmd := c.last
	if c.fallback == settings.FallbackDecelerate {
		cmd.Throttle = c.brake
	}
	cmd = mpc.RateLimit(cmd, c.last, &c.cfg)
	c.last = cmd

	slog.Debug("cycle failed", "error", err, "class", errClass(err), "steer", cmd.Steer, "throttle", cmd.Throttle)
	return &SteerCommand{SteeringAngle: cmd.Steer, Throttle: cmd.Throttle}, err
}

// Status summarizes the controller for the status endpoint.
func (c *Controller) Status(conn string, err error) api.CycleStatus {
	return api.CycleStatus{
		Conn:        conn,
		Cycles:      c.cycles,
		Failures:    c.failures,
		Cte:         c.lastState.Cte,
		Epsi:        c.lastState.Epsi,
		Speed:       c.lastState.V,
		Steer:       c.last.Steer,
		Throttle:    c.last.Throttle,
		SolveMillis: c.solveTime.Seconds() * 1000,
		LastError:   errClass(err),
	}
}

// errClass buckets a cycle failure for the status endpoint.
func errClass(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, mpc.ErrSolveDiverged):
		return "solve_divergence"
	case errors.Is(err, mpc.ErrNotFinite):
		return "numeric_anomaly"
	case errors.Is(err, poly.ErrInsufficientPoints), errors.Is(err, poly.ErrIllConditioned):
		return "fitting"
	case errors.Is(err, errBadTelemetry), errors.Is(err, frame.ErrNoWaypoints):
		return "input"
	default:
		return "input"
	}
}

const deg2rad = math.Pi / 180
