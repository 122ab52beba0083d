package main

import (
	"math"

	"github.com/pkg/errors"

	"ctrl.dev/mpcd/frame"
)

var errBadTelemetry = errors.New("malformed telemetry")

// Telemetry is one simulator snapshot. Field names follow the simulator
// protocol: ptsx/ptsy are the upcoming reference waypoints in the world
// frame, x/y/psi the vehicle pose, steering_angle and throttle the last
// applied actuation.
type Telemetry struct {
	Ptsx          []float64 `json:"ptsx"`
	Ptsy          []float64 `json:"ptsy"`
	X             float64   `json:"x"`
	Y             float64   `json:"y"`
	Psi           float64   `json:"psi"`
	Speed         float64   `json:"speed"`
	SteeringAngle float64   `json:"steering_angle"`
	Throttle      float64   `json:"throttle"`
}

func (t *Telemetry) Validate() error {
	if len(t.Ptsx) == 0 {
		return errors.Wrap(errBadTelemetry, "no waypoints")
	}
	if len(t.Ptsx) != len(t.Ptsy) {
		return errors.Wrapf(errBadTelemetry, "waypoint length mismatch %d != %d", len(t.Ptsx), len(t.Ptsy))
	}
	for _, v := range append(append([]float64{}, t.Ptsx...), t.Ptsy...) {
		if !finite(v) {
			return errors.Wrap(errBadTelemetry, "non-finite waypoint")
		}
	}
	for _, v := range []float64{t.X, t.Y, t.Psi, t.Speed, t.SteeringAngle, t.Throttle} {
		if !finite(v) {
			return errors.Wrap(errBadTelemetry, "non-finite vehicle field")
		}
	}
	return nil
}

func (t *Telemetry) Waypoints() []frame.Position {
	waypoints := make([]frame.Position, len(t.Ptsx))
	for i := range t.Ptsx {
		waypoints[i] = frame.Position{X: t.Ptsx[i], Y: t.Ptsy[i]}
	}
	return waypoints
}

// SteerCommand is the reply to one telemetry snapshot. mpc_x/y carry the
// predicted trajectory and next_x/y the transformed reference waypoints, both
// in the vehicle frame for display.
type SteerCommand struct {
	SteeringAngle float64   `json:"steering_angle"`
	Throttle      float64   `json:"throttle"`
	MpcX          []float64 `json:"mpc_x"`
	MpcY          []float64 `json:"mpc_y"`
	NextX         []float64 `json:"next_x"`
	NextY         []float64 `json:"next_y"`
}

func splitPositions(positions []frame.Position) (xs, ys []float64) {
	xs = make([]float64, len(positions))
	ys = make([]float64, len(positions))
	for i, p := range positions {
		xs[i] = p.X
		ys[i] = p.Y
	}
	return xs, ys
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
