package main

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ctrl.dev/mpcd/frame"
	"ctrl.dev/mpcd/poly"
	"ctrl.dev/mpcd/settings"
)

func testSettings() settings.MpcdSettings {
	var s settings.MpcdSettings
	s.Default()
	// Generous budget so a loaded test machine never trips the solve timeout.
	s.SolveBudgetMs = 5000
	return s
}

func TestRunCycleCorrectsTowardPath(t *testing.T) {
	s := testSettings()
	controller := NewController(&s)

	// The fitted reference sits offset toward positive y (positive cte)
	// with its tangent ahead of the current heading (negative epsi).
	telemetry := &Telemetry{
		Ptsx:  []float64{0, 25, 50, 75},
		Ptsy:  []float64{0, 5, 8, 9},
		X:     10,
		Y:     2,
		Psi:   0.1,
		Speed: 20,
	}

	cmd, err := controller.RunCycle(context.Background(), telemetry)
	require.NoError(t, err)
	require.NotNil(t, cmd)

	// Closing both errors needs psi to grow, a negative model steering
	// angle, which the wire sign flip turns positive.
	assert.Greater(t, cmd.SteeringAngle, 0.0)
	assert.LessOrEqual(t, cmd.SteeringAngle, 1.0)
	assert.GreaterOrEqual(t, cmd.Throttle, s.MinThrottle)
	assert.LessOrEqual(t, cmd.Throttle, s.MaxThrottle)

	require.Len(t, cmd.MpcX, s.HorizonSteps)
	require.Len(t, cmd.MpcY, s.HorizonSteps)
	require.Len(t, cmd.NextX, len(telemetry.Ptsx))
	require.Len(t, cmd.NextY, len(telemetry.Ptsy))
	for i := range cmd.MpcX {
		assert.True(t, finite(cmd.MpcX[i]) && finite(cmd.MpcY[i]))
	}

	// The predicted trajectory starts at the compensated pose and moves
	// forward through the horizon.
	assert.Greater(t, cmd.MpcX[len(cmd.MpcX)-1], cmd.MpcX[0])

	// And it closes on the fitted reference: the lateral gap at the end of
	// the horizon is smaller than at its start.
	local, err := frame.ToVehicleFrame(telemetry.Waypoints(),
		frame.Position{X: telemetry.X, Y: telemetry.Y}, telemetry.Psi)
	require.NoError(t, err)
	coeffs, err := poly.Fit(local, pathOrder)
	require.NoError(t, err)
	first := math.Abs(coeffs.Eval(cmd.MpcX[0]) - cmd.MpcY[0])
	last := math.Abs(coeffs.Eval(cmd.MpcX[len(cmd.MpcX)-1]) - cmd.MpcY[len(cmd.MpcY)-1])
	assert.Less(t, last, first)

	status := controller.Status("sim-1", nil)
	assert.Equal(t, uint64(1), status.Cycles)
	assert.Equal(t, uint64(0), status.Failures)
	assert.Equal(t, "", status.LastError)
}

func TestRunCycleSkipsOnBadInput(t *testing.T) {
	s := testSettings()
	controller := NewController(&s)

	cmd, err := controller.RunCycle(context.Background(), &Telemetry{
		Ptsx: []float64{}, Ptsy: []float64{},
	})

	require.Error(t, err)
	assert.Nil(t, cmd)
	assert.Equal(t, "input", errClass(err))

	status := controller.Status("sim-1", err)
	assert.Equal(t, uint64(1), status.Cycles)
	assert.Equal(t, uint64(1), status.Failures)
}

func TestRunCycleSupersededKeepsBaseline(t *testing.T) {
	s := testSettings()
	controller := NewController(&s)

	good := &Telemetry{
		Ptsx:  []float64{0, 25, 50, 75},
		Ptsy:  []float64{0, 5, 8, 9},
		X:     10,
		Y:     2,
		Psi:   0.1,
		Speed: 20,
	}
	issued, err := controller.RunCycle(context.Background(), good)
	require.NoError(t, err)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	cmd, err := controller.RunCycle(cancelled, good)
	require.Error(t, err)
	assert.Nil(t, cmd)

	// A discarded cycle must not move the hold-last baseline or count as a
	// failure.
	assert.Equal(t, issued.SteeringAngle, controller.last.Steer)
	assert.Equal(t, issued.Throttle, controller.last.Throttle)
	assert.Equal(t, uint64(0), controller.failures)
}

func TestRunCycleFallbackDecelerates(t *testing.T) {
	s := testSettings()
	s.FallbackMode = settings.FallbackDecelerate
	controller := NewController(&s)

	// Coincident waypoints collapse onto a single abscissa, so the fit is
	// ill conditioned and the cycle falls back.
	cmd, err := controller.RunCycle(context.Background(), &Telemetry{
		Ptsx:  []float64{5, 5, 5, 5},
		Ptsy:  []float64{5, 5, 5, 5},
		Speed: 20,
	})

	require.Error(t, err)
	require.NotNil(t, cmd)
	assert.Equal(t, "fitting", errClass(err))
	assert.InDelta(t, 0, cmd.SteeringAngle, 1e-12)
	assert.InDelta(t, s.FallbackBrake, cmd.Throttle, 1e-12)
	assert.Nil(t, cmd.MpcX)
}

func TestRunCycleFallbackHoldsLastCommand(t *testing.T) {
	s := testSettings()
	s.FallbackMode = settings.FallbackHold
	controller := NewController(&s)

	good := &Telemetry{
		Ptsx:  []float64{0, 25, 50, 75},
		Ptsy:  []float64{0, 5, 8, 9},
		X:     10,
		Y:     2,
		Psi:   0.1,
		Speed: 20,
	}
	issued, err := controller.RunCycle(context.Background(), good)
	require.NoError(t, err)

	cmd, err := controller.RunCycle(context.Background(), &Telemetry{
		Ptsx:  []float64{5, 5, 5, 5},
		Ptsy:  []float64{5, 5, 5, 5},
		Speed: 20,
	})

	require.Error(t, err)
	require.NotNil(t, cmd)
	assert.InDelta(t, issued.SteeringAngle, cmd.SteeringAngle, 1e-12)
	assert.InDelta(t, issued.Throttle, cmd.Throttle, 1e-12)
}

func TestRunCycleFallbackIsRateLimited(t *testing.T) {
	s := testSettings()
	s.FallbackMode = settings.FallbackDecelerate
	s.FallbackBrake = -1
	s.ThrottleRate = 0.2
	controller := NewController(&s)

	cmd, err := controller.RunCycle(context.Background(), &Telemetry{
		Ptsx:  []float64{5, 5, 5, 5},
		Ptsy:  []float64{5, 5, 5, 5},
		Speed: 20,
	})

	require.Error(t, err)
	require.NotNil(t, cmd)
	// One cycle away from a held zero throttle, the brake request is bounded
	// by the throttle rate.
	assert.InDelta(t, -0.2, cmd.Throttle, 1e-12)
}

func TestErrClassBuckets(t *testing.T) {
	assert.Equal(t, "", errClass(nil))
	assert.Equal(t, "input", errClass(errBadTelemetry))
}

func TestConfigFromSettings(t *testing.T) {
	s := testSettings()
	s.MaxSteerDeg = 30
	s.LatencyMs = 250

	cfg := configFromSettings(&s)

	assert.InDelta(t, 30*math.Pi/180, cfg.MaxSteer, 1e-12)
	assert.InDelta(t, 0.25, cfg.Latency.Seconds(), 1e-12)
	assert.Equal(t, s.HorizonSteps, cfg.Steps)
	assert.InDelta(t, s.WeightCte, cfg.Weights.Cte, 1e-12)
}
