package main

import (
	"context"
	"encoding/json"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ctrl.dev/mpcd/api"
	"ctrl.dev/mpcd/settings"
)

func TestOfferTelemetrySupersedesInFlightCycle(t *testing.T) {
	latest := make(chan []byte, 1)
	superseded := 0

	// Empty queue means the worker already drained it and is mid-solve on
	// older telemetry: the very first fresh snapshot must abort that solve.
	offerTelemetry(latest, []byte(`{"x":1}`), func() { superseded++ })
	assert.Equal(t, 1, superseded)

	// Still busy: the queued snapshot is replaced, never appended.
	offerTelemetry(latest, []byte(`{"x":2}`), func() { superseded++ })
	assert.Equal(t, 2, superseded)

	require.Len(t, latest, 1)
	assert.JSONEq(t, `{"x":2}`, string(<-latest))
}

func TestHandleConnRoundTrip(t *testing.T) {
	settings.Settings.Default()
	settings.Settings.SolveBudgetMs = 5000

	server := &Server{Status: api.NewStatus()}
	client, serverConn := net.Pipe()
	done := make(chan struct{})
	go func() {
		server.handleConn(context.Background(), serverConn, "sim-1")
		close(done)
	}()

	line := `{"ptsx":[0,25,50,75],"ptsy":[0,5,8,9],"x":10,"y":2,"psi":0.1,"speed":20,"steering_angle":0,"throttle":0}` + "\n"
	_, err := client.Write([]byte(line))
	require.NoError(t, err)

	var cmd SteerCommand
	require.NoError(t, json.NewDecoder(client).Decode(&cmd))
	assert.Greater(t, cmd.SteeringAngle, 0.0)
	assert.LessOrEqual(t, cmd.SteeringAngle, 1.0)
	require.Len(t, cmd.MpcX, settings.Settings.HorizonSteps)

	snap := server.Status.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "sim-1", snap[0].Conn)
	assert.Equal(t, uint64(1), snap[0].Cycles)

	client.Close()
	<-done
	assert.Empty(t, server.Status.Snapshot())
}
