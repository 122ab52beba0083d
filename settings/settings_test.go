package settings

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ctrl.dev/mpcd/params"
)

func TestDefaultValues(t *testing.T) {
	s := MpcdSettings{}
	s.Default()

	assert.Equal(t, 10, s.HorizonSteps)
	assert.Equal(t, 0.1, s.StepSeconds)
	assert.Equal(t, 2.67, s.LfMeters)
	assert.Equal(t, 25.0, s.MaxSteerDeg)
	assert.Equal(t, 100.0, s.LatencyMs)
	assert.Equal(t, FallbackDecelerate, s.FallbackMode)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	params.ParamsPath = t.TempDir()
	params.EnsureParamDirectories()

	s := MpcdSettings{}
	s.Default()
	s.RefSpeed = 22.5
	s.FallbackMode = FallbackHold
	s.Save()

	loaded := MpcdSettings{}
	require.True(t, loaded.Load())
	assert.Equal(t, 22.5, loaded.RefSpeed)
	assert.Equal(t, FallbackHold, loaded.FallbackMode)
}

func TestLoadSanitizesBadValues(t *testing.T) {
	params.ParamsPath = t.TempDir()
	params.EnsureParamDirectories()

	bad := MpcdSettings{}
	bad.Default()
	bad.HorizonSteps = 0
	bad.FallbackMode = "panic"
	bad.FallbackBrake = 0.8
	data, err := json.Marshal(&bad)
	require.NoError(t, err)
	require.NoError(t, params.PutParam(params.SETTINGS, data))

	loaded := MpcdSettings{}
	require.True(t, loaded.Load())
	assert.Equal(t, 2, loaded.HorizonSteps)
	assert.Equal(t, FallbackDecelerate, loaded.FallbackMode)
	assert.LessOrEqual(t, loaded.FallbackBrake, 0.0)
}

func TestLoadMissingParamFallsBackToDefaults(t *testing.T) {
	params.ParamsPath = t.TempDir()

	s := MpcdSettings{}
	assert.False(t, s.Load())
	assert.Equal(t, 10, s.HorizonSteps)
}
