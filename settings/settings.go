package settings

import (
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"ctrl.dev/mpcd/params"
	"ctrl.dev/mpcd/utils"
)

var (
	Settings = MpcdSettings{}
)

// Fallback policies applied when a cycle cannot produce a validated command.
const (
	FallbackHold       = "hold"
	FallbackDecelerate = "decelerate"
)

type MpcdSettings struct {
	Listen       string `json:"listen"`
	StatusListen string `json:"status_listen"`
	LogLevel     string `json:"log_level"`

	HorizonSteps int     `json:"horizon_steps"`
	StepSeconds  float64 `json:"step_seconds"`
	LfMeters     float64 `json:"lf_meters"`
	RefSpeed     float64 `json:"ref_speed"`

	MaxSteerDeg  float64 `json:"max_steer_deg"`
	MinThrottle  float64 `json:"min_throttle"`
	MaxThrottle  float64 `json:"max_throttle"`
	SteerRate    float64 `json:"steer_rate"`
	ThrottleRate float64 `json:"throttle_rate"`

	LatencyMs     float64 `json:"latency_ms"`
	SolveBudgetMs float64 `json:"solve_budget_ms"`

	FallbackMode  string  `json:"fallback_mode"`
	FallbackBrake float64 `json:"fallback_brake"`

	WeightCte           float64 `json:"weight_cte"`
	WeightEpsi          float64 `json:"weight_epsi"`
	WeightSpeed         float64 `json:"weight_speed"`
	WeightSteer         float64 `json:"weight_steer"`
	WeightThrottle      float64 `json:"weight_throttle"`
	WeightSteerDelta    float64 `json:"weight_steer_delta"`
	WeightThrottleDelta float64 `json:"weight_throttle_delta"`
}

func (s *MpcdSettings) Default() {
	s.Listen = "127.0.0.1:4567"
	s.StatusListen = "127.0.0.1:8650"
	s.LogLevel = "error"
	s.HorizonSteps = 10
	s.StepSeconds = 0.1
	s.LfMeters = 2.67
	s.RefSpeed = 17.9
	s.MaxSteerDeg = 25
	s.MinThrottle = -1
	s.MaxThrottle = 1
	s.SteerRate = 0
	s.ThrottleRate = 0
	s.LatencyMs = 100
	s.SolveBudgetMs = 50
	s.FallbackMode = FallbackDecelerate
	s.FallbackBrake = -0.1
	s.WeightCte = 2000
	s.WeightEpsi = 2000
	s.WeightSpeed = 1
	s.WeightSteer = 50
	s.WeightThrottle = 50
	s.WeightSteerDelta = 150000
	s.WeightThrottleDelta = 5000
}

func (s *MpcdSettings) Recommended() {
	s.Default()
	s.RefSpeed = 26.8
	s.SteerRate = 0.25
	s.ThrottleRate = 0.5
	s.LogLevel = "warn"
}

func (s *MpcdSettings) Load() (success bool) {
	s.Default() // set defaults so settings not already in param are defaulted
	data, err := params.GetParam(params.SETTINGS)
	if err != nil {
		utils.Loge(err)
		return false
	}

	err = json.Unmarshal(data, s)
	if err != nil {
		utils.Loge(err)
		return false
	}

	s.sanitize()
	s.SetLogLevel()

	return true
}

func (s *MpcdSettings) LoadWithRetries(tries int) {
	for range tries {
		if s.Load() {
			break
		}
		time.Sleep(1 * time.Second)
	}
	s.Save()
}

func (s *MpcdSettings) Save() {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		utils.Loge(err)
		return
	}
	err = params.PutParam(params.SETTINGS, data)
	if err != nil {
		utils.Loge(err)
		return
	}
}

func (s *MpcdSettings) sanitize() {
	if s.HorizonSteps < 2 {
		s.HorizonSteps = 2
	}
	if s.StepSeconds <= 0 {
		s.StepSeconds = 0.1
	}
	if s.MaxSteerDeg <= 0 {
		s.MaxSteerDeg = 25
	}
	if s.MaxThrottle <= s.MinThrottle {
		s.MinThrottle = -1
		s.MaxThrottle = 1
	}
	if s.FallbackMode != FallbackHold && s.FallbackMode != FallbackDecelerate {
		s.FallbackMode = FallbackDecelerate
	}
	s.FallbackBrake = utils.Clamp(s.FallbackBrake, s.MinThrottle, 0)
}

func (s *MpcdSettings) SetLogLevel() {
	switch strings.ToLower(s.LogLevel) {
	case "debug":
		slog.SetLogLoggerLevel(slog.LevelDebug)
	case "info":
		slog.SetLogLoggerLevel(slog.LevelInfo)
	case "warn":
		slog.SetLogLoggerLevel(slog.LevelWarn)
	case "error":
		slog.SetLogLoggerLevel(slog.LevelError)
	default:
		slog.SetLogLoggerLevel(slog.LevelError)
	}
}
