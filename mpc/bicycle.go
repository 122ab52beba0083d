package mpc

import (
	m "math"

	"ctrl.dev/mpcd/poly"
)

// State is the kinematic bicycle state in the vehicle frame at the planning
// instant. Cte and Epsi are always relative to the current cycle's fit.
type State struct {
	X    float64
	Y    float64
	Psi  float64
	V    float64
	Cte  float64
	Epsi float64
}

// InitialState builds the pre-compensation state: the vehicle sits at the
// origin of its own frame, so cte and heading error reduce to f(0) and
// -atan(f'(0)).
func InitialState(coeffs poly.Coefficients, speed float64) State {
	return State{
		V:    speed,
		Cte:  coeffs.Eval(0),
		Epsi: -m.Atan(coeffs.Slope(0)),
	}
}

// Step advances the state by dt under constant steering and throttle using
// the forward-Euler bicycle update. Positive steering turns left, which
// decreases psi under the model's sign convention.
func (s State) Step(steer, throttle, dt float64, coeffs poly.Coefficients, cfg *Config) State {
	sin, cos := m.Sincos(s.Psi)
	yaw := s.V / cfg.Lf * steer * dt

	return State{
		X:    s.X + s.V*cos*dt,
		Y:    s.Y + s.V*sin*dt,
		Psi:  s.Psi - yaw,
		V:    s.V + throttle*dt,
		Cte:  coeffs.Eval(s.X) - s.Y + s.V*m.Sin(s.Epsi)*dt,
		Epsi: s.Psi - m.Atan(coeffs.Slope(s.X)) - yaw,
	}
}

func (s State) IsFinite() bool {
	for _, v := range []float64{s.X, s.Y, s.Psi, s.V, s.Cte, s.Epsi} {
		if m.IsNaN(v) || m.IsInf(v, 0) {
			return false
		}
	}
	return true
}
