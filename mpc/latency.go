package mpc

import (
	m "math"

	"ctrl.dev/mpcd/poly"
)

// CompensateLatency forward-projects a state through the configured actuation
// delay under the last applied steering and throttle. Planning from the
// projected state removes the one-latency-period lag that planning from the
// measured state would bake into every command.
//
// The reference slope for the projected heading error is evaluated at the
// projected x rather than at the measured position; at highway speed the
// vehicle covers a couple of meters during the delay and the tangent there is
// the one the optimizer will be tracking.
func CompensateLatency(st State, lastSteer, lastThrottle float64, coeffs poly.Coefficients, cfg *Config) State {
	latency := cfg.Latency.Seconds()
	if latency == 0 {
		return st
	}

	sin, cos := m.Sincos(st.Psi)
	yaw := st.V / cfg.Lf * lastSteer * latency

	out := State{
		X:   st.X + st.V*cos*latency,
		Y:   st.Y + st.V*sin*latency,
		Psi: st.Psi - yaw,
		V:   st.V + lastThrottle*latency,
		Cte: st.Cte + st.V*sin*latency,
	}
	out.Epsi = out.Psi - m.Atan(coeffs.Slope(out.X)) - yaw
	return out
}
