package mpc

import (
	"context"
	"math"

	"github.com/go-nlopt/nlopt"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"ctrl.dev/mpcd/frame"
	"ctrl.dev/mpcd/poly"
)

var (
	ErrSolveDiverged = errors.New("trajectory solve did not reach a feasible optimum")
	ErrNotFinite     = errors.New("non-finite value in solve output")
)

const (
	solveMaxEval = 3000
	solveFtolRel = 1e-8
	// Finite difference step for the objective gradient.
	gradientJump = 1e-6
)

// Result is one cycle's solver output: the first-step actuator pair and the
// predicted vehicle-frame trajectory over the horizon.
type Result struct {
	Steer     float64 // radians, positive = left
	Throttle  float64
	Predicted []frame.Position
	Cost      float64
}

// Optimizer solves the finite-horizon trajectory problem. The decision
// variables are the actuator sequence only; states are rolled out through the
// bicycle model inside the objective, so the model equations hold by
// construction and nlopt sees a purely bound-constrained problem.
//
// An Optimizer carries the warm-start slot for one connection and must not be
// shared across connections.
type Optimizer struct {
	cfg  *Config
	warm []float64
}

func NewOptimizer(cfg *Config) *Optimizer {
	return &Optimizer{cfg: cfg}
}

type solveReturn struct {
	solution []float64
	cost     float64
	err      error
}

// Solve runs the constrained solve from the latency-compensated state. It
// returns ErrSolveDiverged when the solver cannot produce a usable point
// within its budget, and ErrNotFinite when the state or solution degenerates;
// the caller owns the fallback policy for both.
func (o *Optimizer) Solve(ctx context.Context, st State, coeffs poly.Coefficients) (*Result, error) {
	if !st.IsFinite() || !coeffs.IsFinite() {
		return nil, errors.Wrap(ErrNotFinite, "degenerate solve input")
	}

	n := o.cfg.Steps
	dim := 2 * n
	lower := make([]float64, dim)
	upper := make([]float64, dim)
	for k := 0; k < n; k++ {
		lower[k] = -o.cfg.MaxSteer
		upper[k] = o.cfg.MaxSteer
		lower[n+k] = o.cfg.MinThrottle
		upper[n+k] = o.cfg.MaxThrottle
	}

	opt, err := nlopt.NewNLopt(nlopt.LD_SLSQP, uint(dim))
	if err != nil {
		return nil, errors.Wrap(err, "nlopt creation error")
	}
	defer opt.Destroy()

	objective := func(u, gradient []float64) float64 {
		cost := o.cost(u, st, coeffs)
		for i := range gradient {
			flip := false
			u[i] += gradientJump
			if u[i] >= upper[i] {
				flip = true
				u[i] -= 2 * gradientJump
			}
			bumped := o.cost(u, st, coeffs)
			gradient[i] = (bumped - cost) / gradientJump
			if flip {
				u[i] += gradientJump
				gradient[i] *= -1
			} else {
				u[i] -= gradientJump
			}
		}
		return cost
	}

	err = multierr.Combine(
		opt.SetLowerBounds(lower),
		opt.SetUpperBounds(upper),
		opt.SetFtolRel(solveFtolRel),
		opt.SetMaxEval(solveMaxEval),
		opt.SetMinObjective(objective),
	)
	if err != nil {
		return nil, errors.Wrap(err, "nlopt setup error")
	}

	if o.cfg.SolveBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.SolveBudget)
		defer cancel()
	}

	solveChan := make(chan *solveReturn, 1)
	go func() {
		solution, cost, optErr := opt.Optimize(o.seed())
		solveChan <- &solveReturn{solution, cost, optErr}
	}()

	var solved *solveReturn
	select {
	case <-ctx.Done():
		err = multierr.Combine(err, opt.ForceStop())
		<-solveChan
		o.warm = nil
		return nil, multierr.Combine(errors.Wrap(ErrSolveDiverged, ctx.Err().Error()), err)
	case solved = <-solveChan:
	}

	if solved.solution == nil {
		o.warm = nil
		if solved.err != nil {
			return nil, multierr.Combine(ErrSolveDiverged, solved.err)
		}
		return nil, ErrSolveDiverged
	}
	for _, v := range solved.solution {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			o.warm = nil
			return nil, ErrNotFinite
		}
	}

	predicted := o.rollout(solved.solution, st, coeffs)
	for _, p := range predicted {
		if !p.IsFinite() {
			o.warm = nil
			return nil, ErrNotFinite
		}
	}

	o.shiftWarmStart(solved.solution)

	return &Result{
		Steer:     solved.solution[0],
		Throttle:  solved.solution[n],
		Predicted: predicted,
		Cost:      solved.cost,
	}, nil
}

// cost rolls the actuator sequence through the bicycle model and accumulates
// the weighted tracking, speed, effort and smoothness terms.
func (o *Optimizer) cost(u []float64, st State, coeffs poly.Coefficients) float64 {
	n := o.cfg.Steps
	w := &o.cfg.Weights

	total := 0.0
	state := st
	for k := 0; k < n; k++ {
		state = state.Step(u[k], u[n+k], o.cfg.StepTime, coeffs, o.cfg)

		total += w.Cte * state.Cte * state.Cte
		total += w.Epsi * state.Epsi * state.Epsi
		dv := state.V - o.cfg.RefSpeed
		total += w.Speed * dv * dv

		total += w.Steer * u[k] * u[k]
		total += w.Throttle * u[n+k] * u[n+k]

		if k > 0 {
			ds := u[k] - u[k-1]
			da := u[n+k] - u[n+k-1]
			total += w.SteerDelta * ds * ds
			total += w.ThrottleDelta * da * da
		}
	}
	return total
}

// rollout replays the solved actuator sequence to produce the predicted
// (x, y) trajectory, one point per horizon step.
func (o *Optimizer) rollout(u []float64, st State, coeffs poly.Coefficients) []frame.Position {
	n := o.cfg.Steps
	predicted := make([]frame.Position, 0, n)
	state := st
	for k := 0; k < n; k++ {
		state = state.Step(u[k], u[n+k], o.cfg.StepTime, coeffs, o.cfg)
		predicted = append(predicted, frame.Position{X: state.X, Y: state.Y})
	}
	return predicted
}

// seed returns the warm-start point, or the zero sequence on the first cycle
// and after a divergent solve.
func (o *Optimizer) seed() []float64 {
	if len(o.warm) == 2*o.cfg.Steps {
		return append([]float64(nil), o.warm...)
	}
	return make([]float64, 2*o.cfg.Steps)
}

// shiftWarmStart keeps the solution shifted one step forward so the next
// cycle's seed lines up with where the horizon will have moved.
func (o *Optimizer) shiftWarmStart(solution []float64) {
	n := o.cfg.Steps
	warm := make([]float64, 2*n)
	for k := 0; k < n-1; k++ {
		warm[k] = solution[k+1]
		warm[n+k] = solution[n+k+1]
	}
	warm[n-1] = solution[n-1]
	warm[2*n-1] = solution[2*n-1]
	o.warm = warm
}
