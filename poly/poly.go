// Package poly fits and evaluates the polynomial path model used as the
// controller's reference curve.
package poly

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"ctrl.dev/mpcd/frame"
)

var (
	ErrInsufficientPoints = errors.New("not enough waypoints to fit polynomial")
	ErrIllConditioned     = errors.New("polynomial fit is rank deficient")
)

// Coefficients holds polynomial coefficients, constant term first. A fit is
// only valid for the control cycle that produced it.
type Coefficients []float64

// Eval evaluates the polynomial at x using Horner's scheme.
func (c Coefficients) Eval(x float64) float64 {
	result := 0.0
	for i := len(c) - 1; i >= 0; i-- {
		result = result*x + c[i]
	}
	return result
}

// Derivative returns the coefficients of the first derivative.
func (c Coefficients) Derivative() Coefficients {
	if len(c) < 2 {
		return Coefficients{0}
	}
	d := make(Coefficients, len(c)-1)
	for i := 1; i < len(c); i++ {
		d[i-1] = float64(i) * c[i]
	}
	return d
}

// Slope evaluates the derivative at x.
func (c Coefficients) Slope(x float64) float64 {
	return c.Derivative().Eval(x)
}

func (c Coefficients) IsFinite() bool {
	for _, v := range c {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Fit least-squares fits a polynomial of the given order to vehicle-frame
// waypoints. The design matrix is solved through a QR decomposition rather
// than the normal equations to keep the solve well conditioned. Needs at
// least order+1 waypoints with distinct x values.
func Fit(waypoints []frame.Position, order int) (Coefficients, error) {
	if order < 1 {
		return nil, errors.New("polynomial order must be at least 1")
	}
	if len(waypoints) < order+1 {
		return nil, errors.Wrapf(ErrInsufficientPoints, "%d waypoints for order %d", len(waypoints), order)
	}
	if distinctX(waypoints) < order+1 {
		return nil, errors.Wrap(ErrIllConditioned, "waypoint x values coincide")
	}

	a := mat.NewDense(len(waypoints), order+1, nil)
	b := mat.NewVecDense(len(waypoints), nil)
	for i, wp := range waypoints {
		v := 1.0
		for j := 0; j <= order; j++ {
			a.Set(i, j, v)
			v *= wp.X
		}
		b.SetVec(i, wp.Y)
	}

	var qr mat.QR
	qr.Factorize(a)

	var sol mat.Dense
	if err := qr.SolveTo(&sol, false, b); err != nil {
		return nil, errors.Wrap(ErrIllConditioned, err.Error())
	}

	coeffs := make(Coefficients, order+1)
	for i := range coeffs {
		coeffs[i] = sol.At(i, 0)
	}
	if !coeffs.IsFinite() {
		return nil, errors.Wrap(ErrIllConditioned, "fit produced non-finite coefficients")
	}
	return coeffs, nil
}

func distinctX(waypoints []frame.Position) int {
	count := 0
	for i, wp := range waypoints {
		unique := true
		for j := 0; j < i; j++ {
			if waypoints[j].X == wp.X {
				unique = false
				break
			}
		}
		if unique {
			count++
		}
	}
	return count
}
