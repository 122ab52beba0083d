package frame

import (
	m "math"
)

// Position is a planar point. Depending on context it is either world-frame
// (as received in telemetry) or vehicle-frame (after ToVehicleFrame).
type Position struct {
	X float64
	Y float64
}

func NewPosition(x, y float64) Position {
	return Position{X: x, Y: y}
}

func (p Position) Subtract(other Position) Position {
	return Position{X: p.X - other.X, Y: p.Y - other.Y}
}

func (p Position) Add(other Position) Position {
	return Position{X: p.X + other.X, Y: p.Y + other.Y}
}

func (p Position) Scale(factor float64) Position {
	return Position{X: p.X * factor, Y: p.Y * factor}
}

func (p Position) Dot(other Position) float64 {
	return p.X*other.X + p.Y*other.Y
}

func (p Position) DistanceTo(end Position) float64 {
	dx := end.X - p.X
	dy := end.Y - p.Y
	return m.Sqrt(dx*dx + dy*dy)
}

// Rotate rotates the position about the origin by theta radians.
func (p Position) Rotate(theta float64) Position {
	sin, cos := m.Sincos(theta)
	return Position{
		X: p.X*cos - p.Y*sin,
		Y: p.X*sin + p.Y*cos,
	}
}

func (p Position) IsFinite() bool {
	return !m.IsNaN(p.X) && !m.IsInf(p.X, 0) && !m.IsNaN(p.Y) && !m.IsInf(p.Y, 0)
}
