package frame

import (
	"github.com/pkg/errors"
)

var ErrNoWaypoints = errors.New("no waypoints to transform")

// ToVehicleFrame expresses world-frame waypoints in the vehicle's own frame:
// the vehicle position becomes the origin and its heading the local x axis.
// Translate by -origin, then rotate by -heading. The transform is an isometry,
// pairwise distances are unchanged.
func ToVehicleFrame(waypoints []Position, origin Position, heading float64) ([]Position, error) {
	if len(waypoints) == 0 {
		return nil, ErrNoWaypoints
	}

	local := make([]Position, len(waypoints))
	for i, wp := range waypoints {
		local[i] = wp.Subtract(origin).Rotate(-heading)
	}
	return local, nil
}
