package swarm

import (
	"math"

	"swarmlink.ai/internal/protocol"
)

var sideDirections = [4]Direction{
	protocol.SideLowX:  West,
	protocol.SideHighX: East,
	protocol.SideLowY:  South,
	protocol.SideHighY: North,
}

// SideAxisY reports whether side bounds the y axis.
func SideAxisY(side protocol.Side) bool {
	return side == protocol.SideLowY || side == protocol.SideHighY
}

// SenseBoundary walks from the caller towards side and returns the last
// on-map coordinate on that axis, if the edge is within sensor range.
func SenseBoundary(from protocol.Loc, s Sensor, side protocol.Side) (int, bool) {
	reach := int(math.Sqrt(float64(s.SensorRadiusSq())))
	d := sideDirections[side]
	cur := from
	for step := 1; step <= reach; step++ {
		next := Step(cur, d)
		on, err := s.OnMap(next)
		if err != nil {
			return 0, false
		}
		if !on {
			if SideAxisY(side) {
				return cur.Y, true
			}
			return cur.X, true
		}
		cur = next
	}
	return 0, false
}
