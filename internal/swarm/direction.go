package swarm

import "swarmlink.ai/internal/protocol"

type Direction uint8

const (
	Center Direction = iota
	North
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest
)

// Directions lists the eight compass directions, clockwise from north.
var Directions = [8]Direction{North, NorthEast, East, SouthEast, South, SouthWest, West, NorthWest}

var deltas = [...][2]int{
	Center:    {0, 0},
	North:     {0, 1},
	NorthEast: {1, 1},
	East:      {1, 0},
	SouthEast: {1, -1},
	South:     {0, -1},
	SouthWest: {-1, -1},
	West:      {-1, 0},
	NorthWest: {-1, 1},
}

func (d Direction) Delta() (int, int) {
	if int(d) >= len(deltas) {
		return 0, 0
	}
	v := deltas[d]
	return v[0], v[1]
}

func (d Direction) Opposite() Direction {
	if d == Center {
		return Center
	}
	return Directions[(int(d)-1+4)%8]
}

// Step returns the location one step from l in direction d.
func Step(l protocol.Loc, d Direction) protocol.Loc {
	dx, dy := d.Delta()
	return l.Translate(dx, dy)
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// DirectionTo approximates the direction from a towards b.
func DirectionTo(a, b protocol.Loc) Direction {
	dx, dy := sign(b.X-a.X), sign(b.Y-a.Y)
	for _, d := range Directions {
		if x, y := d.Delta(); x == dx && y == dy {
			return d
		}
	}
	return Center
}

func (d Direction) String() string {
	switch d {
	case North:
		return "N"
	case NorthEast:
		return "NE"
	case East:
		return "E"
	case SouthEast:
		return "SE"
	case South:
		return "S"
	case SouthWest:
		return "SW"
	case West:
		return "W"
	case NorthWest:
		return "NW"
	default:
		return "C"
	}
}
