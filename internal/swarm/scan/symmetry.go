package scan

import "swarmlink.ai/internal/protocol"

type Symmetry uint8

const (
	SymmetryUnknown Symmetry = iota
	SymmetryVertical
	SymmetryHorizontal
	SymmetryRotational
)

// candidates is the order in which symmetries are tried.
var candidates = [...]Symmetry{SymmetryVertical, SymmetryHorizontal, SymmetryRotational}

func (s Symmetry) String() string {
	switch s {
	case SymmetryVertical:
		return "vertical"
	case SymmetryHorizontal:
		return "horizontal"
	case SymmetryRotational:
		return "rotational"
	default:
		return "unknown"
	}
}

// Mirror reflects l through s. b must be complete.
func (s Symmetry) Mirror(b Bounds, l protocol.Loc) protocol.Loc {
	flipX := l.X
	flipY := l.Y
	if s == SymmetryHorizontal || s == SymmetryRotational {
		flipX = b.v[protocol.SideLowX] + b.v[protocol.SideHighX] - l.X
	}
	if s == SymmetryVertical || s == SymmetryRotational {
		flipY = b.v[protocol.SideLowY] + b.v[protocol.SideHighY] - l.Y
	}
	return protocol.Loc{X: flipX, Y: flipY}
}

// InferSymmetry returns the first candidate that maps some pair of distinct
// known locations onto each other, or SymmetryUnknown.
func InferSymmetry(b Bounds, locs []protocol.Loc) Symmetry {
	if !b.Complete() {
		return SymmetryUnknown
	}
	for _, s := range candidates {
		for i := 0; i < len(locs); i++ {
			m := s.Mirror(b, locs[i])
			for j := i + 1; j < len(locs); j++ {
				if m == locs[j] {
					return s
				}
			}
		}
	}
	return SymmetryUnknown
}
