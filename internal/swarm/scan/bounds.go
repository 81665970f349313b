package scan

import "swarmlink.ai/internal/protocol"

// Bounds holds the map edges learned so far, indexed by protocol.Side.
type Bounds struct {
	v     [4]int
	known [4]bool
}

// Set records an edge the first time it is learned.
func (b *Bounds) Set(side protocol.Side, v int) bool {
	if side > protocol.SideHighY || b.known[side] {
		return false
	}
	b.v[side] = v
	b.known[side] = true
	return true
}

func (b Bounds) Get(side protocol.Side) (int, bool) {
	if side > protocol.SideHighY {
		return 0, false
	}
	return b.v[side], b.known[side]
}

func (b Bounds) Known() int {
	n := 0
	for _, k := range b.known {
		if k {
			n++
		}
	}
	return n
}

func (b Bounds) Complete() bool { return b.Known() == 4 }

// Area is the map area, zero until all edges are known.
func (b Bounds) Area() int {
	if !b.Complete() {
		return 0
	}
	return (b.v[protocol.SideHighX] - b.v[protocol.SideLowX] + 1) * (b.v[protocol.SideHighY] - b.v[protocol.SideLowY] + 1)
}
