package world

import (
	"fmt"
	"math/rand/v2"

	"swarmlink.ai/internal/protocol"
	"swarmlink.ai/internal/swarm"
)

const (
	minSide    = 32
	maxSide    = 64
	originLow  = 10000
	originHigh = 30000
)

var symmetries = []string{"vertical", "horizontal", "rotational"}

// arena is the static map: size, offset origin and passability.
type arena struct {
	origin   protocol.Loc
	width    int
	height   int
	symmetry string
	pass     []float64
}

func (m *arena) contains(l protocol.Loc) bool {
	x, y := l.X-m.origin.X, l.Y-m.origin.Y
	return x >= 0 && y >= 0 && x < m.width && y < m.height
}

func (m *arena) passability(l protocol.Loc) float64 {
	return m.pass[(l.Y-m.origin.Y)*m.width+(l.X-m.origin.X)]
}

func (m *arena) mirror(l protocol.Loc) protocol.Loc {
	x, y := l.X-m.origin.X, l.Y-m.origin.Y
	switch m.symmetry {
	case "vertical":
		y = m.height - 1 - y
	case "horizontal":
		x = m.width - 1 - x
	default:
		x = m.width - 1 - x
		y = m.height - 1 - y
	}
	return protocol.Loc{X: x + m.origin.X, Y: y + m.origin.Y}
}

func (m *arena) at(i int) protocol.Loc {
	return protocol.Loc{X: m.origin.X + i%m.width, Y: m.origin.Y + i/m.width}
}

func generateArena(cfg Config, rng *rand.Rand) (*arena, error) {
	m := &arena{width: cfg.Width, height: cfg.Height, symmetry: cfg.Symmetry}
	if m.width == 0 {
		m.width = minSide + rng.IntN(maxSide-minSide+1)
	}
	if m.height == 0 {
		m.height = minSide + rng.IntN(maxSide-minSide+1)
	}
	if m.width < minSide || m.width > maxSide || m.height < minSide || m.height > maxSide {
		return nil, fmt.Errorf("arena size %dx%d outside [%d, %d]", m.width, m.height, minSide, maxSide)
	}
	if m.symmetry == "" {
		m.symmetry = symmetries[rng.IntN(len(symmetries))]
	}
	known := false
	for _, s := range symmetries {
		known = known || s == m.symmetry
	}
	if !known {
		return nil, fmt.Errorf("unknown symmetry %q", m.symmetry)
	}
	m.origin = protocol.Loc{
		X: originLow + rng.IntN(originHigh-originLow-m.width),
		Y: originLow + rng.IntN(originHigh-originLow-m.height),
	}

	m.pass = make([]float64, m.width*m.height)
	for i := range m.pass {
		l := m.at(i)
		mi := m.index(m.mirror(l))
		if mi < i {
			m.pass[i] = m.pass[mi]
			continue
		}
		m.pass[i] = 0.1 + 0.9*rng.Float64()
	}
	return m, nil
}

func (m *arena) index(l protocol.Loc) int {
	return (l.Y-m.origin.Y)*m.width + (l.X - m.origin.X)
}

// placeCommanders seeds mirrored commander pairs: one per team for each of
// cfg.CommandersPerTeam, then neutral pairs.
func (w *World) placeCommanders(rng *rand.Rand) error {
	m := w.arena
	minGap := (m.width*m.width + m.height*m.height) / 16
	place := func(a, b swarm.Team, influence int) error {
		for try := 0; try < 1000; try++ {
			l := m.at(rng.IntN(len(m.pass)))
			ml := m.mirror(l)
			if l.DistSq(ml) < minGap {
				continue
			}
			if w.occupiedNear(l) || w.occupiedNear(ml) {
				continue
			}
			w.spawn(a, swarm.KindCommander, l, influence, 0)
			w.spawn(b, swarm.KindCommander, ml, influence, 0)
			return nil
		}
		return fmt.Errorf("no room for a commander pair on a %dx%d arena", m.width, m.height)
	}
	for i := 0; i < w.cfg.CommandersPerTeam; i++ {
		if err := place(swarm.TeamA, swarm.TeamB, w.cfg.StartInfluence); err != nil {
			return err
		}
	}
	for i := 0; i < w.cfg.NeutralPairs; i++ {
		if err := place(swarm.TeamNeutral, swarm.TeamNeutral, w.cfg.NeutralInfluence); err != nil {
			return err
		}
	}
	return nil
}

// occupiedNear reports an agent within two tiles of l.
func (w *World) occupiedNear(l protocol.Loc) bool {
	for dx := -2; dx <= 2; dx++ {
		for dy := -2; dy <= 2; dy++ {
			if _, ok := w.byLoc[l.Translate(dx, dy)]; ok {
				return true
			}
		}
	}
	return false
}
