package swarm_test

import (
	"testing"

	"swarmlink.ai/internal/protocol"
	"swarmlink.ai/internal/swarm"
	"swarmlink.ai/internal/swarm/swarmtest"
)

func TestSamplerDrawsEachOnce(t *testing.T) {
	s := swarm.NewSampler(7)
	for round := 0; round < 50; round++ {
		got := s.SampleWithoutReplacement(swarm.Directions[:])
		if len(got) != 8 {
			t.Fatalf("len=%d", len(got))
		}
		seen := map[swarm.Direction]bool{}
		for _, d := range got {
			if seen[d] {
				t.Fatalf("direction %v drawn twice", d)
			}
			seen[d] = true
		}
	}
	s.Reset(20)
	if s.Len() != swarm.SamplerCapacity {
		t.Fatalf("capacity not enforced: %d", s.Len())
	}
}

func TestSamplerDeterministicForSeed(t *testing.T) {
	a := swarm.NewSampler(42).SampleWithoutReplacement(swarm.Directions[:])
	b := swarm.NewSampler(42).SampleWithoutReplacement(swarm.Directions[:])
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed diverged at %d: %v vs %v", i, a, b)
		}
	}
}

func TestEffectiveKind(t *testing.T) {
	decoy := swarm.DecoyForm(100)
	if got := swarm.EffectiveKind(decoy, 399, 300); got != swarm.KindEarner {
		t.Fatalf("tick 399: %v", got)
	}
	if got := swarm.EffectiveKind(decoy, 400, 300); got != swarm.KindEnforcer {
		t.Fatalf("tick 400: %v", got)
	}
	if !swarm.Generating(decoy, 149, 50) || swarm.Generating(decoy, 150, 50) {
		t.Fatalf("generating window wrong")
	}
	plain := swarm.PlainForm(swarm.KindScout)
	if swarm.EffectiveKind(plain, 10000, 300) != swarm.KindScout || swarm.Generating(plain, 0, 50) {
		t.Fatalf("plain form changed")
	}
	if got := swarm.EarnerIncome(107); got != 5 {
		t.Fatalf("income(107)=%d", got)
	}
}

func TestDirections(t *testing.T) {
	for _, d := range swarm.Directions {
		if d.Opposite().Opposite() != d {
			t.Fatalf("opposite of opposite %v", d)
		}
		from := protocol.Loc{X: 100, Y: 100}
		if got := swarm.DirectionTo(from, swarm.Step(from, d)); got != d {
			t.Fatalf("DirectionTo step %v = %v", d, got)
		}
	}
	if swarm.North.Opposite() != swarm.South || swarm.East.Opposite() != swarm.West {
		t.Fatalf("opposites wrong")
	}
}

func TestSenseBoundary(t *testing.T) {
	f := swarmtest.New(swarm.AgentInfo{ID: 1, Team: swarm.TeamA, Loc: protocol.Loc{X: 10003, Y: 20010}})
	f.MinX, f.MaxX = 10000, 10060
	f.MinY, f.MaxY = 20000, 20060
	f.SensorR2 = 30

	if x, ok := swarm.SenseBoundary(f.Me.Loc, f, protocol.SideLowX); !ok || x != 10000 {
		t.Fatalf("low x = %d,%v", x, ok)
	}
	if _, ok := swarm.SenseBoundary(f.Me.Loc, f, protocol.SideLowY); ok {
		t.Fatalf("low y is 10 away, beyond reach 5")
	}
	if _, ok := swarm.SenseBoundary(f.Me.Loc, f, protocol.SideHighX); ok {
		t.Fatalf("high x should be out of range")
	}
}
