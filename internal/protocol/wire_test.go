package protocol

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMessageFields(t *testing.T) {
	ref := Loc{X: 15000, Y: 15020}
	target := ref.Translate(-30, 12)

	w := Target(RoleOffensive, target) | ParityBit
	if w.Action() != ActionTarget {
		t.Fatalf("action=%v", w.Action())
	}
	if w.Role() != RoleOffensive {
		t.Fatalf("role=%v", w.Role())
	}
	if !w.Parity() {
		t.Fatalf("parity lost")
	}
	if got := DecodeLocation(w.Payload(), ref); got != target {
		t.Fatalf("target=%v want %v", got, target)
	}
	if w&^Mask != 0 {
		t.Fatalf("word exceeds width: %x", w)
	}

	id := 123456
	if got := CommanderID(id).ID(); got != id {
		t.Fatalf("id=%d", got)
	}
	if got := Adopt(id); got.Action() != ActionAdopt || got.ID() != id {
		t.Fatalf("adopt=%x", got)
	}
}

func TestBoundaryWords(t *testing.T) {
	b := Boundary(true, 10070)
	if b.Action() != ActionBoundary || b.Payload()&AxisBit == 0 {
		t.Fatalf("boundary=%x", b)
	}
	if got := DecodeCoordinate(b.Payload(), 10050); got != 10070 {
		t.Fatalf("coord=%d", got)
	}

	c1 := BoundaryCode(SideLowX, 10000)
	c2 := BoundaryCode(SideHighY, 10063)
	got := TwoBoundaries(c1, c2).BoundaryCodes()
	if diff := cmp.Diff([]Word{c1, c2}, got); diff != "" {
		t.Fatalf("codes (-want +got):\n%s", diff)
	}
	side, residue := SplitBoundaryCode(got[1])
	if side != SideHighY || DecodeCoordinate(residue, 10040) != 10063 {
		t.Fatalf("side=%v residue=%d", side, residue)
	}
	if n := len(OneBoundary(c1).BoundaryCodes()); n != 1 {
		t.Fatalf("one boundary codes=%d", n)
	}
	if Lost().BoundaryCodes() != nil {
		t.Fatalf("lost carries no codes")
	}
}
