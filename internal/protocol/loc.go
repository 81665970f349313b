package protocol

import "fmt"

// Loc is an absolute arena location.
type Loc struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (l Loc) Translate(dx, dy int) Loc { return Loc{X: l.X + dx, Y: l.Y + dy} }

func (l Loc) DistSq(o Loc) int {
	dx := l.X - o.X
	dy := l.Y - o.Y
	return dx*dx + dy*dy
}

func (l Loc) String() string { return fmt.Sprintf("(%d,%d)", l.X, l.Y) }
