package protocol

const (
	CoordBits    = 7
	CoordModulus = 1 << CoordBits
	coordMask    = CoordModulus - 1
	coordHalf    = CoordModulus / 2

	// LocationBits is the width of a packed location (x residue high, y residue low).
	LocationBits = 2 * CoordBits
	locationMask = 1<<LocationBits - 1
)

func mod(a, m int) int {
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}

// EncodeCoordinate keeps the low CoordBits of c.
func EncodeCoordinate(c int) Word {
	return Word(mod(c, CoordModulus))
}

// DecodeCoordinate returns the value congruent to the low CoordBits of w that
// lies in [ref-64, ref+63]. A residue exactly half the modulus away resolves
// below ref.
func DecodeCoordinate(w Word, ref int) int {
	residue := int(w & coordMask)
	d := mod(residue-ref, CoordModulus)
	if d >= coordHalf {
		d -= CoordModulus
	}
	return ref + d
}

func EncodeLocation(l Loc) Word {
	return EncodeCoordinate(l.X)<<CoordBits | EncodeCoordinate(l.Y)
}

// DecodeLocation reads the low LocationBits of w relative to ref.
func DecodeLocation(w Word, ref Loc) Loc {
	w &= locationMask
	return Loc{
		X: DecodeCoordinate(w>>CoordBits, ref.X),
		Y: DecodeCoordinate(w, ref.Y),
	}
}
