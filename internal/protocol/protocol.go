package protocol

// Version is bumped whenever the channel word layout changes.
const Version = "1.0"

// Word is one channel word as seen by agents (after Open). The wire carries
// the sealed form.
type Word uint32

const WordBits = 24

// Mask covers the usable bits of a Word.
const Mask Word = 1<<WordBits - 1

// Seal returns the wire form of w. A channel that has never been written reads
// as zero on the wire, which opens to an all-ones word (ActionUnset).
func Seal(w Word) Word { return Mask & ^w }

// Open reverses Seal.
func Open(raw Word) Word { return Mask & ^raw }
