package world

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"math"
)

// stateDigest hashes everything that influences future ticks. Two worlds with
// equal digests at the same tick step identically.
func (w *World) stateDigest() string {
	h := sha256.New()
	var tmp [8]byte

	digestWriteI64(h, &tmp, int64(w.now))
	digestWriteI64(h, &tmp, int64(w.nextID))
	for _, v := range w.votes {
		digestWriteI64(h, &tmp, int64(v))
	}
	h.Write([]byte{boolByte(w.over), byte(w.winner)})

	for _, id := range w.order {
		a := w.agents[id]
		digestWriteI64(h, &tmp, int64(a.ID))
		h.Write([]byte{byte(a.Team), byte(a.Kind), boolByte(a.Decoy)})
		digestWriteI64(h, &tmp, int64(a.Loc.X))
		digestWriteI64(h, &tmp, int64(a.Loc.Y))
		digestWriteI64(h, &tmp, int64(a.Influence))
		digestWriteI64(h, &tmp, int64(a.Conviction))
		digestWriteU64(h, &tmp, math.Float64bits(a.Cooldown))
		digestWriteU64(h, &tmp, uint64(a.Word))
		digestWriteI64(h, &tmp, int64(a.Parent))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func digestWriteU64(h hash.Hash, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func digestWriteI64(h hash.Hash, tmp *[8]byte, v int64) {
	digestWriteU64(h, tmp, uint64(v))
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
