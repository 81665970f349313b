// Package link keeps a subordinate attached to its commander: it tracks the
// commander's identity and channel word, and paces queued reports to the
// commander's scan parity so each one is read at least once.
package link

import (
	"swarmlink.ai/internal/protocol"
	"swarmlink.ai/internal/swarm"
)

type State uint8

const (
	Unlinked State = iota
	Linked
	Lost
)

func (s State) String() string {
	switch s {
	case Linked:
		return "linked"
	case Lost:
		return "lost"
	default:
		return "unlinked"
	}
}

// noop marks queue slots that carry nothing.
const noop = -1

// AttachRadiusSq is how close a commander must be to be linked by sensing.
const AttachRadiusSq = 2

// Link is owned by one subordinate. It is not safe for concurrent use.
//
// The queue always has the shape [noop, noop, m1..mk, noop] or a suffix of
// it with at least one element, so advancing never empties it.
type Link struct {
	state       State
	commanderID int
	commander   protocol.Loc
	locKnown    bool
	word        protocol.Word
	wordValid   bool
	lastParity  int
	queue       []int64
	onLink      func()
}

// New returns an unlinked Link. onLink runs after every (re)link, so the
// owner can re-queue facts a fresh commander has not heard yet.
func New(onLink func()) *Link {
	l := &Link{onLink: onLink}
	l.reset()
	return l
}

func (l *Link) reset() {
	l.queue = append(l.queue[:0], noop, noop)
	l.lastParity = noop
	l.wordValid = false
}

func (l *Link) State() State     { return l.state }
func (l *Link) CommanderID() int { return l.commanderID }

// CommanderLocation is known when linked by sensing; adoption leaves it unknown.
func (l *Link) CommanderLocation() (protocol.Loc, bool) { return l.commander, l.locKnown }

// Word is the commander's latest channel word, valid once read while linked.
func (l *Link) Word() (protocol.Word, bool) {
	return l.word, l.state == Linked && l.wordValid
}

// Discover links to a friendly commander adjacent to the caller, if any.
func (l *Link) Discover(self swarm.Self, s swarm.Sensor) bool {
	for _, a := range s.SenseNearby(AttachRadiusSq) {
		if a.Team == self.Team() && a.Kind == swarm.KindCommander {
			l.Attach(a.Loc, a.ID)
			return true
		}
	}
	return false
}

// Attach links to a commander whose location is known.
func (l *Link) Attach(loc protocol.Loc, id int) {
	l.commander = loc
	l.locKnown = true
	l.link(id)
}

// Adopt links to a commander known only by identity.
func (l *Link) Adopt(id int) {
	l.locKnown = false
	l.link(id)
}

func (l *Link) link(id int) {
	l.commanderID = id
	l.state = Linked
	l.reset()
	if l.onLink != nil {
		l.onLink()
	}
}

// Refresh reads the commander's word for this tick. An unreadable channel
// means the commander is gone or out of reach: the link drops to Lost and
// pending messages are discarded.
func (l *Link) Refresh(r swarm.ChannelReader) {
	if l.state != Linked {
		return
	}
	if !r.CanReadChannel(l.commanderID) {
		l.drop()
		return
	}
	w, err := swarm.ReadWord(r, l.commanderID)
	if err != nil {
		l.drop()
		return
	}
	l.word = w
	l.wordValid = true
}

func (l *Link) drop() {
	l.state = Lost
	l.locKnown = false
	l.reset()
}

// Queue appends msg for the commander. It is a no-op unless linked.
func (l *Link) Queue(msg protocol.Word) {
	if l.state != Linked {
		return
	}
	if n := len(l.queue); n != 1 && !(n == 2 && l.queue[0] == noop) {
		l.queue = l.queue[:n-1]
	}
	l.queue = append(l.queue, int64(msg), noop)
}

// Pending returns the queued messages not yet sent, in order.
func (l *Link) Pending() []protocol.Word {
	var out []protocol.Word
	for _, m := range l.queue[1:] {
		if m != noop {
			out = append(out, protocol.Word(m))
		}
	}
	return out
}

// Outbound returns the word to publish this tick: the queue head, or alt
// when nothing is due. The queue advances by one each time the commander's
// scan parity flips, which happens only after it has read every subordinate.
func (l *Link) Outbound(alt protocol.Word) protocol.Word {
	if l.state != Linked {
		l.reset()
		return alt
	}
	if !l.wordValid {
		return alt
	}
	parity := 0
	if l.word.Parity() {
		parity = 1
	}
	if l.lastParity == noop {
		l.lastParity = parity
		return alt
	}
	if parity != l.lastParity {
		l.lastParity = parity
		if len(l.queue) > 1 {
			l.queue = l.queue[1:]
		}
	}
	if l.queue[0] == noop {
		return alt
	}
	return protocol.Word(l.queue[0])
}
