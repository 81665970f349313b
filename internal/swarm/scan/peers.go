package scan

import "swarmlink.ai/internal/protocol"

type peer struct {
	id    int
	known bool
}

// Peers maps commander locations to identities. Locations are never removed;
// an identity becomes unknown when its channel can no longer be read.
// Iteration follows insertion order.
type Peers struct {
	byLoc map[protocol.Loc]peer
	order []protocol.Loc
}

func newPeers() *Peers {
	return &Peers{byLoc: map[protocol.Loc]peer{}}
}

// Add registers loc with an unknown identity. It reports whether loc is new.
func (p *Peers) Add(loc protocol.Loc) bool {
	if _, ok := p.byLoc[loc]; ok {
		return false
	}
	p.byLoc[loc] = peer{}
	p.order = append(p.order, loc)
	return true
}

// SetID registers loc if needed and records its identity.
func (p *Peers) SetID(loc protocol.Loc, id int) bool {
	added := p.Add(loc)
	p.byLoc[loc] = peer{id: id, known: true}
	return added
}

// Forget marks the identity at loc unknown.
func (p *Peers) Forget(loc protocol.Loc) {
	if _, ok := p.byLoc[loc]; ok {
		p.byLoc[loc] = peer{}
	}
}

func (p *Peers) ID(loc protocol.Loc) (int, bool) {
	e, ok := p.byLoc[loc]
	return e.id, ok && e.known
}

func (p *Peers) Has(loc protocol.Loc) bool {
	_, ok := p.byLoc[loc]
	return ok
}

func (p *Peers) Len() int { return len(p.order) }

func (p *Peers) Locations() []protocol.Loc {
	return append([]protocol.Loc(nil), p.order...)
}

// Unclaimed lists the locations whose identity is unknown.
func (p *Peers) Unclaimed() []protocol.Loc {
	var out []protocol.Loc
	for _, loc := range p.order {
		if !p.byLoc[loc].known {
			out = append(out, loc)
		}
	}
	return out
}
