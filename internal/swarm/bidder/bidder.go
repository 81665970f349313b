// Package bidder decides the commander's per-tick vote bid from the history
// of won and lost rounds.
package bidder

import "math"

type Host interface {
	Tick() int
	TeamVotes() int
	Influence() int
	CanBid(amount int) bool
	Bid(amount int) error
}

type Config struct {
	// WarmupRounds must pass before the first bid.
	WarmupRounds  int `yaml:"warmup_rounds"`
	// MajorityVotes ends bidding once the team holds it.
	MajorityVotes int `yaml:"majority_votes"`
	// LossMargin is how far losses may trail wins before bidding relaxes to
	// MinimalBid.
	LossMargin    int `yaml:"loss_margin"`
	MinimalBid    int `yaml:"minimal_bid"`
	// InitialBid is recorded as the round-0 bid.
	InitialBid    int `yaml:"initial_bid"`
}

func DefaultConfig() Config {
	return Config{
		WarmupRounds:  100,
		MajorityVotes: 751,
		LossMargin:    5,
		MinimalBid:    1,
		InitialBid:    2,
	}
}

type Bidder struct {
	cfg    Config
	votes  []int
	amount []int
	won    int
	lost   int
}

func New(cfg Config) *Bidder {
	return &Bidder{
		cfg:    cfg,
		votes:  []int{0},
		amount: []int{cfg.InitialBid},
	}
}

func (b *Bidder) Won() int  { return b.won }
func (b *Bidder) Lost() int { return b.lost }

// Amount returns what was bid at tick, zero if nothing.
func (b *Bidder) Amount(tick int) int {
	if tick < 0 || tick >= len(b.amount) {
		return 0
	}
	return b.amount[tick]
}

func (b *Bidder) grow(tick int) {
	for len(b.votes) <= tick {
		b.votes = append(b.votes, 0)
		b.amount = append(b.amount, 0)
	}
}

// Step records this tick's vote count and places a bid when allowed. It
// returns the amount bid, zero if none.
func (b *Bidder) Step(h Host) (int, error) {
	tick := h.Tick()
	if tick <= 0 {
		return 0, nil
	}
	b.grow(tick)
	votes := h.TeamVotes()
	b.votes[tick] = votes
	lostLast := votes == b.votes[tick-1]
	if lostLast {
		b.lost++
	} else {
		b.won++
	}

	influence := h.Influence()
	if votes >= b.cfg.MajorityVotes || influence <= 0 || tick <= b.cfg.WarmupRounds {
		return 0, nil
	}

	var tries []int
	prev := b.amount[tick-1]
	if b.lost+b.cfg.LossMargin > b.won {
		if lostLast {
			tries = []int{prev + 1, int(math.Round(float64(influence) / 2)), b.cfg.MinimalBid}
		} else {
			tries = []int{prev, b.cfg.MinimalBid}
		}
	} else {
		tries = []int{b.cfg.MinimalBid}
	}
	tries = append(tries, influence)

	for _, n := range tries {
		if !h.CanBid(n) {
			continue
		}
		if err := h.Bid(n); err != nil {
			return 0, err
		}
		b.amount[tick] = n
		return n, nil
	}
	return 0, nil
}
