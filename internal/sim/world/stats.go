package world

import "swarmlink.ai/internal/swarm"

// TeamCounts are per-team tallies over one bucket of ticks.
type TeamCounts struct {
	Spawned   int `json:"spawned"`
	Destroyed int `json:"destroyed"`
	Converted int `json:"converted"`
	Votes     int `json:"votes"`
}

type StatsBucket struct {
	Teams [3]TeamCounts
}

// Stats keeps a ring of buckets covering the most recent window of ticks.
type Stats struct {
	bucketTicks int
	windowTicks int

	buckets []StatsBucket
	curIdx  int
	curBase int // first tick of the current bucket
}

func NewStats(bucketTicks, windowTicks int) *Stats {
	if bucketTicks <= 0 {
		bucketTicks = 50
	}
	if windowTicks < bucketTicks {
		windowTicks = bucketTicks
	}
	n := windowTicks / bucketTicks
	return &Stats{
		bucketTicks: bucketTicks,
		windowTicks: n * bucketTicks,
		buckets:     make([]StatsBucket, n),
	}
}

func (s *Stats) rotate(now int) {
	for now >= s.curBase+s.bucketTicks {
		s.curIdx = (s.curIdx + 1) % len(s.buckets)
		s.buckets[s.curIdx] = StatsBucket{}
		s.curBase += s.bucketTicks
	}
}

func (s *Stats) cur(now int, t swarm.Team) *TeamCounts {
	s.rotate(now)
	return &s.buckets[s.curIdx].Teams[t]
}

func (s *Stats) ObserveSpawn(now int, t swarm.Team) {
	if s == nil {
		return
	}
	s.cur(now, t).Spawned++
}

func (s *Stats) ObserveDestroyed(now int, t swarm.Team) {
	if s == nil {
		return
	}
	s.cur(now, t).Destroyed++
}

// ObserveConverted counts an agent taken over by team t.
func (s *Stats) ObserveConverted(now int, t swarm.Team) {
	if s == nil {
		return
	}
	s.cur(now, t).Converted++
}

func (s *Stats) ObserveVote(now int, t swarm.Team) {
	if s == nil {
		return
	}
	s.cur(now, t).Votes++
}

func (s *Stats) WindowTicks() int {
	if s == nil {
		return 0
	}
	return s.windowTicks
}

// Summarize sums the window ending at now.
func (s *Stats) Summarize(now int) StatsBucket {
	if s == nil {
		return StatsBucket{}
	}
	s.rotate(now)
	var out StatsBucket
	for _, b := range s.buckets {
		for t := range b.Teams {
			out.Teams[t].Spawned += b.Teams[t].Spawned
			out.Teams[t].Destroyed += b.Teams[t].Destroyed
			out.Teams[t].Converted += b.Teams[t].Converted
			out.Teams[t].Votes += b.Teams[t].Votes
		}
	}
	return out
}
