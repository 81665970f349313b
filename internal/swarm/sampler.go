package swarm

import "math/rand/v2"

// SamplerCapacity bounds how many candidates one draw sequence can hold.
const SamplerCapacity = 8

// Sampler draws uniformly without replacement from a small fixed-capacity set.
type Sampler struct {
	rng   *rand.Rand
	items [SamplerCapacity]int
	n     int
}

func NewSampler(seed uint64) *Sampler {
	return &Sampler{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Reset refills the set with 0..n-1. n is clamped to the capacity.
func (s *Sampler) Reset(n int) {
	if n > SamplerCapacity {
		n = SamplerCapacity
	}
	if n < 0 {
		n = 0
	}
	for i := 0; i < n; i++ {
		s.items[i] = i
	}
	s.n = n
}

func (s *Sampler) Len() int { return s.n }

// Next removes and returns a uniformly chosen remaining item.
func (s *Sampler) Next() (int, bool) {
	if s.n == 0 {
		return 0, false
	}
	i := s.rng.IntN(s.n)
	v := s.items[i]
	s.n--
	s.items[i] = s.items[s.n]
	return v, true
}

// Intn exposes the sampler's generator for single draws.
func (s *Sampler) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return s.rng.IntN(n)
}

// SampleWithoutReplacement returns candidates in uniformly random order.
// Only the first SamplerCapacity candidates take part.
func (s *Sampler) SampleWithoutReplacement(candidates []Direction) []Direction {
	s.Reset(len(candidates))
	out := make([]Direction, 0, s.n)
	for {
		i, ok := s.Next()
		if !ok {
			return out
		}
		out = append(out, candidates[i])
	}
}
