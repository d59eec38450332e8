package data

import (
	"hash/fnv"
	"math"
)

// stream is a splitmix64 sequence seeded from a symbol and a domain
// tag. The same (symbol, tag) pair replays the same values on every
// platform, which makes the synthetic provider a stable fixture.
type stream struct {
	state uint64
}

func newStream(symbol, tag string) *stream {
	return &stream{state: seedFor(symbol, tag)}
}

// seedFor mixes FNV-1a hashes of the symbol and tag so that the
// history, options and fundamentals streams for one symbol stay
// independent of each other.
func seedFor(symbol, tag string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(symbol))
	seed := h.Sum64()

	h.Reset()
	h.Write([]byte(tag))
	return seed ^ h.Sum64()
}

func (s *stream) next() uint64 {
	s.state += 0x9E3779B97F4A7C15
	z := s.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// Float64 returns a uniform value in [0, 1) from the top 53 bits
func (s *stream) Float64() float64 {
	return float64(s.next()>>11) / float64(1<<53)
}

// Uniform returns a uniform value in [lo, hi)
func (s *stream) Uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*s.Float64()
}

// Normal draws from N(mean, std) via Box-Muller
func (s *stream) Normal(mean, std float64) float64 {
	u1 := s.Float64()
	for u1 == 0 {
		u1 = s.Float64()
	}
	u2 := s.Float64()

	z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
	return mean + std*z
}
