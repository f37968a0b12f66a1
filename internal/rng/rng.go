// Package rng provides the seeded xorshift generator that drives every random
// decision in a simulation run.
package rng

// defaultState replaces a zero seed; xorshift never leaves the all-zero state.
const defaultState uint32 = 123456789

// Source is a 32-bit xorshift generator. All arithmetic is done on uint32 so
// the sequence for a seed is identical on every platform.
type Source struct {
	state uint32
}

// New returns a Source seeded with the low 32 bits of seed.
func New(seed int64) *Source {
	s := uint32(seed)
	if s == 0 {
		s = defaultState
	}
	return &Source{state: s}
}

func (s *Source) next() uint32 {
	x := s.state
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	s.state = x
	return x
}

// Float64 returns the next value in [0,1).
func (s *Source) Float64() float64 {
	return float64(s.next()) / (1 << 32)
}

// IntRange returns the next integer in [min,max] inclusive. If max < min it
// returns min without advancing the sequence.
func (s *Source) IntRange(min, max int) int {
	if max < min {
		return min
	}
	return min + int(s.Float64()*float64(max-min+1))
}
