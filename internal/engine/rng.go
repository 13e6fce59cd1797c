package engine

// Random is a source of floats in [0, 1).
type Random interface {
	Float64() float64
}

// RNG is a Mulberry32 generator: 32 bits of state, period 2^32.
// It never reads the clock or OS entropy, so equal seeds give equal sequences.
type RNG struct {
	state uint32
}

// NewRNG returns a generator positioned at the start of the sequence for seed.
func NewRNG(seed uint32) *RNG {
	return &RNG{state: seed}
}

// Float64 advances the generator and returns the next value in [0, 1).
func (r *RNG) Float64() float64 {
	r.state += 0x6D2B79F5
	t := r.state
	t = (t ^ t>>15) * (1 | t)
	t = (t + (t^t>>7)*(61|t)) ^ t
	return float64(t^t>>14) / 4294967296
}

// Intn returns a value in [0, n) using one draw. n must be positive.
func (r *RNG) Intn(n int) int {
	return pick(r, n)
}

func pick(rng Random, n int) int {
	idx := int(rng.Float64() * float64(n))
	if idx >= n {
		idx = n - 1
	}
	return idx
}
