// Package pcg32 implements the PCG-XSH-RR-32 generator exactly as specified
// by the PCG authors, plus Lemire's debiased bounded-integer draw used by
// the bijection to pick without modulo bias.
package pcg32

import "math/bits"

const (
	multiplier uint64 = 6364136223846793005
	increment  uint64 = 1442695040888963407
)

// PCG32 is a PCG-XSH-RR-32 generator: 64 bits of state, 32 bits of output.
type PCG32 struct {
	state uint64
}

// New seeds the generator and discards the first output, matching the
// reference constructor (state = seed + increment, then one advance).
func New(seed uint64) *PCG32 {
	p := &PCG32{state: seed + increment}
	p.NextUint32()
	return p
}

func (p *PCG32) advance() {
	p.state = p.state*multiplier + increment
}

// NextUint32 advances the state and returns the next 32-bit output.
func (p *PCG32) NextUint32() uint32 {
	old := p.state
	p.advance()

	xorShifted := uint32(((old >> 18) ^ old) >> 27)
	rot := uint32(old >> 59)
	return bits.RotateLeft32(xorShifted, -int(rot))
}

// GenRange returns a uniformly distributed value in [0, n) using Lemire's
// debiased bounded-integer algorithm. n must be in [1, 2^32-1].
func (p *PCG32) GenRange(n uint32) uint32 {
	if n == 0 {
		return 0
	}
	threshold := -n % n
	for {
		x := uint64(p.NextUint32()) * uint64(n)
		if uint32(x) >= threshold {
			return uint32(x >> 32)
		}
	}
}
