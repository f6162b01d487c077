package rrip

const (
	mtStateSize  = 624
	mtShiftSize  = 397
	mtMatrixA    = 0x9908b0df
	mtUpperMask  = 0x80000000
	mtLowerMask  = 0x7fffffff
	mtInitFactor = 1812433253
)

// MT19937 is the 32-bit Mersenne Twister. Seeded with the same value it
// produces the same stream as std::mt19937, so leader-set draws can be
// reproduced bit for bit across implementations.
type MT19937 struct {
	state [mtStateSize]uint32
	index int
}

// NewMT19937 creates a generator seeded with seed.
func NewMT19937(seed uint32) *MT19937 {
	m := &MT19937{}
	m.Seed(seed)

	return m
}

// Seed resets the generator state.
func (m *MT19937) Seed(seed uint32) {
	m.state[0] = seed
	for i := 1; i < mtStateSize; i++ {
		prev := m.state[i-1]
		m.state[i] = mtInitFactor*(prev^(prev>>30)) + uint32(i)
	}

	m.index = mtStateSize
}

// Uint32 returns the next tempered output.
func (m *MT19937) Uint32() uint32 {
	if m.index >= mtStateSize {
		m.twist()
	}

	y := m.state[m.index]
	m.index++

	y ^= y >> 11
	y ^= (y << 7) & 0x9d2c5680
	y ^= (y << 15) & 0xefc60000
	y ^= y >> 18

	return y
}

func (m *MT19937) twist() {
	for i := 0; i < mtStateSize; i++ {
		y := (m.state[i] & mtUpperMask) |
			(m.state[(i+1)%mtStateSize] & mtLowerMask)

		v := m.state[(i+mtShiftSize)%mtStateSize] ^ (y >> 1)
		if y&1 != 0 {
			v ^= mtMatrixA
		}

		m.state[i] = v
	}

	m.index = 0
}

// Uintn returns a uniformly distributed value in [0, n). It uses the
// multiply-shift mapping with rejection that libstdc++ applies in
// uniform_int_distribution for 32-bit engines, so the accepted draws and
// the number of consumed outputs match.
func (m *MT19937) Uintn(n uint32) uint32 {
	if n == 0 {
		panic("rrip: Uintn called with n == 0")
	}

	product := uint64(m.Uint32()) * uint64(n)
	low := uint32(product)

	if low < n {
		threshold := -n % n
		for low < threshold {
			product = uint64(m.Uint32()) * uint64(n)
			low = uint32(product)
		}
	}

	return uint32(product >> 32)
}

// Float64 returns a value in [0, 1) with 53 bits of precision.
func (m *MT19937) Float64() float64 {
	a := uint64(m.Uint32() >> 5)
	b := uint64(m.Uint32() >> 6)

	return float64(a<<26|b) / (1 << 53)
}
