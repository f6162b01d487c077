package rrip

// PSEL is the saturating policy selector. Values at or below the midpoint
// favor SRRIP, values above it favor BRRIP.
type PSEL struct {
	value int
	max   int
}

// NewPSEL returns a selector bounded by [0, max] starting at the midpoint.
func NewPSEL(max int) PSEL {
	return PSEL{value: max / 2, max: max}
}

// Value returns the current counter value.
func (p PSEL) Value() int {
	return p.value
}

// Max returns the upper bound.
func (p PSEL) Max() int {
	return p.max
}

// Midpoint returns max/2.
func (p PSEL) Midpoint() int {
	return p.max / 2
}

// FavorsBRRIP tells if followers should currently use bimodal insertion.
func (p PSEL) FavorsBRRIP() bool {
	return p.value > p.Midpoint()
}

// Inc moves the counter toward BRRIP, clamping at max.
func (p *PSEL) Inc(step int) {
	p.value = min(p.max, p.value+step)
}

// Dec moves the counter toward SRRIP, clamping at 0.
func (p *PSEL) Dec(step int) {
	p.value = max(0, p.value-step)
}

// Set forces the counter, clamped to the bounds.
func (p *PSEL) Set(v int) {
	p.value = max(0, min(p.max, v))
}

// Decay shrinks the distance to the midpoint by distance>>shift. A non-zero
// distance never reaches zero, so the favored policy does not change.
func (p *PSEL) Decay(shift uint) {
	mid := p.Midpoint()

	switch {
	case p.value > mid:
		d := p.value - mid
		p.value = mid + d - d>>shift
	case p.value < mid:
		d := mid - p.value
		p.value = mid - (d - d>>shift)
	}
}
