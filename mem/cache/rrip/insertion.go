package rrip

// InsertionKind names a bimodal insertion strategy.
type InsertionKind int

// Bimodal insertion is either a deterministic duty cycle or a random draw.
const (
	DutyCycle InsertionKind = iota
	Epsilon
)

func (k InsertionKind) String() string {
	if k == Epsilon {
		return "epsilon"
	}

	return "duty-cycle"
}

// An InsertionSelector decides, for each bimodal insertion, whether the
// occasional value should be used instead of the common one.
type InsertionSelector interface {
	Rare() bool
}

// dutyCycleSelector picks the rare value on every period-th call.
type dutyCycleSelector struct {
	counter int
	period  int
}

func newDutyCycleSelector(period int) *dutyCycleSelector {
	return &dutyCycleSelector{period: period}
}

func (s *dutyCycleSelector) Rare() bool {
	s.counter++
	if s.counter == s.period {
		s.counter = 0
		return true
	}

	return false
}

// epsilonSelector picks the rare value with probability epsilon.
type epsilonSelector struct {
	rng     *MT19937
	epsilon float64
}

func newEpsilonSelector(epsilon float64, seed uint32) *epsilonSelector {
	return &epsilonSelector{
		rng:     NewMT19937(seed),
		epsilon: epsilon,
	}
}

func (s *epsilonSelector) Rare() bool {
	return s.rng.Float64() < s.epsilon
}
