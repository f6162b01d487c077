package hooking

// PosCounter counts how many times each hook position fires.
type PosCounter struct {
	names  []string
	counts map[string]uint64
}

// NewPosCounter creates a new PosCounter.
func NewPosCounter() *PosCounter {
	return &PosCounter{
		counts: make(map[string]uint64),
	}
}

// Func counts the position of the hook context.
func (c *PosCounter) Func(ctx HookCtx) {
	name := ctx.Pos.Name

	if _, ok := c.counts[name]; !ok {
		c.names = append(c.names, name)
	}

	c.counts[name]++
}

// PosNames returns the positions seen, in first-seen order.
func (c *PosCounter) PosNames() []string {
	return c.names
}

// Count returns the number of invocations at a position.
func (c *PosCounter) Count(pos *HookPos) uint64 {
	return c.counts[pos.Name]
}
