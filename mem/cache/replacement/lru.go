package replacement

import (
	"fmt"
	"io"
)

// LRUPolicy evicts the least recently used way of a set. Invalid ways are
// always taken first.
type LRUPolicy struct {
	numWays  int
	lruQueue [][]int

	hits, misses uint64
}

// NewLRUPolicy returns a newly constructed LRU policy.
func NewLRUPolicy(numSets, numWays int) *LRUPolicy {
	p := &LRUPolicy{
		numWays:  numWays,
		lruQueue: make([][]int, numSets),
	}

	for i := range p.lruQueue {
		q := make([]int, numWays)
		for j := range q {
			q[j] = j
		}

		p.lruQueue[i] = q
	}

	return p
}

// Name returns "LRU".
func (p *LRUPolicy) Name() string {
	return "LRU"
}

// SelectVictim returns the least recently used way of the set.
func (p *LRUPolicy) SelectVictim(req VictimReq) int {
	for _, way := range p.lruQueue[req.Set] {
		if way < len(req.Lines) && !req.Lines[way].Valid {
			return way
		}
	}

	return p.lruQueue[req.Set][0]
}

// RecordOutcome moves the accessed way to the most recently used position.
func (p *LRUPolicy) RecordOutcome(o Outcome) {
	if o.Hit {
		p.hits++
	} else {
		p.misses++
	}

	q := p.lruQueue[o.Set]

	pos := -1
	for i, way := range q {
		if way == o.Way {
			pos = i
			break
		}
	}

	if pos < 0 {
		panic(fmt.Sprintf("way %d is not in set %d", o.Way, o.Set))
	}

	copy(q[pos:], q[pos+1:])
	q[len(q)-1] = o.Way
}

// LRUOrder returns the ways of a set from least to most recently used.
func (p *LRUPolicy) LRUOrder(set int) []int {
	out := make([]int, p.numWays)
	copy(out, p.lruQueue[set])

	return out
}

// ReportHeartbeat prints the running hit and miss counts.
func (p *LRUPolicy) ReportHeartbeat(w io.Writer) {
	fmt.Fprintf(w, "LRU heartbeat: hit %d miss %d\n", p.hits, p.misses)
}

// ReportStats prints the final hit and miss counts.
func (p *LRUPolicy) ReportStats(w io.Writer) {
	fmt.Fprintf(w, "LRU hits: %d\nLRU misses: %d\n", p.hits, p.misses)
}
