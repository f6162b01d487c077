package llc

import (
	"fmt"
	"io"

	"github.com/sarchlab/rripsim/mem/cache/replacement"
)

// A Counter counts accesses and how they were resolved.
type Counter struct {
	Access uint64
	Hit    uint64
	Miss   uint64
}

// MissRate returns misses over accesses, or zero without accesses.
func (c Counter) MissRate() float64 {
	if c.Access == 0 {
		return 0
	}

	return float64(c.Miss) / float64(c.Access)
}

// Statistics are the access counters of a cache.
type Statistics struct {
	Total  Counter
	ByType [5]Counter

	Evictions      uint64
	DirtyEvictions uint64
	Bypasses       uint64
}

// MissRate returns the overall miss rate.
func (s Statistics) MissRate() float64 {
	return s.Total.MissRate()
}

func (s *Statistics) record(t replacement.AccessType, hit bool) {
	s.Total.Access++
	s.ByType[t].Access++

	if hit {
		s.Total.Hit++
		s.ByType[t].Hit++

		return
	}

	s.Total.Miss++
	s.ByType[t].Miss++
}

// Report writes one line for the total and one line per access type.
func (s Statistics) Report(w io.Writer, prefix string) {
	fmt.Fprintf(w, "%s TOTAL ACCESS: %d HIT: %d MISS: %d\n",
		prefix, s.Total.Access, s.Total.Hit, s.Total.Miss)

	for _, t := range replacement.AllAccessTypes() {
		c := s.ByType[t]
		fmt.Fprintf(w, "%s %s ACCESS: %d HIT: %d MISS: %d\n",
			prefix, t, c.Access, c.Hit, c.Miss)
	}

	fmt.Fprintf(w, "%s EVICTIONS: %d DIRTY: %d BYPASS: %d\n",
		prefix, s.Evictions, s.DirtyEvictions, s.Bypasses)
}
