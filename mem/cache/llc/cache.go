// Package llc provides a trace-driven last-level cache model that drives a
// replacement policy.
package llc

import (
	"fmt"
	"io"

	"github.com/sarchlab/rripsim/mem/cache/internal/tagging"
	"github.com/sarchlab/rripsim/mem/cache/replacement"
)

// An Access is one request that reaches the cache.
type Access struct {
	Type replacement.AccessType
	Addr uint64
	PC   uint64
	CPU  uint32
}

// A Result tells how the cache resolved an access.
type Result struct {
	Hit    bool
	Bypass bool
	Set    int
	Way    int

	Evicted       bool
	DirtyEviction bool
	EvictedAddr   uint64
}

// A Cache is a set-associative cache with no data and no timing. It only
// tracks tags so that a replacement policy can be evaluated on a trace.
type Cache struct {
	name          string
	numSets       int
	numWays       int
	numCores      int
	log2BlockSize uint64

	tags   tagging.TagArray
	policy replacement.Policy
	stats  Statistics

	heartbeatInterval uint64
	heartbeatOut      io.Writer
}

// Name returns the name of the cache.
func (c *Cache) Name() string {
	return c.name
}

// NumSets returns the number of sets.
func (c *Cache) NumSets() int {
	return c.numSets
}

// NumWays returns the way associativity.
func (c *Cache) NumWays() int {
	return c.numWays
}

// Policy returns the replacement policy that the cache drives.
func (c *Cache) Policy() replacement.Policy {
	return c.policy
}

// Stats returns a copy of the access counters.
func (c *Cache) Stats() Statistics {
	return c.stats
}

// Access looks the address up, fills it on a miss and reports the outcome to
// the replacement policy.
func (c *Cache) Access(a Access) Result {
	if int(a.CPU) >= c.numCores {
		panic(fmt.Sprintf("llc: cpu %d out of range, %d cores",
			a.CPU, c.numCores))
	}

	var res Result

	block, hit := c.tags.Lookup(a.Addr)
	if hit {
		res = c.hit(a, block)
	} else {
		res = c.miss(a)
	}

	c.stats.record(a.Type, res.Hit)
	c.heartbeat()

	return res
}

func (c *Cache) hit(a Access, block tagging.Block) Result {
	if a.Type == replacement.Writeback || a.Type == replacement.RFO {
		block.IsDirty = true
		c.tags.Update(block)
	}

	c.policy.RecordOutcome(replacement.Outcome{
		CPU:   a.CPU,
		Set:   block.SetID,
		Way:   block.WayID,
		PAddr: a.Addr,
		PC:    a.PC,
		Type:  a.Type,
		Hit:   true,
	})

	return Result{Hit: true, Set: block.SetID, Way: block.WayID}
}

func (c *Cache) miss(a Access) Result {
	set, setID := c.tags.GetSet(a.Addr)

	way := firstInvalidWay(set)
	if way < 0 {
		way = c.policy.SelectVictim(replacement.VictimReq{
			CPU:   a.CPU,
			Set:   setID,
			Lines: c.tags.Lines(setID),
			PC:    a.PC,
			PAddr: a.Addr,
			Type:  a.Type,
		})
	}

	if replacement.IsBypass(way, c.numWays) {
		c.stats.Bypasses++
		return Result{Bypass: true, Set: setID, Way: way}
	}

	if way < 0 || way >= c.numWays {
		panic(fmt.Sprintf("llc: policy %s returned way %d of %d",
			c.policy.Name(), way, c.numWays))
	}

	res := Result{Set: setID, Way: way}

	victim := set.Blocks[way]
	if victim.IsValid {
		res.Evicted = true
		res.EvictedAddr = victim.Address
		res.DirtyEviction = victim.IsDirty

		c.stats.Evictions++
		if victim.IsDirty {
			c.stats.DirtyEvictions++
		}
	}

	c.tags.Update(tagging.Block{
		Tag:     a.Addr >> c.log2BlockSize,
		Address: a.Addr >> c.log2BlockSize << c.log2BlockSize,
		SetID:   setID,
		WayID:   way,
		IsValid: true,
		IsDirty: a.Type == replacement.Writeback || a.Type == replacement.RFO,
	})

	c.policy.RecordOutcome(replacement.Outcome{
		CPU:        a.CPU,
		Set:        setID,
		Way:        way,
		PAddr:      a.Addr,
		PC:         a.PC,
		VictimAddr: res.EvictedAddr,
		Type:       a.Type,
	})

	return res
}

// firstInvalidWay returns the lowest empty way of the set, or -1 if the set
// is full. Empty ways are filled without asking the policy.
func firstInvalidWay(set *tagging.Set) int {
	for way, b := range set.Blocks {
		if !b.IsValid {
			return way
		}
	}

	return -1
}

func (c *Cache) heartbeat() {
	if c.heartbeatInterval == 0 {
		return
	}

	if c.stats.Total.Access%c.heartbeatInterval == 0 {
		c.policy.ReportHeartbeat(c.heartbeatOut)
	}
}

// Report writes the access counters followed by the policy report.
func (c *Cache) Report(w io.Writer) {
	c.stats.Report(w, "LLC")
	c.policy.ReportStats(w)
}
