// Package tagging keeps the tag state of a set-associative cache.
package tagging

import (
	"github.com/sarchlab/rripsim/mem/cache/replacement"
)

// A TagArray records which block occupies every way of a cache.
type TagArray interface {
	Lookup(addr uint64) (Block, bool)
	Update(block Block)
	GetSet(addr uint64) (set *Set, setID int)
	Lines(setID int) []replacement.Line
	Reset()
	TotalSize() uint64
}

// NewTagArray creates a tag array with every block invalid.
func NewTagArray(
	numSets int,
	numWays int,
	log2BlockSize uint64,
) TagArray {
	t := &tagArrayImpl{
		NumSets:       numSets,
		NumWays:       numWays,
		Log2BlockSize: log2BlockSize,
		lines:         make([]replacement.Line, numWays),
	}

	t.Reset()

	return t
}

// A Block of a cache is the information that is associated with a cache line
type Block struct {
	Tag     uint64
	Address uint64
	SetID   int
	WayID   int
	IsValid bool
	IsDirty bool
}

// A Set is a list of blocks where a certain piece memory can be stored at.
type Set struct {
	Blocks []Block
}

type tagArrayImpl struct {
	NumSets       int
	NumWays       int
	Log2BlockSize uint64
	Sets          []Set

	lines []replacement.Line
}

// TotalSize returns the maximum number of bytes can be stored in the cache
func (d *tagArrayImpl) TotalSize() uint64 {
	return uint64(d.NumSets) * uint64(d.NumWays) << d.Log2BlockSize
}

// Get the set that a certain address should store at
func (d *tagArrayImpl) GetSet(addr uint64) (set *Set, setID int) {
	setID = int((addr >> d.Log2BlockSize) % uint64(d.NumSets))
	set = &d.Sets[setID]

	return
}

// Lookup finds the block that holds addr.
func (d *tagArrayImpl) Lookup(addr uint64) (Block, bool) {
	set, _ := d.GetSet(addr)
	tag := addr >> d.Log2BlockSize

	for _, block := range set.Blocks {
		if block.IsValid && block.Tag == tag {
			return block, true
		}
	}

	return Block{}, false
}

// Update updates the block information
func (d *tagArrayImpl) Update(block Block) {
	d.Sets[block.SetID].Blocks[block.WayID] = block
}

// Lines describes the ways of a set to a replacement policy. The returned
// slice is reused by the next call.
func (d *tagArrayImpl) Lines(setID int) []replacement.Line {
	for i, block := range d.Sets[setID].Blocks {
		d.lines[i] = replacement.Line{
			Valid:   block.IsValid,
			Dirty:   block.IsDirty,
			Tag:     block.Tag,
			Address: block.Address,
		}
	}

	return d.lines
}

// Reset will mark all the blocks in the directory invalid
func (d *tagArrayImpl) Reset() {
	d.Sets = make([]Set, d.NumSets)
	for i := 0; i < d.NumSets; i++ {
		d.Sets[i].Blocks = make([]Block, d.NumWays)
		for j := 0; j < d.NumWays; j++ {
			d.Sets[i].Blocks[j] = Block{
				SetID: i,
				WayID: j,
			}
		}
	}
}
