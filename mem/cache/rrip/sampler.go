package rrip

import "fmt"

// Role is the part a cache set plays in set dueling.
type Role uint8

// A set is either a leader hardwired to one policy or a follower.
const (
	RoleFollower Role = iota
	RoleBIPLeader
	RoleSRRIPLeader
)

func (r Role) String() string {
	switch r {
	case RoleFollower:
		return "follower"
	case RoleBIPLeader:
		return "bip-leader"
	case RoleSRRIPLeader:
		return "srrip-leader"
	default:
		return fmt.Sprintf("Role(%d)", uint8(r))
	}
}

// A Sampler partitions the sets of a cache into BIP leaders, SRRIP leaders
// and followers. The partition is fixed once the sampler is created.
type Sampler struct {
	roles        []Role
	bipLeaders   []int
	srripLeaders []int
}

// NewSampler draws leaderSetSize BIP leaders and then leaderSetSize SRRIP
// leaders from [0, numSets). Each draw is uniform; an index already
// claimed by either collection is rejected and drawn again.
func NewSampler(numSets, leaderSetSize int, seed uint32) *Sampler {
	if leaderSetSize < 0 || 2*leaderSetSize > numSets {
		panic(fmt.Sprintf(
			"rrip: cannot draw 2x%d leader sets from %d sets",
			leaderSetSize, numSets))
	}

	s := &Sampler{
		roles:        make([]Role, numSets),
		bipLeaders:   make([]int, 0, leaderSetSize),
		srripLeaders: make([]int, 0, leaderSetSize),
	}

	rng := NewMT19937(seed)
	for len(s.bipLeaders) < leaderSetSize ||
		len(s.srripLeaders) < leaderSetSize {
		set := int(rng.Uintn(uint32(numSets)))
		if s.roles[set] != RoleFollower {
			continue
		}

		if len(s.bipLeaders) < leaderSetSize {
			s.roles[set] = RoleBIPLeader
			s.bipLeaders = append(s.bipLeaders, set)

			continue
		}

		s.roles[set] = RoleSRRIPLeader
		s.srripLeaders = append(s.srripLeaders, set)
	}

	return s
}

// NewSamplerWithLeaders creates a sampler with an explicit partition.
func NewSamplerWithLeaders(numSets int, bip, srrip []int) *Sampler {
	s := &Sampler{
		roles:        make([]Role, numSets),
		bipLeaders:   append([]int(nil), bip...),
		srripLeaders: append([]int(nil), srrip...),
	}

	s.claim(bip, RoleBIPLeader)
	s.claim(srrip, RoleSRRIPLeader)

	return s
}

func (s *Sampler) claim(sets []int, role Role) {
	for _, set := range sets {
		if set < 0 || set >= len(s.roles) {
			panic(fmt.Sprintf("rrip: leader set %d out of range", set))
		}

		if s.roles[set] != RoleFollower {
			panic(fmt.Sprintf("rrip: set %d is claimed twice", set))
		}

		s.roles[set] = role
	}
}

// Role classifies a set.
func (s *Sampler) Role(set int) Role {
	return s.roles[set]
}

// NumSets returns the number of sets the sampler covers.
func (s *Sampler) NumSets() int {
	return len(s.roles)
}

// BIPLeaders returns the BIP leader sets in draw order.
func (s *Sampler) BIPLeaders() []int {
	return append([]int(nil), s.bipLeaders...)
}

// SRRIPLeaders returns the SRRIP leader sets in draw order.
func (s *Sampler) SRRIPLeaders() []int {
	return append([]int(nil), s.srripLeaders...)
}
