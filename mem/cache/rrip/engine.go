// Package rrip implements re-reference interval prediction replacement for
// set-associative caches: SRRIP, BRRIP and DRRIP, where DRRIP duels the two
// with leader sets and a saturating policy selector.
package rrip

import (
	"fmt"

	"github.com/sarchlab/rripsim/mem/cache/replacement"
	"github.com/sarchlab/rripsim/sim/hooking"
)

// An Engine owns the RRPV of every line of a cache and, in DRRIP mode, the
// leader-set partition and the PSEL counter. It is not safe for concurrent
// use; the host calls it sequentially.
type Engine struct {
	hooking.HookableBase

	config  Config
	rrpv    []uint8
	sampler *Sampler
	psel    PSEL
	bimodal InsertionSelector

	accessCount uint64
	stats       Stats
}

var _ replacement.Policy = (*Engine)(nil)

// Name returns the name of the configuration.
func (e *Engine) Name() string {
	if e.config.Name != "" {
		return e.config.Name
	}

	return e.config.Mode.String()
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() Config {
	return e.config
}

func (e *Engine) setRRPVs(set int) []uint8 {
	start := set * e.config.NumWays
	return e.rrpv[start : start+e.config.NumWays]
}

// RRPV returns the prediction value of a line.
func (e *Engine) RRPV(set, way int) uint8 {
	return e.rrpv[set*e.config.NumWays+way]
}

// SetRRPV overrides the prediction value of a line, clamped to RRPVMax.
func (e *Engine) SetRRPV(set, way int, v uint8) {
	e.rrpv[set*e.config.NumWays+way] = min(v, uint8(e.config.RRPVMax))
}

// PSEL returns the current policy selector value.
func (e *Engine) PSEL() int {
	return e.psel.Value()
}

// PSELMidpoint returns the value at or below which followers use SRRIP.
func (e *Engine) PSELMidpoint() int {
	return e.psel.Midpoint()
}

// SetPSEL forces the policy selector, clamped to its bounds.
func (e *Engine) SetPSEL(v int) {
	e.psel.Set(v)
	e.trackPSEL()
}

// Favored returns the rule that follower sets currently apply on a miss,
// ModeSRRIP or ModeBRRIP.
func (e *Engine) Favored() Mode {
	if e.followersUseBRRIP() {
		return ModeBRRIP
	}

	return ModeSRRIP
}

// Role classifies a set as a BIP leader, an SRRIP leader or a follower.
func (e *Engine) Role(set int) Role {
	return e.sampler.Role(set)
}

// LeaderSets returns both leader collections in draw order.
func (e *Engine) LeaderSets() (bip, srrip []int) {
	return e.sampler.BIPLeaders(), e.sampler.SRRIPLeaders()
}

// Stats returns a copy of the counters.
func (e *Engine) Stats() Stats {
	return e.stats
}

// SelectVictim returns the lowest way of the set whose RRPV is RRPVMax,
// aging the whole set until one exists.
func (e *Engine) SelectVictim(req replacement.VictimReq) int {
	rrpvs := e.setRRPVs(req.Set)
	distant := uint8(e.config.RRPVMax)

	for round := 0; ; round++ {
		for way, v := range rrpvs {
			if v == distant {
				e.stats.Victims++
				e.invokeVictimHook(req.Set, way, round)

				return way
			}
		}

		if round == e.config.RRPVMax {
			panic(fmt.Sprintf(
				"rrip: set %d has no way at RRPV %d after %d aging rounds",
				req.Set, distant, round))
		}

		for way := range rrpvs {
			rrpvs[way]++
		}

		e.stats.AgingRounds++
	}
}

// RecordOutcome updates the line that was hit or filled and, for leader
// sets, the policy selector. Every outcome advances the decay phase clock,
// writebacks included, so a writeback that closes a phase decays PSEL even
// though the writeback itself never moves it.
func (e *Engine) RecordOutcome(o replacement.Outcome) {
	e.accessCount++
	e.stats.Accesses++
	e.maybeDecay()

	idx := o.Set*e.config.NumWays + o.Way
	role := e.sampler.Role(o.Set)

	switch {
	case o.Type == replacement.Writeback:
		e.stats.Writebacks++
		e.rrpv[idx] = uint8(e.config.RRPVMax - 1)
	case o.Hit:
		e.stats.Hits++
		e.rrpv[idx] = 0
		e.rewardHit(role)
	default:
		e.stats.Misses++
		e.stats.MissesByRole[role]++
		e.rrpv[idx] = e.insertOnMiss(role)
	}

	e.trackPSEL()
	e.invokeOutcomeHook(o, role, e.rrpv[idx])
}

func (e *Engine) rewardHit(role Role) {
	if !e.config.RewardLeaderHits {
		return
	}

	switch role {
	case RoleBIPLeader:
		e.psel.Inc(e.config.HitRewardStep)
	case RoleSRRIPLeader:
		e.psel.Dec(e.config.HitRewardStep)
	}
}

func (e *Engine) insertOnMiss(role Role) uint8 {
	switch role {
	case RoleBIPLeader:
		e.psel.Dec(e.config.BIPMissStep)
		return e.bimodalInsert()
	case RoleSRRIPLeader:
		e.psel.Inc(e.config.SRRIPMissStep)
		return uint8(e.config.SRRIPInsert)
	}

	if e.followersUseBRRIP() {
		return e.bimodalInsert()
	}

	return uint8(e.config.SRRIPInsert)
}

func (e *Engine) followersUseBRRIP() bool {
	switch e.config.Mode {
	case ModeSRRIP:
		return false
	case ModeBRRIP:
		return true
	default:
		return e.psel.FavorsBRRIP()
	}
}

func (e *Engine) bimodalInsert() uint8 {
	e.stats.BimodalInsertions++

	if e.bimodal.Rare() {
		e.stats.RareInsertions++
		return uint8(e.config.BimodalRare)
	}

	return uint8(e.config.BimodalCommon)
}

func (e *Engine) maybeDecay() {
	if e.config.Mode != ModeDRRIP || e.config.PhaseLength == 0 {
		return
	}

	if e.accessCount%e.config.PhaseLength != 0 {
		return
	}

	before := e.psel.Value()
	e.psel.Decay(e.config.DecayShift)
	e.stats.Decays++

	e.invokeDecayHook(before)
}

func (e *Engine) trackPSEL() {
	v := e.psel.Value()
	e.stats.PSELLow = min(e.stats.PSELLow, v)
	e.stats.PSELHigh = max(e.stats.PSELHigh, v)
}
