package rrip

import (
	"github.com/sarchlab/rripsim/mem/cache/replacement"
	"github.com/sarchlab/rripsim/sim/hooking"
)

var (
	// HookPosVictim fires when a victim way is chosen.
	HookPosVictim = &hooking.HookPos{Name: "RRIP Victim"}

	// HookPosOutcome fires after an access outcome is recorded.
	HookPosOutcome = &hooking.HookPos{Name: "RRIP Outcome"}

	// HookPosDecay fires when PSEL decays at the end of a phase.
	HookPosDecay = &hooking.HookPos{Name: "RRIP PSEL Decay"}
)

// VictimEvent is the hook item of HookPosVictim.
type VictimEvent struct {
	Set         int
	Way         int
	AgingRounds int
}

// OutcomeEvent is the hook item of HookPosOutcome.
type OutcomeEvent struct {
	Access uint64
	Set    int
	Way    int
	Type   replacement.AccessType
	Hit    bool
	Role   Role
	RRPV   uint8
	PSEL   int

	// Favored is the rule followers apply after this outcome.
	Favored Mode
}

// DecayEvent is the hook item of HookPosDecay.
type DecayEvent struct {
	Access uint64
	Before int
	After  int
}

func (e *Engine) invokeVictimHook(set, way, rounds int) {
	if e.NumHooks() == 0 {
		return
	}

	e.InvokeHook(hooking.HookCtx{
		Domain: e,
		Pos:    HookPosVictim,
		Item: VictimEvent{
			Set:         set,
			Way:         way,
			AgingRounds: rounds,
		},
	})
}

func (e *Engine) invokeOutcomeHook(
	o replacement.Outcome,
	role Role,
	rrpv uint8,
) {
	if e.NumHooks() == 0 {
		return
	}

	e.InvokeHook(hooking.HookCtx{
		Domain: e,
		Pos:    HookPosOutcome,
		Item: OutcomeEvent{
			Access: e.accessCount,
			Set:    o.Set,
			Way:    o.Way,
			Type:   o.Type,
			Hit:    o.Hit,
			Role:   role,
			RRPV:   rrpv,
			PSEL:   e.psel.Value(),

			Favored: e.Favored(),
		},
	})
}

func (e *Engine) invokeDecayHook(before int) {
	if e.NumHooks() == 0 {
		return
	}

	e.InvokeHook(hooking.HookCtx{
		Domain: e,
		Pos:    HookPosDecay,
		Item: DecayEvent{
			Access: e.accessCount,
			Before: before,
			After:  e.psel.Value(),
		},
	})
}
