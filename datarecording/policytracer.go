package datarecording

import (
	"context"

	"github.com/sarchlab/rripsim/mem/cache/rrip"
	"github.com/sarchlab/rripsim/sim/hooking"
)

// Table names used by the policy tracer.
const (
	PSELSampleTable = "psel_samples"
	PSELDecayTable  = "psel_decays"
)

// PSELSample is a row of the psel_samples table.
type PSELSample struct {
	Cache    string
	Access   uint64
	PSEL     int
	Midpoint int
	Favored  string
	Set      int
	Role     string
}

// PSELDecay is a row of the psel_decays table.
type PSELDecay struct {
	Cache  string
	Access uint64
	Before int
	After  int
}

// PolicyTracer is a hook that samples the policy selector of an RRIP engine
// every few outcomes and records every decay.
type PolicyTracer struct {
	recorder DataRecorder
	cache    string
	interval uint64
	midpoint int

	seen uint64
}

// NewPolicyTracer creates a tracer that records one sample every interval
// outcomes. It creates the tables if the recorder does not have them yet.
func NewPolicyTracer(
	recorder DataRecorder,
	cache string,
	engine *rrip.Engine,
	interval uint64,
) *PolicyTracer {
	if interval == 0 {
		panic("sampling interval must be positive")
	}

	ensureTable(recorder, PSELSampleTable, PSELSample{})
	ensureTable(recorder, PSELDecayTable, PSELDecay{})

	return &PolicyTracer{
		recorder: recorder,
		cache:    cache,
		interval: interval,
		midpoint: engine.PSELMidpoint(),
	}
}

// Func records the events that the engine reports.
func (t *PolicyTracer) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case rrip.HookPosOutcome:
		t.sample(ctx.Item.(rrip.OutcomeEvent))
	case rrip.HookPosDecay:
		t.decay(ctx.Item.(rrip.DecayEvent))
	}
}

func (t *PolicyTracer) sample(e rrip.OutcomeEvent) {
	t.seen++
	if t.seen%t.interval != 0 {
		return
	}

	t.recorder.InsertData(PSELSampleTable, PSELSample{
		Cache:    t.cache,
		Access:   e.Access,
		PSEL:     e.PSEL,
		Midpoint: t.midpoint,
		Favored:  e.Favored.String(),
		Set:      e.Set,
		Role:     e.Role.String(),
	})
}

func (t *PolicyTracer) decay(e rrip.DecayEvent) {
	t.recorder.InsertData(PSELDecayTable, PSELDecay{
		Cache:  t.cache,
		Access: e.Access,
		Before: e.Before,
		After:  e.After,
	})
}

// ReadPSELSamples returns the samples of one cache in access order, skipping
// offset samples and returning at most limit. A limit of zero returns all.
// The total counts every sample of the cache.
func ReadPSELSamples(
	ctx context.Context,
	reader DataReader,
	cache string,
	limit, offset int,
) ([]PSELSample, int, error) {
	reader.MapTable(PSELSampleTable, PSELSample{})

	rows, total, err := reader.Query(ctx, PSELSampleTable, QueryParams{
		Where:   "Cache = ?",
		Args:    []any{cache},
		OrderBy: "Access",
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		return nil, 0, err
	}

	samples := make([]PSELSample, 0, len(rows))
	for _, row := range rows {
		samples = append(samples, *row.(*PSELSample))
	}

	return samples, total, nil
}

func ensureTable(recorder DataRecorder, name string, sample any) {
	for _, t := range recorder.ListTables() {
		if t == name {
			return
		}
	}

	recorder.CreateTable(name, sample)
}
