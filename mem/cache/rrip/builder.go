package rrip

import (
	"github.com/sirupsen/logrus"
)

// Builder can build replacement engines.
type Builder struct {
	config Config
	logger logrus.FieldLogger
}

// MakeBuilder creates a builder starting from the DRRIP preset.
func MakeBuilder() Builder {
	return Builder{
		config: DRRIPConfig(),
		logger: logrus.StandardLogger(),
	}
}

// WithConfig replaces the whole configuration.
func (b Builder) WithConfig(config Config) Builder {
	b.config = config
	return b
}

// WithNumSets sets the number of sets of the cache.
func (b Builder) WithNumSets(numSets int) Builder {
	b.config.NumSets = numSets
	return b
}

// WithNumWays sets the associativity of the cache.
func (b Builder) WithNumWays(numWays int) Builder {
	b.config.NumWays = numWays
	return b
}

// WithLeaderSetSize sets the number of leader sets per policy.
func (b Builder) WithLeaderSetSize(k int) Builder {
	b.config.LeaderSetSize = k
	return b
}

// WithSeed sets the seed of the leader-set draw.
func (b Builder) WithSeed(seed uint32) Builder {
	b.config.Seed = seed
	return b
}

// WithLogger sets the logger used for the initialization message.
func (b Builder) WithLogger(logger logrus.FieldLogger) Builder {
	b.logger = logger
	return b
}

// Build creates the engine. It panics if the configuration is invalid.
func (b Builder) Build() *Engine {
	err := b.config.Validate()
	if err != nil {
		panic(err)
	}

	c := b.config
	e := &Engine{
		config: c,
		rrpv:   make([]uint8, c.NumSets*c.NumWays),
	}

	for i := range e.rrpv {
		e.rrpv[i] = uint8(c.RRPVMax)
	}

	b.initDueling(e)
	b.initBimodal(e)

	e.stats.PSELLow = e.psel.Value()
	e.stats.PSELHigh = e.psel.Value()

	if b.logger != nil {
		b.logger.WithFields(logrus.Fields{
			"sets":    c.NumSets,
			"ways":    c.NumWays,
			"rrpvMax": c.RRPVMax,
			"leaders": c.LeaderSetSize,
			"seed":    c.Seed,
		}).Infof("Initialize %s replacement state", e.Name())
	}

	return e
}

func (b Builder) initDueling(e *Engine) {
	c := b.config

	leaderSetSize := 0
	if c.Mode == ModeDRRIP {
		leaderSetSize = c.LeaderSetSize
	}

	e.sampler = NewSampler(c.NumSets, leaderSetSize, c.Seed)
	e.psel = NewPSEL(c.PSELMax)
}

func (b Builder) initBimodal(e *Engine) {
	c := b.config

	if c.Mode == ModeSRRIP {
		return
	}

	switch c.Insertion {
	case DutyCycle:
		e.bimodal = newDutyCycleSelector(c.MaxBIP)
	case Epsilon:
		e.bimodal = newEpsilonSelector(c.Epsilon, c.InsertionSeed)
	}
}
