package llc

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/rripsim/mem/cache/internal/tagging"
	"github.com/sarchlab/rripsim/mem/cache/replacement"
	"github.com/sarchlab/rripsim/mem/cache/rrip"
)

// A Builder can build a last-level cache.
type Builder struct {
	numSets          int
	wayAssociativity int
	log2BlockSize    uint64
	numCores         int

	replaceStrategy string
	policy          replacement.Policy
	seed            uint32
	seedSet         bool
	leaderSetSize   int

	heartbeatInterval uint64
	heartbeatOut      io.Writer

	logger logrus.FieldLogger
}

// MakeBuilder creates a builder with default parameter setting
func MakeBuilder() Builder {
	return Builder{
		numSets:          2048,
		wayAssociativity: 16,
		log2BlockSize:    6,
		numCores:         1,
		replaceStrategy:  "drrip",
		heartbeatOut:     os.Stderr,
		logger:           logrus.StandardLogger(),
	}
}

// WithNumSets sets the number of sets.
func (b Builder) WithNumSets(n int) Builder {
	b.numSets = n
	return b
}

// WithWayAssociativity sets the way associativity the builder builds.
func (b Builder) WithWayAssociativity(wayAssociativity int) Builder {
	b.wayAssociativity = wayAssociativity
	return b
}

// WithLog2BlockSize sets the number of bytes in a cache line as a power of 2
func (b Builder) WithLog2BlockSize(n uint64) Builder {
	b.log2BlockSize = n
	return b
}

// WithNumCores sets the number of cores that share the cache.
func (b Builder) WithNumCores(n int) Builder {
	b.numCores = n
	return b
}

// WithReplaceStrategy selects the replacement policy by name. Accepted names
// are "lru" and the RRIP preset names.
func (b Builder) WithReplaceStrategy(name string) Builder {
	b.replaceStrategy = name
	return b
}

// WithPolicy sets a ready-made replacement policy. It takes priority over
// the replace strategy.
func (b Builder) WithPolicy(p replacement.Policy) Builder {
	b.policy = p
	return b
}

// WithSeed overrides the leader-set seed of RRIP presets.
func (b Builder) WithSeed(seed uint32) Builder {
	b.seed = seed
	b.seedSet = true

	return b
}

// WithLeaderSetSize overrides the number of leader sets per policy of RRIP
// presets.
func (b Builder) WithLeaderSetSize(k int) Builder {
	b.leaderSetSize = k
	return b
}

// WithHeartbeat makes the cache report the policy status every n accesses.
// Zero disables the heartbeat.
func (b Builder) WithHeartbeat(n uint64, w io.Writer) Builder {
	b.heartbeatInterval = n
	b.heartbeatOut = w

	return b
}

// WithLogger sets the logger used for build messages.
func (b Builder) WithLogger(logger logrus.FieldLogger) Builder {
	b.logger = logger
	return b
}

// Build returns a new cache.
func (b Builder) Build(name string) *Cache {
	b.mustBeValid()

	c := &Cache{
		name:              name,
		numSets:           b.numSets,
		numWays:           b.wayAssociativity,
		numCores:          b.numCores,
		log2BlockSize:     b.log2BlockSize,
		heartbeatInterval: b.heartbeatInterval,
		heartbeatOut:      b.heartbeatOut,
	}

	c.tags = tagging.NewTagArray(
		b.numSets, b.wayAssociativity, b.log2BlockSize)
	c.policy = b.buildPolicy()

	b.logger.WithFields(logrus.Fields{
		"sets":   b.numSets,
		"ways":   b.wayAssociativity,
		"block":  1 << b.log2BlockSize,
		"policy": c.policy.Name(),
	}).Infof("Build cache %s", name)

	return c
}

func (b Builder) mustBeValid() {
	if b.numSets < 1 {
		panic("llc: number of sets must be positive")
	}

	if b.wayAssociativity < 1 {
		panic("llc: way associativity must be positive")
	}

	if b.numCores < 1 {
		panic("llc: number of cores must be positive")
	}

	if b.heartbeatInterval > 0 && b.heartbeatOut == nil {
		panic("llc: heartbeat requires a writer")
	}
}

func (b Builder) buildPolicy() replacement.Policy {
	if b.policy != nil {
		return b.policy
	}

	if b.replaceStrategy == "lru" {
		return replacement.NewLRUPolicy(b.numSets, b.wayAssociativity)
	}

	config, err := rrip.PresetByName(b.replaceStrategy)
	if err != nil {
		panic(err)
	}

	config.NumSets = b.numSets
	config.NumWays = b.wayAssociativity

	if b.seedSet {
		config.Seed = b.seed
	}

	if b.leaderSetSize > 0 {
		config.LeaderSetSize = b.leaderSetSize
	}

	return rrip.MakeBuilder().
		WithConfig(config).
		WithLogger(b.logger).
		Build()
}
