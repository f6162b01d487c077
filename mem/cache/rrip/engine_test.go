package rrip_test

import (
	"bytes"
	"io"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/rripsim/mem/cache/replacement"
	"github.com/sarchlab/rripsim/mem/cache/rrip"
	"github.com/sarchlab/rripsim/sim/hooking"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)

	return l
}

func build(c rrip.Config) *rrip.Engine {
	return rrip.MakeBuilder().
		WithConfig(c).
		WithLogger(quietLogger()).
		Build()
}

func miss(e *rrip.Engine, set, way int) {
	e.RecordOutcome(replacement.Outcome{
		Set:  set,
		Way:  way,
		Type: replacement.Load,
	})
}

func hit(e *rrip.Engine, set, way int) {
	e.RecordOutcome(replacement.Outcome{
		Set:  set,
		Way:  way,
		Type: replacement.Load,
		Hit:  true,
	})
}

func writeback(e *rrip.Engine, set, way int) {
	e.RecordOutcome(replacement.Outcome{
		Set:  set,
		Way:  way,
		Type: replacement.Writeback,
	})
}

func firstSetWithRole(e *rrip.Engine, numSets int, role rrip.Role) int {
	for set := 0; set < numSets; set++ {
		if e.Role(set) == role {
			return set
		}
	}

	Fail("no set with role " + role.String())

	return -1
}

var _ = Describe("Engine", func() {
	Context("when initialized", func() {
		It("should mark every line as immediately evictable", func() {
			c := rrip.DRRIPConfig()
			c.NumSets = 64
			c.LeaderSetSize = 4
			e := build(c)

			for set := 0; set < 64; set++ {
				for way := 0; way < 16; way++ {
					Expect(e.RRPV(set, way)).To(Equal(uint8(3)))
				}
			}

			Expect(e.PSEL()).To(Equal(511))
		})

		It("should not create leaders outside DRRIP", func() {
			e := build(rrip.SRRIPConfig())

			bip, srrip := e.LeaderSets()
			Expect(bip).To(BeEmpty())
			Expect(srrip).To(BeEmpty())
			Expect(e.Role(0)).To(Equal(rrip.RoleFollower))
		})

		It("should panic on an invalid configuration", func() {
			c := rrip.DRRIPConfig()
			c.RRPVMax = 9

			Expect(func() { build(c) }).To(Panic())
		})
	})

	Context("when selecting a victim", func() {
		var e *rrip.Engine

		BeforeEach(func() {
			c := rrip.SRRIPConfig()
			c.NumSets = 4
			c.NumWays = 8
			e = build(c)
		})

		It("should return the lowest distant way without aging", func() {
			for way := 0; way < 8; way++ {
				e.SetRRPV(1, way, 1)
			}
			e.SetRRPV(1, 2, 3)
			e.SetRRPV(1, 5, 3)

			way := e.SelectVictim(replacement.VictimReq{Set: 1})

			Expect(way).To(Equal(2))
			for w := 0; w < 8; w++ {
				expected := uint8(1)
				if w == 2 || w == 5 {
					expected = 3
				}
				Expect(e.RRPV(1, w)).To(Equal(expected))
			}
		})

		It("should age the set until a line becomes distant", func() {
			for way := 0; way < 8; way++ {
				e.SetRRPV(2, way, 2)
			}

			way := e.SelectVictim(replacement.VictimReq{Set: 2})

			Expect(way).To(Equal(0))
			for w := 0; w < 8; w++ {
				Expect(e.RRPV(2, w)).To(Equal(uint8(3)))
			}
			Expect(e.Stats().AgingRounds).To(Equal(uint64(1)))
		})

		It("should terminate within RRPVMax rounds", func() {
			for way := 0; way < 8; way++ {
				e.SetRRPV(3, way, 1)
			}
			e.SetRRPV(3, 6, 0)

			way := e.SelectVictim(replacement.VictimReq{Set: 3})

			Expect(way).To(Equal(0))
			Expect(e.RRPV(3, 6)).To(Equal(uint8(2)))
			Expect(e.Stats().AgingRounds).To(Equal(uint64(2)))
		})

		It("should leave other sets untouched", func() {
			for way := 0; way < 8; way++ {
				e.SetRRPV(0, way, 0)
				e.SetRRPV(1, way, 0)
			}

			e.SelectVictim(replacement.VictimReq{Set: 0})

			for way := 0; way < 8; way++ {
				Expect(e.RRPV(1, way)).To(Equal(uint8(0)))
			}
		})
	})

	Context("when recording outcomes", func() {
		var (
			e      *rrip.Engine
			bip    int
			srrip  int
			follow int
		)

		BeforeEach(func() {
			c := rrip.DRRIPConfig()
			c.NumSets = 64
			c.LeaderSetSize = 4
			e = build(c)

			bip = firstSetWithRole(e, 64, rrip.RoleBIPLeader)
			srrip = firstSetWithRole(e, 64, rrip.RoleSRRIPLeader)
			follow = firstSetWithRole(e, 64, rrip.RoleFollower)
		})

		It("should tell hooks which rule followers apply", func() {
			var favored []rrip.Mode
			record := hooking.HookFunc(func(ctx hooking.HookCtx) {
				if ctx.Pos == rrip.HookPosOutcome {
					favored = append(favored,
						ctx.Item.(rrip.OutcomeEvent).Favored)
				}
			})
			e.AcceptHook(&record)

			e.SetPSEL(512)
			writeback(e, follow, 0)
			Expect(e.Favored()).To(Equal(rrip.ModeBRRIP))

			miss(e, bip, 0)
			Expect(e.PSEL()).To(Equal(511))
			Expect(e.Favored()).To(Equal(rrip.ModeSRRIP))

			Expect(favored).To(Equal([]rrip.Mode{
				rrip.ModeBRRIP, rrip.ModeSRRIP,
			}))
		})

		It("should protect a line on hit", func() {
			hit(e, 10, 3)

			Expect(e.RRPV(10, 3)).To(Equal(uint8(0)))
		})

		It("should give writebacks a fixed priority", func() {
			for _, set := range []int{bip, srrip, follow} {
				for _, psel := range []int{0, 511, 1023} {
					e.SetPSEL(psel)

					writeback(e, set, 4)

					Expect(e.RRPV(set, 4)).To(Equal(uint8(2)))
					Expect(e.PSEL()).To(Equal(psel))
				}
			}
		})

		It("should move PSEL toward SRRIP on BIP leader misses", func() {
			miss(e, bip, 0)

			Expect(e.PSEL()).To(Equal(510))
			Expect(e.RRPV(bip, 0)).To(Equal(uint8(3)))
		})

		It("should move PSEL toward BRRIP on SRRIP leader misses", func() {
			miss(e, srrip, 0)

			Expect(e.PSEL()).To(Equal(521))
			Expect(e.RRPV(srrip, 0)).To(Equal(uint8(2)))
		})

		It("should not move PSEL on follower misses or hits", func() {
			miss(e, follow, 0)
			hit(e, bip, 1)
			hit(e, srrip, 1)

			Expect(e.PSEL()).To(Equal(511))
		})

		It("should clamp PSEL at zero", func() {
			for i := 0; i < 600; i++ {
				miss(e, bip, i%16)
				Expect(e.PSEL()).To(BeNumerically(">=", 0))
			}

			Expect(e.PSEL()).To(Equal(0))
			Expect(e.Stats().PSELLow).To(Equal(0))
		})

		It("should clamp PSEL at its maximum", func() {
			for i := 0; i < 100; i++ {
				miss(e, srrip, i%16)
			}

			Expect(e.PSEL()).To(Equal(1023))
			Expect(e.Stats().PSELHigh).To(Equal(1023))
		})

		It("should insert followers with the bimodal rule when BRRIP wins", func() {
			e.SetPSEL(e.PSELMidpoint() + 1)

			counts := map[uint8]int{}
			for i := 0; i < 320; i++ {
				miss(e, follow, i%16)
				counts[e.RRPV(follow, i%16)]++
			}

			Expect(counts).To(HaveLen(2))
			Expect(counts[3]).To(Equal(310))
			Expect(counts[2]).To(Equal(10))
			Expect(e.PSEL()).To(Equal(512))
		})

		It("should insert followers with the SRRIP rule otherwise", func() {
			e.SetPSEL(e.PSELMidpoint())

			for i := 0; i < 320; i++ {
				miss(e, follow, i%16)
				Expect(e.RRPV(follow, i%16)).To(Equal(uint8(2)))
			}
		})

		It("should count misses per role", func() {
			miss(e, bip, 0)
			miss(e, srrip, 0)
			miss(e, srrip, 1)
			miss(e, follow, 0)

			s := e.Stats()
			Expect(s.MissesByRole[rrip.RoleBIPLeader]).To(Equal(uint64(1)))
			Expect(s.MissesByRole[rrip.RoleSRRIPLeader]).To(Equal(uint64(2)))
			Expect(s.MissesByRole[rrip.RoleFollower]).To(Equal(uint64(1)))
			Expect(s.Misses).To(Equal(uint64(4)))
		})
	})

	Context("with leader hit rewards", func() {
		var (
			e     *rrip.Engine
			bip   int
			srrip int
		)

		BeforeEach(func() {
			c := rrip.DRRIPAltConfig()
			c.NumSets = 64
			c.LeaderSetSize = 4
			e = build(c)

			bip = firstSetWithRole(e, 64, rrip.RoleBIPLeader)
			srrip = firstSetWithRole(e, 64, rrip.RoleSRRIPLeader)
		})

		It("should start at the 7-bit midpoint", func() {
			Expect(e.PSEL()).To(Equal(63))
			Expect(e.RRPV(0, 0)).To(Equal(uint8(7)))
		})

		It("should reward the leader that hits", func() {
			hit(e, bip, 0)
			Expect(e.PSEL()).To(Equal(64))

			hit(e, srrip, 0)
			hit(e, srrip, 1)
			Expect(e.PSEL()).To(Equal(62))
		})

		It("should insert SRRIP leader misses at RRPVMax-2", func() {
			miss(e, srrip, 0)

			Expect(e.RRPV(srrip, 0)).To(Equal(uint8(5)))
			Expect(e.PSEL()).To(Equal(64))
		})

		It("should insert BIP leader misses at RRPVMax-1 or RRPVMax-2", func() {
			for i := 0; i < 200; i++ {
				miss(e, bip, i%16)
				Expect(e.RRPV(bip, i%16)).To(BeElementOf(uint8(6), uint8(5)))
			}

			Expect(e.PSEL()).To(Equal(0))
		})
	})

	Context("with phase decay", func() {
		var (
			e      *rrip.Engine
			follow int
		)

		BeforeEach(func() {
			c := rrip.DRRIPConfig()
			c.NumSets = 64
			c.LeaderSetSize = 4
			c.PhaseLength = 4
			e = build(c)

			follow = firstSetWithRole(e, 64, rrip.RoleFollower)
		})

		It("should shrink the distance to the midpoint", func() {
			e.SetPSEL(611)

			for i := 0; i < 3; i++ {
				writeback(e, follow, i)
			}
			Expect(e.PSEL()).To(Equal(611))

			writeback(e, follow, 3)
			Expect(e.PSEL()).To(Equal(586))
			Expect(e.Stats().Decays).To(Equal(uint64(1)))
		})

		It("should not flip the favored policy", func() {
			e.SetPSEL(512)

			for i := 0; i < 40; i++ {
				writeback(e, follow, i%16)
			}

			Expect(e.PSEL()).To(Equal(512))
			Expect(e.Stats().Decays).To(Equal(uint64(10)))
		})
	})

	Context("in BRRIP mode", func() {
		It("should mostly insert at RRPVMax-1", func() {
			c := rrip.BRRIPConfig()
			c.NumSets = 8
			e := build(c)

			counts := map[uint8]int{}
			for i := 0; i < 10000; i++ {
				miss(e, i%8, i%16)
				counts[e.RRPV(i%8, i%16)]++
			}

			Expect(counts).To(HaveLen(2))
			Expect(counts[1]).To(BeNumerically("~", 1000, 200))
			Expect(counts[2]).To(BeNumerically("~", 9000, 200))
		})
	})

	Context("in SRRIP mode", func() {
		It("should always insert at RRPVMax-1", func() {
			c := rrip.SRRIPConfig()
			c.NumSets = 8
			e := build(c)

			for i := 0; i < 100; i++ {
				miss(e, i%8, i%16)
				Expect(e.RRPV(i%8, i%16)).To(Equal(uint8(2)))
			}
		})
	})

	It("should keep every RRPV in bounds under a random workload", func() {
		c := rrip.DRRIPConfig()
		c.NumSets = 32
		c.NumWays = 4
		c.LeaderSetSize = 2
		c.PhaseLength = 50
		e := build(c)

		rng := rand.New(rand.NewSource(1))
		for i := 0; i < 5000; i++ {
			set := rng.Intn(32)

			switch rng.Intn(3) {
			case 0:
				hit(e, set, rng.Intn(4))
			case 1:
				way := e.SelectVictim(replacement.VictimReq{Set: set})
				Expect(way).To(BeNumerically("<", 4))
				miss(e, set, way)
			default:
				writeback(e, set, rng.Intn(4))
			}

			Expect(e.PSEL()).To(BeNumerically(">=", 0))
			Expect(e.PSEL()).To(BeNumerically("<=", 1023))
		}

		for set := 0; set < 32; set++ {
			for way := 0; way < 4; way++ {
				Expect(e.RRPV(set, way)).To(BeNumerically("<=", 3))
			}
		}
	})

	It("should run the four-set scenario", func() {
		c := rrip.DRRIPConfig()
		c.NumSets = 4
		c.NumWays = 4
		c.LeaderSetSize = 1
		c.Seed = 9
		e := build(c)

		Expect(e.Role(0)).To(Equal(rrip.RoleBIPLeader))
		Expect(e.Role(1)).To(Equal(rrip.RoleSRRIPLeader))
		Expect(e.Role(2)).To(Equal(rrip.RoleFollower))
		Expect(e.Role(3)).To(Equal(rrip.RoleFollower))

		initial := e.PSEL()

		miss(e, 0, 0)
		Expect(e.RRPV(0, 0)).To(BeElementOf(uint8(3), uint8(2)))
		Expect(e.PSEL()).To(Equal(initial - c.BIPMissStep))

		miss(e, 1, 0)
		Expect(e.RRPV(1, 0)).To(Equal(uint8(2)))

		hit(e, 2, 1)
		Expect(e.RRPV(2, 1)).To(Equal(uint8(0)))

		Expect(e.PSEL()).To(Equal(initial + c.SRRIPMissStep - c.BIPMissStep))
	})

	It("should invoke hooks", func() {
		c := rrip.SRRIPConfig()
		c.NumSets = 4
		e := build(c)
		counter := hooking.NewPosCounter()
		e.AcceptHook(counter)

		way := e.SelectVictim(replacement.VictimReq{Set: 0})
		miss(e, 0, way)
		hit(e, 0, way)

		Expect(counter.Count(rrip.HookPosVictim)).To(Equal(uint64(1)))
		Expect(counter.Count(rrip.HookPosOutcome)).To(Equal(uint64(2)))
		Expect(counter.Count(rrip.HookPosDecay)).To(BeZero())
	})

	It("should report statistics", func() {
		c := rrip.DRRIPConfig()
		c.NumSets = 64
		c.LeaderSetSize = 4
		e := build(c)
		miss(e, 0, 0)
		hit(e, 0, 0)

		buf := new(bytes.Buffer)
		e.ReportHeartbeat(buf)
		e.ReportStats(buf)

		Expect(buf.String()).To(ContainSubstring("DRRIP heartbeat"))
		Expect(buf.String()).To(ContainSubstring("hits: 1 misses: 1"))
		Expect(buf.String()).To(ContainSubstring("psel:"))
	})
})
