package rrip

import (
	"io"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/rripsim/mem/cache/replacement"
)

var _ = Describe("Engine invariants", func() {
	It("should panic when no line can become distant", func() {
		logger := logrus.New()
		logger.SetOutput(io.Discard)

		c := SRRIPConfig()
		c.NumSets = 2
		c.NumWays = 2
		e := MakeBuilder().WithConfig(c).WithLogger(logger).Build()

		e.rrpv[0] = 9
		e.rrpv[1] = 9

		Expect(func() {
			e.SelectVictim(replacement.VictimReq{Set: 0})
		}).To(Panic())
	})
})
