package rrip

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("PSEL", func() {
	var p PSEL

	BeforeEach(func() {
		p = NewPSEL(1023)
	})

	It("should start at the midpoint", func() {
		Expect(p.Value()).To(Equal(511))
		Expect(p.Midpoint()).To(Equal(511))
		Expect(p.FavorsBRRIP()).To(BeFalse())
	})

	It("should saturate at both bounds", func() {
		for i := 0; i < 200; i++ {
			p.Inc(10)
		}
		Expect(p.Value()).To(Equal(1023))

		for i := 0; i < 2000; i++ {
			p.Dec(1)
		}
		Expect(p.Value()).To(Equal(0))

		p.Dec(5)
		Expect(p.Value()).To(Equal(0))
	})

	It("should favor BRRIP only strictly above the midpoint", func() {
		p.Set(512)
		Expect(p.FavorsBRRIP()).To(BeTrue())

		p.Set(511)
		Expect(p.FavorsBRRIP()).To(BeFalse())
	})

	It("should clamp forced values", func() {
		p.Set(5000)
		Expect(p.Value()).To(Equal(1023))

		p.Set(-3)
		Expect(p.Value()).To(Equal(0))
	})

	DescribeTable("decay toward the midpoint",
		func(start, want int) {
			p.Set(start)
			favored := p.FavorsBRRIP()

			p.Decay(2)

			Expect(p.Value()).To(Equal(want))
			Expect(p.FavorsBRRIP()).To(Equal(favored))
		},
		Entry("far above", 611, 586),
		Entry("far below", 411, 436),
		Entry("one above", 512, 512),
		Entry("one below", 510, 510),
		Entry("at the midpoint", 511, 511),
		Entry("at the top", 1023, 895),
		Entry("at the bottom", 0, 127),
	)
})
