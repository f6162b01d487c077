package rrip

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("MT19937", func() {
	It("should match the reference stream for the default seed", func() {
		m := NewMT19937(5489)

		Expect(m.Uint32()).To(Equal(uint32(3499211612)))

		for i := 0; i < 9998; i++ {
			m.Uint32()
		}

		Expect(m.Uint32()).To(Equal(uint32(4123659995)))
	})

	It("should match the reference stream for seed 1", func() {
		m := NewMT19937(1)

		Expect(m.Uint32()).To(Equal(uint32(1791095845)))
		Expect(m.Uint32()).To(Equal(uint32(4282876139)))
		Expect(m.Uint32()).To(Equal(uint32(3093770124)))
	})

	It("should restart the stream when reseeded", func() {
		m := NewMT19937(7)
		first := m.Uint32()
		m.Uint32()

		m.Seed(7)

		Expect(m.Uint32()).To(Equal(first))
	})

	It("should keep bounded draws in range", func() {
		m := NewMT19937(42)

		for i := 0; i < 10000; i++ {
			Expect(m.Uintn(13)).To(BeNumerically("<", 13))
		}
	})

	It("should keep floats in [0, 1)", func() {
		m := NewMT19937(42)

		for i := 0; i < 10000; i++ {
			f := m.Float64()
			Expect(f).To(BeNumerically(">=", 0))
			Expect(f).To(BeNumerically("<", 1))
		}
	})

	It("should panic on an empty range", func() {
		m := NewMT19937(42)

		Expect(func() { m.Uintn(0) }).To(Panic())
	})
})
