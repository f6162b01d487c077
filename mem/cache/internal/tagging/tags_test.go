package tagging

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Tags", func() {
	var (
		tags *tagArrayImpl
	)

	BeforeEach(func() {
		tags = NewTagArray(1024, 4, 6).(*tagArrayImpl)
	})

	It("should be able to get total size", func() {
		Expect(tags.TotalSize()).To(Equal(uint64(262144)))
	})

	It("should map addresses to sets by block", func() {
		_, setID := tags.GetSet(0x1040)
		Expect(setID).To(Equal(0x41))

		_, setID = tags.GetSet(0x107f)
		Expect(setID).To(Equal(0x41))

		_, setID = tags.GetSet(0x10040)
		Expect(setID).To(Equal(1))
	})

	It("should lookup", func() {
		set, setID := tags.GetSet(0x1040)
		set.Blocks[2] = Block{
			Tag:     0x41,
			Address: 0x1040,
			SetID:   setID,
			WayID:   2,
			IsValid: true,
		}

		block, ok := tags.Lookup(0x1050)
		Expect(ok).To(BeTrue())
		Expect(block.WayID).To(Equal(2))
	})

	It("should return nothing when lookup cannot find block", func() {
		block, ok := tags.Lookup(0x100)
		Expect(ok).To(BeFalse())
		Expect(block).To(BeZero())
	})

	It("should return nothing if block is invalid", func() {
		set, _ := tags.GetSet(0x100)
		set.Blocks[0] = Block{Tag: 0x4}

		block, ok := tags.Lookup(0x100)
		Expect(ok).To(BeFalse())
		Expect(block).To(BeZero())
	})

	It("should not match another block of the same set", func() {
		tags.Update(Block{Tag: 0x41, SetID: 0x41, WayID: 0, IsValid: true})

		_, ok := tags.Lookup(0x10040 + 0x1000)
		Expect(ok).To(BeFalse())
	})

	It("should update", func() {
		block := Block{
			Tag:     0x3,
			SetID:   3,
			WayID:   1,
			IsValid: true,
			IsDirty: true,
		}

		tags.Update(block)

		Expect(tags.Sets[3].Blocks[1]).To(Equal(block))
	})

	It("should describe a set as lines", func() {
		tags.Update(Block{
			Tag:     0x5,
			Address: 0x140,
			SetID:   5,
			WayID:   3,
			IsValid: true,
			IsDirty: true,
		})

		lines := tags.Lines(5)

		Expect(lines).To(HaveLen(4))
		Expect(lines[0].Valid).To(BeFalse())
		Expect(lines[3].Valid).To(BeTrue())
		Expect(lines[3].Dirty).To(BeTrue())
		Expect(lines[3].Tag).To(Equal(uint64(0x5)))
		Expect(lines[3].Address).To(Equal(uint64(0x140)))
	})

	It("should reset", func() {
		tags.Update(Block{Tag: 0x5, SetID: 5, WayID: 3, IsValid: true})

		tags.Reset()

		_, ok := tags.Lookup(0x140)
		Expect(ok).To(BeFalse())
		Expect(tags.Sets[5].Blocks[3].SetID).To(Equal(5))
		Expect(tags.Sets[5].Blocks[3].WayID).To(Equal(3))
	})
})
