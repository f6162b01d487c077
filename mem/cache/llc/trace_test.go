package llc

import (
	"context"
	"io"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rripsim/mem/cache/replacement"
)

var _ = Describe("TraceReader", func() {
	It("should parse accesses", func() {
		r := NewTraceReader(strings.NewReader(`
# a comment
L 0x1000
S 2040 400
W 0xFF 0x10 3
`))

		a, err := r.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(a).To(Equal(Access{Type: replacement.Load, Addr: 0x1000}))

		a, err = r.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(a).To(Equal(Access{
			Type: replacement.RFO,
			Addr: 0x2040,
			PC:   0x400,
		}))

		a, err = r.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(a).To(Equal(Access{
			Type: replacement.Writeback,
			Addr: 0xff,
			PC:   0x10,
			CPU:  3,
		}))

		_, err = r.Next()
		Expect(err).To(Equal(io.EOF))
	})

	DescribeTable("rejecting bad lines",
		func(line string) {
			r := NewTraceReader(strings.NewReader("L 0x0\n" + line + "\n"))

			_, err := r.Next()
			Expect(err).NotTo(HaveOccurred())

			_, err = r.Next()
			Expect(err).To(MatchError(ErrBadTraceLine))
			Expect(err.Error()).To(ContainSubstring("line 2"))
		},
		Entry("single field", "L"),
		Entry("too many fields", "L 0x0 0x0 0 extra"),
		Entry("unknown type", "X 0x0"),
		Entry("bad address", "L 0xzz"),
		Entry("bad pc", "L 0x0 pc"),
		Entry("bad cpu", "L 0x0 0x0 -1"),
	)
})

var _ = Describe("Run", func() {
	var c *Cache

	BeforeEach(func() {
		c = MakeBuilder().
			WithNumSets(16).
			WithWayAssociativity(4).
			WithReplaceStrategy("lru").
			WithLogger(quietLogger()).
			Build("LLC")
	})

	It("should run the whole trace", func() {
		r := NewTraceReader(strings.NewReader("L 0x0\nL 0x0\nL 0x40\n"))

		n, err := Run(context.Background(), c, r, 0)

		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(uint64(3)))
		Expect(c.Stats().Total.Hit).To(Equal(uint64(1)))
	})

	It("should stop at the limit", func() {
		r := NewTraceReader(strings.NewReader("L 0x0\nL 0x0\nL 0x40\n"))

		n, err := Run(context.Background(), c, r, 2)

		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(uint64(2)))
	})

	It("should stop when cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		r := NewTraceReader(strings.NewReader("L 0x0\n"))
		n, err := Run(ctx, c, r, 0)

		Expect(err).To(MatchError(context.Canceled))
		Expect(n).To(BeZero())
	})

	It("should return parse errors", func() {
		r := NewTraceReader(strings.NewReader("L 0x0\nbad\n"))

		n, err := Run(context.Background(), c, r, 0)

		Expect(err).To(MatchError(ErrBadTraceLine))
		Expect(n).To(Equal(uint64(1)))
	})
})
