package llc

import (
	"context"
	"errors"
	"io"
)

// Run feeds accesses from src into c until the source ends, limit accesses
// have been made or ctx is cancelled. A zero limit means no limit. It
// returns the number of accesses made.
func Run(
	ctx context.Context,
	c *Cache,
	src AccessSource,
	limit uint64,
) (uint64, error) {
	var n uint64

	for limit == 0 || n < limit {
		select {
		case <-ctx.Done():
			return n, ctx.Err()
		default:
		}

		a, err := src.Next()
		if errors.Is(err, io.EOF) {
			return n, nil
		}

		if err != nil {
			return n, err
		}

		c.Access(a)
		n++
	}

	return n, nil
}
