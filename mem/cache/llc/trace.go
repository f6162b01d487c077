package llc

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sarchlab/rripsim/mem/cache/replacement"
)

// ErrBadTraceLine is wrapped by every trace parsing error.
var ErrBadTraceLine = errors.New("bad trace line")

// An AccessSource produces accesses until it returns io.EOF.
type AccessSource interface {
	Next() (Access, error)
}

// A TraceReader reads a text trace with one access per line:
//
//	<type> <addr-hex> [pc-hex] [cpu]
//
// Blank lines and lines starting with # are skipped.
type TraceReader struct {
	scanner *bufio.Scanner
	line    int
}

// NewTraceReader creates a TraceReader on r.
func NewTraceReader(r io.Reader) *TraceReader {
	return &TraceReader{scanner: bufio.NewScanner(r)}
}

// Next returns the next access, or io.EOF at the end of the trace.
func (r *TraceReader) Next() (Access, error) {
	for r.scanner.Scan() {
		r.line++

		text := strings.TrimSpace(r.scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		a, err := parseAccess(text)
		if err != nil {
			return Access{}, fmt.Errorf("%w: line %d: %v",
				ErrBadTraceLine, r.line, err)
		}

		return a, nil
	}

	if err := r.scanner.Err(); err != nil {
		return Access{}, err
	}

	return Access{}, io.EOF
}

func parseAccess(text string) (Access, error) {
	fields := strings.Fields(text)
	if len(fields) < 2 || len(fields) > 4 {
		return Access{}, fmt.Errorf("expected 2 to 4 fields, got %d",
			len(fields))
	}

	var (
		a   Access
		err error
	)

	a.Type, err = replacement.ParseAccessType(fields[0])
	if err != nil {
		return Access{}, err
	}

	a.Addr, err = parseHex(fields[1])
	if err != nil {
		return Access{}, fmt.Errorf("address: %w", err)
	}

	if len(fields) > 2 {
		a.PC, err = parseHex(fields[2])
		if err != nil {
			return Access{}, fmt.Errorf("pc: %w", err)
		}
	}

	if len(fields) > 3 {
		cpu, err := strconv.ParseUint(fields[3], 10, 32)
		if err != nil {
			return Access{}, fmt.Errorf("cpu: %w", err)
		}

		a.CPU = uint32(cpu)
	}

	return a, nil
}

func parseHex(s string) (uint64, error) {
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	return strconv.ParseUint(s, 16, 64)
}
