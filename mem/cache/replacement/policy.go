// Package replacement defines the contract between a set-associative cache
// model and the policy that decides which way to evict.
package replacement

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// AccessType classifies the access that reaches the cache.
type AccessType int

// The access types a host can report. Writeback is a fill from an upper
// level rather than a demand access.
const (
	Load AccessType = iota
	RFO
	Prefetch
	Writeback
	Translation
)

// ErrUnknownAccessType is returned when an access type cannot be parsed.
var ErrUnknownAccessType = errors.New("unknown access type")

func (t AccessType) String() string {
	switch t {
	case Load:
		return "LOAD"
	case RFO:
		return "RFO"
	case Prefetch:
		return "PREFETCH"
	case Writeback:
		return "WRITEBACK"
	case Translation:
		return "TRANSLATION"
	default:
		return fmt.Sprintf("AccessType(%d)", int(t))
	}
}

// ParseAccessType converts a name or a one-letter trace code into an
// AccessType.
func ParseAccessType(s string) (AccessType, error) {
	switch strings.ToLower(s) {
	case "load", "l", "r":
		return Load, nil
	case "rfo", "store", "s":
		return RFO, nil
	case "prefetch", "p":
		return Prefetch, nil
	case "writeback", "wb", "w":
		return Writeback, nil
	case "translation", "t":
		return Translation, nil
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownAccessType, s)
}

// AllAccessTypes lists the access types in report order.
func AllAccessTypes() []AccessType {
	return []AccessType{Load, RFO, Prefetch, Writeback, Translation}
}

// A Line describes what currently occupies one way of a set.
type Line struct {
	Valid   bool
	Dirty   bool
	Tag     uint64
	Address uint64
}

// VictimReq carries everything the host knows when it needs a victim.
type VictimReq struct {
	CPU   uint32
	Set   int
	Lines []Line
	PC    uint64
	PAddr uint64
	Type  AccessType
}

// Outcome reports a resolved access, either a hit or a fill after a miss.
type Outcome struct {
	CPU        uint32
	Set        int
	Way        int
	PAddr      uint64
	PC         uint64
	VictimAddr uint64
	Type       AccessType
	Hit        bool
}

// Policy is a cache replacement policy driven by the host. The host calls
// SelectVictim once per miss that needs an eviction and RecordOutcome once
// per access after the hit or fill is resolved.
type Policy interface {
	// Name returns a short human-readable policy name.
	Name() string

	// SelectVictim returns the way to evict, in [0, numWays]. The value
	// numWays means bypass.
	SelectVictim(req VictimReq) int

	// RecordOutcome updates the policy state after an access.
	RecordOutcome(o Outcome)

	// ReportHeartbeat writes a short periodic status line.
	ReportHeartbeat(w io.Writer)

	// ReportStats writes the end-of-run report.
	ReportStats(w io.Writer)
}

// IsBypass tells if a victim way is the bypass sentinel.
func IsBypass(way, numWays int) bool {
	return way == numWays
}
