package rrip

import (
	"fmt"
	"io"
)

// Stats counts what the engine has seen.
type Stats struct {
	Accesses   uint64
	Hits       uint64
	Misses     uint64
	Writebacks uint64

	MissesByRole [3]uint64

	Victims           uint64
	AgingRounds       uint64
	BimodalInsertions uint64
	RareInsertions    uint64
	Decays            uint64

	PSELLow  int
	PSELHigh int
}

func (e *Engine) favoredPolicy() string {
	if e.followersUseBRRIP() {
		return "BRRIP"
	}

	return "SRRIP"
}

// ReportHeartbeat writes a one-line status.
func (e *Engine) ReportHeartbeat(w io.Writer) {
	s := e.stats

	fmt.Fprintf(w,
		"%s heartbeat: access %d hit %d miss %d writeback %d "+
			"psel %d/%d followers %s\n",
		e.Name(), s.Accesses, s.Hits, s.Misses, s.Writebacks,
		e.psel.Value(), e.psel.Max(), e.favoredPolicy())
}

// ReportStats writes the end-of-run report.
func (e *Engine) ReportStats(w io.Writer) {
	s := e.stats

	fmt.Fprintf(w, "%s replacement statistics\n", e.Name())
	fmt.Fprintf(w, "  accesses: %d hits: %d misses: %d writebacks: %d\n",
		s.Accesses, s.Hits, s.Misses, s.Writebacks)
	fmt.Fprintf(w, "  victims: %d aging rounds: %d\n",
		s.Victims, s.AgingRounds)

	if e.config.Mode != ModeSRRIP {
		fmt.Fprintf(w, "  bimodal insertions: %d rare: %d\n",
			s.BimodalInsertions, s.RareInsertions)
	}

	if e.config.Mode != ModeDRRIP {
		return
	}

	fmt.Fprintf(w, "  misses bip-leader: %d srrip-leader: %d follower: %d\n",
		s.MissesByRole[RoleBIPLeader],
		s.MissesByRole[RoleSRRIPLeader],
		s.MissesByRole[RoleFollower])
	fmt.Fprintf(w, "  psel: %d/%d range [%d, %d] decays: %d followers: %s\n",
		e.psel.Value(), e.psel.Max(), s.PSELLow, s.PSELHigh,
		s.Decays, e.favoredPolicy())
}
