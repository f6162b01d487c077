package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sarchlab/rripsim/mem/cache/rrip"
)

func newLeadersCmd() *cobra.Command {
	leadersCmd := &cobra.Command{
		Use:   "leaders",
		Short: "Print the leader sets that a DRRIP cache would use.",
		Long: "`leaders --sets 2048 --k 32 --seed 42` prints the BIP and " +
			"SRRIP leader sets in the order they are drawn.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sets, _ := cmd.Flags().GetInt("sets")
			k, _ := cmd.Flags().GetInt("k")
			seed, _ := cmd.Flags().GetUint32("seed")

			if k < 1 || 2*k > sets {
				return fmt.Errorf("cannot draw 2x%d leader sets from %d sets",
					k, sets)
			}

			sampler := rrip.NewSampler(sets, k, seed)

			w := cmd.OutOrStdout()
			title := color.New(color.Bold)

			title.Fprint(w, "BIP leaders:")
			fmt.Fprintf(w, " %s\n", joinInts(sampler.BIPLeaders()))
			title.Fprint(w, "SRRIP leaders:")
			fmt.Fprintf(w, " %s\n", joinInts(sampler.SRRIPLeaders()))

			return nil
		},
	}

	leadersCmd.Flags().Int("sets", 2048, "Number of sets in the cache.")
	leadersCmd.Flags().Int("k", 32, "Number of leader sets per policy.")
	leadersCmd.Flags().Uint32("seed", 42, "Seed of the leader set draw.")

	return leadersCmd
}

func joinInts(values []int) string {
	s := make([]string, len(values))
	for i, v := range values {
		s[i] = fmt.Sprint(v)
	}

	return strings.Join(s, " ")
}
