package cmd

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sarchlab/rripsim/datarecording"
)

func newSummaryCmd() *cobra.Command {
	var pselLimit, pselOffset int

	summaryCmd := &cobra.Command{
		Use:   "summary [flags] database",
		Short: "Print the runs stored in a recorded database.",
		Long: "`summary rripsim_xxx.sqlite3` prints one line per recorded " +
			"trace run. With --psel, it also prints the PSEL samples of " +
			"every DRRIP cache.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if pselLimit < 0 || pselOffset < 0 {
				return fmt.Errorf("--psel and --psel-offset must not be negative")
			}

			reader, err := datarecording.NewReader(args[0])
			if err != nil {
				return err
			}
			defer reader.Close()

			return printRecordedRuns(cmd.Context(), cmd.OutOrStdout(),
				reader, pselLimit, pselOffset)
		},
	}

	summaryCmd.Flags().IntVar(&pselLimit, "psel", 0,
		"PSEL samples to print per cache, 0 to skip them.")
	summaryCmd.Flags().IntVar(&pselOffset, "psel-offset", 0,
		"PSEL samples to skip per cache.")

	return summaryCmd
}

func printRecordedRuns(
	ctx context.Context,
	w io.Writer,
	reader datarecording.DataReader,
	pselLimit, pselOffset int,
) error {
	tables, err := reader.Tables(ctx)
	if err != nil {
		return err
	}

	if !slices.Contains(tables, datarecording.RunSummaryTable) {
		return fmt.Errorf("no %s table in the database",
			datarecording.RunSummaryTable)
	}

	summaries, err := datarecording.ReadRunSummaries(ctx, reader)
	if err != nil {
		return err
	}

	title := color.New(color.FgGreen, color.Bold)
	title.Fprintln(w, "Recorded runs")

	for _, s := range summaries {
		fmt.Fprintf(w, "%s %s %dx%d accesses: %d misses: %d "+
			"miss rate: %.4f",
			s.Trace, s.Policy, s.Sets, s.Ways, s.Accesses, s.Misses,
			s.MissRate)

		if s.FinalPSEL >= 0 {
			fmt.Fprintf(w, " final psel: %d", s.FinalPSEL)
		}

		fmt.Fprintln(w)
	}

	if pselLimit == 0 ||
		!slices.Contains(tables, datarecording.PSELSampleTable) {
		return nil
	}

	for _, cache := range recordedCaches(summaries) {
		samples, total, err := datarecording.ReadPSELSamples(
			ctx, reader, cache, pselLimit, pselOffset)
		if err != nil {
			return err
		}

		if total == 0 {
			continue
		}

		title.Fprintf(w, "PSEL samples of %s", cache)
		fmt.Fprintf(w, " (%d of %d)\n", len(samples), total)

		for _, p := range samples {
			fmt.Fprintf(w, "access %d psel %d favored %s set %d %s\n",
				p.Access, p.PSEL, p.Favored, p.Set, p.Role)
		}
	}

	return nil
}

// recordedCaches lists the cache names of the runs in first-seen order.
func recordedCaches(summaries []datarecording.RunSummary) []string {
	var caches []string

	for _, s := range summaries {
		if s.Cache != "" && !slices.Contains(caches, s.Cache) {
			caches = append(caches, s.Cache)
		}
	}

	return caches
}
