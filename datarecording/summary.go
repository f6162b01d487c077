package datarecording

import (
	"context"
)

// RunSummaryTable is the table that RecordRunSummary writes to.
const RunSummaryTable = "run_summary"

// RunSummary is the outcome of running one trace through a cache.
type RunSummary struct {
	Simulation string
	Cache      string
	Trace      string
	Policy     string
	Sets       int
	Ways       int
	Accesses   uint64
	Hits       uint64
	Misses     uint64
	MissRate   float64
	FinalPSEL  int
}

// RecordRunSummary appends a summary to the run_summary table.
func RecordRunSummary(recorder DataRecorder, s RunSummary) {
	ensureTable(recorder, RunSummaryTable, RunSummary{})
	recorder.InsertData(RunSummaryTable, s)
}

// ReadRunSummaries returns every summary in insertion order.
func ReadRunSummaries(
	ctx context.Context,
	reader DataReader,
) ([]RunSummary, error) {
	reader.MapTable(RunSummaryTable, RunSummary{})

	rows, _, err := reader.Query(ctx, RunSummaryTable,
		QueryParams{OrderBy: "rowid"})
	if err != nil {
		return nil, err
	}

	summaries := make([]RunSummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, *row.(*RunSummary))
	}

	return summaries, nil
}
