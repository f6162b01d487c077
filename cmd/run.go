package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/sarchlab/rripsim/mem/cache/llc"
	"github.com/sarchlab/rripsim/mem/cache/rrip"
	"github.com/sarchlab/rripsim/monitoring"
	"github.com/sarchlab/rripsim/simulation"
)

// runChunk is the number of accesses fed between two monitor updates.
const runChunk = 4096

type runOptions struct {
	policy       string
	sets         int
	ways         int
	blockBits    uint64
	cores        int
	seed         uint32
	leaders      int
	limit        uint64
	heartbeat    uint64
	record       bool
	output       string
	pselInterval uint64
	monitor      bool
	port         int
	open         bool
	jobs         int
	logDir       string
}

func newRunCmd() *cobra.Command {
	opts := runOptions{}

	runCmd := &cobra.Command{
		Use:   "run [flags] trace...",
		Short: "Run traces through a last-level cache.",
		Long: "`run --policy drrip trace.txt` runs every trace on a fresh " +
			"cache and prints the LLC statistics of each trace followed by " +
			"the aggregate miss rate. With -j, traces run concurrently and " +
			"each writes its full report to logs/run_<trace>.log.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			return runTraces(ctx, cmd.OutOrStdout(), opts, args,
				cmd.Flags().Changed("seed"))
		},
	}

	f := runCmd.Flags()
	f.StringVar(&opts.policy, "policy", "drrip",
		"Replacement policy: lru, srrip, brrip, drrip or drrip-alt.")
	f.IntVar(&opts.sets, "sets", 2048, "Number of sets.")
	f.IntVar(&opts.ways, "ways", 16, "Way associativity.")
	f.Uint64Var(&opts.blockBits, "block-bits", 6,
		"Cache line size as a power of 2.")
	f.IntVar(&opts.cores, "cores", 1, "Number of cores sharing the cache.")
	f.Uint32Var(&opts.seed, "seed", 0,
		"Leader set seed. The preset seed is used if not set.")
	f.IntVar(&opts.leaders, "leaders", 0,
		"Leader sets per policy. The preset value is used if 0.")
	f.Uint64Var(&opts.limit, "limit", 0,
		"Maximum number of accesses per trace, 0 for no limit.")
	f.Uint64Var(&opts.heartbeat, "heartbeat", 0,
		"Print a policy heartbeat every n accesses, 0 to disable.")
	f.BoolVar(&opts.record, "record", false,
		"Record run summaries and PSEL samples into a SQLite database.")
	f.StringVar(&opts.output, "output", "",
		"Database name when recording, without extension.")
	f.Uint64Var(&opts.pselInterval, "psel-interval", 10000,
		"Policy outcomes between two recorded PSEL samples.")
	f.BoolVar(&opts.monitor, "monitor", false,
		"Serve the run state over HTTP.")
	f.IntVar(&opts.port, "port", 0, "Port of the monitoring server.")
	f.BoolVar(&opts.open, "open", false,
		"Open the monitoring page in a browser.")
	f.IntVarP(&opts.jobs, "jobs", "j", 1,
		"Number of traces to run at the same time.")
	f.StringVar(&opts.logDir, "log-dir", "logs",
		"Directory of the per-trace logs when running with -j.")

	return runCmd
}

type traceResult struct {
	trace string
	stats llc.Statistics
}

func buildSimulation(opts runOptions) *simulation.Simulation {
	b := simulation.MakeBuilder().
		WithPSELSamplingInterval(opts.pselInterval)

	if opts.monitor {
		b = b.WithMonitorPort(opts.port)
	} else {
		b = b.WithoutMonitoring()
	}

	if opts.record {
		b = b.WithOutputFileName(opts.output)
	} else {
		b = b.WithoutRecording()
	}

	return b.Build()
}

func buildCache(
	opts runOptions,
	name string,
	seedSet bool,
	heartbeatOut io.Writer,
) *llc.Cache {
	b := llc.MakeBuilder().
		WithNumSets(opts.sets).
		WithWayAssociativity(opts.ways).
		WithLog2BlockSize(opts.blockBits).
		WithNumCores(opts.cores).
		WithReplaceStrategy(opts.policy).
		WithLeaderSetSize(opts.leaders).
		WithHeartbeat(opts.heartbeat, heartbeatOut)

	if seedSet {
		b = b.WithSeed(opts.seed)
	}

	return b.Build(name)
}

func validateRunOptions(opts runOptions) error {
	if opts.policy != "lru" {
		config, err := rrip.PresetByName(opts.policy)
		if err != nil {
			return err
		}

		config.NumSets = opts.sets
		config.NumWays = opts.ways

		if opts.leaders > 0 {
			config.LeaderSetSize = opts.leaders
		}

		if err := config.Validate(); err != nil {
			return err
		}
	}

	if opts.open && !opts.monitor {
		return fmt.Errorf("--open requires --monitor")
	}

	if opts.output != "" && !opts.record {
		return fmt.Errorf("--output requires --record")
	}

	if opts.jobs < 1 {
		return fmt.Errorf("--jobs must be at least 1, got %d", opts.jobs)
	}

	return nil
}

func runTraces(
	ctx context.Context,
	w io.Writer,
	opts runOptions,
	traces []string,
	seedSet bool,
) error {
	if err := validateRunOptions(opts); err != nil {
		return err
	}

	s := buildSimulation(opts)
	defer s.Terminate()

	if opts.open {
		monitoring.OpenInBrowser(s.MonitorURL())
	}

	var (
		results []traceResult
		err     error
	)

	if opts.jobs > 1 {
		results, err = runConcurrently(ctx, w, s, opts, traces, seedSet)
	} else {
		results, err = runInOrder(ctx, w, s, opts, traces, seedSet)
	}

	if err != nil {
		return err
	}

	printSummary(w, results)

	return nil
}

func runInOrder(
	ctx context.Context,
	w io.Writer,
	s *simulation.Simulation,
	opts runOptions,
	traces []string,
	seedSet bool,
) ([]traceResult, error) {
	results := make([]traceResult, 0, len(traces))

	for i, trace := range traces {
		c := buildCache(opts, fmt.Sprintf("LLC.%d", i), seedSet, os.Stderr)
		s.RegisterCache(c)

		err := runTrace(ctx, s, c, trace, opts.limit)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", trace, err)
		}

		color.New(color.FgCyan, color.Bold).
			Fprintf(w, "Trace: %s\n", filepath.Base(trace))
		c.Report(w)

		s.RecordRunSummary(trace, c)
		results = append(results, traceResult{trace: trace, stats: c.Stats()})
	}

	return results, nil
}

type concurrentRun struct {
	trace   string
	logPath string
	log     *os.File
	cache   *llc.Cache
}

// runConcurrently runs up to opts.jobs traces at a time. Each trace writes
// its heartbeats and full report to its own log. The LLC statistics are
// printed and recorded in argument order once every trace is done.
func runConcurrently(
	ctx context.Context,
	w io.Writer,
	s *simulation.Simulation,
	opts runOptions,
	traces []string,
	seedSet bool,
) ([]traceResult, error) {
	if err := os.MkdirAll(opts.logDir, 0o755); err != nil {
		return nil, err
	}

	runs := make([]*concurrentRun, 0, len(traces))
	defer func() {
		for _, r := range runs {
			r.log.Close()
		}
	}()

	for i, logPath := range logPaths(opts.logDir, traces) {
		log, err := os.Create(logPath)
		if err != nil {
			return nil, err
		}

		c := buildCache(opts, fmt.Sprintf("LLC.%d", i), seedSet, log)
		s.RegisterCache(c)

		runs = append(runs, &concurrentRun{
			trace:   traces[i],
			logPath: logPath,
			log:     log,
			cache:   c,
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.jobs)

	for _, r := range runs {
		r := r
		g.Go(func() error {
			err := runTrace(gctx, s, r.cache, r.trace, opts.limit)
			if err != nil {
				return fmt.Errorf("%s: %w", r.trace, err)
			}

			fmt.Fprintf(r.log, "Trace: %s\n", r.trace)
			r.cache.Report(r.log)

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make([]traceResult, 0, len(runs))

	for _, r := range runs {
		color.New(color.FgCyan, color.Bold).
			Fprintf(w, "Trace: %s\n", filepath.Base(r.trace))
		fmt.Fprintf(w, "Log: %s\n", r.logPath)
		r.cache.Stats().Report(w, "LLC")

		s.RecordRunSummary(r.trace, r.cache)
		results = append(results,
			traceResult{trace: r.trace, stats: r.cache.Stats()})
	}

	return results, nil
}

// logPaths names the log of every trace run_<base>.log. A base name that
// repeats gets the argument index appended.
func logPaths(dir string, traces []string) []string {
	paths := make([]string, len(traces))
	seen := make(map[string]bool)

	for i, trace := range traces {
		base := filepath.Base(trace)
		if seen[base] {
			base = fmt.Sprintf("%s.%d", base, i)
		}

		seen[base] = true
		paths[i] = filepath.Join(dir, "run_"+base+".log")
	}

	return paths
}

func runTrace(
	ctx context.Context,
	s *simulation.Simulation,
	c *llc.Cache,
	trace string,
	limit uint64,
) error {
	f, err := os.Open(trace)
	if err != nil {
		return err
	}
	defer f.Close()

	logrus.WithFields(logrus.Fields{
		"trace":  trace,
		"policy": c.Policy().Name(),
	}).Info("Run trace")

	var bar *monitoring.ProgressBar
	if m := s.GetMonitor(); m != nil {
		bar = m.CreateProgressBar(filepath.Base(trace), limit)
		defer m.CompleteProgressBar(bar)
	}

	reader := llc.NewTraceReader(f)

	var total uint64

	for limit == 0 || total < limit {
		chunk := uint64(runChunk)
		if limit > 0 {
			chunk = min(chunk, limit-total)
		}

		s.Lock()
		n, err := llc.Run(ctx, c, reader, chunk)
		s.Unlock()

		total += n
		if bar != nil {
			bar.IncrementFinished(n)
		}

		if err != nil {
			return err
		}

		if n < chunk {
			break
		}
	}

	return nil
}

func printSummary(w io.Writer, results []traceResult) {
	var accesses, misses uint64

	rates := make([]float64, 0, len(results))
	for _, r := range results {
		accesses += r.stats.Total.Access
		misses += r.stats.Total.Miss
		rates = append(rates, r.stats.MissRate())
	}

	aggregate := 0.0
	if accesses > 0 {
		aggregate = float64(misses) / float64(accesses)
	}

	mean, stddev := 0.0, 0.0
	if len(rates) > 0 {
		mean = stat.Mean(rates, nil)
	}

	if len(rates) > 1 {
		stddev = stat.StdDev(rates, nil)
	}

	color.New(color.FgGreen, color.Bold).Fprintln(w, "Summary")
	fmt.Fprintf(w, "Traces: %d\n", len(results))
	fmt.Fprintf(w, "Total accesses: %d misses: %d\n", accesses, misses)
	fmt.Fprintf(w, "Aggregate miss rate: %.4f\n", aggregate)
	fmt.Fprintf(w, "Per-trace miss rate mean: %.4f stddev: %.4f\n",
		mean, stddev)
}
