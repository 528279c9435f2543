package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/asl7168/nlp4sg-beyond-acl/internal/config"
	"github.com/asl7168/nlp4sg-beyond-acl/internal/ledger"
	"github.com/asl7168/nlp4sg-beyond-acl/internal/match"
	"github.com/asl7168/nlp4sg-beyond-acl/internal/openalex"
)

var (
	matchStart     int
	matchEnd       int
	matchJob       string
	matchSkipS2ORC bool
)

func init() {
	matchCmd.Flags().IntVar(&matchStart, "start", 0, "First shard prefix (inclusive)")
	matchCmd.Flags().IntVar(&matchEnd, "end", 10000, "Last shard prefix (exclusive)")
	matchCmd.Flags().StringVar(&matchJob, "job", "", "Take the shard range from this jobs.yml entry")
	matchCmd.Flags().BoolVar(&matchSkipS2ORC, "skip-s2orc-ids", false, "Match on metadata records only, ignoring S2ORC-only papers")
	rootCmd.AddCommand(matchCmd)
}

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Link extracted papers to OpenAlex works",
	Long: `Match every unresolved paper in the shard range against OpenAlex,
trying identifiers from strongest to weakest: MAG ID, DOI, title plus
publication date, title plus year, then title alone.

Each matched work is stored next to the paper's dump records; papers
exhausting the cascade get a NOT_IN_OPENALEX marker. Progress ledgers are
per-range, so disjoint ranges may run as concurrent processes.

Requires OPENALEX_MAILTO for the polite API pool.`,
	RunE: runMatch,
}

// MatchResult is the response for the match command.
type MatchResult struct {
	Start     int `json:"start"`
	End       int `json:"end"`
	Found     int `json:"found"`
	Unfound   int `json:"unfound"`
	WorkPaths int `json:"work_paths_added"`
}

func runMatch(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	log := newLogger(cfg)

	start, end := matchStart, matchEnd
	if matchJob != "" {
		jobs, err := config.LoadJobs(config.JobsPath(cfg.Root))
		if err != nil {
			exitWithError(ExitConfigError, "%v", err)
		}
		job, ok := jobs.Find(matchJob)
		if !ok {
			exitWithError(ExitConfigError, "job %q not in jobs.yml", matchJob)
		}
		start, end = job.Start, job.End
	}
	if end <= start {
		exitWithError(ExitError, "--end must be greater than --start")
	}

	mailto := os.Getenv("OPENALEX_MAILTO")
	if mailto == "" {
		exitWithError(ExitConfigError, "OPENALEX_MAILTO is not set")
	}

	found, err := ledger.Open(ledger.FoundPath(cfg.DatasetsPath(), start, end))
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	defer found.Close()

	unfound, err := ledger.Open(ledger.UnfoundPath(cfg.DatasetsPath(), start, end))
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	defer unfound.Close()

	client := openalex.NewClient(mailto,
		openalex.WithRateLimit(cfg.RequestsPerSecond),
		openalex.WithMaxRetries(cfg.MaxRetries))

	st := corpusStore(cfg)
	m := match.NewMatcher(st, client, found, unfound, match.WithLogger(log))

	var driverOpts []match.DriverOption
	if matchSkipS2ORC {
		driverOpts = append(driverOpts, match.SkipS2ORCRecords())
	}
	driver := match.NewDriver(cfg, st, m, log, driverOpts...)

	if err := driver.Run(cmd.Context(), start, end); err != nil {
		exitWithError(ExitAPIError, "%v", err)
	}

	added, err := match.WriteWorkPaths(cfg, st)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if humanOutput {
		outputHuman("Matched shards [%d, %d): %d found, %d not in OpenAlex\n",
			start, end, found.Len(), unfound.Len())
	} else {
		outputJSON(MatchResult{
			Start:     start,
			End:       end,
			Found:     found.Len(),
			Unfound:   unfound.Len(),
			WorkPaths: added,
		})
	}
	return nil
}
