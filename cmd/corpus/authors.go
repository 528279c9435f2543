package main

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/asl7168/nlp4sg-beyond-acl/internal/authors"
	"github.com/asl7168/nlp4sg-beyond-acl/internal/ledger"
	"github.com/asl7168/nlp4sg-beyond-acl/internal/match"
)

var authorsWorkers int

func init() {
	authorsCmd.Flags().IntVar(&authorsWorkers, "workers", 0, "Parsing workers (default GOMAXPROCS)")
	rootCmd.AddCommand(authorsCmd)
}

var authorsCmd = &cobra.Command{
	Use:   "authors",
	Short: "Aggregate per-author publication records",
	Long: `Fold every matched OpenAlex work into per-author records under the
authors tree, listing each author's ACL and non-ACL papers.

Papers already in the seen ledger are skipped, so reruns over overlapping
work lists never double-count a contribution. Run after 'corpus match'.`,
	RunE: runAuthors,
}

func runAuthors(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	log := newLogger(cfg)
	st := corpusStore(cfg)

	// Refresh the work-paths ledger so works matched since the last
	// run are picked up.
	if _, err := match.WriteWorkPaths(cfg, st); err != nil {
		exitWithError(ExitError, "%v", err)
	}

	pathSet, err := ledger.ReadSet(ledger.WorkPathsPath(cfg.DatasetsPath()))
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	paths := make([]string, 0, len(pathSet))
	for p := range pathSet {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	seen, err := ledger.Open(ledger.SeenAuthorsPath(cfg.DatasetsPath()))
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	defer seen.Close()

	agg := authors.NewAggregator(authorsStore(cfg), seen, authorsWorkers, log)
	stats, err := agg.Run(cmd.Context(), paths)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	if humanOutput {
		outputHuman("Aggregated %d papers into %d author records (%d skipped, %d failed)\n",
			stats.Papers, stats.Authors, stats.Skipped, stats.Failed)
	} else {
		outputJSON(stats)
	}
	return nil
}
