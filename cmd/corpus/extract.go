package main

import (
	"github.com/spf13/cobra"

	"github.com/asl7168/nlp4sg-beyond-acl/internal/extract"
)

var (
	extractStart        int
	extractEnd          int
	extractNoWorks      bool
	extractBatchSize    int
	extractDeleteShards bool
)

func init() {
	extractS2ORCCmd.Flags().IntVar(&extractStart, "start", 0, "First dump shard index (inclusive)")
	extractS2ORCCmd.Flags().IntVar(&extractEnd, "end", 0, "Last dump shard index (exclusive)")
	extractS2ORCCmd.Flags().BoolVar(&extractNoWorks, "no-works", false, "Write empty placeholders instead of full S2ORC records")
	extractS2ORCCmd.MarkFlagRequired("end")

	extractPapersCmd.Flags().IntVar(&extractStart, "start", 0, "First dump shard index (inclusive)")
	extractPapersCmd.Flags().IntVar(&extractEnd, "end", 0, "Last dump shard index (exclusive, 0 = all)")
	extractPapersCmd.Flags().IntVar(&extractBatchSize, "batch-size", 0, "Store write batch size (default from corpus.json)")

	extractCmd.PersistentFlags().BoolVar(&extractDeleteShards, "delete-shards", false, "Remove dump shard files after processing")
	extractCmd.AddCommand(extractS2ORCCmd)
	extractCmd.AddCommand(extractPapersCmd)
	rootCmd.AddCommand(extractCmd)
}

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract dump records into the partitioned corpus",
	Long: `Extract downloaded dump shards into per-paper directories under the
subcorpus_a (ACL) and subcorpus_c partition trees.

Extraction is idempotent: records whose files already exist are skipped,
and rerunning a shard range after an interruption is always safe.`,
}

var extractS2ORCCmd = &cobra.Command{
	Use:   "s2orc",
	Short: "Extract S2ORC full-text records",
	Long: `Extract the S2ORC dump shards in [--start, --end) and append every
newly seen corpus ID to the ACL or non-ACL corpus-ID ledger.

Disjoint shard ranges may run concurrently as separate processes; declare
them in jobs.yml and check with 'corpus jobs validate'.`,
	RunE: runExtractS2ORC,
}

var extractPapersCmd = &cobra.Command{
	Use:   "papers",
	Short: "Extract Papers metadata records",
	Long: `Extract Papers dump shards into per-paper metadata files. Papers
absent from the S2ORC pass are recorded in the missing-from-S2ORC ledger
and still extracted. Run after 'extract s2orc' completes.`,
	RunE: runExtractPapers,
}

// ExtractResult is the response for extract commands.
type ExtractResult struct {
	Dataset string        `json:"dataset"`
	Stats   extract.Stats `json:"stats"`
}

func runExtractS2ORC(cmd *cobra.Command, args []string) error {
	if extractEnd <= extractStart {
		exitWithError(ExitError, "--end must be greater than --start")
	}

	cfg := mustLoadConfig()
	log := newLogger(cfg)

	opts := extract.S2ORCOptions{
		Start:        extractStart,
		End:          extractEnd,
		ExtractWorks: !extractNoWorks,
		DeleteShards: extractDeleteShards,
	}
	stats, err := extract.ExtractS2ORC(cfg, corpusStore(cfg), opts, log)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	if humanOutput {
		outputHuman("Extracted %d records from %d shards (%d skipped, %d failed)\n",
			stats.Written, stats.Shards, stats.Skipped, stats.Failed)
	} else {
		outputJSON(ExtractResult{Dataset: "s2orc", Stats: stats})
	}
	return nil
}

func runExtractPapers(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	log := newLogger(cfg)

	opts := extract.PapersOptions{
		Start:        extractStart,
		End:          extractEnd,
		BatchSize:    extractBatchSize,
		DeleteShards: extractDeleteShards,
	}
	stats, err := extract.ExtractPapers(cfg, corpusStore(cfg), opts, log)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	if humanOutput {
		outputHuman("Extracted %d records from %d shards (%d failed)\n",
			stats.Written, stats.Shards, stats.Failed)
	} else {
		outputJSON(ExtractResult{Dataset: "papers", Stats: stats})
	}
	return nil
}
