package main

import (
	"github.com/spf13/cobra"

	"github.com/asl7168/nlp4sg-beyond-acl/internal/collate"
)

var (
	collateStart     int
	collateEnd       int
	collateThreshold float64
)

func init() {
	collatePapersCmd.Flags().IntVar(&collateStart, "start", 0, "First shard prefix (inclusive)")
	collatePapersCmd.Flags().IntVar(&collateEnd, "end", 10000, "Last shard prefix (exclusive)")
	collatePapersCmd.Flags().Float64Var(&collateThreshold, "threshold", -1, "NLP concept score cutoff (default from corpus.json)")

	collateCmd.AddCommand(collatePapersCmd)
	collateCmd.AddCommand(collateAuthorsCmd)
	collateCmd.AddCommand(collateMergeCmd)
	rootCmd.AddCommand(collateCmd)
}

var collateCmd = &cobra.Command{
	Use:   "collate",
	Short: "Flatten the corpus into CSV tables",
	Long: `Flatten the matched corpus into analysis tables: one papers row per
matched work and one authors row per aggregated author.

Large corpora are collated as per-range sub-CSVs merged afterwards with
'collate merge'. Run after 'corpus authors'.`,
}

// CollateResult is the response for collate commands.
type CollateResult struct {
	Path string `json:"path"`
	Rows int    `json:"rows,omitempty"`
}

var collatePapersCmd = &cobra.Command{
	Use:   "papers",
	Short: "Write a papers sub-CSV for a shard range",
	RunE: func(cmd *cobra.Command, args []string) error {
		if collateEnd <= collateStart {
			exitWithError(ExitError, "--end must be greater than --start")
		}
		cfg := mustLoadConfig()
		log := newLogger(cfg)
		if collateThreshold >= 0 {
			cfg.NLPThreshold = collateThreshold
		}

		out, err := collate.BuildPapersCSV(cfg, authorsStore(cfg), collateStart, collateEnd, log)
		if err != nil {
			exitWithError(ExitDataError, "%v", err)
		}

		if humanOutput {
			outputHuman("Wrote %s\n", out)
		} else {
			outputJSON(CollateResult{Path: out})
		}
		return nil
	},
}

var collateAuthorsCmd = &cobra.Command{
	Use:   "authors",
	Short: "Write authors.csv from the authors tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := mustLoadConfig()

		out, rows, err := collate.BuildAuthorsCSV(cfg, authorsStore(cfg))
		if err != nil {
			exitWithError(ExitDataError, "%v", err)
		}

		if humanOutput {
			outputHuman("Wrote %s (%d authors)\n", out, rows)
		} else {
			outputJSON(CollateResult{Path: out, Rows: rows})
		}
		return nil
	},
}

var collateMergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge papers sub-CSVs into papers.csv",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := mustLoadConfig()

		out, rows, err := collate.MergePapersCSVs(cfg)
		if err != nil {
			exitWithError(ExitDataError, "%v", err)
		}

		if humanOutput {
			outputHuman("Wrote %s (%d papers)\n", out, rows)
		} else {
			outputJSON(CollateResult{Path: out, Rows: rows})
		}
		return nil
	},
}
